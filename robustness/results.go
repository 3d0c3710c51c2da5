package robustness

import (
	"fmt"
	"io"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Results aggregates the evaluation of perturbed poses. Quality statistics cover collision-free
// poses only.
type Results struct {
	NumPosesTested   int     `json:"num_poses_tested"`
	NumValidPoses    int     `json:"num_valid_poses"`
	NumColPoses      int     `json:"num_col_poses"`
	NumForceClosure  int     `json:"num_force_closure"`
	AvgQuality       float64 `json:"avg_quality"`
	ForceClosureRate float64 `json:"force_closure_rate"`
	MedianQuality    float64 `json:"median_quality"`
	P10Quality       float64 `json:"p10_quality"`
	P90Quality       float64 `json:"p90_quality"`
	StdDevQuality    float64 `json:"stddev_quality"`
	// Qualities holds one value per tested pose, 0 for poses in collision.
	Qualities []float64 `json:"qualities,omitempty"`
}

func (r *Results) summarize(valid []float64) {
	if len(valid) == 0 {
		return
	}
	r.AvgQuality = stat.Mean(valid, nil)
	r.ForceClosureRate = float64(r.NumForceClosure) / float64(r.NumValidPoses)
	if len(valid) > 1 {
		r.StdDevQuality = stat.StdDev(valid, nil)
	}
	data := stats.LoadRawData(valid)
	if v, err := data.Median(); err == nil {
		r.MedianQuality = v
	}
	if v, err := data.Percentile(10); err == nil {
		r.P10Quality = v
	}
	if v, err := data.Percentile(90); err == nil {
		r.P90Quality = v
	}
}

// CollisionRate is the fraction of tested poses that started in collision.
func (r Results) CollisionRate() float64 {
	if r.NumPosesTested == 0 {
		return 0
	}
	return float64(r.NumColPoses) / float64(r.NumPosesTested)
}

// Print writes a human readable summary.
func (r Results) Print(w io.Writer) {
	fmt.Fprintf(w, "Robustness analysis\n")
	fmt.Fprintf(w, "  Poses tested:                       %d\n", r.NumPosesTested)
	fmt.Fprintf(w, "  Valid poses (no initial collision): %d\n", r.NumValidPoses)
	fmt.Fprintf(w, "  Initially in collision:             %d (%.2f%%)\n", r.NumColPoses, 100*r.CollisionRate())
	fmt.Fprintf(w, "  Force closure (valid poses):        %d (%.2f%%)\n", r.NumForceClosure, 100*r.ForceClosureRate)
	fmt.Fprintf(w, "  Avg quality (valid poses):          %.4f\n", r.AvgQuality)
	fmt.Fprintf(w, "  Quality median / p10 / p90:         %.4f / %.4f / %.4f\n", r.MedianQuality, r.P10Quality, r.P90Quality)
	fmt.Fprintf(w, "  Quality std dev:                    %.4f\n", r.StdDevQuality)
}
