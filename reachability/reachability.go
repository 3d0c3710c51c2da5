// Package reachability scores how closely a robot reached the benchmark target frames of a
// layout, averaged per workspace region.
package reachability

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/grasp/scene"
	"go.viam.com/grasp/transform"
	"go.viam.com/grasp/utils"
)

var frameName = regexp.MustCompile(`^Reachable_frame[0-3][0-3]$`)

// ErrUnknownLayout is returned for layouts without a target file.
var ErrUnknownLayout = errors.New("no reachability targets for layout")

var layoutTargets = map[string]string{
	"Benchmark_Layout_0": "scenes/reachability/reachability_scene_1.xml",
	"Benchmark_Layout_1": "scenes/reachability/reachability_scene_2.xml",
	"Benchmark_Layout_2": "scenes/reachability/reachability_scene_2.xml",
}

// TargetFile returns the data file holding the target frames of a layout.
func TargetFile(layout string) (string, error) {
	f, ok := layoutTargets[layout]
	if !ok {
		return "", errors.Wrapf(ErrUnknownLayout, "%q", layout)
	}
	return f, nil
}

// Frames is a set of named poses belonging to one layout.
type Frames struct {
	Layout string
	Poses  map[string]mgl64.Mat4
}

// Names returns the frame names in order.
func (f Frames) Names() []string {
	names := make([]string, 0, len(f.Poses))
	for n := range f.Poses {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadFrames reads the Reachable_frameXY objects of a scene file. Other objects are ignored.
func LoadFrames(path string) (Frames, error) {
	sc, err := scene.Load(path)
	if err != nil {
		return Frames{}, err
	}
	f := Frames{Layout: sc.Name, Poses: map[string]mgl64.Mat4{}}
	for _, o := range sc.ManipulationObjects() {
		if frameName.MatchString(o.Name()) {
			f.Poses[o.Name()] = o.GlobalPose()
		}
	}
	return f, nil
}

// Region is a band of the workspace selected by the y coordinate of the target, bounds
// included.
type Region struct {
	Name       string
	MinY, MaxY float64
}

// Contains reports whether the target position lies in the region.
func (r Region) Contains(p mgl64.Mat4) bool {
	y := transform.Position(p).Y
	return y >= r.MinY && y <= r.MaxY
}

// DefaultRegions splits the benchmark table into three bands.
func DefaultRegions() []Region {
	return []Region{
		{Name: "s0_1", MinY: 0, MaxY: 123.33},
		{Name: "s0_2", MinY: 123.33, MaxY: 246.66},
		{Name: "s0_3", MinY: 246.66, MaxY: 370},
	}
}

// RotationError is the angle of the rotation taking reached onto desired, in radians.
func RotationError(desired, reached mgl64.Mat4) float64 {
	rd := desired.Mat3()
	rr := reached.Mat3()
	q := mgl64.Mat4ToQuat(rd.Mul3(rr.Transpose()).Mat4()).Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	n := quat.Log(quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]})
	return 2 * quat.Abs(n)
}

// PoseError is the distance between the two positions in millimetres plus the sine of the
// rotation error.
func PoseError(desired, reached mgl64.Mat4) float64 {
	d := transform.Position(desired).Sub(transform.Position(reached)).Norm()
	return d + math.Sin(RotationError(desired, reached))
}

// RegionScore is the mean pose error over the targets of one region.
type RegionScore struct {
	Region Region
	Score  float64
	Poses  int
}

// Result holds the scores of a layout.
type Result struct {
	Layout  string
	Regions []RegionScore
	// Missing lists targets the reached file has no pose for.
	Missing []string
}

// Score compares the reached frames with the desired ones per region. Targets without a
// reached counterpart are listed as missing and left out of the scores. A region without
// targets scores 0.
func Score(desired, reached Frames, regions []Region) Result {
	res := Result{Layout: desired.Layout}
	sums := make([]float64, len(regions))
	counts := make([]int, len(regions))
	for _, name := range desired.Names() {
		want := desired.Poses[name]
		got, ok := reached.Poses[name]
		if !ok {
			res.Missing = append(res.Missing, name)
			continue
		}
		e := PoseError(want, got)
		for i, r := range regions {
			if r.Contains(want) {
				sums[i] += e
				counts[i]++
			}
		}
	}
	for i, r := range regions {
		rs := RegionScore{Region: r, Poses: counts[i]}
		if counts[i] > 0 {
			rs.Score = sums[i] / float64(counts[i])
		}
		res.Regions = append(res.Regions, rs)
	}
	return res
}

// Evaluate loads the reached frames from reachedPath and scores them against desiredPath, or
// against the target file of the reached layout resolved on paths when desiredPath is empty.
func Evaluate(paths utils.DataPaths, reachedPath, desiredPath string, regions []Region) (Result, error) {
	reached, err := LoadFrames(reachedPath)
	if err != nil {
		return Result{}, errors.Wrap(err, "loading reached poses")
	}
	if desiredPath == "" {
		if desiredPath, err = TargetFile(reached.Layout); err != nil {
			return Result{}, err
		}
	}
	resolved, err := paths.Resolve(desiredPath)
	if err != nil {
		return Result{}, err
	}
	desired, err := LoadFrames(resolved)
	if err != nil {
		return Result{}, errors.Wrap(err, "loading target poses")
	}
	res := Score(desired, reached, regions)
	res.Layout = reached.Layout
	return res, nil
}

// Print writes the region scores as a table.
func (r Result) Print(w io.Writer) {
	t := table.NewWriter()
	t.SetTitle("Reachability scores: " + r.Layout)
	t.AppendHeader(table.Row{"Region", "Y range", "Poses", "Score"})
	for _, rs := range r.Regions {
		t.AppendRow(table.Row{
			rs.Region.Name,
			fmt.Sprintf("[%.2f, %.2f]", rs.Region.MinY, rs.Region.MaxY),
			rs.Poses,
			fmt.Sprintf("%.4f", rs.Score),
		})
	}
	fmt.Fprintln(w, t.Render())
	for _, m := range r.Missing {
		fmt.Fprintf(w, "no reached pose for %s\n", m)
	}
}
