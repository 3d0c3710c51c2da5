package report

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// HistogramFileName is the file PlotHistograms writes for one grasp.
func HistogramFileName(g Grasp) string {
	return unsafeFileChars.ReplaceAllString(fmt.Sprintf("%s_%s_%s", g.Object, g.GraspSet, g.Name), "_") + ".png"
}

// PlotHistograms writes one histogram of the perturbed-pose qualities per grasp into dir and
// returns the written paths. Grasps without tested poses are skipped.
func (r *Report) PlotHistograms(dir string, bins int) ([]string, error) {
	var written []string
	for _, g := range r.Grasps {
		if len(g.Robustness.Qualities) == 0 {
			continue
		}
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s: %s", g.Object, g.Name)
		p.X.Label.Text = "quality"
		p.Y.Label.Text = "poses"

		h, err := plotter.NewHist(plotter.Values(g.Robustness.Qualities), bins)
		if err != nil {
			return written, errors.Wrapf(err, "histogram of %q", g.Name)
		}
		p.Add(h)

		path := filepath.Join(dir, HistogramFileName(g))
		if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return written, errors.Wrapf(err, "saving %s", path)
		}
		written = append(written, path)
	}
	return written, nil
}
