// Package report summarizes an evaluation run as a console table, a JSON document and
// robustness histograms.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/grasp/grasping"
	"go.viam.com/grasp/robustness"
	"go.viam.com/grasp/transform"
)

// Vector is a JSON friendly point in millimetres.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Grasp is the report entry of one evaluated grasp.
type Grasp struct {
	Object       string             `json:"object"`
	GraspSet     string             `json:"grasp_set"`
	Name         string             `json:"name"`
	EndEffector  string             `json:"end_effector"`
	Preshape     string             `json:"preshape,omitempty"`
	TCPPosition  Vector             `json:"tcp_position"`
	Approach     Vector             `json:"approach"`
	Contacts     int                `json:"contacts"`
	Quality      float64            `json:"quality"`
	ForceClosure bool               `json:"force_closure"`
	Robustness   robustness.Results `json:"robustness"`
}

// Problem is an object or grasp that was not evaluated.
type Problem struct {
	Object   string `json:"object"`
	GraspSet string `json:"grasp_set,omitempty"`
	Grasp    string `json:"grasp,omitempty"`
	Error    string `json:"error"`
}

// Report is the outcome of one run.
type Report struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Scene     string    `json:"scene"`
	Robot     string    `json:"robot"`
	Grasps    []Grasp   `json:"grasps"`
	Skipped   []Problem `json:"skipped,omitempty"`
	Failures  []Problem `json:"failures,omitempty"`
}

// New builds the report of a run. rr may be nil when the run never started.
func New(sceneName, robotType string, a grasping.Association, rr *grasping.RunResult) *Report {
	r := &Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Scene:     sceneName,
		Robot:     robotType,
		Grasps:    []Grasp{},
	}
	r.Skipped = lo.Map(a.Skipped, func(s grasping.SkippedObject, _ int) Problem {
		return Problem{Object: s.Name, Error: s.Err.Error()}
	})
	if rr == nil {
		return r
	}
	r.Grasps = lo.Map(rr.Grasps, func(g grasping.GraspResult, _ int) Grasp {
		p := transform.Position(g.TCPPose)
		return Grasp{
			Object:       g.Object,
			GraspSet:     g.GraspSet,
			Name:         g.Grasp,
			EndEffector:  g.EndEffector,
			Preshape:     g.Preshape,
			TCPPosition:  Vector{p.X, p.Y, p.Z},
			Approach:     Vector{g.Approach.X, g.Approach.Y, g.Approach.Z},
			Contacts:     len(g.Contacts),
			Quality:      g.Quality,
			ForceClosure: g.ForceClosure,
			Robustness:   g.Robustness,
		}
	})
	r.Failures = lo.Map(rr.Failures, func(f grasping.GraspFailure, _ int) Problem {
		return Problem{Object: f.Object, GraspSet: f.GraspSet, Grasp: f.Grasp, Error: f.Err.Error()}
	})
	return r
}

// Encode writes the report as indented JSON.
func (r *Report) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteFile writes the report as JSON to path.
func (r *Report) WriteFile(path string) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating report")
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return r.Encode(f)
}

// Read decodes a report written by Encode.
func Read(rd io.Reader) (*Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decoding report")
	}
	return &r, nil
}

// String renders the summary table.
func (r *Report) String() string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s / %s", r.Scene, r.Robot))
	t.AppendHeader(table.Row{"#", "Object", "Grasp", "EEF", "Contacts", "Quality", "FC", "Robust FC", "Avg Q", "Collisions"})
	for i, g := range r.Grasps {
		t.AppendRow(table.Row{
			i + 1,
			g.Object,
			g.Name,
			g.EndEffector,
			g.Contacts,
			fmt.Sprintf("%.4f", g.Quality),
			lo.Ternary(g.ForceClosure, "yes", "no"),
			fmt.Sprintf("%.1f%%", 100*g.Robustness.ForceClosureRate),
			fmt.Sprintf("%.4f", g.Robustness.AvgQuality),
			fmt.Sprintf("%d/%d", g.Robustness.NumColPoses, g.Robustness.NumPosesTested),
		})
	}
	fc := lo.CountBy(r.Grasps, func(g Grasp) bool { return g.ForceClosure })
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d grasps", len(r.Grasps)), "", "", "", fmt.Sprintf("%d FC", fc)})
	return t.Render()
}

// Print writes the summary table followed by the skipped objects and failed grasps.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, r.String())
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "skipped %s: %s\n", s.Object, s.Error)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "failed %s/%s: %s\n", f.Object, f.Grasp, f.Error)
	}
}
