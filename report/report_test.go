package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/grasp/grasping"
	"go.viam.com/grasp/robot"
	"go.viam.com/grasp/robustness"
	"go.viam.com/grasp/transform"
)

func sampleRun() (grasping.Association, *grasping.RunResult) {
	a := grasping.Association{Skipped: []grasping.SkippedObject{
		{Name: "mug", GraspFile: "grasps/mug_grasp.xml", Err: errors.New("data file not found")},
	}}
	rr := &grasping.RunResult{
		Grasps: []grasping.GraspResult{{
			Object:       "box",
			GraspSet:     "Benchmark_Layout_0",
			Grasp:        "Grasp 0",
			EndEffector:  "Gripper",
			Preshape:     "Grasp Preshape",
			TCPPose:      transform.Translation(r3.Vector{X: 500, Z: 100}),
			Approach:     r3.Vector{Y: -1},
			Contacts:     make([]robot.ContactInfo, 4),
			Quality:      0.42,
			ForceClosure: true,
			Robustness: robustness.Results{
				NumPosesTested:   4,
				NumValidPoses:    3,
				NumColPoses:      1,
				NumForceClosure:  2,
				ForceClosureRate: 2.0 / 3,
				Qualities:        []float64{0.4, 0, 0.3, 0.5},
			},
		}},
		Failures: []grasping.GraspFailure{{
			Object:   "cube",
			GraspSet: "Legacy",
			Grasp:    "Legacy Grasp",
			Err:      robot.NewEndEffectorNotFoundError("Left Hand", "ParallelGripper"),
		}},
	}
	return a, rr
}

func TestNew(t *testing.T) {
	a, rr := sampleRun()
	r := New("Benchmark_Layout_0", "ParallelGripper", a, rr)
	_, err := uuid.Parse(r.RunID)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(r.Grasps), test.ShouldEqual, 1)
	test.That(t, r.Grasps[0].TCPPosition, test.ShouldResemble, Vector{500, 0, 100})
	test.That(t, r.Grasps[0].Contacts, test.ShouldEqual, 4)
	test.That(t, r.Skipped, test.ShouldResemble, []Problem{{Object: "mug", Error: "data file not found"}})
	test.That(t, r.Failures[0].Error, test.ShouldContainSubstring, `"Left Hand" not found`)

	other := New("Benchmark_Layout_0", "ParallelGripper", a, rr)
	test.That(t, other.RunID, test.ShouldNotEqual, r.RunID)

	empty := New("Empty", "ParallelGripper", grasping.Association{}, nil)
	test.That(t, empty.Grasps, test.ShouldBeEmpty)
	test.That(t, empty.Failures, test.ShouldBeEmpty)
}

func TestWriteFile(t *testing.T) {
	a, rr := sampleRun()
	r := New("Benchmark_Layout_0", "ParallelGripper", a, rr)
	path := filepath.Join(t.TempDir(), "report.json")
	test.That(t, r.WriteFile(path), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, `"force_closure": true`)
	test.That(t, string(data), test.ShouldContainSubstring, `"num_col_poses": 1`)

	back, err := Read(bytes.NewReader(data))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.RunID, test.ShouldEqual, r.RunID)
	test.That(t, back.Grasps[0].Robustness.Qualities, test.ShouldResemble, []float64{0.4, 0, 0.3, 0.5})

	test.That(t, r.WriteFile(filepath.Join(t.TempDir(), "missing", "report.json")), test.ShouldNotBeNil)
	_, err = Read(bytes.NewBufferString("{"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPrint(t *testing.T) {
	a, rr := sampleRun()
	var buf bytes.Buffer
	New("Benchmark_Layout_0", "ParallelGripper", a, rr).Print(&buf)
	out := buf.String()
	test.That(t, out, test.ShouldContainSubstring, "Benchmark_Layout_0 / ParallelGripper")
	test.That(t, out, test.ShouldContainSubstring, "Grasp 0")
	test.That(t, out, test.ShouldContainSubstring, "0.4200")
	test.That(t, out, test.ShouldContainSubstring, "1/4")
	test.That(t, out, test.ShouldContainSubstring, "skipped mug")
	test.That(t, out, test.ShouldContainSubstring, "failed cube/Legacy Grasp")
}

func TestPlotHistograms(t *testing.T) {
	a, rr := sampleRun()
	rr.Grasps = append(rr.Grasps, grasping.GraspResult{Object: "cube", GraspSet: "Benchmark_Layout_0", Grasp: "Top Grasp"})
	r := New("Benchmark_Layout_0", "ParallelGripper", a, rr)

	dir := t.TempDir()
	written, err := r.PlotHistograms(dir, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, written, test.ShouldResemble, []string{filepath.Join(dir, "box_Benchmark_Layout_0_Grasp_0.png")})
	info, err := os.Stat(written[0])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)
}
