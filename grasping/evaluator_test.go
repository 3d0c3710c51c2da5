package grasping

import (
	"bytes"
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.viam.com/rdk/logging"
	"go.viam.com/test"

	"go.viam.com/grasp/robot"
	"go.viam.com/grasp/transform"
	"go.viam.com/grasp/visualization"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Robustness.Samples = 20
	opts.Quality.Directions = 200
	opts.Quality.ObjectSamples = 120
	return opts
}

type fixture struct {
	in  Inputs
	a   Association
	acc *visualization.Accumulator
	out *bytes.Buffer
	e   *Evaluator
}

func newFixture(t *testing.T, scenePath, robotPath string, opts Options) *fixture {
	t.Helper()
	logger := logging.NewTestLogger(t)
	f := &fixture{out: &bytes.Buffer{}}
	f.in = LoadInputs(testDataPaths(), scenePath, robotPath, logger)
	test.That(t, Preflight(f.in), test.ShouldBeNil)
	f.a = Associate(f.in.Scene, "grasps", testDataPaths(), logger)
	f.acc = visualization.NewAccumulator(visualization.NewArena())
	f.e = NewEvaluator(f.in.Robot, f.acc, opts, f.out, logger)
	return f
}

func TestEvaluateSingleObject(t *testing.T) {
	f := newFixture(t, "scenes/single_object_scene.xml", "robots/parallel_gripper.xml", testOptions())
	rr, err := f.e.Run(context.Background(), f.a.Worklist)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rr.Failures, test.ShouldBeEmpty)
	test.That(t, len(rr.Grasps), test.ShouldEqual, 1)

	res := rr.Grasps[0]
	test.That(t, res.Object, test.ShouldEqual, "box")
	test.That(t, res.Grasp, test.ShouldEqual, "Grasp 0")
	test.That(t, res.EndEffector, test.ShouldEqual, "Gripper")
	test.That(t, len(res.Contacts), test.ShouldEqual, 4)
	test.That(t, res.ForceClosure, test.ShouldBeTrue)
	test.That(t, res.Quality, test.ShouldBeGreaterThan, 0)
	test.That(t, res.Quality, test.ShouldBeLessThanOrEqualTo, 1)
	test.That(t, res.Robustness.NumPosesTested, test.ShouldEqual, 20)
	test.That(t, len(res.Robustness.Qualities), test.ShouldEqual, 20)
	test.That(t, rr.ForceClosureCount(), test.ShouldEqual, 1)
	test.That(t, rr.Err(), test.ShouldBeNil)

	// the grasp places the TCP on the object origin
	test.That(t, transform.AlmostEqual(res.TCPPose, f.a.Worklist[0].GlobalPose(), 1e-9), test.ShouldBeTrue)
	test.That(t, rr.LastClone, test.ShouldEqual, res.Clone)
	test.That(t, rr.LastClone, test.ShouldNotEqual, f.in.Robot)

	test.That(t, f.acc.GraspCount(), test.ShouldEqual, 1)
	test.That(t, f.acc.Arena().Children(f.acc.GraspsNode()), test.ShouldResemble, []visualization.Node{res.Node})

	out := f.out.String()
	test.That(t, out, test.ShouldContainSubstring, "End effectors: [Gripper]")
	test.That(t, out, test.ShouldContainSubstring, "Evaluating grasps for box")
	test.That(t, out, test.ShouldContainSubstring, "Grasp set Benchmark_Layout_0: [Grasp 0]")
	test.That(t, out, test.ShouldContainSubstring, "in force closure")
	test.That(t, out, test.ShouldContainSubstring, "Quality:")
	test.That(t, out, test.ShouldContainSubstring, "Robustness analysis")
}

func TestEvaluateLeavesRobotUntouched(t *testing.T) {
	f := newFixture(t, "scenes/benchmark_scene.xml", "robots/parallel_gripper.xml", testOptions())
	before := f.in.Robot.JointValues()
	pose := f.in.Robot.GlobalPose()
	rr, err := f.e.Run(context.Background(), f.a.Worklist)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lo.ContainsBy(rr.Grasps, func(r GraspResult) bool { return r.Preshape == "Pinch Preshape" }), test.ShouldBeTrue)
	test.That(t, f.in.Robot.JointValues(), test.ShouldResemble, before)
	test.That(t, f.in.Robot.GlobalPose(), test.ShouldResemble, pose)
}

func TestEvaluateNormalizesOnce(t *testing.T) {
	f := newFixture(t, "scenes/single_object_scene.xml", "robots/parallel_gripper.xml", testOptions())
	first, err := f.e.Run(context.Background(), f.a.Worklist)
	test.That(t, err, test.ShouldBeNil)
	g := f.a.Worklist[0].AllGraspSets()[0].Grasp(0)
	test.That(t, g.Normalized(), test.ShouldBeTrue)
	stored := g.Transformation()

	second, err := f.e.Run(context.Background(), f.a.Worklist)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Transformation(), test.ShouldResemble, stored)
	test.That(t, transform.AlmostEqual(first.Grasps[0].TCPPose, second.Grasps[0].TCPPose, 1e-9), test.ShouldBeTrue)
	test.That(t, second.Grasps[0].Quality, test.ShouldAlmostEqual, first.Grasps[0].Quality)
	test.That(t, f.acc.GraspCount(), test.ShouldEqual, 2)
}

func TestEvaluateMissingEndEffector(t *testing.T) {
	f := newFixture(t, "scenes/benchmark_scene.xml", "", testOptions())
	test.That(t, f.a.Names(), test.ShouldResemble, []string{"box", "cube"})

	rr, err := f.e.Run(context.Background(), f.a.Worklist)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(rr.Grasps), test.ShouldEqual, 3)
	test.That(t, len(rr.Failures), test.ShouldEqual, 1)

	fail := rr.Failures[0]
	test.That(t, fail.Object, test.ShouldEqual, "cube")
	test.That(t, fail.GraspSet, test.ShouldEqual, "Legacy")
	test.That(t, fail.Grasp, test.ShouldEqual, "Legacy Grasp")
	var lookup *robot.LookupError
	test.That(t, errors.As(fail.Err, &lookup), test.ShouldBeTrue)
	test.That(t, lookup.Name, test.ShouldEqual, "Left Hand")
	test.That(t, rr.Err(), test.ShouldNotBeNil)
	test.That(t, f.acc.GraspCount(), test.ShouldEqual, 3)
}

func TestEvaluateFailFast(t *testing.T) {
	opts := testOptions()
	opts.FailFast = true
	f := newFixture(t, "scenes/benchmark_scene.xml", "", opts)

	rr, err := f.e.Run(context.Background(), f.a.Worklist)
	var lookup *robot.LookupError
	test.That(t, errors.As(err, &lookup), test.ShouldBeTrue)
	test.That(t, len(rr.Grasps), test.ShouldEqual, 3)
	test.That(t, len(rr.Failures), test.ShouldEqual, 1)
}

func TestEvaluateCancelled(t *testing.T) {
	f := newFixture(t, "scenes/single_object_scene.xml", "robots/parallel_gripper.xml", testOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rr, err := f.e.Run(ctx, f.a.Worklist)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, rr.Grasps, test.ShouldBeEmpty)
	test.That(t, f.acc.GraspCount(), test.ShouldEqual, 0)
}

func TestEEFRobotClone(t *testing.T) {
	f := newFixture(t, "scenes/single_object_scene.xml", "robots/parallel_gripper.xml", testOptions())
	eef, err := f.in.Robot.EndEffector("Gripper")
	test.That(t, err, test.ShouldBeNil)
	before := f.in.Robot.JointValues()

	approach := NewSurfaceNormalApproach(f.a.Worklist[0], eef)
	clone, ceef, err := approach.EEFRobotClone("Pinch Preshape")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, clone, test.ShouldNotEqual, f.in.Robot)
	test.That(t, ceef.Preshape(), test.ShouldEqual, "Pinch Preshape")
	n, err := clone.Node("Finger 1 Joint")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n.Value(), test.ShouldAlmostEqual, 20)
	test.That(t, f.in.Robot.JointValues(), test.ShouldResemble, before)
	test.That(t, eef.Preshape(), test.ShouldEqual, "")

	// an empty preshape keeps the robot's joint state, not the previous clone's
	plain, pceef, err := approach.EEFRobotClone("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pceef.Preshape(), test.ShouldEqual, "")
	n, err = plain.Node("Finger 1 Joint")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n.Value(), test.ShouldAlmostEqual, 0)

	_, _, err = approach.EEFRobotClone("Power Preshape")
	var le *robot.LookupError
	test.That(t, errors.As(err, &le), test.ShouldBeTrue)

	// a TCP beside the box, past its +x face, approaches along -x
	obj := f.a.Worklist[0]
	beside := obj.GlobalPose().Mul4(transform.Translation(r3.Vector{X: 80}))
	dir := approach.ApproachDirection(beside)
	test.That(t, dir.X, test.ShouldAlmostEqual, -1)
	test.That(t, dir.Y, test.ShouldAlmostEqual, 0)
	test.That(t, dir.Z, test.ShouldAlmostEqual, 0)
}
