package grasping

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
	"go.viam.com/test"

	"go.viam.com/grasp/transform"
	"go.viam.com/grasp/utils"
)

func testDataPaths() utils.DataPaths {
	return utils.DataPaths{utils.ResolveFile("data")}
}

func TestLoadInputs(t *testing.T) {
	logger := logging.NewTestLogger(t)

	in := LoadInputs(testDataPaths(), "scenes/benchmark_scene.xml", "", logger)
	test.That(t, in.SceneErr, test.ShouldBeNil)
	test.That(t, in.RobotErr, test.ShouldBeNil)
	test.That(t, in.Robot.Type, test.ShouldEqual, "ParallelGripper")
	test.That(t, Preflight(in), test.ShouldBeNil)

	in = LoadInputs(testDataPaths(), "scenes/single_object_scene.xml", "", logger)
	test.That(t, in.Scene, test.ShouldNotBeNil)
	test.That(t, in.Robot, test.ShouldBeNil)
	test.That(t, in.RobotErr, test.ShouldNotBeNil)
	test.That(t, Preflight(in), test.ShouldBeError, ErrNoRobot)

	in = LoadInputs(testDataPaths(), "scenes/single_object_scene.xml", "robots/parallel_gripper.xml", logger)
	test.That(t, Preflight(in), test.ShouldBeNil)
}

func TestPreflightFatal(t *testing.T) {
	logger := logging.NewTestLogger(t)

	in := LoadInputs(testDataPaths(), "scenes/no_such_scene.xml", "robots/parallel_gripper.xml", logger)
	test.That(t, in.SceneErr, test.ShouldNotBeNil)
	test.That(t, errors.Is(in.SceneErr, utils.ErrDataFileNotFound), test.ShouldBeTrue)
	test.That(t, in.Robot, test.ShouldNotBeNil)
	test.That(t, Preflight(in), test.ShouldBeError, ErrNoScene)

	in = LoadInputs(testDataPaths(), "scenes/empty_scene.xml", "robots/parallel_gripper.xml", logger)
	test.That(t, in.Scene, test.ShouldNotBeNil)
	test.That(t, Preflight(in), test.ShouldBeError, ErrNoObjects)
}

func TestGraspFileName(t *testing.T) {
	test.That(t, GraspFileName("grasps", "box"), test.ShouldEqual, "grasps/box_grasp.xml")
	test.That(t, GraspFileName("grasps/", "box"), test.ShouldEqual, "grasps/box_grasp.xml")
	test.That(t, GraspFileName("", "box"), test.ShouldEqual, "box_grasp.xml")
}

func TestAssociate(t *testing.T) {
	logger := logging.NewTestLogger(t)
	in := LoadInputs(testDataPaths(), "scenes/benchmark_scene.xml", "", logger)
	test.That(t, Preflight(in), test.ShouldBeNil)

	a := Associate(in.Scene, "grasps", testDataPaths(), logger)
	test.That(t, a.Names(), test.ShouldResemble, []string{"box", "cube"})

	skipped := map[string]error{}
	for _, s := range a.Skipped {
		skipped[s.Name] = s.Err
	}
	test.That(t, len(skipped), test.ShouldEqual, 4)
	test.That(t, errors.Is(skipped["mug"], utils.ErrDataFileNotFound), test.ShouldBeTrue)
	test.That(t, skipped["broken"], test.ShouldNotBeNil)
	test.That(t, errors.Is(skipped["ball"], ErrNoSceneGraspSet), test.ShouldBeTrue)
	test.That(t, errors.Is(skipped["plate"], ErrNoSceneGraspSet), test.ShouldBeTrue)
	test.That(t, a.Err(), test.ShouldNotBeNil)

	// grasp-file objects take the pose of their scene counterpart
	for _, obj := range a.Worklist {
		so := in.Scene.ManipulationObject(obj.Name())
		test.That(t, transform.AlmostEqual(obj.GlobalPose(), so.GlobalPose(), 1e-9), test.ShouldBeTrue)
	}
	test.That(t, a.Worklist[1].Shape(), test.ShouldNotBeNil)
}

func TestAssociateAllFound(t *testing.T) {
	logger := logging.NewTestLogger(t)
	in := LoadInputs(testDataPaths(), "scenes/single_object_scene.xml", "robots/parallel_gripper.xml", logger)
	a := Associate(in.Scene, "grasps", testDataPaths(), logger)
	test.That(t, a.Names(), test.ShouldResemble, []string{"box"})
	test.That(t, a.Skipped, test.ShouldBeEmpty)
	test.That(t, a.Err(), test.ShouldBeNil)
}
