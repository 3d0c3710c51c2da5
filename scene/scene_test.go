package scene

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/grasp/transform"
	"go.viam.com/grasp/utils"
)

func TestLoadBenchmarkScene(t *testing.T) {
	s, err := Load(utils.ResolveFile("data/scenes/benchmark_scene.xml"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Name, test.ShouldEqual, "Benchmark_Layout_0")
	test.That(t, s.RobotFile, test.ShouldEqual, "robots/parallel_gripper.xml")

	names := []string{}
	for _, o := range s.ManipulationObjects() {
		names = append(names, o.Name())
	}
	test.That(t, names, test.ShouldResemble, []string{"box", "ball", "mug", "broken", "plate", "cube"})

	box := s.ManipulationObject("box")
	test.That(t, box, test.ShouldNotBeNil)
	test.That(t, box.Shape(), test.ShouldNotBeNil)
	test.That(t, transform.Position(box.GlobalPose()), test.ShouldResemble, r3.Vector{X: 500, Z: 100})

	mug := s.ManipulationObject("mug")
	test.That(t, mug.Shape(), test.ShouldBeNil)
	test.That(t, transform.RotationAngle(mug.GlobalPose()), test.ShouldAlmostEqual, math.Pi/4)

	test.That(t, s.ManipulationObject("nope"), test.ShouldBeNil)
	test.That(t, len(s.Obstacles()), test.ShouldEqual, 0)
}

func TestLoadEmptyScene(t *testing.T) {
	s, err := Load(utils.ResolveFile("data/scenes/empty_scene.xml"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(s.ManipulationObjects()), test.ShouldEqual, 0)
	test.That(t, len(s.Obstacles()), test.ShouldEqual, 1)
	test.That(t, s.RobotFile, test.ShouldEqual, "")
}

func TestParseErrors(t *testing.T) {
	_, err := Load("/definitely/not/here.xml")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Parse([]byte(`<Scene/>`))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Parse([]byte(`<Robot name="r"/>`))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Parse([]byte(`<Scene name="s"><ManipulationObject name="a"/><Obstacle name="a"/></Scene>`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "duplicate")

	s, err := Parse([]byte(`<Scene name="s"><Robot><File>hand.xml</File></Robot></Scene>`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.RobotFile, test.ShouldEqual, "hand.xml")
}
