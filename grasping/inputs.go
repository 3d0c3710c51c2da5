// Package grasping loads a scene, a robot and the grasp files of the scene's objects, and
// evaluates every grasp: quality, force closure, robustness and visualization.
package grasping

import (
	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"

	"go.viam.com/grasp/robot"
	"go.viam.com/grasp/scene"
	"go.viam.com/grasp/utils"
)

// Fatal pre-flight errors.
var (
	ErrNoScene   = errors.New("could not load scene")
	ErrNoRobot   = errors.New("could not load robot")
	ErrNoObjects = errors.New("no manipulation objects in the scene")
)

// Inputs holds the loaded scene and robot. A handle is nil when loading it failed.
type Inputs struct {
	Scene    *scene.Scene
	Robot    *robot.Robot
	SceneErr error
	RobotErr error
}

// LoadInputs loads the scene and the robot once each, resolving both on the data search path.
// When robotPath is empty the robot referenced by the scene is used. Failures are logged and
// leave the handle nil.
func LoadInputs(paths utils.DataPaths, scenePath, robotPath string, logger logging.Logger) Inputs {
	var in Inputs
	logger.Infof("loading scene from %s", scenePath)
	in.Scene, in.SceneErr = loadScene(paths, scenePath)
	if in.SceneErr != nil {
		logger.Errorw("could not find valid scene", "file", scenePath, "error", in.SceneErr)
	}

	if robotPath == "" && in.Scene != nil {
		robotPath = in.Scene.RobotFile
	}
	if robotPath == "" {
		in.RobotErr = errors.New("no robot file given and the scene references none")
	} else {
		logger.Infof("loading robot from %s", robotPath)
		in.Robot, in.RobotErr = loadRobot(paths, robotPath)
	}
	if in.RobotErr != nil {
		logger.Errorw("could not load robot", "file", robotPath, "error", in.RobotErr)
	}
	return in
}

func loadScene(paths utils.DataPaths, name string) (*scene.Scene, error) {
	path, err := paths.Resolve(name)
	if err != nil {
		return nil, err
	}
	return scene.Load(path)
}

func loadRobot(paths utils.DataPaths, name string) (*robot.Robot, error) {
	path, err := paths.Resolve(name)
	if err != nil {
		return nil, err
	}
	return robot.Load(path)
}

// Preflight returns the fatal error that prevents evaluation, if any.
func Preflight(in Inputs) error {
	switch {
	case in.Scene == nil:
		return ErrNoScene
	case in.Robot == nil:
		return ErrNoRobot
	case len(in.Scene.ManipulationObjects()) == 0:
		return ErrNoObjects
	default:
		return nil
	}
}
