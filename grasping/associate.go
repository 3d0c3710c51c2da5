package grasping

import (
	"path"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"

	"go.viam.com/grasp/object"
	"go.viam.com/grasp/scene"
	"go.viam.com/grasp/transform"
	"go.viam.com/grasp/utils"
)

// ErrNoSceneGraspSet is recorded for objects whose grasp file has no non-empty grasp set named
// after the scene.
var ErrNoSceneGraspSet = errors.New("no grasps tagged for the scene")

// SkippedObject records why a scene object was left out of the worklist.
type SkippedObject struct {
	Name      string
	GraspFile string
	Err       error
}

// Association is the result of matching scene objects to grasp files.
type Association struct {
	Worklist []*object.ManipulationObject
	Skipped  []SkippedObject
}

// Err combines the reasons of every skipped object.
func (a Association) Err() error {
	var err error
	for _, s := range a.Skipped {
		err = multierr.Append(err, errors.Wrapf(s.Err, "object %q", s.Name))
	}
	return err
}

// Names returns the names of the objects in the worklist.
func (a Association) Names() []string {
	return lo.Map(a.Worklist, func(o *object.ManipulationObject, _ int) string { return o.Name() })
}

// GraspFileName is the grasp file of the named object below graspsPath.
func GraspFileName(graspsPath, objectName string) string {
	return path.Join(graspsPath, objectName+"_grasp.xml")
}

// Associate loads {graspsPath}/{object}_grasp.xml for every scene object. Objects whose file is
// missing or malformed, or has no non-empty grasp set named after the scene, are skipped. The
// loaded objects take the pose of their scene counterpart.
func Associate(sc *scene.Scene, graspsPath string, paths utils.DataPaths, logger logging.Logger) Association {
	var a Association
	for _, so := range sc.ManipulationObjects() {
		logger.Infof("object: %s", so.Name())
		logger.Debugf("object %s global pose:\n%s", so.Name(), transform.Format(so.GlobalPose()))

		file := GraspFileName(graspsPath, so.Name())
		obj, err := loadGraspFile(paths, file)
		if err != nil {
			logger.Warnw("skipping object", "object", so.Name(), "error", err)
			a.Skipped = append(a.Skipped, SkippedObject{Name: so.Name(), GraspFile: file, Err: err})
			continue
		}
		if set := obj.GraspSet(sc.Name); set.Size() < 1 {
			err := errors.Wrapf(ErrNoSceneGraspSet, "%q in %s", sc.Name, file)
			logger.Warnw("skipping object", "object", so.Name(), "error", err)
			a.Skipped = append(a.Skipped, SkippedObject{Name: so.Name(), GraspFile: file, Err: err})
			continue
		}
		obj.SetGlobalPose(so.GlobalPose())
		a.Worklist = append(a.Worklist, obj)
	}
	return a
}

func loadGraspFile(paths utils.DataPaths, file string) (*object.ManipulationObject, error) {
	resolved, err := paths.Resolve(file)
	if err != nil {
		return nil, err
	}
	return object.Load(resolved)
}
