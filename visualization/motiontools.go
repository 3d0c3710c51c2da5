package visualization

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	viz "github.com/viam-labs/motion-tools/client/client"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
	"go.viam.com/rdk/utils"

	"go.viam.com/grasp/transform"
)

// MotionToolsViewer draws the arena in a running motion-tools visualizer. With Block set, Show
// returns only once ctx is done.
type MotionToolsViewer struct {
	Logger logging.Logger
	Block  bool
}

// Geometries converts every drawable primitive to a spatialmath geometry in millimeters, and
// returns the world poses of frame markers.
func Geometries(a *Arena) ([]spatialmath.Geometry, []spatialmath.Pose, error) {
	var (
		geoms []spatialmath.Geometry
		poses []spatialmath.Pose
		err   error
	)
	a.ForEach(Nil, func(_ Node, world mgl64.Mat4, p Primitive) bool {
		pose := transform.ToPose(transform.ScaleM2MM(world))
		var g spatialmath.Geometry
		var gerr error
		switch p.Kind {
		case Sphere:
			g, gerr = spatialmath.NewSphere(pose, utils.MetersToMM(p.Dims.X), p.Label)
		case Box:
			g, gerr = spatialmath.NewBox(pose, p.Dims.Mul(utils.MetersToMM(1)), p.Label)
		case Cylinder:
			r, h := utils.MetersToMM(p.Dims.X), utils.MetersToMM(p.Dims.Z)
			g, gerr = spatialmath.NewCapsule(pose, r, max(h, 2*r), p.Label)
		case Point:
			g = spatialmath.NewPoint(pose.Point(), p.Label)
		case Frame:
			poses = append(poses, pose)
		case Group:
		}
		if gerr != nil {
			err = errors.Wrapf(gerr, "converting %q", p.Label)
			return false
		}
		if g != nil {
			geoms = append(geoms, g)
		}
		return true
	})
	return geoms, poses, err
}

// Show implements Viewer.
func (mv *MotionToolsViewer) Show(ctx context.Context, a *Arena) error {
	geoms, poses, err := Geometries(a)
	if err != nil {
		return err
	}
	if err := viz.RemoveAllSpatialObjects(); err != nil {
		return errors.Wrap(err, "motion-tools server is probably not running")
	}
	ws, err := referenceframe.NewWorldState(
		[]*referenceframe.GeometriesInFrame{referenceframe.NewGeometriesInFrame(referenceframe.World, geoms)}, nil)
	if err != nil {
		return err
	}
	fs := referenceframe.NewEmptyFrameSystem("grasp")
	if err := viz.DrawWorldState(ws, fs, referenceframe.NewZeroInputs(fs)); err != nil {
		return err
	}
	if len(poses) > 0 {
		if err := viz.DrawPoses(poses, []string{ColorHand}, true); err != nil {
			return err
		}
	}
	if lo, hi, ok := a.Bounds(); ok {
		mv.Logger.Infow("drew scene", "geometries", len(geoms), "grasps", len(poses), "bounds_min", lo, "bounds_max", hi)
	}
	if !mv.Block {
		return nil
	}
	mv.Logger.Info("viewer running, press Ctrl-C to quit")
	<-ctx.Done()
	return nil
}
