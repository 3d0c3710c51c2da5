package grasping

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"go.viam.com/grasp/object"
	"go.viam.com/grasp/robot"
	"go.viam.com/grasp/transform"
)

// SurfaceNormalApproach pairs an object with the end effector that approaches it along the
// object's surface normals.
type SurfaceNormalApproach struct {
	Object *object.ManipulationObject
	EEF    *robot.EndEffector
}

// NewSurfaceNormalApproach returns the approach of eef toward obj.
func NewSurfaceNormalApproach(obj *object.ManipulationObject, eef *robot.EndEffector) *SurfaceNormalApproach {
	return &SurfaceNormalApproach{Object: obj, EEF: eef}
}

// EEFRobotClone returns a standalone robot made of the end effector's subtree and the cloned end
// effector. A non-empty preshape is applied to the clone only.
func (a *SurfaceNormalApproach) EEFRobotClone(preshape string) (*robot.Robot, *robot.EndEffector, error) {
	clone, err := a.EEF.Robot().CloneSubtree(a.EEF.Base)
	if err != nil {
		return nil, nil, err
	}
	eef, err := clone.EndEffector(a.EEF.Name)
	if err != nil {
		return nil, nil, err
	}
	if preshape != "" {
		if err := eef.SetPreshape(preshape); err != nil {
			return nil, nil, err
		}
	}
	return clone, eef, nil
}

// ApproachDirection is the inward surface normal at the object point nearest to the TCP pose.
func (a *SurfaceNormalApproach) ApproachDirection(tcpPose mgl64.Mat4) r3.Vector {
	s := a.Object.SurfaceAt(a.Object.GlobalPose(), transform.Position(tcpPose))
	if s.Normal.Norm() == 0 {
		return r3.Vector{}
	}
	return s.Normal.Mul(-1)
}
