// Package object contains manipulation objects, their collision shapes and the grasp sets
// authored for them.
package object

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"go.viam.com/rdk/spatialmath"

	"go.viam.com/grasp/transform"
)

// SurfaceContact describes where a world point lies relative to an object's surface.
type SurfaceContact struct {
	Distance    float64
	Point       r3.Vector // closest surface point, world frame
	Normal      r3.Vector // outward normal, world frame
	PointLocal  r3.Vector
	NormalLocal r3.Vector
}

// ManipulationObject is a scene entity that can be grasped.
type ManipulationObject struct {
	name  string
	shape Shape
	// Mass in kilograms; informational only.
	Mass float64
	// CoM is the center of mass in the object frame.
	CoM r3.Vector

	globalPose mgl64.Mat4
	graspSets  []*GraspSet
}

// New returns an object at the identity pose.
func New(name string, shape Shape) *ManipulationObject {
	return &ManipulationObject{name: name, shape: shape, globalPose: transform.Identity()}
}

// Name returns the object name.
func (o *ManipulationObject) Name() string {
	return o.name
}

// Shape returns the collision shape, or nil when the object has none.
func (o *ManipulationObject) Shape() Shape {
	return o.shape
}

// GlobalPose returns the pose of the object in world coordinates.
func (o *ManipulationObject) GlobalPose() mgl64.Mat4 {
	return o.globalPose
}

// SetGlobalPose moves the object.
func (o *ManipulationObject) SetGlobalPose(m mgl64.Mat4) {
	o.globalPose = m
}

// GraspSet returns the grasp set with the given name, or nil.
func (o *ManipulationObject) GraspSet(name string) *GraspSet {
	for _, gs := range o.graspSets {
		if gs.Name == name {
			return gs
		}
	}
	return nil
}

// AllGraspSets returns every grasp set in document order.
func (o *ManipulationObject) AllGraspSets() []*GraspSet {
	return o.graspSets
}

// AddGraspSet appends gs, replacing any set with the same name.
func (o *ManipulationObject) AddGraspSet(gs *GraspSet) {
	for i, existing := range o.graspSets {
		if existing.Name == gs.Name {
			o.graspSets[i] = gs
			return
		}
	}
	o.graspSets = append(o.graspSets, gs)
}

// SurfaceAt locates the world point p relative to the object surface with the object placed at
// pose. Objects without a shape report an infinite distance.
func (o *ManipulationObject) SurfaceAt(pose mgl64.Mat4, p r3.Vector) SurfaceContact {
	if o.shape == nil {
		return SurfaceContact{Distance: inf}
	}
	local := transform.Apply(pose.Inv(), p)
	closest := o.shape.ClosestPoint(local)
	normal := o.shape.Normal(local)
	return SurfaceContact{
		Distance:    o.shape.SignedDistance(local),
		Point:       transform.Apply(pose, closest),
		Normal:      transform.Rotate(pose, normal),
		PointLocal:  closest,
		NormalLocal: normal,
	}
}

// Geometry returns the object's shape as a spatialmath geometry at its current pose.
func (o *ManipulationObject) Geometry() (spatialmath.Geometry, error) {
	if o.shape == nil {
		return nil, nil
	}
	return o.shape.Geometry(transform.ToPose(o.globalPose), o.name)
}
