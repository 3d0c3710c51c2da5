package object

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var inf = math.Inf(1)

// Grasp is a named end-effector pose relative to an object, plus the preshape to approach with.
type Grasp struct {
	Name         string
	EEFName      string
	PreshapeName string
	Creation     string
	// Quality is the value stored in the grasp file, if any.
	Quality float64

	transformation mgl64.Mat4
	normalized     bool
}

// NewGrasp returns a grasp whose transformation is the object pose expressed in the TCP frame.
func NewGrasp(name, eef, preshape string, transformation mgl64.Mat4) *Grasp {
	return &Grasp{Name: name, EEFName: eef, PreshapeName: preshape, transformation: transformation}
}

// Transformation returns the stored transformation.
func (g *Grasp) Transformation() mgl64.Mat4 {
	return g.transformation
}

// SetTransformation overwrites the stored transformation.
func (g *Grasp) SetTransformation(m mgl64.Mat4) {
	g.transformation = m
}

// TCPPoseGlobal returns the global TCP pose for an object at objectPose.
func (g *Grasp) TCPPoseGlobal(objectPose mgl64.Mat4) mgl64.Mat4 {
	return objectPose.Mul4(g.transformation.Inv())
}

// ObjectPoseGlobal returns the object pose that corresponds to the TCP being at tcpPose.
func (g *Grasp) ObjectPoseGlobal(tcpPose mgl64.Mat4) mgl64.Mat4 {
	return tcpPose.Mul4(g.transformation)
}

// Normalized reports whether Normalize already rewrote the transformation.
func (g *Grasp) Normalized() bool {
	return g.normalized
}

// Normalize re-anchors the grasp against objectPose by storing inverse(T) * objectPose as the
// new transformation, where T is the stored transformation. It runs once per grasp; later calls
// leave the grasp untouched. The returned pose is the global TCP pose after normalization.
func (g *Grasp) Normalize(objectPose mgl64.Mat4) mgl64.Mat4 {
	if !g.normalized {
		pose := g.Transformation()
		g.SetTransformation(pose.Inv().Mul4(objectPose))
		g.normalized = true
	}
	return g.TCPPoseGlobal(objectPose)
}

// GraspSet groups grasps authored for one robot type and end effector. Sets are keyed by name,
// which by convention is the scene the grasps were authored for.
type GraspSet struct {
	Name      string
	RobotType string
	EEFName   string

	grasps []*Grasp
}

// NewGraspSet returns an empty grasp set.
func NewGraspSet(name, robotType, eef string) *GraspSet {
	return &GraspSet{Name: name, RobotType: robotType, EEFName: eef}
}

// AddGrasp appends g. Grasps without an end effector inherit the set's.
func (gs *GraspSet) AddGrasp(g *Grasp) {
	if g.EEFName == "" {
		g.EEFName = gs.EEFName
	}
	gs.grasps = append(gs.grasps, g)
}

// Grasps returns the grasps in document order.
func (gs *GraspSet) Grasps() []*Grasp {
	return gs.grasps
}

// Grasp returns the i-th grasp, or nil when out of range.
func (gs *GraspSet) Grasp(i int) *Grasp {
	if i < 0 || i >= len(gs.grasps) {
		return nil
	}
	return gs.grasps[i]
}

// Size returns the number of grasps.
func (gs *GraspSet) Size() int {
	if gs == nil {
		return 0
	}
	return len(gs.grasps)
}
