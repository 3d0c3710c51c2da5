package robot

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"go.viam.com/grasp/object"
	"go.viam.com/grasp/transform"
)

const (
	revoluteStep  = 0.02
	prismaticStep = 1.0
	maxCloseSteps = 10000
)

// Preshape is a named set of joint values.
type Preshape struct {
	Name   string
	Values map[string]float64
}

// ActorNode is one joint driven by an actor.
type ActorNode struct {
	Node string
	// Direction is the sign of joint motion that closes the hand.
	Direction          float64
	ConsiderCollisions bool
}

// Actor is a group of joints that close together.
type Actor struct {
	Name  string
	Nodes []ActorNode
}

// ContactInfo describes a contact between an actor and an object.
type ContactInfo struct {
	Actor string
	Node  string
	// FingerPoint is the point on the pad closest to the object, in world coordinates.
	FingerPoint r3.Vector
	// ObjectPoint and Normal are the object surface point and outward normal, in world coordinates.
	ObjectPoint r3.Vector
	Normal      r3.Vector
	// ObjectPointLocal and NormalLocal are the same in the object frame.
	ObjectPointLocal r3.Vector
	NormalLocal      r3.Vector
	// Approach is the unit direction from the finger toward the object.
	Approach r3.Vector
	Distance float64
}

// WorldPad is a collision pad resolved to world coordinates.
type WorldPad struct {
	Node   string
	Center r3.Vector
	Radius float64
}

// EndEffector is a hand attached to a robot: a base node, a tool center point, preshapes and actors.
type EndEffector struct {
	Name      string
	Base      string
	TCP       string
	Preshapes []Preshape
	Actors    []Actor

	robot    *Robot
	preshape string
}

// Robot returns the robot the end effector belongs to.
func (e *EndEffector) Robot() *Robot {
	return e.robot
}

// Preshape returns the name of the last preshape applied.
func (e *EndEffector) Preshape() string {
	return e.preshape
}

// PreshapeNames lists the preshapes in document order.
func (e *EndEffector) PreshapeNames() []string {
	names := make([]string, 0, len(e.Preshapes))
	for _, p := range e.Preshapes {
		names = append(names, p.Name)
	}
	return names
}

// LookupPreshape returns the named preshape.
func (e *EndEffector) LookupPreshape(name string) (Preshape, error) {
	for _, p := range e.Preshapes {
		if p.Name == name {
			return p, nil
		}
	}
	return Preshape{}, NewPreshapeNotFoundError(name, e.robot.Type)
}

// SetPreshape applies the named preshape to the robot's joints.
func (e *EndEffector) SetPreshape(name string) error {
	p, err := e.LookupPreshape(name)
	if err != nil {
		return err
	}
	for node, v := range p.Values {
		if err := e.robot.SetJointValue(node, v); err != nil {
			return err
		}
	}
	e.preshape = name
	return nil
}

// Pads returns every collision pad of the end effector in world coordinates.
func (e *EndEffector) Pads() []WorldPad {
	return e.pads(e.Base)
}

func (e *EndEffector) pads(root string) []WorldPad {
	var out []WorldPad
	for _, name := range e.robot.subtree(root) {
		n := e.robot.nodes[name]
		if len(n.Pads) == 0 {
			continue
		}
		pose, err := e.robot.NodePose(name)
		if err != nil {
			continue
		}
		for _, p := range n.Pads {
			out = append(out, WorldPad{Node: name, Center: transform.Apply(pose, p.Offset), Radius: p.Radius})
		}
	}
	return out
}

// OpenActors moves every actor joint to its open limit.
func (e *EndEffector) OpenActors() {
	for _, a := range e.Actors {
		for _, an := range a.Nodes {
			n := e.robot.nodes[an.Node]
			open := n.Joint.Max
			if direction(an) > 0 {
				open = n.Joint.Min
			}
			if !math.IsInf(open, 0) {
				n.value = clampJoint(n.Joint, open)
			}
		}
	}
}

// CloseActors closes every actor onto obj at its global pose and returns the contacts made.
func (e *EndEffector) CloseActors(obj *object.ManipulationObject) []ContactInfo {
	return e.CloseActorsAt(obj, obj.GlobalPose())
}

// CloseActorsAt closes every actor onto obj placed at objectPose. Each actor joint steps toward
// its closing direction until it reaches its limit or one of its pads touches the object.
func (e *EndEffector) CloseActorsAt(obj *object.ManipulationObject, objectPose mgl64.Mat4) []ContactInfo {
	var contacts []ContactInfo
	for _, a := range e.Actors {
		for _, an := range a.Nodes {
			if c, ok := e.closeNode(a.Name, an, obj, objectPose); ok {
				contacts = append(contacts, c)
			}
		}
	}
	return contacts
}

func (e *EndEffector) closeNode(
	actor string,
	an ActorNode,
	obj *object.ManipulationObject,
	objectPose mgl64.Mat4,
) (ContactInfo, bool) {
	n := e.robot.nodes[an.Node]
	step := prismaticStep
	if n.Joint.Type == Revolute {
		step = revoluteStep
	}
	step *= direction(an)
	for i := 0; i < maxCloseSteps; i++ {
		if an.ConsiderCollisions {
			if c, ok := e.touching(actor, an.Node, obj, objectPose); ok {
				return c, true
			}
		}
		next := clampJoint(n.Joint, n.value+step)
		if next == n.value {
			return ContactInfo{}, false
		}
		n.value = next
	}
	return ContactInfo{}, false
}

// touching reports the closest pad below node that lies within its radius of the object surface.
func (e *EndEffector) touching(
	actor, node string,
	obj *object.ManipulationObject,
	objectPose mgl64.Mat4,
) (ContactInfo, bool) {
	best := ContactInfo{Distance: math.Inf(1)}
	found := false
	for _, pad := range e.pads(node) {
		s := obj.SurfaceAt(objectPose, pad.Center)
		d := s.Distance - pad.Radius
		if d > 0 || d >= best.Distance {
			continue
		}
		found = true
		best = ContactInfo{
			Actor:            actor,
			Node:             pad.Node,
			FingerPoint:      pad.Center.Sub(s.Normal.Mul(pad.Radius)),
			ObjectPoint:      s.Point,
			Normal:           s.Normal,
			ObjectPointLocal: s.PointLocal,
			NormalLocal:      s.NormalLocal,
			Approach:         s.Normal.Mul(-1),
			Distance:         d,
		}
	}
	return best, found
}

// InCollision reports whether any pad penetrates obj at its global pose.
func (e *EndEffector) InCollision(obj *object.ManipulationObject) bool {
	return e.InCollisionAt(obj, obj.GlobalPose())
}

// InCollisionAt reports whether any pad penetrates obj placed at objectPose.
func (e *EndEffector) InCollisionAt(obj *object.ManipulationObject, objectPose mgl64.Mat4) bool {
	for _, pad := range e.Pads() {
		if obj.SurfaceAt(objectPose, pad.Center).Distance < pad.Radius {
			return true
		}
	}
	return false
}

func (e *EndEffector) actorNodeNames() []string {
	var names []string
	for _, a := range e.Actors {
		for _, n := range a.Nodes {
			names = append(names, n.Node)
		}
	}
	for _, p := range e.Preshapes {
		for n := range p.Values {
			names = append(names, n)
		}
	}
	return names
}

func (e *EndEffector) clone() *EndEffector {
	c := *e
	c.robot = nil
	c.Preshapes = append([]Preshape(nil), e.Preshapes...)
	c.Actors = make([]Actor, len(e.Actors))
	for i, a := range e.Actors {
		c.Actors[i] = Actor{Name: a.Name, Nodes: append([]ActorNode(nil), a.Nodes...)}
	}
	return &c
}

func direction(an ActorNode) float64 {
	if an.Direction < 0 {
		return -1
	}
	return 1
}
