package visualization

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/rdk/utils"

	"go.viam.com/grasp/object"
	"go.viam.com/grasp/robot"
	"go.viam.com/grasp/scene"
	"go.viam.com/grasp/transform"
)

// Colors used for accumulated primitives.
const (
	ColorObject   = "orange"
	ColorObstacle = "gray"
	ColorHand     = "blue"
	ColorContact  = "red"
)

// Accumulator owns the render tree of one evaluation run: a root with a scene subtree, a robot
// subtree holding the most recent end effector clone, and an append-only grasp subtree.
type Accumulator struct {
	arena  *Arena
	root   Node
	scene  Node
	robot  Node
	grasps Node
	count  int
}

// NewAccumulator creates the root and its three subtrees in a.
func NewAccumulator(a *Arena) *Accumulator {
	acc := &Accumulator{arena: a}
	acc.root = a.Insert(Nil, Primitive{Kind: Group, Label: "root"})
	acc.scene = a.Insert(acc.root, Primitive{Kind: Group, Label: "scene"})
	acc.robot = a.Insert(acc.root, Primitive{Kind: Group, Label: "robot"})
	acc.grasps = a.Insert(acc.root, Primitive{Kind: Group, Label: "grasps"})
	return acc
}

// Arena returns the arena holding the tree.
func (acc *Accumulator) Arena() *Arena {
	return acc.arena
}

// Root returns the root node.
func (acc *Accumulator) Root() Node {
	return acc.root
}

// SceneNode returns the scene subtree.
func (acc *Accumulator) SceneNode() Node {
	return acc.scene
}

// RobotNode returns the robot subtree.
func (acc *Accumulator) RobotNode() Node {
	return acc.robot
}

// GraspsNode returns the grasp subtree.
func (acc *Accumulator) GraspsNode() Node {
	return acc.grasps
}

// GraspCount returns the number of grasps added.
func (acc *Accumulator) GraspCount() int {
	return acc.count
}

// Rebuild replaces the scene and robot subtrees. A nil scene or robot leaves that subtree empty.
// Accumulated grasps are kept.
func (acc *Accumulator) Rebuild(sc *scene.Scene, clone *robot.Robot) {
	for _, n := range acc.arena.Children(acc.scene) {
		acc.arena.Release(n)
	}
	for _, n := range acc.arena.Children(acc.robot) {
		acc.arena.Release(n)
	}

	if sc != nil {
		for _, o := range sc.ManipulationObjects() {
			acc.addObject(acc.scene, o, ColorObject)
		}
		for _, o := range sc.Obstacles() {
			acc.addObject(acc.scene, o, ColorObstacle)
		}
	}
	if clone != nil {
		for _, e := range clone.EndEffectors() {
			for _, pad := range e.Pads() {
				acc.arena.Insert(acc.robot, padPrimitive(pad, transform.Identity()))
			}
		}
	}
}

func (acc *Accumulator) addObject(parent Node, o *object.ManipulationObject, color string) Node {
	p := ShapePrimitive(o.Shape(), o.Name(), color)
	p.Local = transform.ScaleMM2M(o.GlobalPose())
	return acc.arena.Insert(parent, p)
}

// AddGrasp appends one subtree for an evaluated grasp: a frame at the TCP pose with the end
// effector's pads and the contact points as children, in TCP coordinates.
func (acc *Accumulator) AddGrasp(name string, tcpPose mgl64.Mat4, eef *robot.EndEffector, contacts []robot.ContactInfo) Node {
	n := acc.arena.Insert(acc.grasps, Primitive{Kind: Frame, Label: name, Local: transform.ScaleMM2M(tcpPose)})
	toTCP := tcpPose.Inv()
	if eef != nil {
		for _, pad := range eef.Pads() {
			acc.arena.Insert(n, padPrimitive(pad, toTCP))
		}
	}
	for i, c := range contacts {
		local := transform.Apply(toTCP, c.ObjectPoint)
		acc.arena.Insert(n, Primitive{
			Kind:  Point,
			Label: contactLabel(name, i),
			Local: transform.Translation(local.Mul(transform.MMToM)),
			Color: ColorContact,
		})
	}
	acc.count++
	return n
}

func contactLabel(grasp string, i int) string {
	return fmt.Sprintf("%s contact %d", grasp, i)
}

func padPrimitive(pad robot.WorldPad, frame mgl64.Mat4) Primitive {
	c := transform.Apply(frame, pad.Center)
	return Primitive{
		Kind:  Sphere,
		Label: pad.Node,
		Local: transform.Translation(c.Mul(transform.MMToM)),
		Dims:  r3.Vector{X: utils.MMToMeters(pad.Radius)},
		Color: ColorHand,
	}
}

// ShapePrimitive converts an object shape to a primitive at the identity transform. Objects
// without a shape become a frame marker.
func ShapePrimitive(s object.Shape, label, color string) Primitive {
	p := Primitive{Label: label, Color: color, Local: transform.Identity()}
	switch sh := s.(type) {
	case *object.Box:
		p.Kind = Box
		p.Dims = sh.Dims().Mul(transform.MMToM)
	case *object.Sphere:
		p.Kind = Sphere
		p.Dims = r3.Vector{X: utils.MMToMeters(sh.R)}
	case *object.Cylinder:
		p.Kind = Cylinder
		p.Dims = r3.Vector{X: utils.MMToMeters(sh.R), Z: utils.MMToMeters(sh.Height)}
	default:
		p.Kind = Frame
	}
	return p
}
