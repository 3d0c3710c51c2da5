package robot

import (
	"encoding/xml"
	"math"
	"os"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/grasp/transform"
)

type xmlVector struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
	Z float64 `xml:"z,attr"`
}

func (v *xmlVector) vector() r3.Vector {
	if v == nil {
		return r3.Vector{}
	}
	return r3.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

type xmlLimits struct {
	Lo    float64 `xml:"lo,attr"`
	Hi    float64 `xml:"hi,attr"`
	Units string  `xml:"units,attr"`
}

type xmlJoint struct {
	Type                 string     `xml:"type,attr"`
	Axis                 *xmlVector `xml:"Axis"`
	TranslationDirection *xmlVector `xml:"TranslationDirection"`
	Limits               *xmlLimits `xml:"Limits"`
}

type xmlSphere struct {
	Radius float64 `xml:"radius,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Z      float64 `xml:"z,attr"`
	Units  string  `xml:"units,attr"`
}

type xmlChild struct {
	Name string `xml:"name,attr"`
}

type xmlRobotNode struct {
	Name           string                  `xml:"name,attr"`
	Transform      *transform.XMLTransform `xml:"Transform"`
	Joint          *xmlJoint               `xml:"Joint"`
	CollisionModel struct {
		Spheres []xmlSphere `xml:"Primitives>Sphere"`
	} `xml:"CollisionModel"`
	Children []xmlChild `xml:"Child"`
}

type xmlPreshapeNode struct {
	Name  string  `xml:"name,attr"`
	Value float64 `xml:"value,attr"`
	Unit  string  `xml:"unit,attr"`
}

type xmlPreshape struct {
	Name  string            `xml:"name,attr"`
	Nodes []xmlPreshapeNode `xml:"Node"`
}

type xmlActorNode struct {
	Name               string   `xml:"name,attr"`
	ConsiderCollisions string   `xml:"considerCollisions,attr"`
	Direction          *float64 `xml:"direction,attr"`
}

type xmlActor struct {
	Name  string         `xml:"name,attr"`
	Nodes []xmlActorNode `xml:"Node"`
}

type xmlEndEffector struct {
	Name      string        `xml:"name,attr"`
	Base      string        `xml:"base,attr"`
	TCP       string        `xml:"tcp,attr"`
	Preshapes []xmlPreshape `xml:"Preshape"`
	Actors    []xmlActor    `xml:"Actor"`
}

type xmlRobot struct {
	XMLName      xml.Name         `xml:"Robot"`
	Type         string           `xml:"Type,attr"`
	RootNode     string           `xml:"RootNode,attr"`
	Nodes        []xmlRobotNode   `xml:"RobotNode"`
	EndEffectors []xmlEndEffector `xml:"Endeffector"`
}

// Load reads a robot description from path.
func Load(path string) (*Robot, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading robot file")
	}
	r, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing robot file %s", path)
	}
	return r, nil
}

// Parse builds a robot from its XML description.
func Parse(data []byte) (*Robot, error) {
	var doc xmlRobot
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Type == "" {
		return nil, errors.New("robot has no Type")
	}
	if doc.RootNode == "" {
		return nil, errors.Errorf("robot %q has no RootNode", doc.Type)
	}

	byName := map[string]xmlRobotNode{}
	for _, n := range doc.Nodes {
		if n.Name == "" {
			return nil, errors.Errorf("robot %q has an unnamed RobotNode", doc.Type)
		}
		if _, dup := byName[n.Name]; dup {
			return nil, errors.Errorf("duplicate robot node %q", n.Name)
		}
		byName[n.Name] = n
	}
	rootDoc, ok := byName[doc.RootNode]
	if !ok {
		return nil, errors.Errorf("root node %q is not defined", doc.RootNode)
	}

	r := New(doc.Type, doc.RootNode)
	root, err := buildNode(rootDoc)
	if err != nil {
		return nil, err
	}
	r.nodes[doc.RootNode] = root

	// breadth-first so every parent exists before its children
	queue := []xmlRobotNode{rootDoc}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, c := range parent.Children {
			childDoc, ok := byName[c.Name]
			if !ok {
				return nil, errors.Errorf("robot node %q references undefined child %q", parent.Name, c.Name)
			}
			child, err := buildNode(childDoc)
			if err != nil {
				return nil, err
			}
			if err := r.AddNode(parent.Name, child); err != nil {
				return nil, err
			}
			queue = append(queue, childDoc)
		}
	}

	for _, xe := range doc.EndEffectors {
		e, err := buildEndEffector(r, xe)
		if err != nil {
			return nil, err
		}
		if err := r.AddEndEffector(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func buildNode(x xmlRobotNode) (*Node, error) {
	n := &Node{Name: x.Name, Local: x.Transform.Matrix()}
	for _, s := range x.CollisionModel.Spheres {
		radius, err := transform.LengthToMM(s.Radius, s.Units)
		if err != nil {
			return nil, errors.Wrapf(err, "robot node %q", x.Name)
		}
		if radius <= 0 {
			return nil, errors.Errorf("robot node %q has a sphere with non-positive radius", x.Name)
		}
		off := r3.Vector{X: s.X, Y: s.Y, Z: s.Z}
		scale, err := transform.LengthToMM(1, s.Units)
		if err != nil {
			return nil, err
		}
		n.Pads = append(n.Pads, Pad{Offset: off.Mul(scale), Radius: radius})
	}
	if x.Joint == nil {
		return n, nil
	}
	j, err := buildJoint(x.Name, x.Joint)
	if err != nil {
		return nil, err
	}
	n.Joint = j
	return n, nil
}

func buildJoint(node string, x *xmlJoint) (Joint, error) {
	var j Joint
	switch strings.ToLower(x.Type) {
	case "", "fixed":
		return j, nil
	case "revolute":
		j.Type = Revolute
		j.Axis = x.Axis.vector()
	case "prismatic":
		j.Type = Prismatic
		j.Axis = x.TranslationDirection.vector()
		if j.Axis.Norm() == 0 {
			j.Axis = x.Axis.vector()
		}
	default:
		return j, errors.Errorf("robot node %q has unknown joint type %q", node, x.Type)
	}
	if j.Axis.Norm() == 0 {
		return j, errors.Errorf("robot node %q has a %s joint without an axis", node, x.Type)
	}
	j.Axis = j.Axis.Normalize()
	if x.Limits == nil {
		j.Min, j.Max = math.Inf(-1), math.Inf(1)
		return j, nil
	}
	lo, err := jointValue(j.Type, x.Limits.Lo, x.Limits.Units)
	if err != nil {
		return j, errors.Wrapf(err, "robot node %q", node)
	}
	hi, err := jointValue(j.Type, x.Limits.Hi, x.Limits.Units)
	if err != nil {
		return j, errors.Wrapf(err, "robot node %q", node)
	}
	if lo > hi {
		return j, errors.Errorf("robot node %q has limits lo > hi", node)
	}
	j.Min, j.Max = lo, hi
	return j, nil
}

// jointValue converts a value in the given unit to radians or millimeters.
func jointValue(t JointType, v float64, units string) (float64, error) {
	if t == Prismatic {
		return transform.LengthToMM(v, units)
	}
	conv, err := transform.AngleConverter(units)
	if err != nil {
		return 0, err
	}
	return conv(v), nil
}

func buildEndEffector(r *Robot, x xmlEndEffector) (*EndEffector, error) {
	if x.Name == "" {
		return nil, errors.New("unnamed Endeffector")
	}
	e := &EndEffector{Name: x.Name, Base: x.Base, TCP: x.TCP}
	if e.TCP == "" {
		e.TCP = e.Base
	}
	for _, xp := range x.Preshapes {
		p := Preshape{Name: xp.Name, Values: map[string]float64{}}
		for _, pn := range xp.Nodes {
			n, err := r.Node(pn.Name)
			if err != nil {
				return nil, errors.Wrapf(err, "preshape %q", xp.Name)
			}
			v, err := jointValue(n.Joint.Type, pn.Value, pn.Unit)
			if err != nil {
				return nil, errors.Wrapf(err, "preshape %q", xp.Name)
			}
			p.Values[pn.Name] = v
		}
		e.Preshapes = append(e.Preshapes, p)
	}
	for _, xa := range x.Actors {
		a := Actor{Name: xa.Name}
		for _, an := range xa.Nodes {
			dir := 1.0
			if an.Direction != nil {
				dir = *an.Direction
			}
			a.Nodes = append(a.Nodes, ActorNode{
				Node:               an.Name,
				Direction:          dir,
				ConsiderCollisions: !strings.EqualFold(an.ConsiderCollisions, "none"),
			})
		}
		e.Actors = append(e.Actors, a)
	}
	return e, nil
}
