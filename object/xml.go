package object

import (
	"encoding/xml"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/grasp/transform"
)

// ErrNotManipulationObject is returned when a file's root element is not <ManipulationObject>.
var ErrNotManipulationObject = errors.New("root element is not ManipulationObject")

type xmlBox struct {
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
	Depth  float64 `xml:"depth,attr"`
	Units  string  `xml:"units,attr"`
}

type xmlSphere struct {
	Radius float64 `xml:"radius,attr"`
	Units  string  `xml:"units,attr"`
}

type xmlCylinder struct {
	Radius float64 `xml:"radius,attr"`
	Height float64 `xml:"height,attr"`
	Units  string  `xml:"units,attr"`
}

type xmlPrimitives struct {
	Box      *xmlBox      `xml:"Box"`
	Sphere   *xmlSphere   `xml:"Sphere"`
	Cylinder *xmlCylinder `xml:"Cylinder"`
}

// XMLCollisionModel is a <CollisionModel> (or <Visualization>) element holding primitives.
type XMLCollisionModel struct {
	Primitives *xmlPrimitives `xml:"Primitives"`
}

// Shape returns the first primitive of the model, or nil when there is none.
func (c *XMLCollisionModel) Shape() (Shape, error) {
	if c == nil || c.Primitives == nil {
		return nil, nil
	}
	p := c.Primitives
	switch {
	case p.Box != nil:
		v, err := lengthsToMM(p.Box.Units, p.Box.Width, p.Box.Height, p.Box.Depth)
		if err != nil {
			return nil, err
		}
		return NewBox(v[0], v[1], v[2])
	case p.Sphere != nil:
		v, err := lengthsToMM(p.Sphere.Units, p.Sphere.Radius)
		if err != nil {
			return nil, err
		}
		return NewSphere(v[0])
	case p.Cylinder != nil:
		v, err := lengthsToMM(p.Cylinder.Units, p.Cylinder.Radius, p.Cylinder.Height)
		if err != nil {
			return nil, err
		}
		return NewCylinder(v[0], v[1])
	default:
		return nil, nil
	}
}

func lengthsToMM(units string, values ...float64) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		mm, err := transform.LengthToMM(v, units)
		if err != nil {
			return nil, err
		}
		out[i] = mm
	}
	return out, nil
}

type xmlMass struct {
	Value float64 `xml:"value,attr"`
	Units string  `xml:"units,attr"`
}

type xmlCoM struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
	Z float64 `xml:"z,attr"`
}

type xmlPhysics struct {
	Mass *xmlMass `xml:"Mass"`
	CoM  *xmlCoM  `xml:"CoM"`
}

// XMLPose is a <GlobalPose> element.
type XMLPose struct {
	Transform *transform.XMLTransform `xml:"Transform"`
}

type xmlGrasp struct {
	Name        string                  `xml:"name,attr"`
	Preshape    string                  `xml:"Preshape,attr"`
	Creation    string                  `xml:"Creation,attr"`
	Quality     float64                 `xml:"quality,attr"`
	EndEffector string                  `xml:"EndEffector,attr"`
	Transform   *transform.XMLTransform `xml:"Transform"`
}

type xmlGraspSet struct {
	Name        string     `xml:"name,attr"`
	RobotType   string     `xml:"RobotType,attr"`
	EndEffector string     `xml:"EndEffector,attr"`
	Grasps      []xmlGrasp `xml:"Grasp"`
}

// XMLObject is the body shared by <ManipulationObject> and <Obstacle> elements.
type XMLObject struct {
	Name           string             `xml:"name,attr"`
	Visualization  *XMLCollisionModel `xml:"Visualization"`
	CollisionModel *XMLCollisionModel `xml:"CollisionModel"`
	Physics        *xmlPhysics        `xml:"Physics"`
	GlobalPose     *XMLPose           `xml:"GlobalPose"`
	GraspSets      []xmlGraspSet      `xml:"GraspSet"`
}

type xmlObjectFile struct {
	XMLName xml.Name
	XMLObject
}

// ToObject converts the parsed element into a ManipulationObject.
func (x *XMLObject) ToObject() (*ManipulationObject, error) {
	if x.Name == "" {
		return nil, errors.New("object has no name")
	}
	shape, err := x.CollisionModel.Shape()
	if err != nil {
		return nil, errors.Wrapf(err, "collision model of %q", x.Name)
	}
	if shape == nil {
		if shape, err = x.Visualization.Shape(); err != nil {
			return nil, errors.Wrapf(err, "visualization of %q", x.Name)
		}
	}
	obj := New(x.Name, shape)
	if x.Physics != nil {
		if x.Physics.Mass != nil {
			obj.Mass = x.Physics.Mass.Value
			if x.Physics.Mass.Units == "g" {
				obj.Mass /= 1000
			}
		}
		if x.Physics.CoM != nil {
			obj.CoM = r3.Vector{X: x.Physics.CoM.X, Y: x.Physics.CoM.Y, Z: x.Physics.CoM.Z}
		}
	}
	if x.GlobalPose != nil {
		obj.SetGlobalPose(x.GlobalPose.Transform.Matrix())
	}
	for _, xs := range x.GraspSets {
		if xs.Name == "" {
			return nil, errors.Errorf("grasp set of %q has no name", x.Name)
		}
		gs := NewGraspSet(xs.Name, xs.RobotType, xs.EndEffector)
		for i, xg := range xs.Grasps {
			name := xg.Name
			if name == "" {
				return nil, errors.Errorf("grasp %d of set %q has no name", i, xs.Name)
			}
			g := NewGrasp(name, xg.EndEffector, xg.Preshape, xg.Transform.Matrix())
			g.Creation = xg.Creation
			g.Quality = xg.Quality
			gs.AddGrasp(g)
		}
		obj.AddGraspSet(gs)
	}
	return obj, nil
}

// Parse reads a manipulation object document.
func Parse(data []byte) (*ManipulationObject, error) {
	var doc xmlObjectFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "couldn't parse manipulation object xml")
	}
	if doc.XMLName.Local != "ManipulationObject" {
		return nil, errors.Wrapf(ErrNotManipulationObject, "found <%s>", doc.XMLName.Local)
	}
	return doc.ToObject()
}

// Load reads a manipulation object (typically a grasp file) from disk.
func Load(path string) (*ManipulationObject, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manipulation object file")
	}
	obj, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return obj, nil
}
