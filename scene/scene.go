// Package scene loads scene descriptions: named environments holding manipulation objects and
// obstacles at global poses.
package scene

import (
	"encoding/xml"
	"os"

	"github.com/pkg/errors"

	"go.viam.com/grasp/object"
)

// Scene is a loaded environment.
type Scene struct {
	Name string
	// RobotFile is the robot description referenced by the scene, if any.
	RobotFile string

	objects   []*object.ManipulationObject
	obstacles []*object.ManipulationObject
}

// ManipulationObjects returns the graspable objects in document order.
func (s *Scene) ManipulationObjects() []*object.ManipulationObject {
	return s.objects
}

// ManipulationObject returns the object with the given name, or nil.
func (s *Scene) ManipulationObject(name string) *object.ManipulationObject {
	for _, o := range s.objects {
		if o.Name() == name {
			return o
		}
	}
	return nil
}

// Obstacles returns the static obstacles.
func (s *Scene) Obstacles() []*object.ManipulationObject {
	return s.obstacles
}

type xmlRobotRef struct {
	Name     string `xml:"name,attr"`
	File     string `xml:"file,attr"`
	FileElem string `xml:"File"`
}

type xmlScene struct {
	XMLName   xml.Name           `xml:"Scene"`
	Name      string             `xml:"name,attr"`
	Robots    []xmlRobotRef      `xml:"Robot"`
	Objects   []object.XMLObject `xml:"ManipulationObject"`
	Obstacles []object.XMLObject `xml:"Obstacle"`
}

// Parse reads a scene document.
func Parse(data []byte) (*Scene, error) {
	var doc xmlScene
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "couldn't parse scene xml")
	}
	if doc.Name == "" {
		return nil, errors.New("scene has no name")
	}
	s := &Scene{Name: doc.Name}
	if len(doc.Robots) > 0 {
		s.RobotFile = doc.Robots[0].File
		if s.RobotFile == "" {
			s.RobotFile = doc.Robots[0].FileElem
		}
	}
	seen := map[string]bool{}
	convert := func(xs []object.XMLObject) ([]*object.ManipulationObject, error) {
		out := make([]*object.ManipulationObject, 0, len(xs))
		for i := range xs {
			o, err := xs[i].ToObject()
			if err != nil {
				return nil, errors.Wrapf(err, "scene %q", doc.Name)
			}
			if seen[o.Name()] {
				return nil, errors.Errorf("scene %q: duplicate object name %q", doc.Name, o.Name())
			}
			seen[o.Name()] = true
			out = append(out, o)
		}
		return out, nil
	}
	var err error
	if s.objects, err = convert(doc.Objects); err != nil {
		return nil, err
	}
	if s.obstacles, err = convert(doc.Obstacles); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads a scene file.
func Load(path string) (*Scene, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scene file")
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return s, nil
}
