// Package quality scores grasps in wrench space: the epsilon metric of the grasp wrench space
// relative to the object wrench space, and a force-closure test.
package quality

import (
	"math"
	"math/rand/v2"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
	"go.viam.com/rdk/logging"

	"go.viam.com/grasp/object"
	"go.viam.com/grasp/robot"
)

// Options configures the wrench space approximation.
type Options struct {
	// Friction is the Coulomb friction coefficient of the contacts.
	Friction float64 `yaml:"friction"`
	// ConeEdges is the number of edges of the linearized friction cone.
	ConeEdges int `yaml:"cone_edges"`
	// Directions is the number of random directions used to estimate the epsilon metric.
	Directions int `yaml:"directions"`
	// ObjectSamples is the number of surface samples spanning the object wrench space.
	ObjectSamples int    `yaml:"object_samples"`
	Seed          uint64 `yaml:"seed"`
}

// DefaultOptions returns the options used unless configured otherwise.
func DefaultOptions() Options {
	return Options{
		Friction:      0.35,
		ConeEdges:     8,
		Directions:    1000,
		ObjectSamples: 600,
		Seed:          1,
	}
}

// Validate checks that the options describe a usable wrench space.
func (o Options) Validate() error {
	if o.Friction < 0 {
		return errors.New("friction must be non-negative")
	}
	if o.ConeEdges < 3 {
		return errors.New("friction cone needs at least 3 edges")
	}
	if o.ObjectSamples < 6 {
		return errors.New("object wrench space needs at least 6 samples")
	}
	if o.Directions < 0 {
		return errors.New("directions must be non-negative")
	}
	return nil
}

// wrench is a force followed by a torque scaled by the object radius.
type wrench [6]float64

// WrenchSpace measures contact sets against one object. CalculateObjectProperties must run once
// before any contacts are scored.
type WrenchSpace struct {
	obj    *object.ManipulationObject
	opts   Options
	logger logging.Logger

	com        r3.Vector
	radius     float64
	directions [][]float64
	objectEps  float64
	ready      bool

	wrenches   []wrench
	numContact int
	eps        float64
	closure    bool
}

// NewWrenchSpace returns a wrench space measure for obj.
func NewWrenchSpace(obj *object.ManipulationObject, opts Options, logger logging.Logger) *WrenchSpace {
	return &WrenchSpace{obj: obj, opts: opts, logger: logger}
}

// Name identifies the measure.
func (ws *WrenchSpace) Name() string {
	return "GraspWrenchSpace"
}

// Object returns the object being measured.
func (ws *WrenchSpace) Object() *object.ManipulationObject {
	return ws.obj
}

// CalculateObjectProperties computes the object wrench space from the object's surface. It is
// idempotent.
func (ws *WrenchSpace) CalculateObjectProperties() error {
	if ws.ready {
		return nil
	}
	if err := ws.opts.Validate(); err != nil {
		return err
	}
	shape := ws.obj.Shape()
	if shape == nil {
		return errors.Errorf("object %q has no collision model", ws.obj.Name())
	}
	ws.com = ws.obj.CoM
	samples := shape.SurfaceSamples(ws.opts.ObjectSamples)
	for _, s := range samples {
		ws.radius = math.Max(ws.radius, s.Point.Sub(ws.com).Norm())
	}
	if ws.radius == 0 {
		return errors.Errorf("object %q has a degenerate surface", ws.obj.Name())
	}
	ws.directions = sampleDirections(ws.opts.Directions, ws.opts.Seed)

	ows := make([]wrench, 0, len(samples))
	for _, s := range samples {
		ows = append(ows, ws.wrenchAt(s.Point, s.Normal.Mul(-1)))
	}
	ws.objectEps = epsilon(ows, ws.directions)
	if ws.objectEps <= 0 {
		return errors.Errorf("object %q wrench space does not contain the origin", ws.obj.Name())
	}
	ws.ready = true
	ws.logger.Debugw("object wrench space", "object", ws.obj.Name(), "radius", ws.radius, "eps", ws.objectEps)
	return nil
}

// ObjectEpsilon returns the epsilon value of the object wrench space.
func (ws *WrenchSpace) ObjectEpsilon() float64 {
	return ws.objectEps
}

// SetContactPoints replaces the contact set being measured. Contact points and normals are read
// in the object frame.
func (ws *WrenchSpace) SetContactPoints(contacts []robot.ContactInfo) {
	ws.wrenches = ws.wrenches[:0]
	ws.numContact = len(contacts)
	ws.eps = 0
	ws.closure = false
	if !ws.ready || len(contacts) < 2 {
		return
	}
	for _, c := range contacts {
		ws.wrenches = append(ws.wrenches, ws.coneWrenches(c.ObjectPointLocal, c.NormalLocal.Mul(-1))...)
	}
	ws.closure = forceClosure(ws.wrenches)
	if ws.closure {
		ws.eps = epsilon(ws.wrenches, ws.directions)
	}
}

// GraspQuality returns the grasp epsilon relative to the object epsilon, in [0, 1]. Contact sets
// that are not in force closure score 0.
func (ws *WrenchSpace) GraspQuality() float64 {
	if !ws.closure || ws.objectEps <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, ws.eps/ws.objectEps))
}

// IsGraspForceClosure reports whether the contacts can resist any external wrench.
func (ws *WrenchSpace) IsGraspForceClosure() bool {
	return ws.closure
}

// Epsilon returns the unnormalized epsilon value of the current contacts.
func (ws *WrenchSpace) Epsilon() float64 {
	return ws.eps
}

func (ws *WrenchSpace) wrenchAt(p, f r3.Vector) wrench {
	t := p.Sub(ws.com).Cross(f).Mul(1 / ws.radius)
	return wrench{f.X, f.Y, f.Z, t.X, t.Y, t.Z}
}

// coneWrenches linearizes the friction cone around the inward normal n at p.
func (ws *WrenchSpace) coneWrenches(p, n r3.Vector) []wrench {
	n = n.Normalize()
	t1 := n.Ortho()
	t2 := n.Cross(t1)
	out := make([]wrench, 0, ws.opts.ConeEdges)
	for k := 0; k < ws.opts.ConeEdges; k++ {
		a := 2 * math.Pi * float64(k) / float64(ws.opts.ConeEdges)
		edge := n.Add(t1.Mul(ws.opts.Friction * math.Cos(a))).Add(t2.Mul(ws.opts.Friction * math.Sin(a)))
		out = append(out, ws.wrenchAt(p, edge))
	}
	return out
}

// epsilon estimates the radius of the largest origin-centered ball inside the convex hull of ws
// as the minimum of its support function over dirs.
func epsilon(ws []wrench, dirs [][]float64) float64 {
	if len(ws) == 0 {
		return 0
	}
	eps := math.Inf(1)
	for _, d := range dirs {
		best := math.Inf(-1)
		for i := range ws {
			best = math.Max(best, floats.Dot(d, ws[i][:]))
		}
		eps = math.Min(eps, best)
	}
	return eps
}

// sampleDirections returns the twelve signed axes followed by n seeded random unit directions.
func sampleDirections(n int, seed uint64) [][]float64 {
	dirs := make([][]float64, 0, 12+n)
	for i := 0; i < 6; i++ {
		for _, s := range []float64{1, -1} {
			d := make([]float64, 6)
			d[i] = s
			dirs = append(dirs, d)
		}
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	for len(dirs) < 12+n {
		d := make([]float64, 6)
		for i := range d {
			d[i] = normal.Rand()
		}
		norm := floats.Norm(d, 2)
		if norm < 1e-12 {
			continue
		}
		floats.Scale(1/norm, d)
		dirs = append(dirs, d)
	}
	return dirs
}
