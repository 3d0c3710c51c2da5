package object

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/rdk/spatialmath"
)

// SurfaceSample is a point on a shape's surface with its outward unit normal, in the shape frame.
type SurfaceSample struct {
	Point  r3.Vector
	Normal r3.Vector
}

// Shape is a convex collision primitive expressed in its own frame (millimeters).
type Shape interface {
	// SignedDistance is negative inside the shape.
	SignedDistance(p r3.Vector) float64
	// ClosestPoint returns the surface point nearest to p.
	ClosestPoint(p r3.Vector) r3.Vector
	// Normal returns the outward surface normal at the surface point nearest to p.
	Normal(p r3.Vector) r3.Vector
	// SurfaceSamples returns roughly n deterministic samples spread over the surface.
	SurfaceSamples(n int) []SurfaceSample
	// Radius is the largest distance from the origin to the surface.
	Radius() float64
	// Geometry returns the equivalent spatialmath geometry placed at pose.
	Geometry(pose spatialmath.Pose, label string) (spatialmath.Geometry, error)
}

var errBadDimension = errors.New("shape dimensions must be positive")

// Box is an axis aligned box centered on the origin.
type Box struct {
	half r3.Vector
}

// NewBox returns a box with the given full edge lengths.
func NewBox(width, height, depth float64) (*Box, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, errors.Wrapf(errBadDimension, "box %gx%gx%g", width, height, depth)
	}
	return &Box{half: r3.Vector{X: width / 2, Y: height / 2, Z: depth / 2}}, nil
}

// Dims returns the full edge lengths.
func (b *Box) Dims() r3.Vector {
	return b.half.Mul(2)
}

func (b *Box) SignedDistance(p r3.Vector) float64 {
	q := r3.Vector{X: math.Abs(p.X) - b.half.X, Y: math.Abs(p.Y) - b.half.Y, Z: math.Abs(p.Z) - b.half.Z}
	outside := r3.Vector{X: math.Max(q.X, 0), Y: math.Max(q.Y, 0), Z: math.Max(q.Z, 0)}.Norm()
	inside := math.Min(math.Max(q.X, math.Max(q.Y, q.Z)), 0)
	return outside + inside
}

func (b *Box) ClosestPoint(p r3.Vector) r3.Vector {
	c := r3.Vector{
		X: math.Max(-b.half.X, math.Min(b.half.X, p.X)),
		Y: math.Max(-b.half.Y, math.Min(b.half.Y, p.Y)),
		Z: math.Max(-b.half.Z, math.Min(b.half.Z, p.Z)),
	}
	if b.SignedDistance(p) > 0 {
		return c
	}
	switch b.dominantAxis(p) {
	case 0:
		c.X = math.Copysign(b.half.X, p.X)
	case 1:
		c.Y = math.Copysign(b.half.Y, p.Y)
	default:
		c.Z = math.Copysign(b.half.Z, p.Z)
	}
	return c
}

func (b *Box) Normal(p r3.Vector) r3.Vector {
	if b.SignedDistance(p) > 0 {
		d := p.Sub(b.ClosestPoint(p))
		if d.Norm() > 0 {
			return d.Normalize()
		}
	}
	switch b.dominantAxis(p) {
	case 0:
		return r3.Vector{X: math.Copysign(1, p.X)}
	case 1:
		return r3.Vector{Y: math.Copysign(1, p.Y)}
	default:
		return r3.Vector{Z: math.Copysign(1, p.Z)}
	}
}

// dominantAxis is the axis whose face is nearest to an interior point.
func (b *Box) dominantAxis(p r3.Vector) int {
	q := []float64{math.Abs(p.X) - b.half.X, math.Abs(p.Y) - b.half.Y, math.Abs(p.Z) - b.half.Z}
	best := 0
	for i := 1; i < 3; i++ {
		if q[i] > q[best] {
			best = i
		}
	}
	return best
}

func (b *Box) SurfaceSamples(n int) []SurfaceSample {
	perFace := int(math.Max(1, math.Floor(math.Sqrt(float64(n)/6))))
	var out []SurfaceSample
	h := []float64{b.half.X, b.half.Y, b.half.Z}
	for axis := 0; axis < 3; axis++ {
		u, v := (axis+1)%3, (axis+2)%3
		for _, sign := range []float64{1, -1} {
			for i := 0; i < perFace; i++ {
				for j := 0; j < perFace; j++ {
					var pt, nrm [3]float64
					pt[axis] = sign * h[axis]
					pt[u] = h[u] * (2*(float64(i)+0.5)/float64(perFace) - 1)
					pt[v] = h[v] * (2*(float64(j)+0.5)/float64(perFace) - 1)
					nrm[axis] = sign
					out = append(out, SurfaceSample{
						Point:  r3.Vector{X: pt[0], Y: pt[1], Z: pt[2]},
						Normal: r3.Vector{X: nrm[0], Y: nrm[1], Z: nrm[2]},
					})
				}
			}
		}
	}
	return out
}

func (b *Box) Radius() float64 {
	return b.half.Norm()
}

func (b *Box) Geometry(pose spatialmath.Pose, label string) (spatialmath.Geometry, error) {
	return spatialmath.NewBox(pose, b.Dims(), label)
}

// Sphere is a sphere centered on the origin.
type Sphere struct {
	R float64
}

// NewSphere returns a sphere of radius r.
func NewSphere(r float64) (*Sphere, error) {
	if r <= 0 {
		return nil, errors.Wrapf(errBadDimension, "sphere radius %g", r)
	}
	return &Sphere{R: r}, nil
}

func (s *Sphere) SignedDistance(p r3.Vector) float64 {
	return p.Norm() - s.R
}

func (s *Sphere) ClosestPoint(p r3.Vector) r3.Vector {
	return s.Normal(p).Mul(s.R)
}

func (s *Sphere) Normal(p r3.Vector) r3.Vector {
	if p.Norm() == 0 {
		return r3.Vector{Z: 1}
	}
	return p.Normalize()
}

// SurfaceSamples uses a Fibonacci lattice.
func (s *Sphere) SurfaceSamples(n int) []SurfaceSample {
	if n < 1 {
		n = 1
	}
	golden := math.Pi * (3 - math.Sqrt(5))
	out := make([]SurfaceSample, 0, n)
	for i := 0; i < n; i++ {
		z := 1 - 2*(float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - z*z)
		phi := golden * float64(i)
		nrm := r3.Vector{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
		out = append(out, SurfaceSample{Point: nrm.Mul(s.R), Normal: nrm})
	}
	return out
}

func (s *Sphere) Radius() float64 {
	return s.R
}

func (s *Sphere) Geometry(pose spatialmath.Pose, label string) (spatialmath.Geometry, error) {
	return spatialmath.NewSphere(pose, s.R, label)
}

// Cylinder is a cylinder centered on the origin with its axis along z.
type Cylinder struct {
	R, Height float64
}

// NewCylinder returns a cylinder of radius r and the given height.
func NewCylinder(r, height float64) (*Cylinder, error) {
	if r <= 0 || height <= 0 {
		return nil, errors.Wrapf(errBadDimension, "cylinder radius %g height %g", r, height)
	}
	return &Cylinder{R: r, Height: height}, nil
}

func (c *Cylinder) terms(p r3.Vector) (radial, dr, dz float64) {
	radial = math.Hypot(p.X, p.Y)
	return radial, radial - c.R, math.Abs(p.Z) - c.Height/2
}

func (c *Cylinder) SignedDistance(p r3.Vector) float64 {
	_, dr, dz := c.terms(p)
	outside := math.Hypot(math.Max(dr, 0), math.Max(dz, 0))
	return outside + math.Min(math.Max(dr, dz), 0)
}

func (c *Cylinder) radialDir(p r3.Vector) r3.Vector {
	radial := math.Hypot(p.X, p.Y)
	if radial == 0 {
		return r3.Vector{X: 1}
	}
	return r3.Vector{X: p.X / radial, Y: p.Y / radial}
}

func (c *Cylinder) ClosestPoint(p r3.Vector) r3.Vector {
	radial, dr, dz := c.terms(p)
	dir := c.radialDir(p)
	if dr > 0 || dz > 0 {
		rr := math.Min(radial, c.R)
		z := math.Max(-c.Height/2, math.Min(c.Height/2, p.Z))
		return dir.Mul(rr).Add(r3.Vector{Z: z})
	}
	if dr > dz {
		return dir.Mul(c.R).Add(r3.Vector{Z: p.Z})
	}
	return r3.Vector{X: p.X, Y: p.Y, Z: math.Copysign(c.Height/2, p.Z)}
}

func (c *Cylinder) Normal(p r3.Vector) r3.Vector {
	_, dr, dz := c.terms(p)
	if dr > 0 && dz > 0 {
		d := p.Sub(c.ClosestPoint(p))
		if d.Norm() > 0 {
			return d.Normalize()
		}
	}
	if dr > dz {
		return c.radialDir(p)
	}
	return r3.Vector{Z: math.Copysign(1, p.Z)}
}

func (c *Cylinder) SurfaceSamples(n int) []SurfaceSample {
	k := int(math.Max(4, math.Sqrt(float64(n))))
	var out []SurfaceSample
	for i := 0; i < k; i++ {
		a := 2 * math.Pi * float64(i) / float64(k)
		dir := r3.Vector{X: math.Cos(a), Y: math.Sin(a)}
		for j := 0; j < k; j++ {
			z := c.Height * ((float64(j)+0.5)/float64(k) - 0.5)
			out = append(out, SurfaceSample{Point: dir.Mul(c.R).Add(r3.Vector{Z: z}), Normal: dir})
		}
		for _, sign := range []float64{1, -1} {
			out = append(out, SurfaceSample{
				Point:  dir.Mul(c.R / 2).Add(r3.Vector{Z: sign * c.Height / 2}),
				Normal: r3.Vector{Z: sign},
			})
		}
	}
	return out
}

func (c *Cylinder) Radius() float64 {
	return math.Hypot(c.R, c.Height/2)
}

// Geometry approximates the cylinder with a capsule, the closest primitive spatialmath offers.
func (c *Cylinder) Geometry(pose spatialmath.Pose, label string) (spatialmath.Geometry, error) {
	return spatialmath.NewCapsule(pose, c.R, math.Max(c.Height, 2*c.R), label)
}
