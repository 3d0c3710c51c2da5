// Package visualization accumulates render primitives for scenes, end effectors and evaluated
// grasps, and hands them to viewers.
package visualization

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"go.viam.com/grasp/transform"
)

// Kind is the type of a render primitive.
type Kind int

// Primitive kinds.
const (
	Group Kind = iota
	Sphere
	Box
	Cylinder
	Point
	Frame
)

func (k Kind) String() string {
	switch k {
	case Group:
		return "group"
	case Sphere:
		return "sphere"
	case Box:
		return "box"
	case Cylinder:
		return "cylinder"
	case Point:
		return "point"
	case Frame:
		return "frame"
	default:
		return "unknown"
	}
}

// Primitive is a render element. Lengths are in meters.
type Primitive struct {
	Kind  Kind
	Label string
	// Local is the transform relative to the parent node.
	Local mgl64.Mat4
	// Dims holds the box size, the sphere radius in X, or the cylinder radius in X and height in Z.
	Dims  r3.Vector
	Color string
}

// extent is the radius of a sphere around the primitive origin that bounds it.
func (p Primitive) extent() float64 {
	switch p.Kind {
	case Sphere:
		return p.Dims.X
	case Box:
		return p.Dims.Mul(0.5).Norm()
	case Cylinder:
		return math.Hypot(p.Dims.X, p.Dims.Z/2)
	default:
		return 0
	}
}

// visible reports whether the primitive draws anything.
func (p Primitive) visible() bool {
	return p.Kind != Group
}

// Node identifies a node in an Arena.
type Node int

// Nil represents an invalid Node.
const Nil Node = 0

type entry struct {
	parent Node
	first  Node
	last   Node
	next   Node
	live   bool
	prim   Primitive
}

// Arena stores render primitives in a tree, addressed by handle. Released handles are reused.
type Arena struct {
	entries []entry
	free    []Node
	roots   []Node
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	// entry 0 backs Nil
	return &Arena{entries: make([]entry, 1)}
}

// Insert adds p as the last child of parent, or as a root when parent is Nil. It returns Nil if
// parent is not a live node.
func (a *Arena) Insert(parent Node, p Primitive) Node {
	if parent != Nil && !a.Valid(parent) {
		return Nil
	}
	if p.Local == (mgl64.Mat4{}) {
		p.Local = transform.Identity()
	}
	var n Node
	if k := len(a.free); k > 0 {
		n = a.free[k-1]
		a.free = a.free[:k-1]
	} else {
		n = Node(len(a.entries))
		a.entries = append(a.entries, entry{})
	}
	a.entries[n] = entry{parent: parent, live: true, prim: p}
	if parent == Nil {
		a.roots = append(a.roots, n)
		return n
	}
	pe := &a.entries[parent]
	if pe.last == Nil {
		pe.first = n
	} else {
		a.entries[pe.last].next = n
	}
	pe.last = n
	return n
}

// Release removes n and its descendants. Handles of released nodes become invalid.
func (a *Arena) Release(n Node) {
	if !a.Valid(n) {
		return
	}
	parent := a.entries[n].parent
	if parent == Nil {
		for i, r := range a.roots {
			if r == n {
				a.roots = append(a.roots[:i], a.roots[i+1:]...)
				break
			}
		}
	} else {
		a.unlink(parent, n)
	}
	for _, m := range a.subtree(n) {
		a.entries[m] = entry{}
		a.free = append(a.free, m)
	}
}

func (a *Arena) unlink(parent, n Node) {
	pe := &a.entries[parent]
	prev := Nil
	for c := pe.first; c != Nil; c = a.entries[c].next {
		if c != n {
			prev = c
			continue
		}
		if prev == Nil {
			pe.first = a.entries[c].next
		} else {
			a.entries[prev].next = a.entries[c].next
		}
		if pe.last == n {
			pe.last = prev
		}
		return
	}
}

// subtree lists n and its descendants breadth-first.
func (a *Arena) subtree(n Node) []Node {
	out := []Node{n}
	for i := 0; i < len(out); i++ {
		out = append(out, a.Children(out[i])...)
	}
	return out
}

// Valid reports whether n is a live node.
func (a *Arena) Valid(n Node) bool {
	return n > Nil && int(n) < len(a.entries) && a.entries[n].live
}

// Len returns the number of live nodes.
func (a *Arena) Len() int {
	return len(a.entries) - 1 - len(a.free)
}

// Roots returns the nodes without a parent, in insertion order.
func (a *Arena) Roots() []Node {
	return append([]Node(nil), a.roots...)
}

// Primitive returns the primitive stored at n.
func (a *Arena) Primitive(n Node) (Primitive, bool) {
	if !a.Valid(n) {
		return Primitive{}, false
	}
	return a.entries[n].prim, true
}

// Parent returns the parent of n, or Nil.
func (a *Arena) Parent(n Node) Node {
	if !a.Valid(n) {
		return Nil
	}
	return a.entries[n].parent
}

// Children returns the children of n in insertion order.
func (a *Arena) Children(n Node) []Node {
	if !a.Valid(n) {
		return nil
	}
	var out []Node
	for c := a.entries[n].first; c != Nil; c = a.entries[c].next {
		out = append(out, c)
	}
	return out
}

// World returns the transform of n relative to the arena root.
func (a *Arena) World(n Node) mgl64.Mat4 {
	m := transform.Identity()
	for cur := n; a.Valid(cur); cur = a.entries[cur].parent {
		m = a.entries[cur].prim.Local.Mul4(m)
	}
	return m
}

// ForEach calls fn breadth-first for n and its descendants, or for every node when n is Nil,
// with each node's world transform. Returning false from fn skips the node's descendants.
func (a *Arena) ForEach(n Node, fn func(n Node, world mgl64.Mat4, p Primitive) bool) {
	type item struct {
		n     Node
		world mgl64.Mat4
	}
	var queue []item
	if n == Nil {
		for _, r := range a.roots {
			queue = append(queue, item{r, a.entries[r].prim.Local})
		}
	} else if a.Valid(n) {
		queue = append(queue, item{n, a.World(n)})
	}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if !fn(it.n, it.world, a.entries[it.n].prim) {
			continue
		}
		for c := a.entries[it.n].first; c != Nil; c = a.entries[c].next {
			queue = append(queue, item{c, it.world.Mul4(a.entries[c].prim.Local)})
		}
	}
}

// Bounds returns the axis-aligned box around every visible primitive. ok is false when nothing
// is visible.
func (a *Arena) Bounds() (lo, hi r3.Vector, ok bool) {
	inf := math.Inf(1)
	lo = r3.Vector{X: inf, Y: inf, Z: inf}
	hi = lo.Mul(-1)
	a.ForEach(Nil, func(_ Node, world mgl64.Mat4, p Primitive) bool {
		if !p.visible() {
			return true
		}
		c := transform.Position(world)
		e := p.extent()
		lo = r3.Vector{X: math.Min(lo.X, c.X-e), Y: math.Min(lo.Y, c.Y-e), Z: math.Min(lo.Z, c.Z-e)}
		hi = r3.Vector{X: math.Max(hi.X, c.X+e), Y: math.Max(hi.Y, c.Y+e), Z: math.Max(hi.Z, c.Z+e)}
		ok = true
		return true
	})
	if !ok {
		return r3.Vector{}, r3.Vector{}, false
	}
	return lo, hi, true
}
