// Package robot implements the kinematic end-effector model: a tree of robot nodes with
// optional joints and collision pads, and end effectors whose actors close onto objects.
package robot

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/grasp/transform"
)

// JointType identifies how a node moves relative to its parent.
type JointType int

const (
	// Fixed nodes do not move.
	Fixed JointType = iota
	// Revolute nodes rotate about their axis; values are radians.
	Revolute
	// Prismatic nodes slide along their axis; values are millimeters.
	Prismatic
)

// Joint describes a node's degree of freedom.
type Joint struct {
	Type     JointType
	Axis     r3.Vector
	Min, Max float64
}

// Pad is a spherical collision element in the node frame.
type Pad struct {
	Offset r3.Vector
	Radius float64
}

// Node is a link of the kinematic tree.
type Node struct {
	Name     string
	Parent   string
	Children []string
	// Local is the fixed transform from the parent frame, applied before the joint motion.
	Local mgl64.Mat4
	Joint Joint
	Pads  []Pad

	value float64
}

// Value returns the joint value.
func (n *Node) Value() float64 {
	return n.value
}

// transform returns the transform from the parent frame to this node's frame.
func (n *Node) transform() mgl64.Mat4 {
	switch n.Joint.Type {
	case Revolute:
		return n.Local.Mul4(transform.AxisAngle(n.Joint.Axis, n.value))
	case Prismatic:
		return n.Local.Mul4(transform.Translation(n.Joint.Axis.Normalize().Mul(n.value)))
	default:
		return n.Local
	}
}

func (n *Node) clone() *Node {
	c := *n
	c.Children = append([]string(nil), n.Children...)
	c.Pads = append([]Pad(nil), n.Pads...)
	return &c
}

// Robot is a kinematic model placed in the world.
type Robot struct {
	Type string

	root       string
	nodes      map[string]*Node
	globalPose mgl64.Mat4
	eefs       []*EndEffector
}

// New returns an empty robot with a single root node.
func New(robotType, root string) *Robot {
	r := &Robot{Type: robotType, root: root, nodes: map[string]*Node{}, globalPose: transform.Identity()}
	r.nodes[root] = &Node{Name: root, Local: transform.Identity()}
	return r
}

// AddNode attaches n below parent.
func (r *Robot) AddNode(parent string, n *Node) error {
	p, ok := r.nodes[parent]
	if !ok {
		return NewNodeNotFoundError(parent, r.Type)
	}
	if _, dup := r.nodes[n.Name]; dup {
		return errors.Errorf("duplicate robot node %q", n.Name)
	}
	n.Parent = parent
	p.Children = append(p.Children, n.Name)
	r.nodes[n.Name] = n
	n.value = clampJoint(n.Joint, n.value)
	return nil
}

// Root returns the root node name.
func (r *Robot) Root() string {
	return r.root
}

// Node returns the named node.
func (r *Robot) Node(name string) (*Node, error) {
	n, ok := r.nodes[name]
	if !ok {
		return nil, NewNodeNotFoundError(name, r.Type)
	}
	return n, nil
}

// NodeNames returns all node names, sorted.
func (r *Robot) NodeNames() []string {
	names := make([]string, 0, len(r.nodes))
	for n := range r.nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GlobalPose returns the pose of the robot root in the world.
func (r *Robot) GlobalPose() mgl64.Mat4 {
	return r.globalPose
}

// SetGlobalPose places the robot root.
func (r *Robot) SetGlobalPose(m mgl64.Mat4) {
	r.globalPose = m
}

// relativePose is the pose of the named node in the root frame.
func (r *Robot) relativePose(name string) (mgl64.Mat4, error) {
	m := transform.Identity()
	for cur := name; cur != r.root; {
		n, ok := r.nodes[cur]
		if !ok {
			return m, NewNodeNotFoundError(cur, r.Type)
		}
		m = n.transform().Mul4(m)
		cur = n.Parent
	}
	return m, nil
}

// NodePose returns the global pose of the named node.
func (r *Robot) NodePose(name string) (mgl64.Mat4, error) {
	rel, err := r.relativePose(name)
	if err != nil {
		return rel, err
	}
	return r.globalPose.Mul4(rel), nil
}

// SetGlobalPoseForRobotNode moves the whole robot so that the named node ends up at pose.
func (r *Robot) SetGlobalPoseForRobotNode(name string, pose mgl64.Mat4) error {
	rel, err := r.relativePose(name)
	if err != nil {
		return err
	}
	r.globalPose = pose.Mul4(rel.Inv())
	return nil
}

// SetJointValue sets a node's joint value, clamped to its limits.
func (r *Robot) SetJointValue(name string, v float64) error {
	n, err := r.Node(name)
	if err != nil {
		return err
	}
	n.value = clampJoint(n.Joint, v)
	return nil
}

// JointValues returns the value of every movable node.
func (r *Robot) JointValues() map[string]float64 {
	out := map[string]float64{}
	for name, n := range r.nodes {
		if n.Joint.Type != Fixed {
			out[name] = n.value
		}
	}
	return out
}

// SetJointValues restores values captured by JointValues. Unknown names are ignored.
func (r *Robot) SetJointValues(values map[string]float64) {
	for name, v := range values {
		if n, ok := r.nodes[name]; ok {
			n.value = clampJoint(n.Joint, v)
		}
	}
}

// EndEffector returns the named end effector.
func (r *Robot) EndEffector(name string) (*EndEffector, error) {
	for _, e := range r.eefs {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, NewEndEffectorNotFoundError(name, r.Type)
}

// EndEffectors returns all end effectors in document order.
func (r *Robot) EndEffectors() []*EndEffector {
	return r.eefs
}

// AddEndEffector registers e after checking that its nodes exist.
func (r *Robot) AddEndEffector(e *EndEffector) error {
	for _, name := range append([]string{e.Base, e.TCP}, e.actorNodeNames()...) {
		if _, err := r.Node(name); err != nil {
			return errors.Wrapf(err, "end effector %q", e.Name)
		}
	}
	if _, err := r.EndEffector(e.Name); err == nil {
		return errors.Errorf("duplicate end effector %q", e.Name)
	}
	e.robot = r
	r.eefs = append(r.eefs, e)
	return nil
}

// subtree returns base and all its descendants.
func (r *Robot) subtree(base string) []string {
	out := []string{base}
	for i := 0; i < len(out); i++ {
		out = append(out, r.nodes[out[i]].Children...)
	}
	return out
}

// Clone returns a deep copy, including joint values and end effectors.
func (r *Robot) Clone() *Robot {
	c, _ := r.CloneSubtree(r.root)
	return c
}

// CloneSubtree returns a new robot rooted at base, holding base's descendants and every end
// effector entirely contained in that subtree. The clone starts at the global pose base has in r.
func (r *Robot) CloneSubtree(base string) (*Robot, error) {
	basePose, err := r.NodePose(base)
	if err != nil {
		return nil, err
	}
	c := &Robot{Type: r.Type, root: base, nodes: map[string]*Node{}, globalPose: basePose}
	for _, name := range r.subtree(base) {
		c.nodes[name] = r.nodes[name].clone()
	}
	root := c.nodes[base]
	root.Parent = ""
	root.Local = transform.Identity()
	root.Joint = Joint{}
	root.value = 0
	for _, e := range r.eefs {
		// end effectors reaching outside the subtree are dropped
		//nolint:errcheck
		c.AddEndEffector(e.clone())
	}
	return c, nil
}

func clampJoint(j Joint, v float64) float64 {
	if j.Type == Fixed {
		return 0
	}
	if j.Min > j.Max {
		return v
	}
	return math.Max(j.Min, math.Min(j.Max, v))
}
