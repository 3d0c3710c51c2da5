package robot

import "fmt"

// LookupError is returned when a named end effector, preshape or node is absent from the model.
type LookupError struct {
	Kind  string
	Name  string
	Robot string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %q not found in robot %q", e.Kind, e.Name, e.Robot)
}

// NewEndEffectorNotFoundError is used when an end effector is absent.
func NewEndEffectorNotFoundError(name, robot string) error {
	return &LookupError{Kind: "end effector", Name: name, Robot: robot}
}

// NewPreshapeNotFoundError is used when a preshape is absent from an end effector.
func NewPreshapeNotFoundError(name, robot string) error {
	return &LookupError{Kind: "preshape", Name: name, Robot: robot}
}

// NewNodeNotFoundError is used when a robot node is absent.
func NewNodeNotFoundError(name, robot string) error {
	return &LookupError{Kind: "robot node", Name: name, Robot: robot}
}
