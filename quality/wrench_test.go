package quality

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/logging"
	"go.viam.com/test"

	"go.viam.com/grasp/object"
	"go.viam.com/grasp/robot"
)

func boxWrenchSpace(t *testing.T) *WrenchSpace {
	t.Helper()
	b, err := object.NewBox(60, 60, 40)
	test.That(t, err, test.ShouldBeNil)
	ws := NewWrenchSpace(object.New("box", b), DefaultOptions(), logging.NewTestLogger(t))
	test.That(t, ws.CalculateObjectProperties(), test.ShouldBeNil)
	return ws
}

func contact(p, n r3.Vector) robot.ContactInfo {
	return robot.ContactInfo{ObjectPointLocal: p, NormalLocal: n}
}

func TestObjectWrenchSpace(t *testing.T) {
	ws := boxWrenchSpace(t)
	test.That(t, ws.ObjectEpsilon(), test.ShouldBeGreaterThan, 0)
	test.That(t, ws.Name(), test.ShouldEqual, "GraspWrenchSpace")

	// a second call keeps the first result
	eps := ws.ObjectEpsilon()
	test.That(t, ws.CalculateObjectProperties(), test.ShouldBeNil)
	test.That(t, ws.ObjectEpsilon(), test.ShouldEqual, eps)
}

func TestFourFingerGraspIsForceClosure(t *testing.T) {
	ws := boxWrenchSpace(t)
	ws.SetContactPoints([]robot.ContactInfo{
		contact(r3.Vector{X: 20, Y: 30}, r3.Vector{Y: 1}),
		contact(r3.Vector{X: -20, Y: 30}, r3.Vector{Y: 1}),
		contact(r3.Vector{X: 20, Y: -30}, r3.Vector{Y: -1}),
		contact(r3.Vector{X: -20, Y: -30}, r3.Vector{Y: -1}),
	})
	test.That(t, ws.IsGraspForceClosure(), test.ShouldBeTrue)
	q := ws.GraspQuality()
	test.That(t, q, test.ShouldBeGreaterThan, 0)
	test.That(t, q, test.ShouldBeLessThanOrEqualTo, 1)
	test.That(t, ws.Epsilon(), test.ShouldBeGreaterThan, 0)
}

func TestTwoPointGraspIsNotForceClosure(t *testing.T) {
	ws := boxWrenchSpace(t)
	// nothing resists rotation about the line through both contacts
	ws.SetContactPoints([]robot.ContactInfo{
		contact(r3.Vector{Y: 30}, r3.Vector{Y: 1}),
		contact(r3.Vector{Y: -30}, r3.Vector{Y: -1}),
	})
	test.That(t, ws.IsGraspForceClosure(), test.ShouldBeFalse)
	test.That(t, ws.GraspQuality(), test.ShouldEqual, 0)
}

func TestOneSidedGraspIsNotForceClosure(t *testing.T) {
	ws := boxWrenchSpace(t)
	ws.SetContactPoints([]robot.ContactInfo{
		contact(r3.Vector{X: 20, Y: 30}, r3.Vector{Y: 1}),
		contact(r3.Vector{X: -20, Y: 30}, r3.Vector{Y: 1}),
		contact(r3.Vector{X: 20, Y: 30, Z: 10}, r3.Vector{Y: 1}),
	})
	test.That(t, ws.IsGraspForceClosure(), test.ShouldBeFalse)
	test.That(t, ws.GraspQuality(), test.ShouldEqual, 0)
}

func TestTooFewContacts(t *testing.T) {
	ws := boxWrenchSpace(t)
	ws.SetContactPoints([]robot.ContactInfo{contact(r3.Vector{Y: 30}, r3.Vector{Y: 1})})
	test.That(t, ws.IsGraspForceClosure(), test.ShouldBeFalse)
	test.That(t, ws.GraspQuality(), test.ShouldEqual, 0)

	ws.SetContactPoints(nil)
	test.That(t, ws.IsGraspForceClosure(), test.ShouldBeFalse)
	test.That(t, ws.GraspQuality(), test.ShouldEqual, 0)
}

func TestContactsBeforeObjectProperties(t *testing.T) {
	b, err := object.NewBox(60, 60, 40)
	test.That(t, err, test.ShouldBeNil)
	ws := NewWrenchSpace(object.New("box", b), DefaultOptions(), logging.NewTestLogger(t))
	ws.SetContactPoints([]robot.ContactInfo{
		contact(r3.Vector{X: 20, Y: 30}, r3.Vector{Y: 1}),
		contact(r3.Vector{X: -20, Y: 30}, r3.Vector{Y: 1}),
		contact(r3.Vector{X: 20, Y: -30}, r3.Vector{Y: -1}),
		contact(r3.Vector{X: -20, Y: -30}, r3.Vector{Y: -1}),
	})
	test.That(t, ws.IsGraspForceClosure(), test.ShouldBeFalse)
	test.That(t, ws.GraspQuality(), test.ShouldEqual, 0)
}

func TestObjectPropertiesErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ws := NewWrenchSpace(object.New("ghost", nil), DefaultOptions(), logger)
	err := ws.CalculateObjectProperties()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no collision model")

	b, err := object.NewBox(10, 10, 10)
	test.That(t, err, test.ShouldBeNil)
	opts := DefaultOptions()
	opts.ConeEdges = 2
	ws = NewWrenchSpace(object.New("box", b), opts, logger)
	test.That(t, ws.CalculateObjectProperties(), test.ShouldNotBeNil)
}

func TestSampleDirections(t *testing.T) {
	a := sampleDirections(50, 7)
	b := sampleDirections(50, 7)
	test.That(t, len(a), test.ShouldEqual, 62)
	test.That(t, a, test.ShouldResemble, b)
	test.That(t, sampleDirections(50, 8), test.ShouldNotResemble, a)
}
