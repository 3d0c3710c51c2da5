package transform

import (
	"encoding/xml"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/rdk/spatialmath"
)

func TestRPYMatchesAxisRotations(t *testing.T) {
	m := RPY(0, 0, math.Pi/2)
	v := Rotate(m, r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)

	m = RPY(math.Pi/2, 0, 0)
	v = Rotate(m, r3.Vector{Y: 1})
	test.That(t, v.Z, test.ShouldAlmostEqual, 1)
}

func TestPoseRoundTrip(t *testing.T) {
	m := Translation(r3.Vector{X: 10, Y: -20, Z: 30}).Mul4(RPY(0.1, -0.4, 1.2))
	p := ToPose(m)
	test.That(t, p.Point().X, test.ShouldAlmostEqual, 10)
	test.That(t, p.Point().Y, test.ShouldAlmostEqual, -20)
	test.That(t, p.Point().Z, test.ShouldAlmostEqual, 30)

	back := FromPose(p)
	test.That(t, AlmostEqual(m, back, 1e-9), test.ShouldBeTrue)

	rotated := spatialmath.Compose(p, spatialmath.NewPoseFromPoint(r3.Vector{X: 1}))
	direct := Apply(m, r3.Vector{X: 1})
	test.That(t, rotated.Point().Distance(direct), test.ShouldBeLessThan, 1e-9)
}

func TestScaleMM2M(t *testing.T) {
	m := Translation(r3.Vector{X: 1000, Y: 500, Z: -250}).Mul4(RPY(0, 0, 0.3))
	s := ScaleMM2M(m)
	test.That(t, Position(s).Distance(r3.Vector{X: 1, Y: 0.5, Z: -0.25}), test.ShouldBeLessThan, 1e-12)
	test.That(t, s.At(0, 0), test.ShouldEqual, m.At(0, 0))
	test.That(t, AlmostEqual(ScaleM2MM(s), m, 1e-12), test.ShouldBeTrue)
}

func TestRotationAngle(t *testing.T) {
	test.That(t, RotationAngle(mgl64.Ident4()), test.ShouldAlmostEqual, 0)
	test.That(t, RotationAngle(AxisAngle(r3.Vector{Z: 1}, 0.5)), test.ShouldAlmostEqual, 0.5)
	test.That(t, AxisAngle(r3.Vector{}, 1), test.ShouldResemble, mgl64.Ident4())
}

func TestXMLTransformMatrix(t *testing.T) {
	doc := `<Transform>
		<Matrix4x4>
			<row1 c1="1" c2="0" c3="0" c4="100"/>
			<row2 c1="0" c2="1" c3="0" c4="200"/>
			<row3 c1="0" c2="0" c3="1" c4="300"/>
		</Matrix4x4>
	</Transform>`
	var tr XMLTransform
	test.That(t, xml.Unmarshal([]byte(doc), &tr), test.ShouldBeNil)
	test.That(t, Position(tr.Matrix()), test.ShouldResemble, r3.Vector{X: 100, Y: 200, Z: 300})
	test.That(t, tr.Matrix().At(3, 3), test.ShouldEqual, 1.)
}

func TestXMLTransformSteps(t *testing.T) {
	doc := `<Transform>
		<Translation x="0.1" y="0" z="0" units="m"/>
		<rollpitchyaw roll="0" pitch="0" yaw="90" unitsAngle="degree"/>
		<Translation x="10" y="0" z="0"/>
	</Transform>`
	var tr XMLTransform
	test.That(t, xml.Unmarshal([]byte(doc), &tr), test.ShouldBeNil)
	p := Position(tr.Matrix())
	test.That(t, p.X, test.ShouldAlmostEqual, 100)
	test.That(t, p.Y, test.ShouldAlmostEqual, 10)

	var empty *XMLTransform
	test.That(t, empty.Matrix(), test.ShouldResemble, mgl64.Ident4())
}

func TestXMLTransformErrors(t *testing.T) {
	var tr XMLTransform
	err := xml.Unmarshal([]byte(`<Transform><Quaternion w="1"/></Transform>`), &tr)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "Quaternion")

	err = xml.Unmarshal([]byte(`<Transform><Translation x="1" units="furlong"/></Transform>`), &tr)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = LengthToMM(2, "m")
	test.That(t, err, test.ShouldBeNil)
}
