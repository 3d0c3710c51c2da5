// Package transform holds the homogeneous 4x4 pose arithmetic used for grasps and scene objects.
//
// Grasp and object poses are kept as mgl64 matrices in millimeters so that compositions and
// inversions happen exactly as authored; conversion to spatialmath.Pose happens only at the
// boundary with geometry and visualization code.
package transform

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/rdk/spatialmath"
)

// MMToM is the scale applied to positions when handing poses to meter based renderers.
const MMToM = 0.001

// Identity returns the identity pose.
func Identity() mgl64.Mat4 {
	return mgl64.Ident4()
}

// FromRows builds a pose from a row-major 4x4 matrix.
func FromRows(rows [4][4]float64) mgl64.Mat4 {
	return mgl64.Mat4FromRows(
		mgl64.Vec4{rows[0][0], rows[0][1], rows[0][2], rows[0][3]},
		mgl64.Vec4{rows[1][0], rows[1][1], rows[1][2], rows[1][3]},
		mgl64.Vec4{rows[2][0], rows[2][1], rows[2][2], rows[2][3]},
		mgl64.Vec4{rows[3][0], rows[3][1], rows[3][2], rows[3][3]},
	)
}

// Translation returns a pure translation.
func Translation(v r3.Vector) mgl64.Mat4 {
	return mgl64.Translate3D(v.X, v.Y, v.Z)
}

// RPY returns the rotation Rz(yaw) * Ry(pitch) * Rx(roll), angles in radians.
func RPY(roll, pitch, yaw float64) mgl64.Mat4 {
	return mgl64.HomogRotate3DZ(yaw).Mul4(mgl64.HomogRotate3DY(pitch)).Mul4(mgl64.HomogRotate3DX(roll))
}

// AxisAngle returns a rotation of angle radians about axis. A zero axis yields the identity.
func AxisAngle(axis r3.Vector, angle float64) mgl64.Mat4 {
	if axis.Norm() == 0 {
		return mgl64.Ident4()
	}
	n := axis.Normalize()
	return mgl64.HomogRotate3D(angle, mgl64.Vec3{n.X, n.Y, n.Z})
}

// Position returns the translational part of m.
func Position(m mgl64.Mat4) r3.Vector {
	return r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}
}

// WithPosition returns m with its translation replaced by p.
func WithPosition(m mgl64.Mat4, p r3.Vector) mgl64.Mat4 {
	m.Set(0, 3, p.X)
	m.Set(1, 3, p.Y)
	m.Set(2, 3, p.Z)
	return m
}

// Apply transforms the point v by m.
func Apply(m mgl64.Mat4, v r3.Vector) r3.Vector {
	out := m.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 1})
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}
}

// Rotate applies only the rotational part of m to the direction v.
func Rotate(m mgl64.Mat4, v r3.Vector) r3.Vector {
	out := m.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 0})
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}
}

// ScaleMM2M returns m with its translation converted from millimeters to meters. The rotation
// is left untouched.
func ScaleMM2M(m mgl64.Mat4) mgl64.Mat4 {
	return WithPosition(m, Position(m).Mul(MMToM))
}

// ScaleM2MM is the inverse of ScaleMM2M.
func ScaleM2MM(m mgl64.Mat4) mgl64.Mat4 {
	return WithPosition(m, Position(m).Mul(1/MMToM))
}

// AlmostEqual reports whether every element of a and b differs by at most eps.
func AlmostEqual(a, b mgl64.Mat4, eps float64) bool {
	return a.ApproxEqualThreshold(b, eps)
}

// ToPose converts a homogeneous matrix into a spatialmath pose.
func ToPose(m mgl64.Mat4) spatialmath.Pose {
	q := mgl64.Mat4ToQuat(m).Normalize()
	o := spatialmath.Quaternion(quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]})
	return spatialmath.NewPose(Position(m), &o)
}

// FromPose converts a spatialmath pose into a homogeneous matrix.
func FromPose(p spatialmath.Pose) mgl64.Mat4 {
	n := p.Orientation().Quaternion()
	m := mgl64.Quat{W: n.Real, V: mgl64.Vec3{n.Imag, n.Jmag, n.Kmag}}.Normalize().Mat4()
	return WithPosition(m, p.Point())
}

// RotationAngle returns the angle in radians of the rotational part of m.
func RotationAngle(m mgl64.Mat4) float64 {
	return math.Abs(ToPose(m).Orientation().AxisAngles().Theta)
}

// Format renders m as four bracketed rows, the way poses are printed in logs.
func Format(m mgl64.Mat4) string {
	var sb strings.Builder
	for r := 0; r < 4; r++ {
		if r > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%10.4f %10.4f %10.4f %10.4f]", m.At(r, 0), m.At(r, 1), m.At(r, 2), m.At(r, 3))
	}
	return sb.String()
}
