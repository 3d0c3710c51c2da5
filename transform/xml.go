package transform

import (
	"encoding/xml"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/rdk/utils"
)

// XMLRow is one row of a <Matrix4x4> element.
type XMLRow struct {
	C1 float64 `xml:"c1,attr"`
	C2 float64 `xml:"c2,attr"`
	C3 float64 `xml:"c3,attr"`
	C4 float64 `xml:"c4,attr"`
}

// XMLMatrix is a <Matrix4x4> element. Missing rows keep their identity values.
type XMLMatrix struct {
	Row1  *XMLRow `xml:"row1"`
	Row2  *XMLRow `xml:"row2"`
	Row3  *XMLRow `xml:"row3"`
	Row4  *XMLRow `xml:"row4"`
	Units string  `xml:"unitsLength,attr"`
}

// XMLTranslation is a <Translation> element.
type XMLTranslation struct {
	X           float64 `xml:"x,attr"`
	Y           float64 `xml:"y,attr"`
	Z           float64 `xml:"z,attr"`
	Units       string  `xml:"units,attr"`
	UnitsLength string  `xml:"unitsLength,attr"`
}

// XMLRollPitchYaw is a <rollpitchyaw> element.
type XMLRollPitchYaw struct {
	Roll       float64 `xml:"roll,attr"`
	Pitch      float64 `xml:"pitch,attr"`
	Yaw        float64 `xml:"yaw,attr"`
	Units      string  `xml:"units,attr"`
	UnitsAngle string  `xml:"unitsAngle,attr"`
}

// XMLTransform is a <Transform> element: either a single <Matrix4x4> or any sequence of
// <Translation> and <rollpitchyaw> steps applied in document order.
type XMLTransform struct {
	steps []mgl64.Mat4
}

// UnmarshalXML walks the children of <Transform> so that step order is preserved.
func (t *XMLTransform) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return errors.Wrap(err, "reading Transform")
		}
		switch el := tok.(type) {
		case xml.StartElement:
			step, err := decodeStep(d, el)
			if err != nil {
				return err
			}
			t.steps = append(t.steps, step)
		case xml.EndElement:
			return nil
		}
	}
}

func decodeStep(d *xml.Decoder, el xml.StartElement) (mgl64.Mat4, error) {
	switch strings.ToLower(el.Name.Local) {
	case "matrix4x4":
		var m XMLMatrix
		if err := d.DecodeElement(&m, &el); err != nil {
			return mgl64.Mat4{}, errors.Wrap(err, "decoding Matrix4x4")
		}
		return m.Matrix()
	case "translation":
		var tr XMLTranslation
		if err := d.DecodeElement(&tr, &el); err != nil {
			return mgl64.Mat4{}, errors.Wrap(err, "decoding Translation")
		}
		return tr.Matrix()
	case "rollpitchyaw":
		var rpy XMLRollPitchYaw
		if err := d.DecodeElement(&rpy, &el); err != nil {
			return mgl64.Mat4{}, errors.Wrap(err, "decoding rollpitchyaw")
		}
		return rpy.Matrix()
	default:
		return mgl64.Mat4{}, errors.Errorf("unsupported transform element <%s>", el.Name.Local)
	}
}

// Matrix returns the composition of all steps, or the identity when there are none.
func (t *XMLTransform) Matrix() mgl64.Mat4 {
	m := mgl64.Ident4()
	if t == nil {
		return m
	}
	for _, s := range t.steps {
		m = m.Mul4(s)
	}
	return m
}

// Matrix returns the pose described by the rows, with translation in millimeters.
func (x *XMLMatrix) Matrix() (mgl64.Mat4, error) {
	scale, err := lengthScale(x.Units)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	rows := [4][4]float64{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
	for i, r := range []*XMLRow{x.Row1, x.Row2, x.Row3, x.Row4} {
		if r != nil {
			rows[i] = [4]float64{r.C1, r.C2, r.C3, r.C4}
		}
	}
	for i := 0; i < 3; i++ {
		rows[i][3] *= scale
	}
	return FromRows(rows), nil
}

// Matrix returns the translation in millimeters.
func (x *XMLTranslation) Matrix() (mgl64.Mat4, error) {
	units := x.Units
	if units == "" {
		units = x.UnitsLength
	}
	scale, err := lengthScale(units)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return Translation(r3.Vector{X: x.X, Y: x.Y, Z: x.Z}.Mul(scale)), nil
}

// Matrix returns the rotation. Angles default to radians.
func (x *XMLRollPitchYaw) Matrix() (mgl64.Mat4, error) {
	units := x.Units
	if units == "" {
		units = x.UnitsAngle
	}
	conv, err := AngleConverter(units)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return RPY(conv(x.Roll), conv(x.Pitch), conv(x.Yaw)), nil
}

func lengthScale(units string) (float64, error) {
	switch strings.ToLower(units) {
	case "", "mm", "millimeter", "millimeters":
		return 1, nil
	case "m", "meter", "meters":
		return utils.MetersToMM(1), nil
	default:
		return 0, errors.Errorf("unknown length unit %q", units)
	}
}

// AngleConverter returns a function converting values in the given unit to radians.
func AngleConverter(units string) (func(float64) float64, error) {
	switch strings.ToLower(units) {
	case "", "rad", "radian", "radians":
		return func(v float64) float64 { return v }, nil
	case "deg", "degree", "degrees":
		return utils.DegToRad, nil
	default:
		return nil, errors.Errorf("unknown angle unit %q", units)
	}
}

// LengthToMM converts a value in the given unit to millimeters.
func LengthToMM(v float64, units string) (float64, error) {
	s, err := lengthScale(units)
	if err != nil {
		return 0, err
	}
	return v * s, nil
}
