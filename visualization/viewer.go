package visualization

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Viewer presents the contents of an arena.
type Viewer interface {
	Show(ctx context.Context, a *Arena) error
}

// MultiViewer shows an arena in every viewer, in order, and combines their errors.
type MultiViewer []Viewer

// Show implements Viewer.
func (mv MultiViewer) Show(ctx context.Context, a *Arena) error {
	var err error
	for _, v := range mv {
		err = multierr.Combine(err, v.Show(ctx, a))
	}
	return err
}

// ExportedNode is the JSON form of one arena node.
type ExportedNode struct {
	Handle int    `json:"handle"`
	Parent int    `json:"parent"`
	Kind   string `json:"kind"`
	Label  string `json:"label,omitempty"`
	Color  string `json:"color,omitempty"`
	// World is the column-major world transform, in meters.
	World [16]float64 `json:"world"`
	Dims  [3]float64  `json:"dims"`
}

// ExportedScene is the JSON form of an arena.
type ExportedScene struct {
	Nodes     []ExportedNode `json:"nodes"`
	BoundsMin *[3]float64    `json:"bounds_min,omitempty"`
	BoundsMax *[3]float64    `json:"bounds_max,omitempty"`
}

// Export converts the arena into its JSON form, nodes listed breadth-first.
func Export(a *Arena) ExportedScene {
	out := ExportedScene{Nodes: []ExportedNode{}}
	a.ForEach(Nil, func(n Node, world mgl64.Mat4, p Primitive) bool {
		out.Nodes = append(out.Nodes, ExportedNode{
			Handle: int(n),
			Parent: int(a.Parent(n)),
			Kind:   p.Kind.String(),
			Label:  p.Label,
			Color:  p.Color,
			World:  world,
			Dims:   vec3(p.Dims),
		})
		return true
	})
	if lo, hi, ok := a.Bounds(); ok {
		l, h := vec3(lo), vec3(hi)
		out.BoundsMin, out.BoundsMax = &l, &h
	}
	return out
}

func vec3(v r3.Vector) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

var createExportFile = func(path string) (io.WriteCloser, error) {
	//nolint:gosec
	return os.Create(path)
}

// JSONExporter writes the arena as indented JSON to a file, or to W when Path is empty.
type JSONExporter struct {
	Path string
	W    io.Writer
}

// Show implements Viewer.
func (je *JSONExporter) Show(_ context.Context, a *Arena) (err error) {
	w := je.W
	if je.Path != "" {
		var f io.WriteCloser
		f, err = createExportFile(je.Path)
		if err != nil {
			return errors.Wrap(err, "creating export file")
		}
		defer func() {
			err = multierr.Combine(err, f.Close())
		}()
		w = f
	}
	if w == nil {
		return errors.New("json exporter has no destination")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export(a))
}
