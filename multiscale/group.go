// Package multiscale recognizes groups of an N5 container that hold the
// progressively downsampled versions of one image.
//
// Three metadata conventions are understood:
//
//   - Raw: a "multiScale": true attribute, or children all named s0, s1, ...
//   - Cosem: scale datasets carrying a COSEM "transform" attribute
//   - Paintera: a "painteraData" group of type "raw" wrapping a "data" pyramid
//
// Each convention is a ParseFunc. A Chain tries them in a fixed order over a
// Node whose children have already been resolved, so trees must be resolved
// children first.
package multiscale

import (
	"errors"
	"fmt"
	"math"
	"slices"

	n5 "github.com/TuSKan/n5-multiscale"
	"github.com/TuSKan/n5-multiscale/affine"
	"github.com/TuSKan/n5-multiscale/metadata"
)

// Common errors
var (
	ErrNoScales      = errors.New("multiscale group has no scales")
	ErrScaleMismatch = errors.New("scale paths, transforms and descriptors differ in length")
	ErrInvalidUnits  = errors.New("units must name exactly 3 axes")
)

// Convention identifies the metadata convention a group was recognized by.
type Convention int

const (
	ConventionRaw Convention = iota + 1
	ConventionCosem
	ConventionPaintera
)

// String returns the convention name accepted by ParseConvention.
func (c Convention) String() string {
	switch c {
	case ConventionRaw:
		return "raw"
	case ConventionCosem:
		return "cosem"
	case ConventionPaintera:
		return "paintera"
	default:
		return fmt.Sprintf("convention(%d)", int(c))
	}
}

// ParseConvention returns the convention with the given name.
func ParseConvention(s string) (Convention, error) {
	for _, c := range []Convention{ConventionRaw, ConventionCosem, ConventionPaintera} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown multiscale convention: %q", s)
}

// Group is a resolved multiscale pyramid. Scales are ordered finest first.
// A Group is immutable; accessors return copies.
type Group struct {
	path       string
	convention Convention

	paths      []string
	transforms []affine.Transform // nil when calibration is left to the scales
	units      []string           // nil when unknown
	scales     []metadata.Dataset // nil for structural groups

	label bool
	data  *Group
}

// NewGroup builds a group from fully resolved scale descriptors ordered finest
// first. Paths, transforms and units are taken from the descriptors; units
// from the finest scale.
func NewGroup(path string, convention Convention, scales []metadata.Dataset) (*Group, error) {
	if len(scales) == 0 {
		return nil, ErrNoScales
	}
	if scales[0] == nil {
		return nil, fmt.Errorf("scale 0 of %q is nil", path)
	}
	return newGroup(path, convention, scales, scales[0].Units())
}

func newGroup(path string, convention Convention, scales []metadata.Dataset, units []string) (*Group, error) {
	if len(scales) == 0 {
		return nil, ErrNoScales
	}
	if units != nil && len(units) != 3 {
		return nil, ErrInvalidUnits
	}
	g := &Group{
		path:       path,
		convention: convention,
		paths:      make([]string, len(scales)),
		transforms: make([]affine.Transform, len(scales)),
		units:      slices.Clone(units),
		scales:     slices.Clone(scales),
	}
	for i, s := range scales {
		if s == nil {
			return nil, fmt.Errorf("scale %d of %q is nil", i, path)
		}
		g.paths[i] = s.Path()
		g.transforms[i] = s.PhysicalTransform()
	}
	return g, nil
}

// NewStructuralGroup builds a group from scale paths alone, for when the
// per-scale metadata was not resolved. A nil transforms slice leaves the
// per-scale calibration undefined; otherwise it must parallel paths. Units
// are either nil or name 3 axes.
func NewStructuralGroup(path string, convention Convention, paths []string, transforms []affine.Transform, units []string) (*Group, error) {
	if transforms != nil && len(transforms) != len(paths) {
		return nil, ErrScaleMismatch
	}
	if units != nil && len(units) != 3 {
		return nil, ErrInvalidUnits
	}
	return &Group{
		path:       path,
		convention: convention,
		paths:      slices.Clone(paths),
		transforms: slices.Clone(transforms),
		units:      slices.Clone(units),
	}, nil
}

// at republishes g at another path under another convention, keeping g
// reachable as the data group.
func (g *Group) at(path string, convention Convention) *Group {
	cp := *g
	cp.path = path
	cp.convention = convention
	cp.data = g
	return &cp
}

// Path returns the node path of the group.
func (g *Group) Path() string { return g.path }

// Name returns the last element of Path.
func (g *Group) Name() string { return n5.NodeName(g.path) }

// Convention returns the convention the group was recognized by.
func (g *Group) Convention() Convention { return g.convention }

// NumScales returns the number of scale levels.
func (g *Group) NumScales() int { return len(g.paths) }

// Paths returns the scale paths, finest first.
func (g *Group) Paths() []string { return slices.Clone(g.paths) }

// Transforms returns the per-scale physical transforms, parallel to Paths.
// It returns nil when the convention leaves calibration to the scales.
func (g *Group) Transforms() []affine.Transform { return slices.Clone(g.transforms) }

// Transform returns the physical transform of scale i.
func (g *Group) Transform(i int) (affine.Transform, bool) {
	if g.transforms == nil || i < 0 || i >= len(g.transforms) {
		return affine.Transform{}, false
	}
	return g.transforms[i], true
}

// Units returns the unit labels shared by all scales, nil if unknown.
func (g *Group) Units() []string { return slices.Clone(g.units) }

// Scales returns the per-scale descriptors, nil for structural groups.
func (g *Group) Scales() []metadata.Dataset { return slices.Clone(g.scales) }

// Scale returns the descriptor of scale i.
func (g *Group) Scale(i int) (metadata.Dataset, bool) {
	if i < 0 || i >= len(g.scales) {
		return nil, false
	}
	return g.scales[i], true
}

// PhysicalTransform always reports false: scales of one pyramid may be
// calibrated non-uniformly, so placement is only defined per scale.
func (g *Group) PhysicalTransform() (affine.Transform, bool) {
	return affine.Transform{}, false
}

// IsLabel reports whether the pyramid holds a label volume.
func (g *Group) IsLabel() bool { return g.label }

// DownsamplingFactors returns how much coarser scale i is than scale 0 per
// axis. Factors attached to the descriptor take precedence over factors
// derived from the transforms. Transforms with a zero voxel size yield no
// factors.
func (g *Group) DownsamplingFactors(i int) ([3]float64, bool) {
	if s, ok := g.Scale(i); ok {
		if d, ok := s.(metadata.Downsampled); ok {
			if f, ok := d.DownsamplingFactors(); ok {
				return f, true
			}
		}
	}
	t, ok := g.Transform(i)
	if !ok {
		return [3]float64{}, false
	}
	f := DownsamplingFactors(g.transforms[0].Scale(), t.Scale())
	for _, x := range f {
		if !(x > 0) || math.IsInf(x, 0) {
			return [3]float64{}, false
		}
	}
	return f, true
}

// PainteraCompatible reports whether Paintera can open the group as a
// multiscale source.
func (g *Group) PainteraCompatible() bool {
	return g.convention == ConventionCosem || g.convention == ConventionPaintera
}

// DataGroup returns the group a Paintera group wraps, nil otherwise.
func (g *Group) DataGroup() *Group { return g.data }

func (g *Group) String() string {
	return fmt.Sprintf("%s multiscale group %q with %d scales", g.convention, g.path, len(g.paths))
}
