package metadata

import (
	"fmt"
	"slices"

	n5 "github.com/TuSKan/n5-multiscale"
	"github.com/TuSKan/n5-multiscale/affine"
)

// CosemTransform is the "transform" attribute written by the COSEM tools.
// Arrays written from numpy list axes in C order (z first).
type CosemTransform struct {
	Axes      []string  `json:"axes,omitempty"`
	Scale     []float64 `json:"scale"`
	Translate []float64 `json:"translate,omitempty"`
	Units     []string  `json:"units,omitempty"`
}

// xyz returns the transform with axes ordered x, y, z.
func (ct CosemTransform) xyz() CosemTransform {
	out := CosemTransform{
		Axes:      slices.Clone(ct.Axes),
		Scale:     slices.Clone(ct.Scale),
		Translate: slices.Clone(ct.Translate),
		Units:     slices.Clone(ct.Units),
	}
	if len(ct.Axes) > 0 && ct.Axes[0] == "z" {
		slices.Reverse(out.Axes)
		slices.Reverse(out.Scale)
		slices.Reverse(out.Translate)
		slices.Reverse(out.Units)
	}
	return out
}

// Cosem is a scale level following the COSEM convention.
type Cosem struct {
	path      string
	attrs     *n5.DatasetAttributes
	scale     [3]float64
	translate [3]float64
	units     []string

	factors    [3]float64
	hasFactors bool
}

// NewCosem builds a descriptor from a parsed transform attribute.
func NewCosem(path string, attrs *n5.DatasetAttributes, ct CosemTransform) (*Cosem, error) {
	if attrs == nil {
		return nil, n5.ErrNotDataset
	}
	ct = ct.xyz()
	if len(ct.Scale) != 3 {
		return nil, fmt.Errorf("cosem transform of %q has %d scale values, expected 3", path, len(ct.Scale))
	}
	if len(ct.Translate) != 0 && len(ct.Translate) != 3 {
		return nil, fmt.Errorf("cosem transform of %q has %d translate values, expected 3", path, len(ct.Translate))
	}
	scale, translate := vec3(ct.Scale, 1), vec3(ct.Translate, 0)
	if !positive(scale) {
		return nil, fmt.Errorf("cosem transform of %q has scale %v, expected finite positive values", path, scale)
	}
	if !finite(translate) {
		return nil, fmt.Errorf("cosem transform of %q has non-finite translate %v", path, translate)
	}
	units := ct.Units
	if len(units) != 3 {
		units = defaultUnits()
	}
	return &Cosem{
		path:      n5.CleanPath(path),
		attrs:     attrs,
		scale:     scale,
		translate: translate,
		units:     units,
	}, nil
}

// ParseCosem accepts datasets carrying a COSEM "transform" attribute.
func ParseCosem(path string, attrs n5.Attributes, ds *n5.DatasetAttributes) (Dataset, bool) {
	var ct CosemTransform
	ok, err := attrs.Decode(n5.TransformKey, &ct)
	if err != nil || !ok {
		return nil, false
	}
	c, err := NewCosem(path, ds, ct)
	if err != nil {
		return nil, false
	}
	return c, true
}

// Path implements Dataset.
func (c *Cosem) Path() string { return c.path }

// Name returns the last element of Path.
func (c *Cosem) Name() string { return n5.NodeName(c.path) }

// DataType returns the element type of the dataset.
func (c *Cosem) DataType() n5.DataType { return c.attrs.DataType }

// Attributes returns the shape, block size and compression of the dataset.
func (c *Cosem) Attributes() *n5.DatasetAttributes { return c.attrs }

// Units returns the unit label of each axis, x first.
func (c *Cosem) Units() []string { return slices.Clone(c.units) }

// Scale returns the voxel size along x, y, z.
func (c *Cosem) Scale() [3]float64 { return c.scale }

// Translation returns the physical position of the first voxel.
func (c *Cosem) Translation() [3]float64 { return c.translate }

// PhysicalTransform scales by the voxel size, then translates.
func (c *Cosem) PhysicalTransform() affine.Transform {
	return affine.New(c.scale, c.translate)
}

// Transform returns the attribute form of the calibration, axes ordered x, y, z.
func (c *Cosem) Transform() CosemTransform {
	return CosemTransform{
		Axes:      []string{"x", "y", "z"},
		Scale:     slices.Clone(c.scale[:]),
		Translate: slices.Clone(c.translate[:]),
		Units:     slices.Clone(c.units),
	}
}

// DownsamplingFactors implements Downsampled.
func (c *Cosem) DownsamplingFactors() ([3]float64, bool) {
	return c.factors, c.hasFactors
}

// WithDownsamplingFactors returns a copy of c annotated with factors; c itself
// is left unchanged.
func (c *Cosem) WithDownsamplingFactors(factors [3]float64) *Cosem {
	cp := *c
	cp.units = slices.Clone(c.units)
	cp.factors = factors
	cp.hasFactors = true
	return &cp
}
