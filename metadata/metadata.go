// Package metadata holds the per-scale dataset descriptors a multiscale group
// is assembled from, and the parsers producing them from N5 attributes.
package metadata

import (
	"math"

	n5 "github.com/TuSKan/n5-multiscale"
	"github.com/TuSKan/n5-multiscale/affine"
)

// Dataset describes one array of the container with its physical calibration.
type Dataset interface {
	// Path is the node path of the dataset inside the container.
	Path() string

	// Name is the last element of Path.
	Name() string

	DataType() n5.DataType

	// Attributes returns the dataset attributes (shape, blocks, compression).
	Attributes() *n5.DatasetAttributes

	// PhysicalTransform maps voxel indices of this dataset to physical space.
	PhysicalTransform() affine.Transform

	// Units returns one unit label per spatial axis (x, y, z).
	Units() []string
}

// Downsampled is implemented by descriptors that can report how much coarser
// they are than the finest scale of their pyramid.
type Downsampled interface {
	Dataset

	// DownsamplingFactors returns the per-axis factors and whether any were attached.
	DownsamplingFactors() ([3]float64, bool)
}

// ParseFunc builds a descriptor from the attributes of a dataset node, or
// reports false when the attributes do not follow its convention.
type ParseFunc func(path string, attrs n5.Attributes, ds *n5.DatasetAttributes) (Dataset, bool)

// Chain is an ordered list of dataset parsers; the first match wins.
type Chain []ParseFunc

// DefaultChain tries the Cosem convention before falling back to generic N5
// single-scale metadata, which accepts any dataset.
var DefaultChain = Chain{ParseCosem, ParseSingleScale}

// Parse runs the chain over the attributes of the node at path. It reports
// false for groups and for datasets no parser accepts.
func (c Chain) Parse(path string, attrs n5.Attributes) (Dataset, bool) {
	ds, err := n5.LoadDatasetAttributes(attrs)
	if err != nil {
		return nil, false
	}
	path = n5.CleanPath(path)
	for _, parse := range c {
		if d, ok := parse(path, attrs, ds); ok {
			return d, true
		}
	}
	return nil, false
}

// DefaultUnit labels axes whose physical unit is unknown.
const DefaultUnit = "pixel"

func defaultUnits() []string {
	return []string{DefaultUnit, DefaultUnit, DefaultUnit}
}

// positive reports whether every value is finite and greater than zero.
func positive(v [3]float64) bool {
	for _, x := range v {
		if !(x > 0) || math.IsInf(x, 1) {
			return false
		}
	}
	return true
}

// finite reports whether no value is NaN or infinite.
func finite(v [3]float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// vec3 reads up to three values, filling missing axes with fill.
func vec3(v []float64, fill float64) [3]float64 {
	out := [3]float64{fill, fill, fill}
	copy(out[:], v)
	return out
}
