package metadata

import (
	"encoding/json"

	n5 "github.com/TuSKan/n5-multiscale"
	"github.com/TuSKan/n5-multiscale/affine"
)

// pixelResolution is the object form of the "pixelResolution" attribute.
type pixelResolution struct {
	Dimensions []float64 `json:"dimensions"`
	Unit       string    `json:"unit"`
}

// SingleScale is a generic N5 dataset as written by n5-viewer and BigDataViewer
// exporters: a voxel size, an optional downsampling factor relative to the
// finest scale and an optional label-multiset flag.
type SingleScale struct {
	path       string
	attrs      *n5.DatasetAttributes
	resolution [3]float64
	unit       string
	factors    [3]float64
	hasFactors bool
	multiset   bool
}

// ParseSingleScale accepts every dataset. Calibration attributes that are
// missing or malformed fall back to one pixel per voxel.
func ParseSingleScale(path string, attrs n5.Attributes, ds *n5.DatasetAttributes) (Dataset, bool) {
	if ds == nil {
		return nil, false
	}
	s := &SingleScale{
		path:       n5.CleanPath(path),
		attrs:      ds,
		resolution: [3]float64{1, 1, 1},
		unit:       DefaultUnit,
		factors:    [3]float64{1, 1, 1},
	}

	if attrs.Has(n5.PixelResolutionKey) {
		var pr pixelResolution
		var arr []float64
		if err := json.Unmarshal(attrs[n5.PixelResolutionKey], &pr); err == nil && len(pr.Dimensions) > 0 {
			s.setResolution(pr.Dimensions)
			if pr.Unit != "" {
				s.unit = pr.Unit
			}
		} else if err := json.Unmarshal(attrs[n5.PixelResolutionKey], &arr); err == nil && len(arr) > 0 {
			s.setResolution(arr)
		}
	} else {
		var arr []float64
		if ok, err := attrs.Decode(n5.ResolutionKey, &arr); ok && err == nil && len(arr) > 0 {
			s.setResolution(arr)
		}
	}

	var factors []float64
	if ok, err := attrs.Decode(n5.DownsamplingFactorsKey, &factors); ok && err == nil && len(factors) > 0 {
		if f := vec3(factors, 1); positive(f) {
			s.factors = f
			s.hasFactors = true
		}
	}

	var multiset bool
	if ok, err := attrs.Decode(n5.IsLabelMultisetKey, &multiset); ok && err == nil {
		s.multiset = multiset
	}
	return s, true
}

// setResolution keeps the default of one unit per voxel unless every value
// is finite and positive.
func (s *SingleScale) setResolution(v []float64) {
	if r := vec3(v, 1); positive(r) {
		s.resolution = r
	}
}

// Path implements Dataset.
func (s *SingleScale) Path() string { return s.path }

// Name returns the last element of Path.
func (s *SingleScale) Name() string { return n5.NodeName(s.path) }

// DataType returns the element type of the dataset.
func (s *SingleScale) DataType() n5.DataType { return s.attrs.DataType }

// Attributes returns the shape, block size and compression of the dataset.
func (s *SingleScale) Attributes() *n5.DatasetAttributes { return s.attrs }

// Units returns the unit label of each axis, x first.
func (s *SingleScale) Units() []string { return []string{s.unit, s.unit, s.unit} }

// Resolution returns the voxel size of the finest scale along x, y, z.
func (s *SingleScale) Resolution() [3]float64 { return s.resolution }

// IsLabelMultiset reports whether the dataset stores label multisets.
func (s *SingleScale) IsLabelMultiset() bool { return s.multiset }

// DownsamplingFactors implements Downsampled.
func (s *SingleScale) DownsamplingFactors() ([3]float64, bool) {
	return s.factors, s.hasFactors
}

// PhysicalTransform scales by resolution times factor and shifts by half a
// coarse voxel so that voxel centers of all scales line up.
func (s *SingleScale) PhysicalTransform() affine.Transform {
	var scale, shift [3]float64
	for i := 0; i < 3; i++ {
		scale[i] = s.resolution[i] * s.factors[i]
		shift[i] = 0.5 * (s.factors[i] - 1) * s.resolution[i]
	}
	return affine.New(scale, shift)
}
