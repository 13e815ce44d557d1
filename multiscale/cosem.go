package multiscale

import (
	"context"

	n5 "github.com/TuSKan/n5-multiscale"
	"github.com/TuSKan/n5-multiscale/metadata"
)

// ParseCosem recognizes a group whose scale-level children are COSEM
// datasets. Every published scale is a copy of the child descriptor annotated
// with its downsampling factor relative to s0; the children themselves are not
// modified.
//
// The group is a label pyramid when the finest scale stores uint64. Element
// types of the coarser scales are not checked.
func ParseCosem(_ context.Context, _ AttributeReader, n *Node) (*Group, bool) {
	s0, ok := cosemDataset(n.Child(ReferenceScaleName))
	if !ok {
		return nil, false
	}
	reference := s0.Scale()

	var (
		scales []*metadata.Cosem
		units  []string
	)
	for _, child := range n.Children {
		if !child.IsDataset || !IsScaleLevel(child.Name) {
			continue
		}
		c, ok := cosemDataset(child)
		if !ok {
			continue
		}
		if units == nil {
			units = c.Units()
		}
		scales = append(scales, c.WithDownsamplingFactors(DownsamplingFactors(reference, c.Scale())))
	}
	if len(scales) == 0 {
		return nil, false
	}
	if !SortScales(scales) {
		return nil, false
	}

	descriptors := make([]metadata.Dataset, len(scales))
	for i, s := range scales {
		descriptors[i] = s
	}
	g, err := newGroup(n.Path, ConventionCosem, descriptors, units)
	if err != nil {
		return nil, false
	}
	g.label = scales[0].DataType() == n5.Uint64
	return g, true
}

func cosemDataset(n *Node) (*metadata.Cosem, bool) {
	if n == nil {
		return nil, false
	}
	c, ok := n.Dataset.(*metadata.Cosem)
	return c, ok
}
