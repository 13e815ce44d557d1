package multiscale

import (
	"context"
	"slices"

	n5 "github.com/TuSKan/n5-multiscale"
)

// ParseRaw recognizes the generic convention: a group flagged with
// "multiScale": true, or a group whose children are all named s0, s1, ...
// The flag is trusted without looking at the children.
//
// Raw groups are structural: scale paths are the children ordered by level
// when their names allow it, and calibration is left to the scale datasets.
func ParseRaw(ctx context.Context, r AttributeReader, n *Node) (*Group, bool) {
	if n.IsDataset || n.Dataset != nil {
		return nil, false
	}

	if r != nil {
		var multiScale bool
		ok, err := r.GetAttribute(ctx, n.Path, n5.MultiScaleKey, &multiScale)
		if err == nil && ok && multiScale {
			return rawGroup(n)
		}
	}

	for _, child := range n.Children {
		if !IsScaleLevel(child.Name) {
			return nil, false
		}
	}
	return rawGroup(n)
}

func rawGroup(n *Node) (*Group, bool) {
	children := slices.Clone(n.Children)
	SortScalesFunc(children, func(c *Node) string { return c.Name })

	paths := make([]string, len(children))
	for i, c := range children {
		paths[i] = c.Path
	}
	g, err := NewStructuralGroup(n.Path, ConventionRaw, paths, nil, nil)
	if err != nil {
		return nil, false
	}
	return g, true
}
