package multiscale

import (
	"context"

	n5 "github.com/TuSKan/n5-multiscale"
)

const (
	// PainteraRawType is the painteraData type of raw (intensity) sources.
	PainteraRawType = "raw"

	// PainteraDataChild is the child holding the pyramid of a Paintera source.
	PainteraDataChild = "data"
)

type painteraData struct {
	Type string `json:"type"`
}

// ParsePaintera recognizes a Paintera raw source: a group with a painteraData
// attribute of type "raw" whose "data" child was already resolved to a
// Paintera-compatible pyramid. Every other child must be Paintera-compatible
// as well. The result is the data pyramid republished at the group path.
func ParsePaintera(ctx context.Context, r AttributeReader, n *Node) (*Group, bool) {
	if n.IsDataset || n.Dataset != nil || r == nil {
		return nil, false
	}

	var pd painteraData
	ok, err := r.GetAttribute(ctx, n.Path, n5.PainteraDataKey, &pd)
	if err != nil || !ok || pd.Type != PainteraRawType {
		return nil, false
	}

	var data *Group
	for _, child := range n.Children {
		if child.Group == nil || !child.Group.PainteraCompatible() {
			return nil, false
		}
		if child.Name == PainteraDataChild {
			data = child.Group
		}
	}
	if data == nil {
		return nil, false
	}
	return data.at(n.Path, ConventionPaintera), true
}
