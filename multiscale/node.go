package multiscale

import (
	"context"

	n5 "github.com/TuSKan/n5-multiscale"
	"github.com/TuSKan/n5-multiscale/metadata"
)

// AttributeReader reads single attributes of container nodes. It reports
// false when the attribute is absent.
type AttributeReader interface {
	GetAttribute(ctx context.Context, path, key string, v any) (bool, error)
}

// Node is a container node as seen by the parsers. A node is unresolved until
// one of Dataset or Group is set.
type Node struct {
	Path      string
	Name      string
	IsDataset bool

	Dataset metadata.Dataset
	Group   *Group

	Children []*Node
}

// NewNode returns an unresolved node at p.
func NewNode(p string, isDataset bool) *Node {
	return &Node{Path: p, Name: n5.NodeName(p), IsDataset: isDataset}
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Resolved reports whether metadata has been attached to the node.
func (n *Node) Resolved() bool {
	return n.Dataset != nil || n.Group != nil
}
