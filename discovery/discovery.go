// Package discovery builds the node tree of an N5 container and resolves the
// per-scale and multiscale metadata of every node.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	n5 "github.com/TuSKan/n5-multiscale"
	"github.com/TuSKan/n5-multiscale/metadata"
	"github.com/TuSKan/n5-multiscale/multiscale"
)

// ErrNotFound is returned when the base path holds neither attributes nor children.
var ErrNotFound = errors.New("no N5 node at path")

// DefaultParallelism bounds the number of nodes listed concurrently.
const DefaultParallelism = 8

// Store is the container access discovery needs. *n5.Reader implements it.
type Store interface {
	multiscale.AttributeReader
	Attributes(ctx context.Context, path string) (n5.Attributes, error)
	List(ctx context.Context, path string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}

type options struct {
	parallelism int
	datasets    metadata.Chain
	groups      multiscale.Chain
	logger      *slog.Logger
}

// Option configures a Discoverer.
type Option func(*options)

// WithParallelism bounds how many nodes are listed at once. Values below 1
// are ignored.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithDatasetChain sets the parsers tried on datasets.
func WithDatasetChain(c metadata.Chain) Option {
	return func(o *options) { o.datasets = c }
}

// WithGroupChain sets the multiscale conventions tried on groups.
func WithGroupChain(c multiscale.Chain) Option {
	return func(o *options) { o.groups = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Discoverer walks a container and attaches metadata to its nodes.
type Discoverer struct {
	store Store
	opts  options
}

// New returns a Discoverer reading from store.
func New(store Store, opts ...Option) *Discoverer {
	o := options{
		parallelism: DefaultParallelism,
		datasets:    metadata.DefaultChain,
		groups:      multiscale.DefaultChain,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Discoverer{store: store, opts: o}
}

// Discover builds the tree below base and resolves it.
func (d *Discoverer) Discover(ctx context.Context, base string) (*multiscale.Node, error) {
	root, err := d.Tree(ctx, base)
	if err != nil {
		return nil, err
	}
	if err := d.Resolve(ctx, root); err != nil {
		return nil, err
	}
	return root, nil
}

// Tree builds the unresolved node tree below base. Datasets are leaves: their
// block directories are never listed. Siblings are expanded concurrently one
// depth level at a time.
func (d *Discoverer) Tree(ctx context.Context, base string) (*multiscale.Node, error) {
	base = n5.CleanPath(base)
	ok, err := d.store.Exists(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to check %q: %w", base, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, base)
	}

	root := multiscale.NewNode(base, false)
	for level := []*multiscale.Node{root}; len(level) > 0; {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.opts.parallelism)
		for _, n := range level {
			g.Go(func() error { return d.expand(gctx, n) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var next []*multiscale.Node
		for _, n := range level {
			next = append(next, n.Children...)
		}
		level = next
	}
	return root, nil
}

func (d *Discoverer) expand(ctx context.Context, n *multiscale.Node) error {
	attrs, err := d.store.Attributes(ctx, n.Path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.opts.logger.Warn("unreadable attributes, treating node as group",
			slog.String("path", n.Path), slog.Any("error", err))
	}
	if attrs.IsDataset() {
		n.IsDataset = true
		return nil
	}

	names, err := d.store.List(ctx, n.Path)
	if err != nil {
		return fmt.Errorf("failed to list %q: %w", n.Path, err)
	}
	n.Children = make([]*multiscale.Node, len(names))
	for i, name := range names {
		n.Children[i] = multiscale.NewNode(n5.JoinPath(n.Path, name), false)
	}
	return nil
}

// Resolve attaches metadata to every node below and including root. Children
// are always resolved before their parent. Previously attached metadata is
// replaced, so resolving the same tree twice gives the same result.
func (d *Discoverer) Resolve(ctx context.Context, root *multiscale.Node) error {
	return Walk(root, func(n *multiscale.Node) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.resolve(ctx, n)
		return nil
	})
}

func (d *Discoverer) resolve(ctx context.Context, n *multiscale.Node) {
	n.Dataset, n.Group = nil, nil

	if n.IsDataset {
		attrs, err := d.store.Attributes(ctx, n.Path)
		if err != nil {
			d.opts.logger.Warn("skipping dataset with unreadable attributes",
				slog.String("path", n.Path), slog.Any("error", err))
			return
		}
		if ds, ok := d.opts.datasets.Parse(n.Path, attrs); ok {
			n.Dataset = ds
			return
		}
		d.opts.logger.Warn("skipping dataset without recognized metadata", slog.String("path", n.Path))
		return
	}

	if g, ok := d.opts.groups.Resolve(ctx, d.store, n); ok {
		n.Group = g
		d.opts.logger.Debug("resolved multiscale group",
			slog.String("path", n.Path),
			slog.String("convention", g.Convention().String()),
			slog.Int("scales", g.NumScales()))
	}
}

// Walk calls fn on every node below and including root, children before
// their parent. It stops at the first error.
func Walk(root *multiscale.Node, fn func(*multiscale.Node) error) error {
	if root == nil {
		return nil
	}
	for _, c := range root.Children {
		if err := Walk(c, fn); err != nil {
			return err
		}
	}
	return fn(root)
}

// Multiscales returns the groups resolved below and including root, in the
// order Walk visits them.
func Multiscales(root *multiscale.Node) []*multiscale.Group {
	var groups []*multiscale.Group
	_ = Walk(root, func(n *multiscale.Node) error {
		if n.Group != nil {
			groups = append(groups, n.Group)
		}
		return nil
	})
	return groups
}
