package multiscale

import (
	"context"
	"fmt"
)

// ParseFunc recognizes one convention. It reports false when n does not
// follow the convention, including when reading an attribute fails.
type ParseFunc func(ctx context.Context, r AttributeReader, n *Node) (*Group, bool)

// Chain is an ordered list of conventions; the first match wins.
type Chain []ParseFunc

// DefaultChain tries Paintera, then Cosem, then Raw. Raw accepts any group of
// scale-level children and must come last.
var DefaultChain = Chain{ParsePaintera, ParseCosem, ParseRaw}

// Resolve returns the group of the first convention n follows, or false if n
// is not a multiscale group.
func (c Chain) Resolve(ctx context.Context, r AttributeReader, n *Node) (*Group, bool) {
	for _, parse := range c {
		if g, ok := parse(ctx, r, n); ok {
			return g, true
		}
	}
	return nil, false
}

// Parser returns the ParseFunc of a convention.
func Parser(c Convention) (ParseFunc, error) {
	switch c {
	case ConventionRaw:
		return ParseRaw, nil
	case ConventionCosem:
		return ParseCosem, nil
	case ConventionPaintera:
		return ParsePaintera, nil
	default:
		return nil, fmt.Errorf("no parser for %s", c)
	}
}

// ChainFor builds a chain from convention names, tried in the given order.
// No names yields DefaultChain.
func ChainFor(names ...string) (Chain, error) {
	if len(names) == 0 {
		return DefaultChain, nil
	}
	chain := make(Chain, 0, len(names))
	for _, name := range names {
		c, err := ParseConvention(name)
		if err != nil {
			return nil, err
		}
		parse, err := Parser(c)
		if err != nil {
			return nil, err
		}
		chain = append(chain, parse)
	}
	return chain, nil
}
