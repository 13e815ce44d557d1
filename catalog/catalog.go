// Package catalog summarizes the multiscale groups of a resolved container as
// a JSON document.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	n5 "github.com/TuSKan/n5-multiscale"
	"github.com/TuSKan/n5-multiscale/affine"
	"github.com/TuSKan/n5-multiscale/discovery"
	"github.com/TuSKan/n5-multiscale/metadata"
	"github.com/TuSKan/n5-multiscale/multiscale"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Scale is one level of a pyramid. Fields the container does not describe
// are omitted.
type Scale struct {
	Path  string `json:"path"`
	Level int    `json:"level"` // -1 when the name carries no level

	DataType   n5.DataType       `json:"dataType,omitempty"`
	Dimensions []int64           `json:"dimensions,omitempty"`
	BlockSize  []int             `json:"blockSize,omitempty"`
	Blocks     int64             `json:"blocks,omitempty"`
	Bytes      int64             `json:"bytes,omitempty"`
	Factors    *[3]float64       `json:"downsamplingFactors,omitempty"`
	Transform  *affine.Transform `json:"transform,omitempty"`
}

// Entry is one multiscale group.
type Entry struct {
	Path       string   `json:"path"`
	Convention string   `json:"convention"`
	Label      bool     `json:"label,omitempty"`
	Units      []string `json:"units,omitempty"`
	Data       string   `json:"data,omitempty"` // path of the wrapped pyramid of Paintera sources
	Scales     []Scale  `json:"scales"`
}

// Catalog lists the multiscale groups below Base, children first.
type Catalog struct {
	Base   string  `json:"base"`
	Groups []Entry `json:"groups"`
}

// Build summarizes the groups of a resolved tree. Scale details missing from
// a structural group are filled in from the dataset nodes of the tree. Groups
// without scales, such as empty groups taken as raw pyramids, are left out.
func Build(root *multiscale.Node) *Catalog {
	c := &Catalog{Groups: []Entry{}}
	if root == nil {
		return c
	}
	c.Base = root.Path

	datasets := make(map[string]metadata.Dataset)
	_ = discovery.Walk(root, func(n *multiscale.Node) error {
		if n.Dataset != nil {
			datasets[n.Path] = n.Dataset
		}
		return nil
	})

	for _, g := range discovery.Multiscales(root) {
		if g.NumScales() == 0 {
			continue
		}
		c.Groups = append(c.Groups, entry(g, datasets))
	}
	return c
}

func entry(g *multiscale.Group, datasets map[string]metadata.Dataset) Entry {
	e := Entry{
		Path:       g.Path(),
		Convention: g.Convention().String(),
		Label:      g.IsLabel(),
		Units:      g.Units(),
		Scales:     make([]Scale, g.NumScales()),
	}
	if data := g.DataGroup(); data != nil {
		e.Data = data.Path()
	}

	for i, p := range g.Paths() {
		s := Scale{Path: p, Level: -1}
		if level, ok := multiscale.ScaleLevel(n5.NodeName(p)); ok {
			s.Level = level
		}

		d, ok := g.Scale(i)
		if !ok {
			d = datasets[p]
		}
		if d != nil {
			attrs := d.Attributes()
			s.DataType = d.DataType()
			s.Dimensions = attrs.Dimensions
			s.BlockSize = attrs.BlockSize
			s.Blocks = attrs.NumBlocks()
			s.Bytes = attrs.SizeBytes()
		}

		if t, ok := g.Transform(i); ok {
			s.Transform = &t
		} else if d != nil {
			t := d.PhysicalTransform()
			s.Transform = &t
		}
		if f, ok := g.DownsamplingFactors(i); ok {
			s.Factors = &f
		}
		e.Scales[i] = s
	}
	return e
}

// Write encodes c as indented JSON, framed with zstd when compress is set.
func Write(w io.Writer, c *Catalog, compress bool) error {
	if !compress {
		return encode(w, c)
	}

	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := encode(encoder, c); err != nil {
		encoder.Close()
		return err
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finish zstd frame: %w", err)
	}
	return nil
}

func encode(w io.Writer, c *Catalog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return nil
}

// Read decodes a catalog written by Write, compressed or not.
func Read(r io.Reader) (*Catalog, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	if bytes.HasPrefix(b, zstdMagic) {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer decoder.Close()
		b, err = decoder.DecodeAll(b, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress catalog: %w", err)
		}
	}

	c := &Catalog{}
	if err := json.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return c, nil
}
