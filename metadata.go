package n5

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Attribute keys recognized when resolving multiscale groups.
const (
	MultiScaleKey          = "multiScale"
	IsLabelMultisetKey     = "isLabelMultiset"
	ResolutionKey          = "resolution"
	PainteraDataKey        = "painteraData"
	TransformKey           = "transform"
	PixelResolutionKey     = "pixelResolution"
	DownsamplingFactorsKey = "downsamplingFactors"
)

// Keys of the dataset attributes every N5 dataset carries.
const (
	DimensionsKey  = "dimensions"
	BlockSizeKey   = "blockSize"
	DataTypeKey    = "dataType"
	CompressionKey = "compression"
)

// Attributes is a parsed attributes.json document. Values are kept raw so each
// caller decodes only the keys it understands.
type Attributes map[string]json.RawMessage

// LoadAttributes parses an attributes.json document.
func LoadAttributes(reader io.Reader) (Attributes, error) {
	attrs := Attributes{}
	if err := json.NewDecoder(reader).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("failed to decode attributes: %w", err)
	}
	return attrs, nil
}

// Has reports whether key is present and not JSON null.
func (a Attributes) Has(key string) bool {
	raw, ok := a[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Decode unmarshals the value stored under key into v. It returns false when
// the key is absent or null.
func (a Attributes) Decode(key string, v any) (bool, error) {
	if !a.Has(key) {
		return false, nil
	}
	if err := json.Unmarshal(a[key], v); err != nil {
		return false, fmt.Errorf("failed to decode attribute %q: %w", key, err)
	}
	return true, nil
}

// IsDataset reports whether the document describes a dataset rather than a group.
func (a Attributes) IsDataset() bool {
	return a.Has(DimensionsKey) && a.Has(DataTypeKey)
}

// DataType is an N5 element type name such as "uint8" or "float32".
type DataType string

const (
	Uint8   DataType = "uint8"
	Uint16  DataType = "uint16"
	Uint32  DataType = "uint32"
	Uint64  DataType = "uint64"
	Int8    DataType = "int8"
	Int16   DataType = "int16"
	Int32   DataType = "int32"
	Int64   DataType = "int64"
	Float32 DataType = "float32"
	Float64 DataType = "float64"
	Object  DataType = "object"
)

// ParseDataType validates an N5 dataType string and returns the element size
// in bytes. Object datasets have no fixed element size and report 0.
func ParseDataType(s string) (DataType, int, error) {
	switch dt := DataType(s); dt {
	case Uint8, Int8:
		return dt, 1, nil
	case Uint16, Int16:
		return dt, 2, nil
	case Uint32, Int32, Float32:
		return dt, 4, nil
	case Uint64, Int64, Float64:
		return dt, 8, nil
	case Object:
		return dt, 0, nil
	default:
		return "", 0, fmt.Errorf("unsupported dataType: %q", s)
	}
}

// Compression represents the N5 compression descriptor of a dataset.
type Compression struct {
	Type      string `json:"type"`
	Level     int    `json:"level,omitempty"`
	BlockSize int    `json:"blockSize,omitempty"`
}

// DatasetAttributes holds the attributes every N5 dataset carries.
type DatasetAttributes struct {
	Dimensions  []int64      `json:"dimensions"`
	BlockSize   []int        `json:"blockSize"`
	DataType    DataType     `json:"dataType"`
	Compression *Compression `json:"compression,omitempty"`

	elementSize int
}

// LoadDatasetAttributes extracts the dataset attributes from a parsed document.
// It returns ErrNotDataset when the document describes a group.
func LoadDatasetAttributes(attrs Attributes) (*DatasetAttributes, error) {
	if !attrs.IsDataset() {
		return nil, ErrNotDataset
	}

	var da DatasetAttributes
	if _, err := attrs.Decode(DimensionsKey, &da.Dimensions); err != nil {
		return nil, err
	}
	if _, err := attrs.Decode(BlockSizeKey, &da.BlockSize); err != nil {
		return nil, err
	}
	var dt string
	if _, err := attrs.Decode(DataTypeKey, &dt); err != nil {
		return nil, err
	}
	parsed, size, err := ParseDataType(dt)
	if err != nil {
		return nil, err
	}
	da.DataType = parsed
	da.elementSize = size

	// Legacy datasets store a bare compression type string.
	if attrs.Has(CompressionKey) {
		var c Compression
		if err := json.Unmarshal(attrs[CompressionKey], &c); err != nil {
			var legacy string
			if _, lerr := attrs.Decode(CompressionKey, &legacy); lerr != nil {
				return nil, fmt.Errorf("failed to decode attribute %q: %w", CompressionKey, err)
			}
			c.Type = legacy
		}
		da.Compression = &c
	}

	if len(da.BlockSize) != 0 && len(da.BlockSize) != len(da.Dimensions) {
		return nil, fmt.Errorf("blockSize rank %d does not match dimensions rank %d", len(da.BlockSize), len(da.Dimensions))
	}
	return &da, nil
}

// ElementSize returns the size of one element in bytes.
func (d *DatasetAttributes) ElementSize() int {
	return d.elementSize
}

// NumElements returns the number of elements in the dataset.
func (d *DatasetAttributes) NumElements() int64 {
	if len(d.Dimensions) == 0 {
		return 0
	}
	n := int64(1)
	for _, dim := range d.Dimensions {
		n *= dim
	}
	return n
}

// SizeBytes returns the uncompressed size of the dataset.
func (d *DatasetAttributes) SizeBytes() int64 {
	return d.NumElements() * int64(d.elementSize)
}
