package n5_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	n5 "github.com/TuSKan/n5-multiscale"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		input      string
		expected   n5.DataType
		expectedSz int
		expectErr  bool
	}{
		{"uint8", n5.Uint8, 1, false},
		{"int16", n5.Int16, 2, false},
		{"float32", n5.Float32, 4, false},
		{"uint64", n5.Uint64, 8, false},
		{"object", n5.Object, 0, false},
		{"UINT8", "", 0, true}, // names are case sensitive
		{"<f4", "", 0, true},   // zarr dtype
		{"", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dt, sz, err := n5.ParseDataType(tt.input)

			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error for input %q, but got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error for input %q: %v", tt.input, err)
			}
			if dt != tt.expected {
				t.Errorf("expected type %q, got %q", tt.expected, dt)
			}
			if sz != tt.expectedSz {
				t.Errorf("expected size %d, got %d", tt.expectedSz, sz)
			}
		})
	}
}

func TestLoadDatasetAttributes(t *testing.T) {
	doc := `{
		"dimensions": [100, 200, 30],
		"blockSize": [64, 64, 16],
		"dataType": "uint16",
		"compression": {"type": "gzip", "level": 6},
		"pixelResolution": {"dimensions": [4, 4, 40], "unit": "nm"}
	}`

	attrs, err := n5.LoadAttributes(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadAttributes failed: %v", err)
	}
	if !attrs.IsDataset() {
		t.Fatalf("expected a dataset")
	}

	ds, err := n5.LoadDatasetAttributes(attrs)
	if err != nil {
		t.Fatalf("LoadDatasetAttributes failed: %v", err)
	}

	if !reflect.DeepEqual(ds.Dimensions, []int64{100, 200, 30}) {
		t.Errorf("expected dimensions [100 200 30], got %v", ds.Dimensions)
	}
	if !reflect.DeepEqual(ds.BlockSize, []int{64, 64, 16}) {
		t.Errorf("expected blockSize [64 64 16], got %v", ds.BlockSize)
	}
	if ds.DataType != n5.Uint16 || ds.ElementSize() != 2 {
		t.Errorf("expected uint16 of 2 bytes, got %s of %d", ds.DataType, ds.ElementSize())
	}
	if ds.Compression == nil || ds.Compression.Type != "gzip" || ds.Compression.Level != 6 {
		t.Errorf("unexpected compression %+v", ds.Compression)
	}
	if ds.NumElements() != 600000 {
		t.Errorf("expected 600000 elements, got %d", ds.NumElements())
	}
	if ds.SizeBytes() != 1200000 {
		t.Errorf("expected 1200000 bytes, got %d", ds.SizeBytes())
	}
}

func TestLoadDatasetAttributesLegacyCompression(t *testing.T) {
	attrs, err := n5.LoadAttributes(strings.NewReader(`{"dimensions": [8], "blockSize": [8], "dataType": "int8", "compression": "bzip2"}`))
	if err != nil {
		t.Fatalf("LoadAttributes failed: %v", err)
	}
	ds, err := n5.LoadDatasetAttributes(attrs)
	if err != nil {
		t.Fatalf("LoadDatasetAttributes failed: %v", err)
	}
	if ds.Compression == nil || ds.Compression.Type != "bzip2" {
		t.Errorf("expected bzip2 compression, got %+v", ds.Compression)
	}
}

func TestLoadDatasetAttributesErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"group", `{"multiScale": true}`},
		{"null dataType", `{"dimensions": [8], "dataType": null}`},
		{"bad dataType", `{"dimensions": [8], "blockSize": [8], "dataType": "complex64"}`},
		{"rank mismatch", `{"dimensions": [8, 8], "blockSize": [8], "dataType": "uint8"}`},
		{"bad compression", `{"dimensions": [8], "blockSize": [8], "dataType": "uint8", "compression": 3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := n5.LoadAttributes(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("LoadAttributes failed: %v", err)
			}
			if _, err := n5.LoadDatasetAttributes(attrs); err == nil {
				t.Errorf("expected error for %s", tt.doc)
			}
		})
	}

	attrs, _ := n5.LoadAttributes(strings.NewReader(`{}`))
	if _, err := n5.LoadDatasetAttributes(attrs); !errors.Is(err, n5.ErrNotDataset) {
		t.Errorf("expected ErrNotDataset, got %v", err)
	}
}

func TestAttributesDecode(t *testing.T) {
	attrs, err := n5.LoadAttributes(strings.NewReader(`{"multiScale": true, "resolution": null, "painteraData": {"type": "raw"}}`))
	if err != nil {
		t.Fatalf("LoadAttributes failed: %v", err)
	}

	var multiScale bool
	if ok, err := attrs.Decode(n5.MultiScaleKey, &multiScale); !ok || err != nil || !multiScale {
		t.Errorf("expected multiScale true, got %v (ok=%v, err=%v)", multiScale, ok, err)
	}
	var res []float64
	if ok, _ := attrs.Decode(n5.ResolutionKey, &res); ok {
		t.Errorf("null attribute must be reported absent")
	}
	if _, err := attrs.Decode(n5.PainteraDataKey, &multiScale); err == nil {
		t.Errorf("expected a decode error for a mistyped attribute")
	}
	if attrs.IsDataset() {
		t.Errorf("group reported as dataset")
	}
}

func TestLoadAttributesInvalid(t *testing.T) {
	if _, err := n5.LoadAttributes(strings.NewReader(`[1, 2]`)); err == nil {
		t.Errorf("expected error for a non-object document")
	}
}
