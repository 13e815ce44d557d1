package n5_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	_ "gocloud.dev/blob/fileblob"

	n5 "github.com/TuSKan/n5-multiscale"
)

func memReader(t *testing.T, files map[string]string, opts ...n5.Option) *n5.Reader {
	t.Helper()
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	for key, body := range files {
		require.NoError(t, bucket.WriteAll(ctx, key, []byte(body), nil))
	}
	r, err := n5.NewReaderFromBucket(bucket, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestReader_FileURL(t *testing.T) {
	tempDir := t.TempDir()
	write := func(rel, body string) {
		p := filepath.Join(tempDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", rel, err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
	write("attributes.json", `{"n5": "2.5.1"}`)
	write("volume/attributes.json", `{"multiScale": true}`)
	write("volume/s0/attributes.json", `{"dimensions": [64, 64, 64], "blockSize": [32, 32, 32], "dataType": "uint8", "compression": {"type": "raw"}}`)
	write("volume/s0/0/0/0", "block")
	write("volume/s1/attributes.json", `{"dimensions": [32, 32, 32], "blockSize": [32, 32, 32], "dataType": "uint8", "compression": {"type": "raw"}}`)

	ctx := context.Background()
	reader, err := n5.NewReader(ctx, "file://"+filepath.ToSlash(tempDir))
	require.NoError(t, err)
	defer reader.Close()

	names, err := reader.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"volume"}, names)

	names, err = reader.List(ctx, "/volume/")
	require.NoError(t, err)
	require.Equal(t, []string{"s0", "s1"}, names)

	var multiScale bool
	ok, err := reader.GetAttribute(ctx, "volume", n5.MultiScaleKey, &multiScale)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, multiScale)

	ds, err := reader.DatasetAttributes(ctx, "volume/s0")
	require.NoError(t, err)
	require.Equal(t, []int64{64, 64, 64}, ds.Dimensions)
	require.Equal(t, int64(8), ds.NumBlocks())

	_, err = reader.DatasetAttributes(ctx, "volume")
	require.ErrorIs(t, err, n5.ErrNotDataset)
}

func TestReader_MissingAttributes(t *testing.T) {
	r := memReader(t, map[string]string{"volume/s0/attributes.json": `{"dataType": "uint8", "dimensions": [1]}`})
	ctx := context.Background()

	attrs, err := r.Attributes(ctx, "volume")
	require.NoError(t, err)
	require.Empty(t, attrs)

	var v bool
	ok, err := r.GetAttribute(ctx, "nowhere", n5.MultiScaleKey, &v)
	require.NoError(t, err)
	require.False(t, ok)

	exists, err := r.Exists(ctx, "volume")
	require.NoError(t, err)
	require.True(t, exists, "a node without attributes but with children exists")

	exists, err = r.Exists(ctx, "volume/s0")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = r.Exists(ctx, "nowhere")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestReader_MalformedAttributes(t *testing.T) {
	r := memReader(t, map[string]string{"bad/attributes.json": `{"dimensions": `})
	_, err := r.Attributes(context.Background(), "bad")
	require.Error(t, err)

	var v bool
	_, err = r.GetAttribute(context.Background(), "bad", n5.MultiScaleKey, &v)
	require.Error(t, err)
}

func TestReader_Cache(t *testing.T) {
	ctx := context.Background()
	r := memReader(t, map[string]string{
		"a/attributes.json": `{"multiScale": true}`,
		"b/attributes.json": `{"multiScale": false}`,
	}, n5.WithCacheSize(1))

	first, err := r.Attributes(ctx, "a")
	require.NoError(t, err)

	// served from cache while resident
	require.NoError(t, r.Bucket().WriteAll(ctx, "a/attributes.json", []byte(`{}`), nil))
	cached, err := r.Attributes(ctx, "/a")
	require.NoError(t, err)
	require.Equal(t, first, cached)

	// evicted by the next document
	_, err = r.Attributes(ctx, "b")
	require.NoError(t, err)
	fresh, err := r.Attributes(ctx, "a")
	require.NoError(t, err)
	require.Empty(t, fresh)
}

func TestReader_ListSkipsFiles(t *testing.T) {
	r := memReader(t, map[string]string{
		"attributes.json":         `{}`,
		"notes.txt":               "",
		"z/attributes.json":       `{}`,
		"a/b/attributes.json":     `{}`,
		"a/b/c/d/attributes.json": `{}`,
	})
	names, err := r.List(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "z"}, names)

	names, err = r.List(context.Background(), "a/b")
	require.NoError(t, err)
	require.Equal(t, []string{"c"}, names)
}

func TestPaths(t *testing.T) {
	tests := []struct {
		in, clean, name string
	}{
		{"", "", ""},
		{"/", "", ""},
		{"/volume/s0/", "volume/s0", "s0"},
		{"volume//s1", "volume/s1", "s1"},
		{"volume/./data/../s2", "volume/s2", "s2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.clean, n5.CleanPath(tt.in))
			require.Equal(t, tt.name, n5.NodeName(tt.in))
		})
	}
	require.Equal(t, "volume/s0", n5.JoinPath("volume", "s0"))
	require.Equal(t, "s0", n5.JoinPath("", "s0"))
}

func TestNewReaderInvalidURL(t *testing.T) {
	_, err := n5.NewReader(context.Background(), "nosuchscheme://bucket")
	require.Error(t, err)
	require.False(t, errors.Is(err, n5.ErrNotDataset))
}
