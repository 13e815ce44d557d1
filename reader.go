package n5

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// AttributesFile is the name of the attribute document of every group and dataset.
const AttributesFile = "attributes.json"

// DefaultCacheSize is the number of attribute documents a Reader keeps in memory.
const DefaultCacheSize = 1024

// Option configures a Reader.
type Option func(*readerOptions)

type readerOptions struct {
	cacheSize int
}

func defaultReaderOptions() *readerOptions {
	return &readerOptions{cacheSize: DefaultCacheSize}
}

// WithCacheSize sets the number of attribute documents kept in memory.
// Values below 1 are ignored.
func WithCacheSize(n int) Option {
	return func(o *readerOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// Reader reads attribute documents of an N5 container. It is safe for
// concurrent use.
type Reader struct {
	bucket *blob.Bucket
	cache  *lru.Cache[string, Attributes]
}

// NewReader opens the bucket at url (e.g. "file:///data/volume.n5").
func NewReader(ctx context.Context, url string, opts ...Option) (*Reader, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}
	r, err := NewReaderFromBucket(bucket, opts...)
	if err != nil {
		bucket.Close()
		return nil, err
	}
	return r, nil
}

// NewReaderFromBucket wraps an already opened bucket. Closing the Reader
// closes the bucket.
func NewReaderFromBucket(bucket *blob.Bucket, opts ...Option) (*Reader, error) {
	o := defaultReaderOptions()
	for _, opt := range opts {
		opt(o)
	}
	cache, err := lru.New[string, Attributes](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create attribute cache: %w", err)
	}
	return &Reader{bucket: bucket, cache: cache}, nil
}

// CleanPath normalizes a node path: no leading or trailing slash, "" for the root.
func CleanPath(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	return p
}

// JoinPath joins a parent node path and a child name.
func JoinPath(parent, name string) string {
	return CleanPath(parent + "/" + name)
}

// NodeName returns the last element of a node path, "" for the root.
func NodeName(p string) string {
	p = CleanPath(p)
	if p == "" {
		return ""
	}
	return path.Base(p)
}

func attributesKey(p string) string {
	p = CleanPath(p)
	if p == "" {
		return AttributesFile
	}
	return p + "/" + AttributesFile
}

// Attributes returns the attribute document of the node at p. A node without
// an attributes.json has empty attributes.
func (r *Reader) Attributes(ctx context.Context, p string) (Attributes, error) {
	p = CleanPath(p)
	if attrs, ok := r.cache.Get(p); ok {
		return attrs, nil
	}

	key := attributesKey(p)
	reader, err := r.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			attrs := Attributes{}
			r.cache.Add(p, attrs)
			return attrs, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	defer reader.Close()

	attrs, err := LoadAttributes(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	r.cache.Add(p, attrs)
	return attrs, nil
}

// GetAttribute decodes the attribute key of the node at p into v. It reports
// false when the attribute is absent.
func (r *Reader) GetAttribute(ctx context.Context, p, key string, v any) (bool, error) {
	attrs, err := r.Attributes(ctx, p)
	if err != nil {
		return false, err
	}
	return attrs.Decode(key, v)
}

// DatasetAttributes returns the dataset attributes of the node at p, or
// ErrNotDataset if p is a group.
func (r *Reader) DatasetAttributes(ctx context.Context, p string) (*DatasetAttributes, error) {
	attrs, err := r.Attributes(ctx, p)
	if err != nil {
		return nil, err
	}
	return LoadDatasetAttributes(attrs)
}

// Exists reports whether anything is stored at or below p.
func (r *Reader) Exists(ctx context.Context, p string) (bool, error) {
	ok, err := r.bucket.Exists(ctx, attributesKey(p))
	if err != nil || ok {
		return ok, err
	}
	children, err := r.List(ctx, p)
	if err != nil {
		return false, err
	}
	return len(children) > 0, nil
}

// List returns the sorted names of the direct children of the node at p.
func (r *Reader) List(ctx context.Context, p string) ([]string, error) {
	p = CleanPath(p)
	prefix := ""
	if p != "" {
		prefix = p + "/"
	}

	var names []string
	it := r.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %q: %w", p, err)
		}
		if !obj.IsDir {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), "/")
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Bucket returns the underlying bucket.
func (r *Reader) Bucket() *blob.Bucket {
	return r.bucket
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.bucket.Close()
}
