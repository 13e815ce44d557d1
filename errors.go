// Package n5 reads the attribute side of N5 containers stored in any
// gocloud.dev blob bucket.
package n5

import "errors"

// Common errors
var (
	ErrNotDataset = errors.New("node is not a dataset")
)
