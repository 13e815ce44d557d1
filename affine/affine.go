// Package affine provides 3D affine transforms mapping voxel indices to
// physical coordinates.
//
// A Transform is stored as a 4x4 homogeneous matrix whose last row is
// (0, 0, 0, 1). The zero value is the identity.
package affine

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Transform is an immutable 3D affine transform.
type Transform struct {
	m *mat.Dense
}

func identity() *mat.Dense {
	d := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		d.Set(i, i, 1)
	}
	return d
}

func (t Transform) dense() mat.Matrix {
	if t.m == nil {
		return identity()
	}
	return t.m
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{m: identity()}
}

// New returns the transform that scales each axis and then translates.
func New(scale, translation [3]float64) Transform {
	d := identity()
	for i := 0; i < 3; i++ {
		d.Set(i, i, scale[i])
		d.Set(i, 3, translation[i])
	}
	return Transform{m: d}
}

// FromRowPacked builds a transform from the first three rows of its matrix,
// packed row by row.
func FromRowPacked(v [12]float64) Transform {
	d := identity()
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			d.Set(r, c, v[r*4+c])
		}
	}
	return Transform{m: d}
}

// RowPacked returns the first three rows of the matrix packed row by row.
func (t Transform) RowPacked() [12]float64 {
	var v [12]float64
	m := t.dense()
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			v[r*4+c] = m.At(r, c)
		}
	}
	return v
}

// At returns the matrix entry at row r and column c.
func (t Transform) At(r, c int) float64 {
	return t.dense().At(r, c)
}

// Scale returns the per-axis scale magnitude: the length of each column of
// the linear part.
func (t Transform) Scale() [3]float64 {
	var s [3]float64
	m := t.dense()
	for c := 0; c < 3; c++ {
		col := mat.Col(nil, c, m)
		s[c] = floats.Norm(col[:3], 2)
	}
	return s
}

// Translation returns the translation part.
func (t Transform) Translation() [3]float64 {
	m := t.dense()
	return [3]float64{m.At(0, 3), m.At(1, 3), m.At(2, 3)}
}

// Concatenate returns t ∘ o: o is applied first, then t.
func (t Transform) Concatenate(o Transform) Transform {
	var out mat.Dense
	out.Mul(t.dense(), o.dense())
	return Transform{m: &out}
}

// PreConcatenate returns o ∘ t: t is applied first, then o.
func (t Transform) PreConcatenate(o Transform) Transform {
	return o.Concatenate(t)
}

// Apply maps a voxel coordinate to physical space.
func (t Transform) Apply(p [3]float64) [3]float64 {
	var out mat.VecDense
	out.MulVec(t.dense(), mat.NewVecDense(4, []float64{p[0], p[1], p[2], 1}))
	return [3]float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// Inverse returns the inverse transform. Singular transforms return an error.
func (t Transform) Inverse() (Transform, error) {
	if det := mat.Det(t.dense()); det == 0 || math.IsNaN(det) {
		return Transform{}, fmt.Errorf("transform is not invertible")
	}
	var inv mat.Dense
	if err := inv.Inverse(t.dense()); err != nil {
		return Transform{}, fmt.Errorf("failed to invert transform: %w", err)
	}
	return Transform{m: &inv}, nil
}

// Equal reports whether both transforms agree entry by entry within tol.
func (t Transform) Equal(o Transform, tol float64) bool {
	return mat.EqualApprox(t.dense(), o.dense(), tol)
}

// IsIdentity reports whether t is the identity.
func (t Transform) IsIdentity() bool {
	return t.Equal(Identity(), 0)
}

func (t Transform) String() string {
	v := t.RowPacked()
	return fmt.Sprintf("3d-affine: (%g, %g, %g, %g, %g, %g, %g, %g, %g, %g, %g, %g)",
		v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7], v[8], v[9], v[10], v[11])
}

// MarshalJSON encodes the transform as its 12 row-packed entries.
func (t Transform) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.RowPacked())
}

// UnmarshalJSON decodes 12 row-packed entries.
func (t *Transform) UnmarshalJSON(b []byte) error {
	var v [12]float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to decode transform: %w", err)
	}
	*t = FromRowPacked(v)
	return nil
}
