package multiscale

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
)

// ReferenceScaleName is the name of the finest scale of every pyramid.
const ReferenceScaleName = "s0"

var scaleLevelPattern = regexp.MustCompile(`^s\d+$`)

// ScaleLevel returns the resolution level encoded in a scale-level name such as
// "s3". It reports false for names not matching ^s\d+$ and for levels that
// overflow an int.
func ScaleLevel(name string) (int, bool) {
	if !scaleLevelPattern.MatchString(name) {
		return 0, false
	}
	level, err := strconv.Atoi(name[1:])
	if err != nil {
		return 0, false
	}
	return level, true
}

// IsScaleLevel reports whether name is a scale-level name.
func IsScaleLevel(name string) bool {
	_, ok := ScaleLevel(name)
	return ok
}

// Named is anything carrying a node name.
type Named interface {
	Name() string
}

// SortScales orders items finest first by the level in their names. If any
// name is not a scale-level name it returns false and leaves items untouched.
// Duplicate or missing levels are not detected.
func SortScales[T Named](items []T) bool {
	return SortScalesFunc(items, func(item T) string { return item.Name() })
}

// SortScalesFunc is SortScales with the name taken from name(item).
func SortScalesFunc[T any](items []T, name func(T) string) bool {
	levels := make([]int, len(items))
	for i, item := range items {
		level, ok := ScaleLevel(name(item))
		if !ok {
			return false
		}
		levels[i] = level
	}
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(levels[a], levels[b])
	})
	sorted := make([]T, len(items))
	for i, j := range order {
		sorted[i] = items[j]
	}
	copy(items, sorted)
	return true
}

// DownsamplingFactors returns target / reference per axis, where both are the
// voxel sizes of two scales of the same pyramid and reference is the finest.
// A zero reference axis yields an infinite or NaN factor; descriptors reject
// such voxel sizes before they get here.
func DownsamplingFactors(reference, target [3]float64) [3]float64 {
	return [3]float64{
		target[0] / reference[0],
		target[1] / reference[1],
		target[2] / reference[2],
	}
}
