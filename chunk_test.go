package n5

import (
	"reflect"
	"testing"
)

func TestGridShape(t *testing.T) {
	tests := []struct {
		dimensions []int64
		blockSize  []int
		expected   []int64
	}{
		{[]int64{128, 128, 32}, []int{64, 64, 32}, []int64{2, 2, 1}},
		{[]int64{100, 10}, []int{64, 64}, []int64{2, 1}},
		{[]int64{1}, []int{1}, []int64{1}},
		{[]int64{0, 5}, []int{4, 4}, []int64{0, 2}},
		{nil, []int{4}, []int64{}},
	}

	for _, tt := range tests {
		got := GridShape(tt.dimensions, tt.blockSize)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("GridShape(%v, %v) = %v, want %v", tt.dimensions, tt.blockSize, got, tt.expected)
		}
	}
}

func TestNumBlocks(t *testing.T) {
	d := &DatasetAttributes{Dimensions: []int64{1000, 1000, 100}, BlockSize: []int{128, 128, 64}}
	if got := d.NumBlocks(); got != 8*8*2 {
		t.Errorf("NumBlocks() = %d, want %d", got, 8*8*2)
	}
	if got := (&DatasetAttributes{}).NumBlocks(); got != 0 {
		t.Errorf("NumBlocks() of empty dataset = %d, want 0", got)
	}
}
