package n5

// GridShape calculates the number of blocks in each dimension.
// For each dimension i, the number of blocks is ceil(dimensions[i] / blockSize[i]).
func GridShape(dimensions []int64, blockSize []int) []int64 {
	if len(dimensions) == 0 || len(blockSize) == 0 {
		return []int64{}
	}
	grid := make([]int64, len(dimensions))
	for i := range dimensions {
		b := int64(blockSize[i])
		grid[i] = (dimensions[i] + b - 1) / b
	}
	return grid
}

// GridShape returns the block grid of the dataset.
func (d *DatasetAttributes) GridShape() []int64 {
	return GridShape(d.Dimensions, d.BlockSize)
}

// NumBlocks returns the number of blocks the dataset is split into, whether or
// not they were ever written.
func (d *DatasetAttributes) NumBlocks() int64 {
	grid := d.GridShape()
	if len(grid) == 0 {
		return 0
	}
	n := int64(1)
	for _, g := range grid {
		n *= g
	}
	return n
}
