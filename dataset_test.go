package gbsplit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partitionAll(t *testing.T, d *BinnedDataset, feature int, thresholds []uint32, defaultLeft bool, rows []int32) (left, right []int32) {
	t.Helper()
	leftBuf := make([]int32, len(rows))
	rightBuf := make([]int32, len(rows))
	nleft, err := d.PartitionRows(feature, thresholds, defaultLeft, rows, leftBuf, rightBuf)
	require.NoError(t, err)
	return leftBuf[:nleft], rightBuf[:len(rows)-nleft]
}

func TestBinnedDataset_AddFeature(t *testing.T) {
	d := NewBinnedDataset(4)
	f, err := d.AddFeature([]uint32{0, 1, 2, 3}, false, NoMissingBin)
	require.NoError(t, err)
	assert.Equal(t, 0, f)
	assert.Equal(t, 4, d.NumRows())
	assert.Equal(t, 1, d.NumFeatures())

	_, err = d.AddFeature([]uint32{0, 1}, false, NoMissingBin)
	assert.Error(t, err, "column length must match row count")
}

func TestBinnedDataset_NumericDecision(t *testing.T) {
	d := NewBinnedDataset(6)
	_, err := d.AddFeature([]uint32{5, 1, 3, 7, 2, 9}, false, NoMissingBin)
	require.NoError(t, err)

	rows := []int32{0, 1, 2, 3, 4, 5}
	left, right := partitionAll(t, d, 0, []uint32{3}, true, rows)

	// bin <= 3 goes left, relative order preserved on both sides.
	assert.Equal(t, []int32{1, 2, 4}, left)
	assert.Equal(t, []int32{0, 3, 5}, right)
}

func TestBinnedDataset_CategoricalDecision(t *testing.T) {
	d := NewBinnedDataset(5)
	_, err := d.AddFeature([]uint32{2, 0, 4, 2, 1}, true, NoMissingBin)
	require.NoError(t, err)

	rows := []int32{0, 1, 2, 3, 4}
	left, right := partitionAll(t, d, 0, []uint32{2, 4}, false, rows)

	// Membership of the bin in {2, 4} routes left.
	assert.Equal(t, []int32{0, 2, 3}, left)
	assert.Equal(t, []int32{1, 4}, right)
}

func TestBinnedDataset_MissingDefaultDirection(t *testing.T) {
	const missing = uint32(255)
	d := NewBinnedDataset(4)
	_, err := d.AddFeature([]uint32{1, missing, 5, missing}, false, missing)
	require.NoError(t, err)

	rows := []int32{0, 1, 2, 3}

	left, right := partitionAll(t, d, 0, []uint32{3}, true, rows)
	assert.Equal(t, []int32{0, 1, 3}, left, "missing rows follow defaultLeft=true")
	assert.Equal(t, []int32{2}, right)

	left, right = partitionAll(t, d, 0, []uint32{3}, false, rows)
	assert.Equal(t, []int32{0}, left)
	assert.Equal(t, []int32{1, 2, 3}, right, "missing rows follow defaultLeft=false")
}

func TestBinnedDataset_PartitionRowsErrors(t *testing.T) {
	d := NewBinnedDataset(2)
	_, err := d.AddFeature([]uint32{0, 1}, true, NoMissingBin)
	require.NoError(t, err)

	rows := []int32{0, 1}
	buf := make([]int32, 2)

	_, err = d.PartitionRows(1, []uint32{0}, true, rows, buf, buf)
	assert.Error(t, err, "feature out of range")

	_, err = d.PartitionRows(-1, []uint32{0}, true, rows, buf, buf)
	assert.Error(t, err, "negative feature")

	_, err = d.PartitionRows(0, nil, true, rows, buf, buf)
	assert.Error(t, err, "empty threshold set")

	_, err = d.PartitionRows(0, []uint32{3, 1}, true, rows, buf, buf)
	assert.Error(t, err, "unsorted categorical thresholds")
}

func TestRowPartitionerFunc(t *testing.T) {
	fn := RowPartitionerFunc(func(_ int, _ []uint32, _ bool, rows []int32, left, _ []int32) (int, error) {
		copy(left, rows)
		return len(rows), nil
	})
	left := make([]int32, 3)
	n, err := fn.PartitionRows(0, []uint32{0}, true, []int32{7, 8, 9}, left, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int32{7, 8, 9}, left)
}
