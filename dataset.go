package gbsplit

import (
	"fmt"
	"slices"
)

// RowPartitioner is the decision primitive a DataPartition consumes during
// Split: given a feature, a threshold set and a default direction for
// missing values, it classifies a slice of row ids and writes the ids that
// go left into left and the rest into right, preserving the relative order
// of rows within each side. It returns the number of rows that went left.
//
// thresholds holds a single upper bound for numeric splits or an ascending
// set of bin values for categorical splits.
//
// Implementations must be safe to call concurrently on disjoint row slices;
// Split invokes one call per parallel block.
type RowPartitioner interface {
	PartitionRows(feature int, thresholds []uint32, defaultLeft bool, rows []int32, left, right []int32) (int, error)
}

// RowPartitionerFunc adapts a plain function into a RowPartitioner.
type RowPartitionerFunc func(feature int, thresholds []uint32, defaultLeft bool, rows []int32, left, right []int32) (int, error)

func (f RowPartitionerFunc) PartitionRows(feature int, thresholds []uint32, defaultLeft bool, rows []int32, left, right []int32) (int, error) {
	return f(feature, thresholds, defaultLeft, rows, left, right)
}

// NoMissingBin marks a feature with no missing-value bin.
const NoMissingBin = ^uint32(0)

type binColumn struct {
	bins        []uint32
	missingBin  uint32
	categorical bool
}

// BinnedDataset is a dense column store of pre-binned feature values, the
// minimal dataset a tree learner needs to route rows through a split.
// Columns are immutable once added, so PartitionRows is safe for concurrent
// use.
type BinnedDataset struct {
	numRows int
	cols    []binColumn
}

// NewBinnedDataset creates an empty dataset over numRows rows.
func NewBinnedDataset(numRows int) *BinnedDataset {
	return &BinnedDataset{numRows: numRows}
}

// AddFeature appends a feature column and returns its feature id.
// bins must hold one bin value per row. missingBin is the bin value that
// represents a missing measurement and is routed by the split's default
// direction; pass NoMissingBin if the feature has none. Set categorical for
// features whose splits are set-membership tests rather than threshold
// comparisons.
func (d *BinnedDataset) AddFeature(bins []uint32, categorical bool, missingBin uint32) (int, error) {
	if len(bins) != d.numRows {
		return 0, fmt.Errorf("gbsplit: feature column has %d bins, dataset has %d rows", len(bins), d.numRows)
	}
	d.cols = append(d.cols, binColumn{bins: bins, missingBin: missingBin, categorical: categorical})
	return len(d.cols) - 1, nil
}

// NumRows returns the number of rows in the dataset.
func (d *BinnedDataset) NumRows() int { return d.numRows }

// NumFeatures returns the number of feature columns.
func (d *BinnedDataset) NumFeatures() int { return len(d.cols) }

// PartitionRows implements RowPartitioner. Numeric features route
// bin <= thresholds[0] left; categorical features route bins contained in
// the thresholds set left. A row whose bin equals the feature's missing bin
// goes left exactly when defaultLeft is set.
func (d *BinnedDataset) PartitionRows(feature int, thresholds []uint32, defaultLeft bool, rows []int32, left, right []int32) (int, error) {
	if feature < 0 || feature >= len(d.cols) {
		return 0, fmt.Errorf("gbsplit: feature %d out of range [0, %d)", feature, len(d.cols))
	}
	if len(thresholds) == 0 {
		return 0, fmt.Errorf("gbsplit: empty threshold set for feature %d", feature)
	}
	col := &d.cols[feature]
	if col.categorical && !slices.IsSorted(thresholds) {
		return 0, fmt.Errorf("gbsplit: categorical thresholds for feature %d are not ascending", feature)
	}

	nleft, nright := 0, 0
	for _, r := range rows {
		bin := col.bins[r]
		var goLeft bool
		switch {
		case bin == col.missingBin:
			goLeft = defaultLeft
		case col.categorical:
			_, goLeft = slices.BinarySearch(thresholds, bin)
		default:
			goLeft = bin <= thresholds[0]
		}
		if goLeft {
			left[nleft] = r
			nleft++
		} else {
			right[nright] = r
			nright++
		}
	}
	return nleft, nil
}
