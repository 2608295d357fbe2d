// Package gbsplit implements the instance-partitioning core of a
// histogram-based gradient-boosted decision-tree trainer.
//
// A DataPartition owns the permutation of training-row indices for one tree,
// stored as contiguous runs grouped by leaf. Growing a tree repeatedly splits
// one leaf's run into two adjacent child runs, in parallel, without touching
// any other leaf. The split is stable and deterministic: the same inputs
// produce byte-identical index layouts regardless of worker count.
//
// Basic usage:
//
//	part, err := gbsplit.NewDataPartition(numRows, gbsplit.DefaultConfig())
//	part.Init() // leaf 0 owns every row
//	rows := part.GetIndexOnLeaf(0)
//	// ... build histograms over rows, pick feature/threshold ...
//	err = part.Split(0, dataset, feature, []uint32{threshold}, true, 1)
//	// leaf 0 now holds the left child, leaf 1 the right child
//
// The dataset collaborator implements RowPartitioner, the per-row left/right
// decision given a feature's binned values and a threshold set. BinnedDataset
// is a ready-made implementation for dense binned columns.
//
// The package also exposes the block scheduler the partition engine is built
// on (BlockInfo, ParallelFor, BalancedFor), usable for other fork-join stages
// of a trainer.
package gbsplit
