package gbsplit

import "fmt"

// initFillBlock is the minimum rows per block for the identity fill in Init.
const initFillBlock = 512

// DataPartition owns the row-index permutation for one tree being grown:
// a single aligned buffer holding every active row id, partitioned into one
// contiguous run per leaf, concatenated in leaf-index order. Split carves a
// leaf's run into two adjacent child runs in parallel without moving any
// other leaf's rows.
//
// A DataPartition is not safe for concurrent use: at most one Init, Split or
// ResetByLeafPred call may be in flight at a time. The worker pool size is
// fixed at construction; per-block scratch buffers are sized to it.
type DataPartition struct {
	numData   int32
	numLeaves int
	workers   int
	minBlock  int32
	alloc     AlignedAllocator

	// leaf runs: leaf l owns indices[leafBegin[l] : leafBegin[l]+leafCount[l]].
	leafBegin []int32
	leafCount []int32
	indices   []int32

	// scatter scratch, same length as indices, reused across every Split.
	tempLeft  []int32
	tempRight []int32

	// bagging subset, externally owned, nil when training on all rows.
	usedRows []int32

	// per-block scratch for Split, one slot per worker.
	offsets       []int32
	leftCounts    []int32
	rightCounts   []int32
	leftWritePos  []int32
	rightWritePos []int32
	gatherCosts   []float64
}

// NewDataPartition creates a partition over numData rows with capacity for
// cfg.MaxLeaves leaves. Call Init before the first use.
func NewDataPartition(numData int32, cfg Config) (*DataPartition, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if numData < 0 {
		return nil, fmt.Errorf("gbsplit: numData must be >= 0, got %d", numData)
	}

	d := &DataPartition{
		numData:   numData,
		numLeaves: cfg.MaxLeaves,
		workers:   cfg.Workers,
		minBlock:  cfg.MinBlockSize,
		alloc:     AlignedAllocator{Alignment: cfg.Alignment},
	}
	d.leafBegin = make([]int32, d.numLeaves)
	d.leafCount = make([]int32, d.numLeaves)
	d.indices = d.alloc.Int32s(int(numData))
	d.tempLeft = d.alloc.Int32s(int(numData))
	d.tempRight = d.alloc.Int32s(int(numData))
	d.offsets = make([]int32, d.workers)
	d.leftCounts = make([]int32, d.workers)
	d.rightCounts = make([]int32, d.workers)
	d.leftWritePos = make([]int32, d.workers)
	d.rightWritePos = make([]int32, d.workers)
	d.gatherCosts = make([]float64, d.workers)
	return d, nil
}

// Init resets the partition to the single-leaf state: leaf 0 owns every
// active row, every other leaf is empty. With a bagging subset registered,
// leaf 0 is the subset in its given order; otherwise it is the identity
// permutation [0, numData).
func (d *DataPartition) Init() {
	clear(d.leafBegin)
	clear(d.leafCount)
	if d.usedRows == nil {
		d.leafCount[0] = d.numData
		// fn never fails, so the error is statically nil.
		_, _ = ParallelFor(0, d.numData, initFillBlock, d.workers, func(_ int, lo, hi int32) error {
			for i := lo; i < hi; i++ {
				d.indices[i] = i
			}
			return nil
		})
	} else {
		d.leafCount[0] = int32(len(d.usedRows))
		copy(d.indices, d.usedRows)
	}
}

// SetUsedRowIndices registers a bagging subset: the next Init seeds leaf 0
// from rows instead of the full range. The slice is not copied: the caller
// must keep it alive and unchanged at least until the next Init. Pass nil
// to return to full-data training.
func (d *DataPartition) SetUsedRowIndices(rows []int32) error {
	if int32(len(rows)) > d.numData {
		return fmt.Errorf("gbsplit: bagging subset has %d rows, partition capacity is %d", len(rows), d.numData)
	}
	d.usedRows = rows
	return nil
}

// Split divides leaf's run into two adjacent runs: rows the partitioner
// routes left stay at leaf, rows routed right move to rightLeaf, which must
// currently be empty. Both sides preserve the original relative row order,
// and the result is byte-identical regardless of worker count.
//
// On error the split is abandoned part-way: leaf boundaries are untouched
// but the contents of the leaf's region of the index buffer are undefined,
// and the partition must be re-initialized before further use.
func (d *DataPartition) Split(leaf int, data RowPartitioner, feature int, thresholds []uint32, defaultLeft bool, rightLeaf int) error {
	if leaf < 0 || leaf >= d.numLeaves {
		return fmt.Errorf("gbsplit: leaf %d out of range [0, %d)", leaf, d.numLeaves)
	}
	if rightLeaf < 0 || rightLeaf >= d.numLeaves {
		return fmt.Errorf("gbsplit: right leaf %d out of range [0, %d)", rightLeaf, d.numLeaves)
	}
	if rightLeaf == leaf {
		return fmt.Errorf("gbsplit: right leaf must differ from split leaf %d", leaf)
	}

	begin := d.leafBegin[leaf]
	cnt := d.leafCount[leaf]
	if cnt == 0 {
		d.leafBegin[rightLeaf] = begin
		d.leafCount[rightLeaf] = 0
		return nil
	}
	leafRows := d.indices[begin : begin+cnt]

	// Scatter: each block classifies its slice of the leaf into block-local
	// regions of the scratch buffers, at the block's own start offset, and
	// records its left/right counts.
	nblock, err := ParallelFor(0, cnt, d.minBlock, d.workers, func(i int, lo, hi int32) error {
		d.offsets[i] = lo
		if hi <= lo {
			d.leftCounts[i] = 0
			d.rightCounts[i] = 0
			return nil
		}
		nleft, err := data.PartitionRows(feature, thresholds, defaultLeft,
			leafRows[lo:hi], d.tempLeft[lo:hi], d.tempRight[lo:hi])
		if err != nil {
			return err
		}
		d.leftCounts[i] = int32(nleft)
		d.rightCounts[i] = (hi - lo) - int32(nleft)
		return nil
	})
	if err != nil {
		return err
	}

	// Merge: exclusive prefix sums over the per-block counts give each
	// block's final write offset on each side. O(nblock), sequential.
	d.leftWritePos[0] = 0
	d.rightWritePos[0] = 0
	for i := 1; i < nblock; i++ {
		d.leftWritePos[i] = d.leftWritePos[i-1] + d.leftCounts[i-1]
		d.rightWritePos[i] = d.rightWritePos[i-1] + d.rightCounts[i-1]
	}
	leftCnt := d.leftWritePos[nblock-1] + d.leftCounts[nblock-1]

	// Gather: every block copies to a disjoint destination range, so this
	// needs no synchronization beyond the join. Blocks are spread across
	// workers by copy size; the last block may be much shorter than the rest.
	leftDst := d.indices[begin : begin+leftCnt]
	rightDst := d.indices[begin+leftCnt : begin+cnt]
	for b := 0; b < nblock; b++ {
		d.gatherCosts[b] = float64(d.leftCounts[b] + d.rightCounts[b])
	}
	// fn never fails, so the error is statically nil.
	_ = BalancedFor(nblock, d.gatherCosts[:nblock], d.workers, func(b int) error {
		off := d.offsets[b]
		copy(leftDst[d.leftWritePos[b]:], d.tempLeft[off:off+d.leftCounts[b]])
		copy(rightDst[d.rightWritePos[b]:], d.tempRight[off:off+d.rightCounts[b]])
		return nil
	})

	d.leafCount[leaf] = leftCnt
	d.leafBegin[rightLeaf] = begin + leftCnt
	d.leafCount[rightLeaf] = cnt - leftCnt
	return nil
}

// ResetByLeafPred rebuilds the partition from an explicit per-row leaf
// assignment: row i goes to leaf leafPred[i], rows within a leaf in
// increasing row order, leaf runs concatenated in leaf-index order. Used
// when replaying a stored tree structure rather than growing one; this is a
// sequential low-frequency path.
func (d *DataPartition) ResetByLeafPred(leafPred []int, numLeaves int) error {
	if numLeaves < 1 {
		return fmt.Errorf("gbsplit: numLeaves must be >= 1, got %d", numLeaves)
	}
	if int32(len(leafPred)) > d.numData {
		return fmt.Errorf("gbsplit: %d leaf assignments exceed partition capacity %d", len(leafPred), d.numData)
	}
	perLeaf := make([][]int32, numLeaves)
	for i, leaf := range leafPred {
		if leaf < 0 || leaf >= numLeaves {
			return fmt.Errorf("gbsplit: leaf assignment %d for row %d out of range [0, %d)", leaf, i, numLeaves)
		}
		perLeaf[leaf] = append(perLeaf[leaf], int32(i))
	}
	d.ResetLeaves(numLeaves)

	var offset int32
	for leaf, rows := range perLeaf {
		d.leafBegin[leaf] = offset
		d.leafCount[leaf] = int32(len(rows))
		copy(d.indices[offset:], rows)
		offset += int32(len(rows))
	}
	return nil
}

// GetIndexOnLeaf returns the row ids currently on leaf, as an aliasing view
// into the live index buffer. The view is valid only until the next
// mutating call (Split, Init, ResetByLeafPred, the Reset* methods); callers
// must not hold it across one, and must not modify it.
func (d *DataPartition) GetIndexOnLeaf(leaf int) []int32 {
	begin := d.leafBegin[leaf]
	return d.indices[begin : begin+d.leafCount[leaf]]
}

// ResetNumData resizes the partition to a new row count. Destructive: run
// contents are not preserved; call Init afterwards. Clears any registered
// bagging subset.
func (d *DataPartition) ResetNumData(numData int32) {
	d.numData = numData
	d.indices = d.alloc.Int32s(int(numData))
	d.tempLeft = d.alloc.Int32s(int(numData))
	d.tempRight = d.alloc.Int32s(int(numData))
	d.usedRows = nil
}

// ResetLeaves resizes the leaf capacity. Destructive: leaf boundaries are
// not preserved; call Init afterwards.
func (d *DataPartition) ResetLeaves(numLeaves int) {
	d.numLeaves = numLeaves
	d.leafBegin = make([]int32, numLeaves)
	d.leafCount = make([]int32, numLeaves)
}

// LeafCount returns the number of rows on leaf.
func (d *DataPartition) LeafCount(leaf int) int32 { return d.leafCount[leaf] }

// LeafBegin returns the offset of leaf's run within the index buffer.
func (d *DataPartition) LeafBegin(leaf int) int32 { return d.leafBegin[leaf] }

// Indices returns the whole live index buffer, grouped by leaf. Read-only,
// and ephemeral under the same rules as GetIndexOnLeaf.
func (d *DataPartition) Indices() []int32 { return d.indices }

// NumLeaves returns the current leaf capacity.
func (d *DataPartition) NumLeaves() int { return d.numLeaves }

// NumData returns the number of rows under management.
func (d *DataPartition) NumData() int32 { return d.numData }
