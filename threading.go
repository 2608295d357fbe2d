package gbsplit

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// blockAlign is the element granularity block boundaries are rounded up to,
// so that every block after the first starts on a 128-byte boundary of the
// int32 buffers (32 elements * 4 bytes). The last block is clamped to the
// range end and may be shorter, or empty when the rounding overshoots.
const blockAlign = 32

// CurrentWorkers resolves a worker-count setting: values <= 0 mean "one
// worker per CPU". This is the single pool-size query everything in the
// scheduler goes through.
func CurrentWorkers(workers int) int {
	if workers <= 0 {
		return runtime.NumCPU()
	}
	return workers
}

func alignUp(v int32) int32 {
	return (v + blockAlign - 1) &^ (blockAlign - 1)
}

// BlockInfo computes the fork-join decomposition of cnt work items:
// the number of parallel blocks (at most workers, at least 1, and never so
// many that a block gets fewer than minBlockSize items) and the per-block
// size. With a single block the size is cnt itself, so small inputs skip
// fork overhead entirely.
func BlockInfo(workers int, cnt, minBlockSize int32) (nblock int, blockSize int32) {
	workers = CurrentWorkers(workers)
	if minBlockSize < 1 {
		minBlockSize = 1
	}
	nblock = int((cnt + minBlockSize - 1) / minBlockSize)
	if nblock > workers {
		nblock = workers
	}
	if nblock <= 1 {
		return 1, cnt
	}
	blockSize = alignUp((cnt + int32(nblock) - 1) / int32(nblock))
	return nblock, blockSize
}

// ParallelFor runs fn once per block of [start, end), each block on its own
// goroutine, and blocks until all of them return. Blocks execute in no
// defined order; fn must not share mutable state across blocks except
// through per-block-indexed buffers. A block whose range is empty
// (lo == hi) must still run and contribute nothing.
//
// Returns the number of blocks used (callers need it to know how many
// per-block scratch slots were written) and the first error any block
// returned. Remaining blocks run to completion even after one fails; on
// error the caller must treat all per-block outputs as undefined.
//
// With a single block (small range, or workers <= 1) fn runs inline on the
// calling goroutine.
func ParallelFor(start, end, minBlockSize int32, workers int, fn func(block int, lo, hi int32) error) (int, error) {
	cnt := end - start
	if cnt < 0 {
		return 0, fmt.Errorf("gbsplit: ParallelFor range [%d, %d) is negative", start, end)
	}
	nblock, blockSize := BlockInfo(workers, cnt, minBlockSize)
	if nblock <= 1 {
		return 1, fn(0, start, end)
	}

	var g errgroup.Group
	for i := 0; i < nblock; i++ {
		i := i
		lo := min(start+int32(i)*blockSize, end)
		hi := min(lo+blockSize, end)
		g.Go(func() error {
			return fn(i, lo, hi)
		})
	}
	return nblock, g.Wait()
}

// BalancedFor runs fn(i) for i in [0, n) where items have non-uniform costs
// and a contiguous split would starve some workers. Items are greedily
// assigned to the worker with the smallest accumulated cost, then each
// worker runs its items sequentially in assignment order. First error wins;
// other workers finish their items regardless.
func BalancedFor(n int, costs []float64, workers int, fn func(item int) error) error {
	if len(costs) != n {
		return fmt.Errorf("gbsplit: BalancedFor got %d costs for %d items", len(costs), n)
	}
	workers = CurrentWorkers(workers)
	if workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	groups := make([][]int, workers)
	totals := make([]float64, workers)
	for i := 0; i < n; i++ {
		w := floats.MinIdx(totals)
		totals[w] += costs[i]
		groups[w] = append(groups[w], i)
	}

	var g errgroup.Group
	for _, items := range groups {
		items := items
		if len(items) == 0 {
			continue
		}
		g.Go(func() error {
			for _, j := range items {
				if err := fn(j); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
