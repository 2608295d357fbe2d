package gbsplit

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is the platform cache-line size in bytes, the default
// alignment for the hot index buffers.
var CacheLineSize = int(unsafe.Sizeof(cpu.CacheLinePad{}))

// AlignedAllocator allocates int32 buffers whose first element lies on an
// Alignment-byte boundary, so that parallel blocks reading and writing
// adjacent regions start on cache-line/SIMD-friendly addresses.
//
// The allocator carries no state: two allocators with the same Alignment
// compare equal and are interchangeable. Freeing is the garbage collector's
// job; a buffer is released by dropping all references to it.
type AlignedAllocator struct {
	// Alignment in bytes. Must be a power of two >= 4; 0 means CacheLineSize.
	Alignment int
}

// Int32s allocates a length-n slice aligned to a.Alignment bytes.
// n == 0 returns nil. Heap exhaustion panics inside make, as any Go
// allocation does; there is no recoverable out-of-memory path.
func (a AlignedAllocator) Int32s(n int) []int32 {
	if n == 0 {
		return nil
	}
	align := a.Alignment
	if align == 0 {
		align = CacheLineSize
	}
	const elemSize = int(unsafe.Sizeof(int32(0)))
	pad := align / elemSize
	raw := make([]int32, n+pad)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	off := 0
	if rem := addr & uintptr(align-1); rem != 0 {
		off = (align - int(rem)) / elemSize
	}
	return raw[off : off+n : off+n]
}
