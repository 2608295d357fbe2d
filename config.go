package gbsplit

import (
	"fmt"
	"runtime"
)

// Config controls partition-engine behavior.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// MaxLeaves is the leaf capacity pre-sized at construction. A tree grown
	// against this partition may use at most MaxLeaves leaves; use
	// DataPartition.ResetLeaves to change it between trainings.
	// Must be >= 1. Default: 31.
	MaxLeaves int

	// Workers controls the number of goroutines used by Split and Init.
	// Per-block scratch buffers are sized to this value at construction, so
	// it is fixed for the lifetime of a DataPartition. 0 means use
	// runtime.NumCPU(). Default: 0 (auto).
	Workers int

	// MinBlockSize is the smallest number of rows worth forking a goroutine
	// for. Ranges shorter than this run sequentially. Must be >= 1.
	// Default: 1024.
	MinBlockSize int32

	// Alignment is the byte alignment of the hot index buffers (the row
	// permutation and the two scatter scratch buffers). Must be a power of
	// two >= 4, or 0 to use the platform cache-line size. Default: 0 (auto).
	Alignment int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MaxLeaves:    31,
		MinBlockSize: 1024,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.MaxLeaves < 1 {
		return fmt.Errorf("gbsplit: MaxLeaves must be >= 1, got %d", cfg.MaxLeaves)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("gbsplit: Workers must be >= 0 (0 means runtime.NumCPU()), got %d", cfg.Workers)
	}
	if cfg.MinBlockSize < 1 {
		return fmt.Errorf("gbsplit: MinBlockSize must be >= 1, got %d", cfg.MinBlockSize)
	}
	if cfg.Alignment != 0 && (cfg.Alignment < 4 || cfg.Alignment&(cfg.Alignment-1) != 0) {
		return fmt.Errorf("gbsplit: Alignment must be a power of two >= 4, got %d", cfg.Alignment)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Alignment == 0 {
		cfg.Alignment = CacheLineSize
	}
}
