package scan

import (
	"errors"
	"fmt"
)

// Direction of the I/O performed by a pass.
type Direction int

const (
	// Read passes read every block, optionally verifying its content.
	Read Direction = iota
	// Write passes overwrite every block with a pattern.
	Write
)

func (d Direction) String() string {
	if d == Write {
		return "write"
	}
	return "read"
}

// MinimumBlockSizeBytes is the smallest supported block size. Every
// block must be able to hold the eight byte block index prefix written
// by FillBlock.
const MinimumBlockSizeBytes = patternPrefixBytes

var (
	// ErrEmptyDevice is returned when the device reports a size of zero.
	ErrEmptyDevice = errors.New("cannot determine size")
	// ErrBlockSizeTooSmall is returned for block sizes below MinimumBlockSizeBytes.
	ErrBlockSizeTooSmall = fmt.Errorf("block size must be at least %d bytes", MinimumBlockSizeBytes)
	// ErrNoPatterns is returned when overwriting without any pattern.
	ErrNoPatterns = errors.New("at least one pattern is required to overwrite")
)

// Session is the immutable configuration of a scan. It is computed once
// from the device size and the requested block size and patterns.
type Session struct {
	DeviceSizeBytes int64
	BlockSizeBytes  int64
	NumBlocks       int64
	Patterns        []byte
	Overwrite       bool
}

// NewSession validates the scan parameters and derives the number of
// blocks. The last block is shorter than BlockSizeBytes if the device
// size is not a multiple of it.
func NewSession(deviceSizeBytes, blockSizeBytes int64, patterns []byte, overwrite bool) (*Session, error) {
	if deviceSizeBytes <= 0 {
		return nil, ErrEmptyDevice
	}
	if blockSizeBytes < MinimumBlockSizeBytes {
		return nil, fmt.Errorf("%w, got %d", ErrBlockSizeTooSmall, blockSizeBytes)
	}
	if overwrite && len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	return &Session{
		DeviceSizeBytes: deviceSizeBytes,
		BlockSizeBytes:  blockSizeBytes,
		NumBlocks:       (deviceSizeBytes-1)/blockSizeBytes + 1,
		Patterns:        append([]byte(nil), patterns...),
		Overwrite:       overwrite,
	}, nil
}

// AccessSize returns the number of bytes transferred for a block.
func (s *Session) AccessSize(blockIndex int64) int {
	if (blockIndex+1)*s.BlockSizeBytes > s.DeviceSizeBytes {
		return int(s.DeviceSizeBytes - blockIndex*s.BlockSizeBytes)
	}
	return int(s.BlockSizeBytes)
}

// MaxAccessSize returns the size of the largest transfer of the session,
// which is smaller than the block size on devices smaller than a block.
func (s *Session) MaxAccessSize() int {
	return s.AccessSize(0)
}

// Offset returns the byte offset of a block on the device.
func (s *Session) Offset(blockIndex int64) int64 {
	return blockIndex * s.BlockSizeBytes
}

// BytesPerPass is the number of bytes transferred by a complete pass.
func (s *Session) BytesPerPass() int64 {
	return s.DeviceSizeBytes
}

// NumPasses returns 1 for read-only sessions, and a write and a read
// pass per pattern otherwise.
func (s *Session) NumPasses() int {
	if !s.Overwrite {
		return 1
	}
	return 2 * len(s.Patterns)
}

// ReadPasses returns the number of read passes of the session.
func (s *Session) ReadPasses() int {
	if !s.Overwrite {
		return 1
	}
	return len(s.Patterns)
}

// WritePasses returns the number of write passes of the session.
func (s *Session) WritePasses() int {
	if !s.Overwrite {
		return 0
	}
	return len(s.Patterns)
}

// LargestPowerOfTwoFactor returns the largest power of two that the
// device size is a multiple of.
func (s *Session) LargestPowerOfTwoFactor() int64 {
	return s.DeviceSizeBytes & -s.DeviceSizeBytes
}

// PassPlan describes a single sweep over all blocks.
type PassPlan struct {
	Index     int
	Direction Direction
	// Pattern is meaningful only if HasPattern is set. The single pass
	// of a read-only session has no pattern and verifies nothing.
	Pattern    byte
	HasPattern bool
}

// Plan returns the passes of the session in execution order. For every
// pattern a write pass is immediately followed by the read pass
// verifying it.
func (s *Session) Plan() []PassPlan {
	if !s.Overwrite {
		return []PassPlan{{Index: 0, Direction: Read}}
	}
	plans := make([]PassPlan, 0, s.NumPasses())
	for _, pattern := range s.Patterns {
		plans = append(plans,
			PassPlan{Index: len(plans), Direction: Write, Pattern: pattern, HasPattern: true},
			PassPlan{Index: len(plans) + 1, Direction: Read, Pattern: pattern, HasPattern: true})
	}
	return plans
}
