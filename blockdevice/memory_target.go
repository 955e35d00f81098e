package blockdevice

import (
	"io"
	"sync"
	"syscall"
)

// MemoryTarget is a Target whose contents are stored in a byte slice.
// It behaves like an honest device: whatever is written can be read
// back. Writes extending past the end of the device are truncated.
type MemoryTarget struct {
	lock sync.Mutex
	data []byte
}

var _ Target = (*MemoryTarget)(nil)

// NewMemoryTarget creates a zero-filled MemoryTarget of a given size.
func NewMemoryTarget(sizeBytes int64) *MemoryTarget {
	return &MemoryTarget{data: make([]byte, sizeBytes)}
}

// Bytes returns the backing storage of the target.
func (t *MemoryTarget) Bytes() []byte {
	return t.data
}

// SizeBytes returns the size the target was created with.
func (t *MemoryTarget) SizeBytes() (int64, error) {
	return int64(len(t.data)), nil
}

// OpenReader returns a handle for reading the target.
func (t *MemoryTarget) OpenReader() (Reader, error) {
	return memoryHandle{target: t}, nil
}

// OpenWriter returns a handle for writing the target.
func (t *MemoryTarget) OpenWriter() (Writer, error) {
	return memoryHandle{target: t}, nil
}

type memoryHandle struct {
	target *MemoryTarget
}

func (h memoryHandle) ReadAt(p []byte, off int64) (int, error) {
	t := h.target
	t.lock.Lock()
	defer t.lock.Unlock()

	if off < 0 {
		return 0, syscall.EINVAL
	}
	if off >= int64(len(t.data)) {
		return 0, io.EOF
	}
	n := copy(p, t.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (h memoryHandle) WriteAt(p []byte, off int64) (int, error) {
	t := h.target
	t.lock.Lock()
	defer t.lock.Unlock()

	if off < 0 {
		return 0, syscall.EINVAL
	}
	if off >= int64(len(t.data)) {
		return 0, syscall.ENOSPC
	}
	n := copy(t.data[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (memoryHandle) DropCache() error { return nil }

func (memoryHandle) Sync() error { return nil }

func (memoryHandle) Close() error { return nil }
