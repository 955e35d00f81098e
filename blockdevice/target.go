// Package blockdevice provides the raw I/O capability used by the scanner:
// querying the size of a device and opening it for positional reads or
// writes.
package blockdevice

import (
	"io"
)

// Target is a storage medium that can be scanned. Every pass opens a
// fresh handle through OpenReader() or OpenWriter() and closes it when
// the pass is done, so that no handle is shared between passes.
type Target interface {
	// SizeBytes returns the total number of addressable bytes.
	SizeBytes() (int64, error)

	OpenReader() (Reader, error)
	OpenWriter() (Writer, error)
}

// Reader is a handle on a Target opened for reading.
type Reader interface {
	io.ReaderAt
	io.Closer

	// DropCache asks the operating system to discard cached pages of
	// the target, so that subsequent reads hit the medium. It is a
	// hint; implementations that cannot honor it return nil.
	DropCache() error
}

// Writer is a handle on a Target opened for writing. Sync() blocks
// until all previous writes are persisted.
type Writer interface {
	io.WriterAt
	io.Closer

	Sync() error
}
