package blockdevice

import (
	"fmt"
	"os"
)

type fileTarget struct {
	path string
}

// NewFileTarget creates a Target for a regular file or a block device
// node. Where the platform supports it, block devices are opened
// exclusively, which fails if the device is mounted or in use.
func NewFileTarget(path string) Target {
	return &fileTarget{path: path}
}

func (t *fileTarget) SizeBytes() (int64, error) {
	f, release, err := openDevice(t.path, false)
	if err != nil {
		return 0, err
	}
	h := &fileHandle{File: f, release: release}
	defer h.Close()
	return getDeviceSize(t.path, f)
}

func (t *fileTarget) OpenReader() (Reader, error) {
	f, release, err := openDevice(t.path, false)
	if err != nil {
		return nil, fmt.Errorf("error opening file '%s' for reading: %w", t.path, err)
	}
	return &fileHandle{File: f, release: release}, nil
}

func (t *fileTarget) OpenWriter() (Writer, error) {
	f, release, err := openDevice(t.path, true)
	if err != nil {
		return nil, fmt.Errorf("error opening file '%s' for writing: %w", t.path, err)
	}
	return &fileHandle{File: f, release: release}, nil
}

// fileHandle implements both Reader and Writer on top of *os.File.
// release undoes any platform specific preparation done by openDevice.
type fileHandle struct {
	*os.File
	release func()
}

func (h *fileHandle) DropCache() error {
	return dropCache(h.File)
}

func (h *fileHandle) Close() error {
	err := h.File.Close()
	if h.release != nil {
		h.release()
	}
	return err
}
