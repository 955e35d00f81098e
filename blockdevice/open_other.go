//go:build !linux && !windows

package blockdevice

import (
	"os"
)

func openDevice(path string, write bool) (*os.File, func(), error) {
	flags := os.O_RDONLY
	if write {
		flags = os.O_WRONLY
	}
	f, err := os.OpenFile(path, flags, 0)
	if err != nil {
		return nil, nil, err
	}
	return f, nil, nil
}
