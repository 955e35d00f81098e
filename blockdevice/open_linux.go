//go:build linux

package blockdevice

import (
	"os"

	"golang.org/x/sys/unix"
)

// openDevice opens path for reading or writing. Block devices opened for
// writing use O_EXCL, which Linux interprets as an exclusive claim on
// the device: the open fails with EBUSY while a filesystem on it is
// mounted. Reading a mounted device is permitted.
func openDevice(path string, write bool) (*os.File, func(), error) {
	flags := unix.O_RDONLY
	if write {
		flags = unix.O_WRONLY
		if info, err := os.Stat(path); err == nil && info.Mode()&os.ModeDevice != 0 && info.Mode()&os.ModeCharDevice == 0 {
			flags |= unix.O_EXCL
		}
	}
	f, err := os.OpenFile(path, flags, 0)
	if err != nil {
		return nil, nil, err
	}
	return f, nil, nil
}
