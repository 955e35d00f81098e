//go:build darwin

package blockdevice

import (
	"os"

	"golang.org/x/sys/unix"
)

// dropCache disables the unified buffer cache for the descriptor, which
// is the closest macOS gets to discarding cached pages.
func dropCache(f *os.File) error {
	_, err := unix.FcntlInt(f.Fd(), unix.F_NOCACHE, 1)
	return err
}
