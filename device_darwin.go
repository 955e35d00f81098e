//go:build darwin

package main

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

func getfsstat() []unix.Statfs_t {
	n, err := unix.Getfsstat(nil, unix.MNT_NOWAIT)
	if err != nil || n <= 0 {
		return nil
	}
	buf := make([]unix.Statfs_t, n)
	n, err = unix.Getfsstat(buf, unix.MNT_NOWAIT)
	if err != nil {
		return nil
	}
	return buf[:n]
}

func findDarwinDeviceForMount(target string) (device string, mountpoint string) {
	for _, st := range getfsstat() {
		from := bytesToStringDarwin(st.Mntfromname[:])
		on := bytesToStringDarwin(st.Mntonname[:])
		if filepath.Clean(on) == filepath.Clean(target) {
			return from, on
		}
	}
	return "", ""
}

func bytesToStringDarwin(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func listMountedDarwin() []mountedVol {
	var out []mountedVol
	for _, st := range getfsstat() {
		out = append(out, mountedVol{
			MountPoint: filepath.Clean(bytesToStringDarwin(st.Mntonname[:])),
			Device:     bytesToStringDarwin(st.Mntfromname[:]),
			FSType:     bytesToStringDarwin(st.Fstypename[:]),
			SizeBytes:  int64(st.Blocks) * int64(st.Bsize),
		})
	}
	return out
}
