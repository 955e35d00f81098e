package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

type mountEntry struct {
	Device     string
	MountPoint string
}

// parseMounts parses the contents of /proc/self/mounts. Spaces and
// other special characters in paths are octal escaped (\040).
func parseMounts(data string) []mountEntry {
	var mounts []mountEntry
	for _, ln := range strings.Split(data, "\n") {
		// format: <src> <target> <fstype> <opts> ...
		fields := strings.Fields(ln)
		if len(fields) < 2 {
			continue
		}
		mounts = append(mounts, mountEntry{
			Device:     unescapeMountField(fields[0]),
			MountPoint: unescapeMountField(fields[1]),
		})
	}
	return mounts
}

func unescapeMountField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// listMounts returns the mounted filesystems of the system, or nothing
// if they cannot be determined.
func listMounts() []mountEntry {
	switch runtime.GOOS {
	case "linux":
		b, err := os.ReadFile("/proc/self/mounts")
		if err != nil {
			return nil
		}
		return parseMounts(string(b))
	case "darwin":
		var mounts []mountEntry
		for _, m := range listMountedDarwin() {
			mounts = append(mounts, mountEntry{Device: m.Device, MountPoint: m.MountPoint})
		}
		return mounts
	default:
		return nil
	}
}

// isOnDevice returns true if src is the device itself or one of its
// partitions: sda1 for sda, nvme0n1p2 for nvme0n1, disk2s1 for disk2
// (or rdisk2).
func isOnDevice(src, device string) bool {
	if src == device {
		return true
	}
	if filepath.Dir(src) != filepath.Dir(device) {
		return false
	}
	base := strings.TrimPrefix(filepath.Base(device), "r")
	rest, ok := strings.CutPrefix(strings.TrimPrefix(filepath.Base(src), "r"), base)
	if !ok || base == "" {
		return false
	}
	if rest == "" {
		return true
	}
	// Names ending in a digit separate the partition number.
	if last := base[len(base)-1]; last >= '0' && last <= '9' {
		if rest[0] != 'p' && rest[0] != 's' {
			return false
		}
		rest = rest[1:]
	}
	return isDigits(rest)
}

// mountsOnDevice returns the mounts of a device and its partitions.
func mountsOnDevice(mounts []mountEntry, device string) []mountEntry {
	var matches []mountEntry
	for _, m := range mounts {
		src := m.Device
		if resolved, err := filepath.EvalSymlinks(src); err == nil {
			src = resolved
		}
		if isOnDevice(src, device) {
			matches = append(matches, m)
		}
	}
	return matches
}

// checkNotMounted refuses to continue if the device or any of its
// partitions are mounted, unless force is set.
func checkNotMounted(device string, force bool, stderr io.Writer) error {
	resolved := device
	if p, err := filepath.EvalSymlinks(device); err == nil {
		resolved = p
	}
	mounted := mountsOnDevice(listMounts(), resolved)
	if len(mounted) == 0 {
		return nil
	}
	for _, m := range mounted {
		fmt.Fprintf(stderr, "WARNING: %s is mounted on %s\n", m.Device, m.MountPoint)
	}
	if force {
		return nil
	}
	return fmt.Errorf("refusing to overwrite '%s' while it is mounted (unmount it or pass --force)", device)
}
