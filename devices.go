package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scanbadblocks/blockdevice"
)

// Device discovery (read-only)
type deviceInfo struct {
	Path       string
	Compatible bool
	Reason     string
}

type mountedVol struct {
	MountPoint string
	Device     string
	FSType     string
	SizeBytes  int64
}

func newDeviceCommand() *cobra.Command {
	deviceCmd := &cobra.Command{
		Use:   "device",
		Short: "Device related utilities (safe, read-only)",
	}

	var listAll bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List whole-disk devices that can be scanned (read-only)",
		RunE: func(_ *cobra.Command, _ []string) error {
			infos, err := discoverDevices()
			if err != nil {
				return err
			}
			fmt.Printf("OS: %s\n", runtime.GOOS)
			fmt.Println("This is a SAFE, read-only listing. Nothing is read or written.")
			fmt.Println()
			fmt.Println("Whole-disk devices (usable as BLOCK_DEVICE):")
			fmt.Printf("  %-22s  %-14s  %-20s  %-8s\n", "Path", "Type", "Serial", "Size")
			printedCompat := false
			for _, d := range infos {
				if !d.Compatible {
					continue
				}
				dtype, serial, sizeStr := getDeviceDetails(d.Path)
				fmt.Printf("  %-22s  %-14s  %-20s  %-8s\n", d.Path, dtype, serial, sizeStr)
				printedCompat = true
			}
			if !printedCompat {
				fmt.Println("  <none detected>")
			}
			fmt.Println()
			if listAll {
				fmt.Println("Partitions and other devices (scanning them covers only part of a disk):")
				for _, d := range infos {
					if !d.Compatible {
						reason := d.Reason
						if strings.TrimSpace(reason) == "" {
							reason = "not a whole-disk device"
						}
						fmt.Printf("  %s  (%s)\n", d.Path, reason)
					}
				}
				fmt.Println()
			}
			var mvs []mountedVol
			switch runtime.GOOS {
			case "darwin":
				mvs = listMountedDarwin()
			case "windows":
				mvs = listMountedWindows()
			}
			if len(mvs) > 0 {
				fmt.Println("Mounted volumes:")
				fmt.Printf("  %-24s  %-14s  %-18s  %-8s\n", "Mount", "FS", "Device", "Size")
				for _, m := range mvs {
					fmt.Printf("  %-24s  %-14s  %-18s  %-8s\n", m.MountPoint, m.FSType, m.Device, human(m.SizeBytes))
				}
				fmt.Println()
			}
			fmt.Println("Notes:")
			switch runtime.GOOS {
			case "darwin":
				fmt.Println("  - Whole disks are /dev/diskN. The raw node /dev/rdiskN is usually faster to scan.")
			case "linux":
				fmt.Println("  - Whole disks: /dev/sdX, /dev/vdX, /dev/nvmeXnY, /dev/mmcblkX. Partitions end in digits.")
			case "windows":
				fmt.Println("  - Pass \\\\.\\PhysicalDriveN or \\\\.\\X: as BLOCK_DEVICE. Writing requires administrator rights.")
			}
			fmt.Println("  - Overwriting (-w) destroys all data. Mounted devices are refused unless --force is given.")
			return nil
		},
	}
	listCmd.Flags().BoolVar(&listAll, "all", false, "include partitions and other non whole-disk devices in output")
	deviceCmd.AddCommand(listCmd)

	// device info --path <mountpoint or device>
	var infoPath string
	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show detailed info about a mount point or device (read-only)",
		RunE: func(_ *cobra.Command, _ []string) error {
			if strings.TrimSpace(infoPath) == "" {
				return fmt.Errorf("--path is required")
			}
			dev, mnt, err := resolvePathToDevice(infoPath)
			if err != nil {
				return err
			}
			whole := wholeDevice(dev)

			fmt.Println("Path info")
			fmt.Printf("  Input:   %s\n", infoPath)
			fmt.Printf("  Device:  %s\n", dev)
			if mnt != "" {
				fmt.Printf("  Mounted: %s\n", mnt)
			}
			fmt.Printf("  Whole:   %s\n", whole)
			if size, err := blockdevice.NewFileTarget(whole).SizeBytes(); err == nil {
				fmt.Printf("  Size:    %s (%d bytes)\n", human(size), size)
			}
			if runtime.GOOS == "windows" {
				if physical := normalizeWindowsDevicePath(dev); physical != dev {
					fmt.Printf("  Disk:    %s\n", physical)
				}
			}
			return nil
		},
	}
	infoCmd.Flags().StringVar(&infoPath, "path", "", "mount point (e.g. /Volumes/XYZ) or device path (e.g. /dev/disk2)")
	_ = infoCmd.MarkFlagRequired("path")
	deviceCmd.AddCommand(infoCmd)
	return deviceCmd
}

func discoverDevices() ([]deviceInfo, error) {
	switch runtime.GOOS {
	case "darwin":
		return discoverDarwin()
	case "linux":
		return discoverLinux()
	case "windows":
		return discoverWindows()
	default:
		return nil, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

// isPartitionDarwin returns true for names like disk2s1 or rdisk3s2.
func isPartitionDarwin(name string) bool {
	for i := 0; i+1 < len(name); i++ {
		if name[i] == 's' && name[i+1] >= '0' && name[i+1] <= '9' {
			return true
		}
	}
	return false
}

func discoverDarwin() ([]deviceInfo, error) {
	entries, err := os.ReadDir("/dev")
	if err != nil {
		return nil, err
	}
	infos := []deviceInfo{}
	for _, e := range entries {
		name := e.Name()
		// Include both buffered and raw disk device nodes
		if strings.HasPrefix(name, "disk") || strings.HasPrefix(name, "rdisk") {
			path := filepath.Join("/dev", name)
			if isPartitionDarwin(name) {
				infos = append(infos, deviceInfo{Path: path, Compatible: false, Reason: "partition"})
			} else {
				infos = append(infos, deviceInfo{Path: path, Compatible: true})
			}
		}
	}
	return infos, nil
}

func discoverLinux() ([]deviceInfo, error) {
	entries, err := os.ReadDir("/dev")
	if err != nil {
		return nil, err
	}
	infos := []deviceInfo{}
	for _, e := range entries {
		name := e.Name()
		path := filepath.Join("/dev", name)
		if isWholeLinuxDevice(name) {
			infos = append(infos, deviceInfo{Path: path, Compatible: true})
			continue
		}
		if isPartitionLinux(name) {
			infos = append(infos, deviceInfo{Path: path, Compatible: false, Reason: "partition"})
			continue
		}
		if strings.HasPrefix(name, "loop") && name != "loop-control" {
			infos = append(infos, deviceInfo{Path: path, Compatible: false, Reason: "loop device"})
		}
	}
	return infos, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func isWholeLinuxDevice(name string) bool {
	// sdX, vdX
	if len(name) == 3 && (strings.HasPrefix(name, "sd") || strings.HasPrefix(name, "vd")) && name[2] >= 'a' && name[2] <= 'z' {
		return true
	}
	// nvmeXnY
	if rest, ok := strings.CutPrefix(name, "nvme"); ok {
		ctrl, ns, found := strings.Cut(rest, "n")
		return found && isDigits(ctrl) && isDigits(ns)
	}
	// mmcblkX
	if rest, ok := strings.CutPrefix(name, "mmcblk"); ok {
		return isDigits(rest)
	}
	return false
}

func isPartitionLinux(name string) bool {
	// sdXN or vdXN: trailing digit(s)
	if (strings.HasPrefix(name, "sd") || strings.HasPrefix(name, "vd")) && len(name) >= 4 {
		if name[2] >= 'a' && name[2] <= 'z' && isDigits(name[3:]) {
			return true
		}
	}
	// nvmeXnYpZ, mmcblkXpZ
	if strings.HasPrefix(name, "nvme") || strings.HasPrefix(name, "mmcblk") {
		if idx := strings.LastIndexByte(name, 'p'); idx > 0 {
			return isWholeLinuxDevice(name[:idx]) && isDigits(name[idx+1:])
		}
	}
	return false
}

func discoverWindows() ([]deviceInfo, error) {
	// Probe a reasonable range for PhysicalDriveN
	infos := []deviceInfo{}
	for i := 0; i < 32; i++ {
		path := fmt.Sprintf("\\\\.\\PhysicalDrive%d", i)
		f, err := os.Open(path)
		if err == nil {
			_ = f.Close()
			infos = append(infos, deviceInfo{Path: path, Compatible: true})
		} else if i < 8 {
			// Still list a few common ones, as locked drives cannot be
			// told apart from missing ones.
			infos = append(infos, deviceInfo{Path: path, Compatible: false, Reason: "not accessible"})
		}
	}
	return infos, nil
}

// wholeDevice derives the whole-disk device of a partition by trimming
// its partition suffix for known naming schemes.
func wholeDevice(dev string) string {
	b := filepath.Base(dev)
	switch runtime.GOOS {
	case "darwin":
		// /dev/(r)diskNsM -> /dev/(r)diskN
		for i := 0; i+1 < len(b); i++ {
			if b[i] == 's' && b[i+1] >= '0' && b[i+1] <= '9' {
				return filepath.Join(filepath.Dir(dev), b[:i])
			}
		}
	case "linux":
		// sdXN -> sdX, nvmeXnYpZ -> nvmeXnY, mmcblkXpZ -> mmcblkX
		if isPartitionLinux(b) {
			if idx := strings.LastIndexByte(b, 'p'); idx != -1 && (strings.HasPrefix(b, "nvme") || strings.HasPrefix(b, "mmcblk")) {
				return filepath.Join(filepath.Dir(dev), b[:idx])
			}
			return filepath.Join(filepath.Dir(dev), strings.TrimRight(b, "0123456789"))
		}
	}
	return dev
}

// Resolve a mount point or device path to its device and mount path
func resolvePathToDevice(p string) (device string, mountpoint string, err error) {
	if strings.HasPrefix(p, `\\.\`) {
		return p, "", nil
	}
	p = filepath.Clean(p)
	if strings.HasPrefix(p, "/dev/") {
		return p, findMountByDevice(p), nil
	}
	// Otherwise, treat as mountpoint. Try platform-specific resolution.
	switch runtime.GOOS {
	case "darwin":
		dev, mnt := findDarwinDeviceForMount(p)
		if dev == "" {
			return "", "", fmt.Errorf("cannot resolve device for %s", p)
		}
		return dev, mnt, nil
	case "linux":
		dev, mnt := findLinuxDeviceForMount(p)
		if dev == "" {
			return "", "", fmt.Errorf("cannot resolve device for %s", p)
		}
		return dev, mnt, nil
	case "windows":
		return "", "", fmt.Errorf("on Windows, pass a device like \\\\.\\PhysicalDriveN or \\\\.\\X: with --path")
	default:
		return "", "", fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

func findMountByDevice(device string) string {
	for _, m := range listMounts() {
		if m.Device == device {
			return m.MountPoint
		}
	}
	return ""
}

func findLinuxDeviceForMount(target string) (device string, mountpoint string) {
	for _, m := range listMounts() {
		if filepath.Clean(m.MountPoint) == filepath.Clean(target) {
			return m.Device, m.MountPoint
		}
	}
	return "", ""
}

// getDeviceDetails returns (type, serial, sizeHuman)
func getDeviceDetails(path string) (string, string, string) {
	dtype := "Disk"
	serial := "-"
	sizeStr := "-"

	switch runtime.GOOS {
	case "linux":
		name := filepath.Base(path)
		sysPath := filepath.Join("/sys/block", name)
		if _, err := os.Stat(sysPath); err != nil {
			// Some names appear under /sys/class/block
			sysPath = filepath.Join("/sys/class/block", name)
		}
		if b, err := os.ReadFile(filepath.Join(sysPath, "removable")); err == nil {
			if strings.TrimSpace(string(b)) == "1" {
				dtype = "Removable Disk"
			} else {
				dtype = "Fixed Disk"
			}
		}
		if b, err := os.ReadFile(filepath.Join(sysPath, "queue", "rotational")); err == nil && dtype == "Fixed Disk" {
			if strings.TrimSpace(string(b)) == "0" {
				dtype = "Fixed SSD"
			}
		}
		if b, err := os.ReadFile(filepath.Join(sysPath, "device", "serial")); err == nil {
			serial = strings.TrimSpace(string(b))
		}
	case "windows":
		dtype = "PhysicalDrive"
	}
	if size, err := blockdevice.NewFileTarget(path).SizeBytes(); err == nil && size > 0 {
		sizeStr = human(size)
	}
	return dtype, serial, sizeStr
}
