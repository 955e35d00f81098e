//go:build windows

package main

import (
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

const IOCTL_STORAGE_GET_DEVICE_NUMBER = 0x2D1080

type storageDeviceNumber struct {
	DeviceType      uint32
	DeviceNumber    uint32
	PartitionNumber uint32
}

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procGetDriveType     = kernel32.NewProc("GetDriveTypeW")
	procGetDiskFreeSpace = kernel32.NewProc("GetDiskFreeSpaceExW")
)

// normalizeWindowsDevicePath maps \\.\A: to \\.\PhysicalDriveN if possible.
// If mapping fails or not a drive-letter path, returns the input unchanged.
func normalizeWindowsDevicePath(p string) string {
	if len(p) < 6 || !strings.HasPrefix(p, `\\.\`) || p[5] != ':' {
		return p
	}
	letter := strings.ToUpper(p[4:5])
	if letter < "A" || letter > "Z" {
		return p
	}
	vol := `\\.\` + letter + `:`
	h, err := windows.CreateFile(
		windows.StringToUTF16Ptr(vol),
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return p
	}
	defer windows.CloseHandle(h)

	var out storageDeviceNumber
	var bytesReturned uint32
	if err := windows.DeviceIoControl(
		h,
		IOCTL_STORAGE_GET_DEVICE_NUMBER,
		nil, 0,
		(*byte)(unsafe.Pointer(&out)), uint32(unsafe.Sizeof(out)),
		&bytesReturned,
		nil,
	); err != nil {
		return p
	}
	return fmt.Sprintf(`\\.\PhysicalDrive%d`, out.DeviceNumber)
}

func driveTypeString(t uint32) string {
	switch t {
	case 2:
		return "removable"
	case 3:
		return "fixed"
	case 4:
		return "network"
	case 5:
		return "cdrom"
	case 6:
		return "ramdisk"
	default:
		return "unknown"
	}
}

func getDriveType(root string) uint32 {
	p, _ := windows.UTF16PtrFromString(root)
	r0, _, _ := procGetDriveType.Call(uintptr(unsafe.Pointer(p)))
	return uint32(r0)
}

func getTotalBytes(root string) uint64 {
	p, _ := windows.UTF16PtrFromString(root)
	var total uint64
	_, _, _ = procGetDiskFreeSpace.Call(
		uintptr(unsafe.Pointer(p)),
		0,
		uintptr(unsafe.Pointer(&total)),
		0,
	)
	return total
}

func listMountedWindows() []mountedVol {
	out := []mountedVol{}
	for l := byte('A'); l <= byte('Z'); l++ {
		root := fmt.Sprintf("%c:\\", l)
		typeCode := getDriveType(root)
		if typeCode == 0 || typeCode == 1 { // unknown or no root dir
			continue
		}
		out = append(out, mountedVol{
			MountPoint: root,
			Device:     fmt.Sprintf(`\\.\%c:`, l),
			FSType:     driveTypeString(typeCode),
			SizeBytes:  int64(getTotalBytes(root)),
		})
	}
	return out
}
