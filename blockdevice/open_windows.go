//go:build windows

package blockdevice

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/windows"
)

const (
	FSCTL_LOCK_VOLUME       = 0x90018
	FSCTL_DISMOUNT_VOLUME   = 0x90020
	FSCTL_UNLOCK_VOLUME     = 0x9001c
	FILE_FLAG_WRITE_THROUGH = 0x80000000
)

// openDevice opens regular files through the os package and raw device
// paths (\\.\X:, \\.\PhysicalDriveN) through CreateFile. Drive letter
// volumes opened for writing are locked and dismounted first; the
// returned release function unlocks them again.
func openDevice(path string, write bool) (*os.File, func(), error) {
	if !IsRawDevicePath(path) {
		flags := os.O_RDONLY
		if write {
			flags = os.O_WRONLY
		}
		f, err := os.OpenFile(path, flags, 0)
		return f, nil, err
	}

	var release func()
	access := uint32(windows.GENERIC_READ)
	share := uint32(windows.FILE_SHARE_READ | windows.FILE_SHARE_WRITE)
	var attrs uint32
	if write {
		volHandle, err := lockVolume(path)
		if err != nil {
			return nil, nil, err
		}
		if volHandle != 0 {
			release = func() { unlockVolume(volHandle) }
		}
		access = windows.GENERIC_WRITE
		share = 0
		attrs = FILE_FLAG_WRITE_THROUGH
	}

	handle, err := windows.CreateFile(
		windows.StringToUTF16Ptr(path),
		access,
		share,
		nil,
		windows.OPEN_EXISTING,
		attrs,
		0,
	)
	if err != nil {
		if release != nil {
			release()
		}
		return nil, nil, fmt.Errorf("cannot open device %s: %w (ensure you are running as administrator and no programs have the drive open)", path, err)
	}
	file := os.NewFile(uintptr(handle), path)
	if file == nil {
		windows.CloseHandle(handle)
		if release != nil {
			release()
		}
		return nil, nil, fmt.Errorf("cannot create file from handle")
	}
	return file, release, nil
}

func volumeControl(h windows.Handle, code uint32) error {
	var bytesReturned uint32
	return windows.DeviceIoControl(h, code, nil, 0, nil, 0, &bytesReturned, nil)
}

// lockVolume attempts to lock and dismount a volume before raw writes.
// It returns the volume handle if locked, which must be kept open
// while writing.
func lockVolume(devicePath string) (windows.Handle, error) {
	// Only attempt for drive letter paths like \\.\E:
	if len(devicePath) < 6 || devicePath[5] != ':' {
		return 0, nil
	}
	driveLetter := strings.ToUpper(devicePath[4:5])
	if driveLetter < "A" || driveLetter > "Z" {
		return 0, nil
	}
	volumePath := `\\.\` + driveLetter + `:`

	volHandle, err := windows.CreateFile(
		windows.StringToUTF16Ptr(volumePath),
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return 0, fmt.Errorf("cannot open volume %s (may need admin privileges): %w", volumePath, err)
	}

	if err := volumeControl(volHandle, FSCTL_LOCK_VOLUME); err != nil {
		windows.CloseHandle(volHandle)
		if errors.Is(err, windows.ERROR_NOT_SUPPORTED) {
			return 0, nil
		}
		return 0, fmt.Errorf("cannot lock volume %s (volume may be in use - close all programs accessing it): %w", volumePath, err)
	}

	if err := volumeControl(volHandle, FSCTL_DISMOUNT_VOLUME); err != nil {
		unlockVolume(volHandle)
		if !errors.Is(err, windows.ERROR_NOT_SUPPORTED) && !errors.Is(err, windows.ERROR_NOT_LOCKED) {
			return 0, fmt.Errorf("cannot dismount volume %s: %w", volumePath, err)
		}
		return 0, nil
	}
	return volHandle, nil
}

func unlockVolume(h windows.Handle) {
	if h == 0 {
		return
	}
	_ = volumeControl(h, FSCTL_UNLOCK_VOLUME)
	windows.CloseHandle(h)
}
