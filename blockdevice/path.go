package blockdevice

import (
	"strings"
)

// IsRawDevicePath returns true for Windows device namespace paths that
// name a disk or volume as a whole, such as \\.\PhysicalDrive1 or
// \\.\E:. Files reached through the device namespace (\\.\C:\disk.img)
// are not raw devices.
func IsRawDevicePath(p string) bool {
	name, ok := strings.CutPrefix(p, `\\.\`)
	return ok && name != "" && !strings.ContainsAny(name, `\/`)
}
