// Package platform wraps the OS-specific pieces of talking to an optical
// drive: device classification, drive readiness, and output preallocation.
package platform

import "strings"

// DefaultDevice is the drive opened when no path is given.
const DefaultDevice = "/dev/sr0"

// IsHardware reports whether path names a device node rather than an image
// file or a directory.
func IsHardware(path string) bool {
	return strings.HasPrefix(path, "/dev/")
}
