//go:build !linux

package platform

// CheckDriveStatus is only implemented on Linux.
func CheckDriveStatus(_ string) (DriveStatus, error) {
	return DriveStatusNoInfo, ErrPollUnsupported
}
