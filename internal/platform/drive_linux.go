//go:build linux

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ioctlCDROMDriveStatus is the Linux ioctl number for CDROM_DRIVE_STATUS.
const ioctlCDROMDriveStatus = 0x5326

// CheckDriveStatus queries the drive state using the CDROM_DRIVE_STATUS ioctl.
func CheckDriveStatus(devicePath string) (DriveStatus, error) {
	if devicePath == "" {
		return DriveStatusNoInfo, fmt.Errorf("empty device path")
	}

	fd, err := unix.Open(devicePath, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return DriveStatusNoInfo, fmt.Errorf("open %s: %w", devicePath, err)
	}
	defer unix.Close(fd) //nolint:errcheck // read-only descriptor

	r, err := unix.IoctlRetInt(fd, ioctlCDROMDriveStatus)
	if err != nil {
		return DriveStatusNoInfo, fmt.Errorf("ioctl CDROM_DRIVE_STATUS on %s: %w", devicePath, err)
	}
	return DriveStatus(r), nil
}
