package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// DriveStatus represents the result of a CDROM_DRIVE_STATUS ioctl call.
type DriveStatus int

const (
	DriveStatusNoInfo   DriveStatus = 0
	DriveStatusNoDisc   DriveStatus = 1
	DriveStatusTrayOpen DriveStatus = 2
	DriveStatusNotReady DriveStatus = 3
	DriveStatusDiscOK   DriveStatus = 4
)

// ErrPollUnsupported is returned where the drive status ioctl does not exist.
var ErrPollUnsupported = errors.New("drive status polling not supported on this platform")

// String returns a short label for the drive status.
func (s DriveStatus) String() string {
	switch s {
	case DriveStatusNoInfo:
		return "no_info"
	case DriveStatusNoDisc:
		return "no_disc"
	case DriveStatusTrayOpen:
		return "tray_open"
	case DriveStatusNotReady:
		return "not_ready"
	case DriveStatusDiscOK:
		return "disc_ok"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Describe returns the operator-facing reason a drive cannot be used.
func (s DriveStatus) Describe() string {
	switch s {
	case DriveStatusNoDisc:
		return "no disc"
	case DriveStatusTrayOpen:
		return "tray open"
	case DriveStatusNotReady:
		return "drive not ready"
	case DriveStatusDiscOK:
		return "disc ok"
	default:
		return "unable to poll"
	}
}

// NotReadyError reports a drive that answered but has no usable disc.
type NotReadyError struct {
	Device string
	Status DriveStatus
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("drive status: %s (%s)", e.Status.Describe(), e.Device)
}

// checkDriveStatus is swapped out in tests.
var checkDriveStatus = CheckDriveStatus

// EnsureReady performs a single status check and fails unless the drive
// reports a readable disc. Where the status cannot be polled at all the
// check is skipped.
func EnsureReady(devicePath string) error {
	status, err := checkDriveStatus(strings.TrimSpace(devicePath))
	if errors.Is(err, ErrPollUnsupported) {
		slog.Debug("drive readiness check skipped", "device", devicePath, "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	if status != DriveStatusDiscOK {
		return &NotReadyError{Device: devicePath, Status: status}
	}
	return nil
}

// WaitForReady polls the drive up to attempts times at interval until it
// reports DriveStatusDiscOK or the context is cancelled. Errors opening the
// device or issuing the ioctl stop polling immediately.
func WaitForReady(
	ctx context.Context,
	devicePath string,
	attempts uint,
	interval time.Duration,
) (DriveStatus, error) {
	var last DriveStatus
	err := retry.Do(
		func() error {
			status, err := checkDriveStatus(devicePath)
			if errors.Is(err, ErrPollUnsupported) {
				slog.Debug("drive readiness check skipped", "device", devicePath, "error", err)
				return nil
			}
			if err != nil {
				return retry.Unrecoverable(err)
			}
			last = status
			if status != DriveStatusDiscOK {
				return &NotReadyError{Device: devicePath, Status: status}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	return last, err
}
