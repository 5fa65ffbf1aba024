package ui

import "github.com/bamsammich/dvdbackup/internal/event"

// Event is the engine progress event consumed by presenters.
type Event = event.Event

// Re-export event types for convenience.
const (
	PassStarted       = event.PassStarted
	TitleSetStarted   = event.TitleSetStarted
	FileStarted       = event.FileStarted
	FileProgress      = event.FileProgress
	FileCompleted     = event.FileCompleted
	FileSkipped       = event.FileSkipped
	SourceUnavailable = event.SourceUnavailable
	DirCreated        = event.DirCreated
	PlanEntry         = event.PlanEntry
	VerifyStarted     = event.VerifyStarted
	VerifyOK          = event.VerifyOK
	VerifyFailed      = event.VerifyFailed
)
