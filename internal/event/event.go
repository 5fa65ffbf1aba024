package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	PassStarted Type = iota + 1
	TitleSetStarted
	FileStarted
	FileProgress
	FileCompleted
	FileSkipped
	SourceUnavailable
	DirCreated
	PlanEntry
	VerifyStarted
	VerifyOK
	VerifyFailed
)

var typeNames = [...]string{
	PassStarted:       "PassStarted",
	TitleSetStarted:   "TitleSetStarted",
	FileStarted:       "FileStarted",
	FileProgress:      "FileProgress",
	FileCompleted:     "FileCompleted",
	FileSkipped:       "FileSkipped",
	SourceUnavailable: "SourceUnavailable",
	DirCreated:        "DirCreated",
	PlanEntry:         "PlanEntry",
	VerifyStarted:     "VerifyStarted",
	VerifyOK:          "VerifyOK",
	VerifyFailed:      "VerifyFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Pass is one of the three fixed backup passes.
type Pass int

const (
	PassMetadata Pass = iota + 1 // IFO and BUP files
	PassMenu                     // menu VOBs
	PassTitle                    // title VOBs
)

func (p Pass) String() string {
	switch p {
	case PassMetadata:
		return "metadata"
	case PassMenu:
		return "menu"
	case PassTitle:
		return "title"
	default:
		return "none"
	}
}

// Event represents a single progress event from the engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Pass      Pass
	VTS       int
	Path      string // file name inside VIDEO_TS, or a directory for DirCreated

	Blocks      int64 // blocks written so far
	Total       int64 // blocks in the file, or in the title set for TitleSetStarted
	Substituted int64 // blocks zero-filled after read errors
	Size        int64 // bytes
	Expected    int64 // source bytes, for FileSkipped

	// VOBSizes lists title segment sizes for TitleSetStarted.
	VOBSizes []int64
	// Incomplete marks a skipped file the journal never saw finish.
	Incomplete bool

	Error error
}
