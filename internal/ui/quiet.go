package ui

import "github.com/bamsammich/dvdbackup/internal/stats"

// quietPresenter consumes events but produces no output.
type quietPresenter struct {
	stats *stats.Collector
}

func (*quietPresenter) Run(events <-chan Event) error {
	for range events { //nolint:revive // drain until the engine closes the channel
	}
	return nil
}

func (*quietPresenter) Summary() string {
	return ""
}
