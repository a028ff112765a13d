package storage

import (
	"time"

	"github.com/runnerr0/tubestats/internal/history"
	"github.com/runnerr0/tubestats/internal/tabular"
)

// Dataset is the full result of one parse pass, loaded as a unit.
type Dataset struct {
	Source        string
	Events        []history.WatchEvent
	Subscriptions []tabular.Record
}

// Event is a stored watch event. Position is its index in export order.
type Event struct {
	ID       int64
	Position int
	history.WatchEvent
}

// SearchQuery defines filters for searching events.
type SearchQuery struct {
	Query   string
	Channel string
	Since   time.Time
	Until   time.Time
	Limit   int
	Offset  int
}

// Stats holds aggregate statistics about the loaded dataset.
type Stats struct {
	Source             string
	LoadedAt           time.Time
	TotalEvents        int64
	TotalSubscriptions int64
	UniqueChannels     int64
	OldestEvent        time.Time
	NewestEvent        time.Time
	TopChannels        []ChannelCount
}

// ChannelCount pairs a channel with its event count.
type ChannelCount struct {
	Channel string
	Count   int64
}
