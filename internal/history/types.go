package history

import (
	"errors"
	"fmt"
	"time"
)

// WatchEvent is a single "Watched" entry recovered from a watch-history export.
type WatchEvent struct {
	VideoTitle  string    `json:"video_title"`
	VideoURL    string    `json:"video_url"`
	ChannelName string    `json:"channel_name"`
	ChannelURL  string    `json:"channel_url"`
	Timestamp   time.Time `json:"timestamp"`
}

// Reason names why a candidate block was dropped.
type Reason string

const (
	ReasonNotWatched  Reason = "not_watched"
	ReasonTooFewLinks Reason = "too_few_links"
	ReasonNotChannel  Reason = "not_channel_link"
	ReasonMarkup      Reason = "unreadable_markup"
	ReasonNoDate      Reason = "missing_date"
	ReasonBadDate     Reason = "unresolvable_date"
	ReasonEmptyField  Reason = "empty_title_or_channel"
)

// Stats summarizes one parse pass.
type Stats struct {
	Candidates int
	Parsed     int
	Skipped    map[Reason]int
}

// SkippedTotal returns the number of candidate blocks that were dropped.
func (s Stats) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// Layout describes where the fields of a record live in the export markup.
// Takeout has changed this layout before; every positional assumption the
// parser makes is read from here.
type Layout struct {
	CellSelector     string
	ActionPrefix     string
	ChannelNamespace string
	VideoLink        int
	ChannelLink      int
	DateSegment      int
}

// DefaultLayout returns the layout of the current watch-history.html export.
func DefaultLayout() Layout {
	return Layout{
		CellSelector:     ".content-cell.mdl-cell--6-col.mdl-typography--body-1",
		ActionPrefix:     "Watched",
		ChannelNamespace: "youtube.com/channel",
		VideoLink:        0,
		ChannelLink:      1,
		DateSegment:      2,
	}
}

// ErrInvalidLayout is returned when a Layout cannot address a record.
var ErrInvalidLayout = errors.New("invalid history layout")

// Validate reports offsets that would index outside a record or make the
// video and channel the same anchor.
func (l Layout) Validate() error {
	switch {
	case l.CellSelector == "":
		return fmt.Errorf("%w: cell selector is empty", ErrInvalidLayout)
	case l.VideoLink < 0:
		return fmt.Errorf("%w: video_link %d is negative", ErrInvalidLayout, l.VideoLink)
	case l.ChannelLink < 0:
		return fmt.Errorf("%w: channel_link %d is negative", ErrInvalidLayout, l.ChannelLink)
	case l.DateSegment < 0:
		return fmt.Errorf("%w: date_segment %d is negative", ErrInvalidLayout, l.DateSegment)
	case l.VideoLink == l.ChannelLink:
		return fmt.Errorf("%w: video_link and channel_link are both %d", ErrInvalidLayout, l.VideoLink)
	}
	return nil
}

// minLinks is the number of anchors a block needs so both link offsets exist.
func (l Layout) minLinks() int {
	n := l.VideoLink
	if l.ChannelLink > n {
		n = l.ChannelLink
	}
	return n + 1
}
