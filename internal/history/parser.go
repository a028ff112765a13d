package history

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// lineBreak matches <br>, <br/> and <br /> as rendered by different exporters
// and by x/net/html.
var lineBreak = regexp.MustCompile(`(?i)<br\s*/?>`)

// Parser recovers WatchEvents from watch-history markup.
type Parser struct {
	layout Layout
	loc    *time.Location
	logger zerolog.Logger
}

// NewParser creates a Parser. Dates in the export that carry no usable zone
// are interpreted in loc; a nil loc means UTC.
func NewParser(layout Layout, loc *time.Location, logger zerolog.Logger) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{layout: layout, loc: loc, logger: logger}
}

// Parse returns the watch events found in markup in document order.
func (p *Parser) Parse(markup string) ([]WatchEvent, error) {
	events, _, err := p.ParseWithStats(markup)
	return events, err
}

// ParseWithStats is Parse plus per-reason counts of dropped blocks. Individual
// blocks never fail the parse; an error means the layout is invalid or the
// markup could not be read.
func (p *Parser) ParseWithStats(markup string) ([]WatchEvent, Stats, error) {
	stats := Stats{Skipped: map[Reason]int{}}

	if err := p.layout.Validate(); err != nil {
		return nil, stats, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, stats, fmt.Errorf("parse history markup: %w", err)
	}

	events := []WatchEvent{}
	doc.Find(p.layout.CellSelector).Each(func(i int, cell *goquery.Selection) {
		stats.Candidates++

		ev, reason, ok := p.extract(cell)
		if !ok {
			stats.Skipped[reason]++
			if reason != ReasonNotWatched {
				p.logger.Debug().
					Int("block", i).
					Str("reason", string(reason)).
					Msg("skipping history entry")
			}
			return
		}
		events = append(events, ev)
	})
	stats.Parsed = len(events)

	return events, stats, nil
}

// extract turns a single candidate block into an event. When ok is false,
// reason says which check rejected it.
func (p *Parser) extract(cell *goquery.Selection) (WatchEvent, Reason, bool) {
	if !strings.HasPrefix(strings.TrimSpace(cell.Text()), p.layout.ActionPrefix) {
		return WatchEvent{}, ReasonNotWatched, false
	}

	// Only anchors inside this cell; the surrounding card has others.
	links := cell.Find("a")
	if links.Length() < p.layout.minLinks() {
		return WatchEvent{}, ReasonTooFewLinks, false
	}

	video := links.Eq(p.layout.VideoLink)
	channel := links.Eq(p.layout.ChannelLink)

	channelURL, _ := channel.Attr("href")
	if !strings.Contains(channelURL, p.layout.ChannelNamespace) {
		return WatchEvent{}, ReasonNotChannel, false
	}

	videoURL, _ := video.Attr("href")
	ev := WatchEvent{
		VideoTitle:  strings.TrimSpace(video.Text()),
		VideoURL:    videoURL,
		ChannelName: strings.TrimSpace(channel.Text()),
		ChannelURL:  channelURL,
	}

	inner, err := cell.Html()
	if err != nil {
		return WatchEvent{}, ReasonMarkup, false
	}
	segments := lineBreak.Split(inner, -1)
	if len(segments) <= p.layout.DateSegment {
		return WatchEvent{}, ReasonNoDate, false
	}

	ts, err := resolveTimestamp(normalizeDate(segments[p.layout.DateSegment]), p.loc)
	if err != nil {
		return WatchEvent{}, ReasonBadDate, false
	}
	ev.Timestamp = ts

	if ev.VideoTitle == "" || ev.ChannelName == "" {
		return WatchEvent{}, ReasonEmptyField, false
	}

	return ev, "", true
}
