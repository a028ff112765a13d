package history

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	markupTag    = regexp.MustCompile(`<[^>]*>`)
	numericZone  = regexp.MustCompile(`^(?:GMT|UTC)([+-])(\d{1,2})(?::?(\d{2}))?$`)
	alphabetical = regexp.MustCompile(`^[A-Za-z]+$`)
)

// dateLayouts are the forms Takeout prints, tried in order against the
// zone-less part of the date text before falling back to dateparse.
var dateLayouts = []string{
	"Jan 2 2006 3:04:05 PM",
	"Jan 2 2006 15:04:05",
	"January 2 2006 3:04:05 PM",
	"January 2 2006 15:04:05",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 3:04:05 PM",
	"2 January 2006 15:04:05",
	"2006-01-02 15:04:05",
	"Jan 2 2006 3:04 PM",
	"2 Jan 2006 15:04",
}

// zoneOffsets maps the abbreviations Takeout prints to UTC offsets in hours.
var zoneOffsets = map[string]float64{
	"UTC": 0, "GMT": 0, "Z": 0,
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
	"AKST": -9, "AKDT": -8,
	"HST": -10,
	"AST": -4, "ADT": -3,
	"NST": -3.5, "NDT": -2.5,
	"WET": 0, "WEST": 1,
	"BST": 1, "IST": 5.5,
	"CET": 1, "CEST": 2,
	"EET": 2, "EEST": 3,
	"MSK": 3,
	"JST": 9, "KST": 9,
	"AWST": 8,
	"ACST": 9.5, "ACDT": 10.5,
	"AEST": 10, "AEDT": 11,
	"NZST": 12, "NZDT": 13,
}

// normalizeDate turns the raw date segment of a block into plain,
// single-spaced text: tags stripped, entities decoded, no-break spaces and
// commas replaced by spaces.
func normalizeDate(raw string) string {
	s := markupTag.ReplaceAllString(raw, "")
	s = html.UnescapeString(s)
	s = strings.NewReplacer("\u202f", " ", "\u00a0", " ", ",", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// resolveTimestamp resolves normalized date text to an instant. A trailing
// zone abbreviation or GMT offset is honored; anything else is read in loc.
func resolveTimestamp(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	zone := loc
	if last := fields[len(fields)-1]; len(fields) > 1 {
		if z, ok := lookupZone(last); ok {
			zone = z
			fields = fields[:len(fields)-1]
		} else if alphabetical.MatchString(last) && !isMeridiem(last) {
			// Unknown abbreviation: keep the wall clock, use loc.
			fields = fields[:len(fields)-1]
		}
	}

	for i, f := range fields {
		switch {
		case strings.EqualFold(f, "Sept"):
			fields[i] = "Sep"
		case isMeridiem(f):
			fields[i] = strings.ToUpper(f)
		}
	}
	body := strings.Join(fields, " ")

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, body, zone); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(body, zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
	}
	return t, nil
}

func isMeridiem(s string) bool {
	return strings.EqualFold(s, "AM") || strings.EqualFold(s, "PM")
}

// lookupZone resolves a zone token such as "EST" or "GMT+05:30".
func lookupZone(tok string) (*time.Location, bool) {
	upper := strings.ToUpper(tok)
	if hours, ok := zoneOffsets[upper]; ok {
		return time.FixedZone(upper, int(hours*3600)), true
	}

	m := numericZone.FindStringSubmatch(upper)
	if m == nil {
		return nil, false
	}
	h, _ := strconv.Atoi(m[2])
	mins := 0
	if m[3] != "" {
		mins, _ = strconv.Atoi(m[3])
	}
	offset := h*3600 + mins*60
	if m[1] == "-" {
		offset = -offset
	}
	return time.FixedZone(upper, offset), true
}
