package provider

import (
	"strings"
	"time"
)

// Date layouts accepted in upstream period strings, in priority order.
var PeriodLayouts = []string{"2006-01-02", "2006.01.02", "20060102"}

// CompactDateLayouts is the priority order for the culture portal, whose
// dates are normally compact.
var CompactDateLayouts = []string{"20060102", "2006-01-02", "2006.01.02"}

// Seoul is the zone upstream calendar dates are expressed in.
var Seoul = loadSeoul()

func loadSeoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// ParseDate parses s as a calendar date, trying layouts in order. The result
// is midnight in Seoul. An unparseable or blank string yields ok=false.
func ParseDate(s string, layouts ...string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(layouts) == 0 {
		layouts = PeriodLayouts
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, Seoul); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Period is a parsed "start ~ end" range. Either end may be unknown.
type Period struct {
	Start *time.Time
	End   *time.Time
}

// Empty reports whether neither bound is known.
func (p Period) Empty() bool { return p.Start == nil && p.End == nil }

// ParsePeriod splits s on "~" (surrounding spaces optional). A single date
// is both start and end. Unparseable parts are nil, never an error.
func ParsePeriod(s string) Period {
	if strings.TrimSpace(s) == "" {
		return Period{}
	}
	parts := strings.Split(s, "~")
	if len(parts) >= 2 {
		return Period{Start: datePtr(parts[0]), End: datePtr(parts[1])}
	}
	d := datePtr(parts[0])
	return Period{Start: d, End: d}
}

// ExtractEndDate returns the end date of a period string, or nil.
func ExtractEndDate(s string) *time.Time {
	return ParsePeriod(s).End
}

func datePtr(s string) *time.Time {
	t, ok := ParseDate(s, PeriodLayouts...)
	if !ok {
		return nil
	}
	return &t
}
