package throughput

import (
	"strings"
	"time"

	"smsgate/pkg/smsgate"
)

// Layouts are the accepted textual forms of a window bound, tried in order.
var Layouts = []string{
	time.DateOnly,
	time.DateTime,
}

// ParseBound parses s with the first matching layout in loc.
func ParseBound(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range Layouts {
		if at, err := time.ParseInLocation(layout, s, loc); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}

// window is an inclusive [from, to] range. The zero value is unrestricted.
type window struct {
	from, to   time.Time
	restricted bool
}

// resolveWindow restricts only when both bounds parse; otherwise the query
// falls back to every timestamp.
func resolveWindow(from, to string, loc *time.Location) window {
	f, okFrom := ParseBound(from, loc)
	t, okTo := ParseBound(to, loc)
	if !okFrom || !okTo {
		return window{}
	}
	return window{from: f, to: t, restricted: true}
}

func (w window) inverted() bool {
	return w.restricted && w.from.After(w.to)
}

func (w window) contains(at time.Time) bool {
	if !w.restricted {
		return true
	}
	return !at.Before(w.from) && !at.After(w.to)
}

func (w window) kind() smsgate.Window {
	if w.restricted {
		return smsgate.WindowRange
	}
	return smsgate.WindowUnrestricted
}
