// Package timestamp encodes and parses the day-count stamps used in timeline files
//
// A stamp has the layout DD:HH:MM or DD:HH:MM:SS. Every field is at least two
// digits; days count from a subject-specific epoch and are unbounded.
package timestamp

import (
	"fmt"
	"strconv"
	"strings"

	perr "chartline/internal/platform/errors"
)

// Stamp is a parsed timestamp; Seconds is -1 when the stamp carries none
type Stamp struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// Format renders days, hours and minutes as DD:HH:MM
func Format(days, hours, minutes int) string {
	return fmt.Sprintf("%02d:%02d:%02d", days, hours, minutes)
}

// FormatSeconds renders DD:HH:MM:SS, or DD:HH:MM when seconds is negative
func FormatSeconds(days, hours, minutes, seconds int) string {
	if seconds < 0 {
		return Format(days, hours, minutes)
	}
	return fmt.Sprintf("%02d:%02d:%02d:%02d", days, hours, minutes, seconds)
}

// Parse reads a DD:HH:MM or DD:HH:MM:SS stamp
func Parse(s string) (Stamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Stamp{}, perr.Malformedf("timestamp: empty")
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return Stamp{}, perr.Malformedf("timestamp: %q needs 3 or 4 fields", s)
	}

	vals := [4]int{0, 0, 0, -1}
	for i, p := range parts {
		if len(p) < 2 {
			return Stamp{}, perr.Malformedf("timestamp: %q field %d shorter than 2 digits", s, i)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || p[0] == '+' || p[0] == '-' {
			return Stamp{}, perr.Malformedf("timestamp: %q field %d is not a number", s, i)
		}
		vals[i] = n
	}
	return Stamp{Days: vals[0], Hours: vals[1], Minutes: vals[2], Seconds: vals[3]}, nil
}

// At builds a stamp without seconds
func At(days, hours, minutes int) Stamp {
	return Stamp{Days: days, Hours: hours, Minutes: minutes, Seconds: -1}
}

// String renders the stamp in its file layout
func (t Stamp) String() string {
	return FormatSeconds(t.Days, t.Hours, t.Minutes, t.Seconds)
}

// HasSeconds reports whether the stamp carried a seconds field
func (t Stamp) HasSeconds() bool { return t.Seconds >= 0 }

// ToSeconds flattens the stamp to seconds since the subject epoch
func (t Stamp) ToSeconds() int64 {
	sec := int64(t.Days)*86400 + int64(t.Hours)*3600 + int64(t.Minutes)*60
	if t.Seconds > 0 {
		sec += int64(t.Seconds)
	}
	return sec
}

// AbsHours is days*24 + hours, the granularity used for sample spacing
func (t Stamp) AbsHours() int { return t.Days*24 + t.Hours }
