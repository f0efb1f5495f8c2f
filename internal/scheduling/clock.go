package scheduling

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Clock is a time of day expressed in minutes after midnight.
type Clock int

// EndOfDay is the exclusive end of the day, written "24:00".
const EndOfDay Clock = 24 * 60

// ParseClock parses an "HH:MM" time of day.
func ParseClock(value string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", value)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// ParseEndClock parses the end of a window. It accepts everything ParseClock does
// plus "24:00", so a window may run up to midnight.
func ParseEndClock(value string) (Clock, error) {
	if strings.TrimSpace(value) == "24:00" {
		return EndOfDay, nil
	}
	return ParseClock(value)
}

// String formats the clock as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ParseDate validates a calendar date and returns it in canonical YYYY-MM-DD form.
func ParseDate(value string) (string, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid date %q", value)
	}
	return t.Format(dateLayout), nil
}

// Window is a half-open [Start, End) interval within a single day.
type Window struct {
	Start Clock
	End   Clock
}

// ParseWindow parses a start and end time of day into a window.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseEndClock(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

// Empty reports whether the window covers no time. Inverted windows count as empty.
func (w Window) Empty() bool {
	return w.End <= w.Start
}

// Overlaps reports whether two windows share any instant. End times are exclusive.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End && other.Start < w.End
}

// String formats the window as "HH:MM-HH:MM".
func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}
