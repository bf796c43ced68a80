package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	DefaultSlotLength = 30 * time.Minute
)

var (
	ErrInvalidInput = errors.New("invalid date or time format")
	ErrInvalidRange = errors.New("end time must be later than start time")
)

type TimeSpan struct {
	Start time.Time
	End   time.Time
}

func (s TimeSpan) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

func (s TimeSpan) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// ParseDay resolves a calendar date and two times of day into an absolute
// window in loc.
func ParseDay(date, startClock, endClock string, loc *time.Location) (TimeSpan, error) {
	if loc == nil {
		loc = time.UTC
	}

	start, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+startClock, loc)
	if err != nil {
		return TimeSpan{}, fmt.Errorf("%w: %q %q", ErrInvalidInput, date, startClock)
	}
	end, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+endClock, loc)
	if err != nil {
		return TimeSpan{}, fmt.Errorf("%w: %q %q", ErrInvalidInput, date, endClock)
	}
	if !start.Before(end) {
		return TimeSpan{}, ErrInvalidRange
	}
	return TimeSpan{Start: start, End: end}, nil
}

// DayWindow returns [00:00, next day 00:00) of date in loc.
func DayWindow(date string, loc *time.Location) (TimeSpan, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return TimeSpan{}, fmt.Errorf("%w: %q", ErrInvalidInput, date)
	}
	return TimeSpan{Start: day, End: day.AddDate(0, 0, 1)}, nil
}

// GenerateSlotSpans cuts window into consecutive spans of length. A trailing
// remainder shorter than length is dropped.
func GenerateSlotSpans(window TimeSpan, length time.Duration) ([]TimeSpan, error) {
	if length <= 0 {
		return nil, errors.New("invalid slot length")
	}
	if !window.Start.Before(window.End) {
		return nil, ErrInvalidRange
	}

	out := make([]TimeSpan, 0, int(window.Duration()/length))
	for cur := window.Start; !cur.Add(length).After(window.End); cur = cur.Add(length) {
		out = append(out, TimeSpan{Start: cur, End: cur.Add(length)})
	}
	return out, nil
}

func UpcomingDates(now time.Time, days int, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	if days <= 0 {
		return nil
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	out := make([]string, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, today.AddDate(0, 0, i).Format(DateLayout))
	}
	return out
}
