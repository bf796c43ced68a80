package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		start   string
		end     string
		wantErr error
	}{
		{name: "valid", date: "2024-06-01", start: "09:00", end: "10:00"},
		{name: "bad date", date: "2024-13-01", start: "09:00", end: "10:00", wantErr: ErrInvalidInput},
		{name: "bad start", date: "2024-06-01", start: "9am", end: "10:00", wantErr: ErrInvalidInput},
		{name: "bad end", date: "2024-06-01", start: "09:00", end: "25:00", wantErr: ErrInvalidInput},
		{name: "equal", date: "2024-06-01", start: "09:00", end: "09:00", wantErr: ErrInvalidRange},
		{name: "reversed", date: "2024-06-01", start: "10:00", end: "09:00", wantErr: ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDay(tt.date, tt.start, tt.end, time.UTC)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("err = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDay_UsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}

	span, err := ParseDay("2024-06-01", "09:00", "10:00", loc)
	if err != nil {
		t.Fatalf("ParseDay error: %v", err)
	}
	want := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)
	if !span.Start.Equal(want) {
		t.Fatalf("start = %v, want %v", span.Start.UTC(), want)
	}
}

func TestGenerateSlotSpans_HourSplitsIntoTwo(t *testing.T) {
	window := TimeSpan{
		Start: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	spans, err := GenerateSlotSpans(window, DefaultSlotLength)
	if err != nil {
		t.Fatalf("GenerateSlotSpans error: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("len(spans) = %d, want 2", len(spans))
	}
	if !spans[0].Start.Equal(window.Start) || !spans[0].End.Equal(window.Start.Add(30*time.Minute)) {
		t.Fatalf("first span = %v-%v", spans[0].Start, spans[0].End)
	}
	if !spans[1].Start.Equal(spans[0].End) || !spans[1].End.Equal(window.End) {
		t.Fatalf("second span = %v-%v", spans[1].Start, spans[1].End)
	}
}

func TestGenerateSlotSpans_CountIsFloorOfWindow(t *testing.T) {
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	for minutes := 1; minutes <= 8*60; minutes += 7 {
		window := TimeSpan{Start: base, End: base.Add(time.Duration(minutes) * time.Minute)}
		spans, err := GenerateSlotSpans(window, DefaultSlotLength)
		if err != nil {
			t.Fatalf("GenerateSlotSpans(%d min) error: %v", minutes, err)
		}
		want := minutes / 30
		if len(spans) != want {
			t.Fatalf("GenerateSlotSpans(%d min) len = %d, want %d", minutes, len(spans), want)
		}
		for i := 1; i < len(spans); i++ {
			if !spans[i].Start.Equal(spans[i-1].End) {
				t.Fatalf("spans %d and %d are not consecutive", i-1, i)
			}
		}
		if len(spans) > 0 && spans[len(spans)-1].End.After(window.End) {
			t.Fatalf("last span ends after window")
		}
	}
}

func TestGenerateSlotSpans_RejectsBadInput(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	if _, err := GenerateSlotSpans(TimeSpan{Start: start, End: start.Add(time.Hour)}, 0); err == nil {
		t.Fatalf("expected error for zero length")
	}
	if _, err := GenerateSlotSpans(TimeSpan{Start: start, End: start}, DefaultSlotLength); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidRange)
	}
}

func TestDayWindow(t *testing.T) {
	w, err := DayWindow("2024-06-01", time.UTC)
	if err != nil {
		t.Fatalf("DayWindow error: %v", err)
	}
	if w.Duration() != 24*time.Hour {
		t.Fatalf("duration = %v, want 24h", w.Duration())
	}
	if !w.Contains(time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)) {
		t.Fatalf("expected window to contain late evening")
	}
	if w.Contains(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window end must be exclusive")
	}

	if _, err := DayWindow("06/01/2024", time.UTC); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidInput)
	}
}

func TestUpcomingDates(t *testing.T) {
	now := time.Date(2024, 2, 27, 23, 30, 0, 0, time.UTC)

	got := UpcomingDates(now, 4, time.UTC)
	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if out := UpcomingDates(now, 0, time.UTC); out != nil {
		t.Fatalf("expected nil for zero days")
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" Doctor "); !ok || r != RoleOffering {
		t.Fatalf("ParseRole(doctor) = %q, %v", r, ok)
	}
	if r, ok := ParseRole("patient"); !ok || r != RoleRequesting {
		t.Fatalf("ParseRole(patient) = %q, %v", r, ok)
	}
	if _, ok := ParseRole("admin"); ok {
		t.Fatalf("expected admin to be rejected")
	}
}

func TestAvailabilitySlotOpen(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := AvailabilitySlot{StartTime: now.Add(time.Minute), EndTime: now.Add(31 * time.Minute)}
	if !s.Open(now) {
		t.Fatalf("expected future unbooked slot to be open")
	}
	s.Booked = true
	if s.Open(now) {
		t.Fatalf("expected booked slot to be closed")
	}
	s.Booked = false
	s.StartTime = now
	if s.Open(now) {
		t.Fatalf("expected slot starting now to be closed")
	}
}
