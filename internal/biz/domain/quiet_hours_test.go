package domain

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.March, 10, hour, minute, 30, 0, time.UTC)
}

func TestQuietHours_IsSuppressed_SameDay(t *testing.T) {
	q := QuietHours{Start: 0, End: 7}

	for h := 0; h < 24; h++ {
		want := h < 7
		if got := q.IsSuppressed(at(h, 0)); got != want {
			t.Errorf("IsSuppressed(%02d:00) = %v, want %v", h, got, want)
		}
	}
}

func TestQuietHours_IsSuppressed_Wrapping(t *testing.T) {
	q := QuietHours{Start: 22, End: 6}

	for h := 0; h < 24; h++ {
		want := h >= 22 || h < 6
		if got := q.IsSuppressed(at(h, 0)); got != want {
			t.Errorf("IsSuppressed(%02d:00) = %v, want %v", h, got, want)
		}
	}
}

func TestQuietHours_IsSuppressed_AllWindows(t *testing.T) {
	for s := 0; s < 24; s++ {
		for e := 0; e < 24; e++ {
			q := QuietHours{Start: s, End: e}
			for h := 0; h < 24; h++ {
				var want bool
				if s <= e {
					want = s <= h && h < e
				} else {
					want = h >= s || h < e
				}
				if got := q.IsSuppressed(at(h, 15)); got != want {
					t.Fatalf("QuietHours{%d,%d}.IsSuppressed(%02d:15) = %v, want %v", s, e, h, got, want)
				}
			}
		}
	}
}

func TestQuietHours_Disabled(t *testing.T) {
	q := QuietHours{Start: 0, End: 0}
	for h := 0; h < 24; h++ {
		if q.IsSuppressed(at(h, 0)) {
			t.Fatalf("Expected empty window to never suppress, suppressed at %02d:00", h)
		}
	}
}

func TestQuietHours_NextAllowed_NotSuppressedIsIdentity(t *testing.T) {
	q := QuietHours{Start: 0, End: 7}
	now := at(12, 34)

	if got := q.NextAllowed(now); !got.Equal(now) {
		t.Errorf("NextAllowed(%v) = %v, want unchanged", now, got)
	}
	if d := q.Until(now); d != 0 {
		t.Errorf("Until(%v) = %v, want 0", now, d)
	}
}

func TestQuietHours_NextAllowed_SameDay(t *testing.T) {
	q := QuietHours{Start: 0, End: 7}
	now := at(3, 20)

	want := time.Date(2024, time.March, 10, 7, 0, 0, 0, time.UTC)
	if got := q.NextAllowed(now); !got.Equal(want) {
		t.Errorf("NextAllowed(%v) = %v, want %v", now, got, want)
	}
}

func TestQuietHours_NextAllowed_WrappingBeforeMidnight(t *testing.T) {
	q := QuietHours{Start: 22, End: 6}
	now := at(23, 10)

	want := time.Date(2024, time.March, 11, 6, 0, 0, 0, time.UTC)
	if got := q.NextAllowed(now); !got.Equal(want) {
		t.Errorf("NextAllowed(%v) = %v, want %v", now, got, want)
	}
}

func TestQuietHours_NextAllowed_WrappingAfterMidnight(t *testing.T) {
	q := QuietHours{Start: 22, End: 6}
	now := at(2, 45)

	want := time.Date(2024, time.March, 10, 6, 0, 0, 0, time.UTC)
	if got := q.NextAllowed(now); !got.Equal(want) {
		t.Errorf("NextAllowed(%v) = %v, want %v", now, got, want)
	}
}

func TestQuietHours_NextAllowed_IsAllowed(t *testing.T) {
	windows := []QuietHours{{0, 7}, {22, 6}, {23, 0}, {5, 6}}
	for _, q := range windows {
		for h := 0; h < 24; h++ {
			next := q.NextAllowed(at(h, 59))
			if q.IsSuppressed(next) {
				t.Errorf("%v: NextAllowed(%02d:59) = %v is still suppressed", q, h, next)
			}
			if next.Before(at(h, 59)) {
				t.Errorf("%v: NextAllowed(%02d:59) = %v is in the past", q, h, next)
			}
		}
	}
}

func TestQuietHours_String(t *testing.T) {
	if got := (QuietHours{Start: 0, End: 7}).String(); got != "00:00 - 07:00" {
		t.Errorf("String() = %q", got)
	}
}
