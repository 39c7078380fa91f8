package util

import (
	"testing"
	"time"
)

func TestDayOfWeekMondayZero(t *testing.T) {
	mon := time.Date(2024, 10, 7, 15, 30, 0, 0, time.UTC) // a Monday
	if got := DayOfWeek(mon); got != 0 {
		t.Fatalf("monday dow = %d, want 0", got)
	}
	sun := mon.AddDate(0, 0, 6)
	if got := DayOfWeek(sun); got != 6 {
		t.Fatalf("sunday dow = %d, want 6", got)
	}
}

func TestIsWeekend(t *testing.T) {
	for dow := 0; dow < 5; dow++ {
		if IsWeekend(dow) {
			t.Fatalf("dow %d flagged as weekend", dow)
		}
	}
	if !IsWeekend(5) || !IsWeekend(6) {
		t.Fatalf("saturday/sunday not flagged as weekend")
	}
}

func TestDayTruncation(t *testing.T) {
	ts := time.Date(2024, 10, 7, 23, 59, 59, 0, time.UTC)
	got := Day(ts)
	want := time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Day(%v) = %v, want %v", ts, got, want)
	}
}

func TestHoursOpen(t *testing.T) {
	day := time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC)
	first := day.Add(11 * time.Hour)
	last := day.Add(21 * time.Hour)
	if got := HoursOpen(first, last); got != 10 {
		t.Fatalf("hours open = %v, want 10", got)
	}
	// unknown times default to 12
	if got := HoursOpen(time.Time{}, last); got != 12 {
		t.Fatalf("default hours = %v, want 12", got)
	}
	// a single sale clamps to the 1 hour floor
	if got := HoursOpen(first, first); got != 1 {
		t.Fatalf("clamped hours = %v, want 1", got)
	}
}
