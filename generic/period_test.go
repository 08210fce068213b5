package generic_test

import (
	"testing"
	"time"

	"github.com/gamalielACN/SMTDraft/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) generic.TimePoint {
	return generic.MustParseDate(s)
}

func period(start, end string) generic.Period {
	return generic.Period{Start: date(start), End: date(end)}
}

// =============================================================================
// PERIOD TESTS
// =============================================================================

func TestPeriod_Overlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b generic.Period
		want bool
	}{
		{"disjoint", period("2025-01-01", "2025-01-10"), period("2025-01-11", "2025-01-20"), false},
		{"adjacent sharing a day", period("2025-01-01", "2025-01-10"), period("2025-01-10", "2025-01-20"), true},
		{"contained", period("2025-01-01", "2025-01-31"), period("2025-01-10", "2025-01-20"), true},
		{"identical", period("2025-01-01", "2025-01-31"), period("2025-01-01", "2025-01-31"), true},
		{"inverted never overlaps", period("2025-01-10", "2025-01-01"), period("2025-01-01", "2025-01-31"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v (symmetry)", tc.b, tc.a, got, tc.want)
			}
		})
	}
}

func TestPeriod_Days(t *testing.T) {
	if got := period("2025-01-01", "2025-01-31").Days(); got != 31 {
		t.Errorf("January should have 31 days, got %d", got)
	}
	if got := period("2025-01-15", "2025-01-15").Days(); got != 1 {
		t.Errorf("single-day period should have 1 day, got %d", got)
	}
	if got := period("2025-01-10", "2025-01-01").Days(); got != 0 {
		t.Errorf("inverted period should have 0 days, got %d", got)
	}
}

func TestPeriod_BillingLabel(t *testing.T) {
	if got := period("2025-01-01", "2025-01-31").BillingLabel(); got != "2025-01" {
		t.Errorf("label = %q, want 2025-01", got)
	}
	// A window crossing a month boundary is labeled by its start month.
	if got := period("2025-01-15", "2025-02-14").BillingLabel(); got != "2025-01" {
		t.Errorf("label = %q, want 2025-01", got)
	}
}

// =============================================================================
// WORKING DAY TESTS
// =============================================================================

func TestWorkingDays_FullMonth(t *testing.T) {
	// January 2025 has 23 weekdays and no calendar.
	if got := generic.WorkingDays(period("2025-01-01", "2025-01-31"), nil); got != 23 {
		t.Errorf("January 2025 weekdays = %d, want 23", got)
	}
}

func TestWorkingDays_HolidaySuppressesWeekday(t *testing.T) {
	cal := generic.NewSetCalendar([]generic.Holiday{
		{ID: "1", Date: date("2025-01-01"), Name: "New Year", IsActive: true}, // Wednesday
	})
	if got := generic.WorkingDays(period("2025-01-01", "2025-01-31"), cal); got != 22 {
		t.Errorf("January 2025 minus New Year = %d, want 22", got)
	}
}

func TestWorkingDays_WeekendHolidayNotDoubleCounted(t *testing.T) {
	cal := generic.NewSetCalendar([]generic.Holiday{
		{ID: "1", Date: date("2025-01-04"), Name: "Saturday holiday", IsActive: true},
	})
	if got := generic.WorkingDays(period("2025-01-01", "2025-01-31"), cal); got != 23 {
		t.Errorf("weekend holiday should not subtract, got %d, want 23", got)
	}
}

func TestWorkingDays_InactiveHolidayIgnored(t *testing.T) {
	cal := generic.NewSetCalendar([]generic.Holiday{
		{ID: "1", Date: date("2025-01-02"), Name: "retired holiday", IsActive: false},
	})
	if got := generic.WorkingDays(period("2025-01-01", "2025-01-31"), cal); got != 23 {
		t.Errorf("inactive holiday should not subtract, got %d, want 23", got)
	}
}

func TestWorkingDays_WeekendOnlySegment(t *testing.T) {
	// Sat 2025-01-04 .. Sun 2025-01-05
	if got := generic.WorkingDays(period("2025-01-04", "2025-01-05"), nil); got != 0 {
		t.Errorf("weekend-only segment = %d, want 0", got)
	}
}

// =============================================================================
// TIME POINT TESTS
// =============================================================================

func TestTimePoint_ParseNormalizesToUTCMidnight(t *testing.T) {
	tp, err := generic.ParseDate("2025-06-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if tp.Time.Hour() != 0 || tp.Time.Location() != time.UTC {
		t.Errorf("expected UTC midnight, got %v", tp.Time)
	}
	if !tp.Equal(generic.NewTimePoint(2025, time.June, 15)) {
		t.Errorf("parsed date should equal constructed date")
	}
}

func TestTimePoint_ParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "15-06-2025", "2025/06/15", "not a date"} {
		if _, err := generic.ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q) should fail", s)
		}
	}
}

func TestEndOfMonth(t *testing.T) {
	if got := generic.EndOfMonth(2025, time.February); !got.Equal(date("2025-02-28")) {
		t.Errorf("Feb 2025 end = %v, want 2025-02-28", got)
	}
	if got := generic.EndOfMonth(2024, time.February); !got.Equal(date("2024-02-29")) {
		t.Errorf("Feb 2024 end = %v, want 2024-02-29 (leap)", got)
	}
	if got := generic.EndOfMonth(2025, time.December); !got.Equal(date("2025-12-31")) {
		t.Errorf("Dec 2025 end = %v, want 2025-12-31", got)
	}
}
