package generic

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive [Start, End] date range. Allocation events, invoice
// windows, and invoice segments are all periods.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Valid reports whether the period is well-formed (End not before Start).
func (p Period) Valid() bool { return !p.End.Before(p.Start) }

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps returns true if the two periods share at least one day. An
// inverted period (End before Start) is empty and overlaps nothing:
// supersession can truncate an assignment past its own start date, and that
// record must never block a seat again.
func (p Period) Overlaps(other Period) bool {
	if !p.Valid() || !other.Valid() {
		return false
	}
	return !p.End.Before(other.Start) && !other.End.Before(p.Start)
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	if !p.Valid() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// BillingLabel derives the "YYYY-MM" billing period label from the period
// start. Multi-month windows collapse to the start month's label.
func (p Period) BillingLabel() string {
	return p.Start.Time.Format("2006-01")
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// WORKING DAYS
// =============================================================================

// WorkingDays counts the dates in the period that fall on a weekday and are
// not suppressed by the holiday calendar. A holiday landing on a weekend is
// not double-counted. A nil calendar means no holidays.
func WorkingDays(p Period, cal HolidayCalendar) int {
	if !p.Valid() {
		return 0
	}
	count := 0
	for d := p.Start; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		if d.IsWeekend() {
			continue
		}
		if cal != nil && cal.IsHoliday(d) {
			continue
		}
		count++
	}
	return count
}
