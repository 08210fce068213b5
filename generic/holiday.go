/*
holiday.go - Company holiday calendar

PURPOSE:
  Working-day counts drive invoice values, so the billing engine needs to
  know which weekdays are company holidays. Only holidays flagged active
  suppress a working day; inactive entries are kept for history but ignored.

SEE ALSO:
  - period.go: WorkingDays consults HolidayCalendar
  - store/sqlite: durable holiday records
*/
package generic

// Holiday is a single calendar entry. Inactive holidays are retained but do
// not affect working-day counts.
type Holiday struct {
	ID       string
	Date     TimePoint
	Name     string
	IsActive bool
}

// HolidayCalendar answers "is this date a holiday?" for working-day math.
type HolidayCalendar interface {
	IsHoliday(date TimePoint) bool
}

// SetCalendar is a HolidayCalendar backed by an in-memory set. Only active
// holidays are indexed.
type SetCalendar struct {
	dates map[string]bool
}

func NewSetCalendar(holidays []Holiday) *SetCalendar {
	c := &SetCalendar{dates: make(map[string]bool, len(holidays))}
	for _, h := range holidays {
		if h.IsActive {
			c.dates[h.Date.String()] = true
		}
	}
	return c
}

func (c *SetCalendar) IsHoliday(date TimePoint) bool {
	return c.dates[date.String()]
}

// NoHolidays is the empty calendar, used when holidays are disabled.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(TimePoint) bool { return false }
