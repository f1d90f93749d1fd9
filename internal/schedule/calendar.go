// Package schedule implements the booking scheduling engine: blocked-period
// lookup, conflict resolution, day-view column layout, and waiting-list
// availability. All functions are pure queries over the collections they
// are handed; nothing in this package mutates or owns application state.
package schedule

// Calendar holds the day-view settings shared by the layout engine and the
// drag controller.
type Calendar struct {
	StartHour          int // first visible hour, e.g. 8
	EndHour            int // last visible hour, e.g. 20
	SlotMinutes        int // drag snap granularity
	DefaultDurationMin int // duration proposed for a plain click
	ClickThresholdPx   float64
	PixelsPerMinute    float64
}

// DefaultCalendar mirrors the stock day view: 08:00-20:00, 30-minute
// slots, 60-minute default bookings, 1 pixel per minute.
func DefaultCalendar() Calendar {
	return Calendar{
		StartHour:          8,
		EndHour:            20,
		SlotMinutes:        30,
		DefaultDurationMin: 60,
		ClickThresholdPx:   10,
		PixelsPerMinute:    1,
	}
}

// StartMinutes returns the calendar's opening time in minutes of day.
func (c Calendar) StartMinutes() int { return c.StartHour * 60 }

// EndMinutes returns the calendar's closing time in minutes of day.
func (c Calendar) EndMinutes() int { return c.EndHour * 60 }
