package drag

import (
	"math"

	"roadbook/internal/schedule"
)

// PixelsToTime maps a vertical pixel offset within the day timeline to a
// time of day in minutes. One pixel is one minute at the default scale:
// the offset is added to the calendar's opening time, rounded to the
// nearest slot boundary, then clamped into [opening, closing] so that no
// drag can produce an out-of-range time.
func PixelsToTime(cal schedule.Calendar, offsetPx float64) int {
	scale := cal.PixelsPerMinute
	if scale <= 0 {
		scale = 1
	}
	minutes := float64(cal.StartMinutes()) + offsetPx/scale

	slot := cal.SlotMinutes
	if slot <= 0 {
		slot = 30
	}
	rounded := int(math.Round(minutes/float64(slot))) * slot

	if rounded < cal.StartMinutes() {
		return cal.StartMinutes()
	}
	if rounded > cal.EndMinutes() {
		return cal.EndMinutes()
	}
	return rounded
}
