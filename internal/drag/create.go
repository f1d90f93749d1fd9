package drag

import (
	"time"

	"roadbook/internal/models"
	"roadbook/internal/timeutil"
)

// CreateGesture is a free-hand vertical selection on an empty stretch of
// the day timeline. The rectangle is normalized so dragging upward behaves
// the same as dragging downward.
type CreateGesture struct {
	date    time.Time
	anchorY float64
	top     float64
	height  float64
}

// Rect returns the current selection rectangle (top offset and height in
// pixels) for the caller to draw.
func (g *CreateGesture) Rect() (top, height float64) {
	return g.top, g.height
}

// BeginCreate starts a selection at the pointer's vertical offset.
func (c *Controller) BeginCreate(date time.Time, y float64) *CreateGesture {
	return &CreateGesture{date: timeutil.DateOnly(date), anchorY: y, top: y}
}

// MoveCreate extends the selection to the pointer's current offset.
func (c *Controller) MoveCreate(g *CreateGesture, y float64) {
	if y >= g.anchorY {
		g.top = g.anchorY
		g.height = y - g.anchorY
	} else {
		g.top = y
		g.height = g.anchorY - y
	}
}

// EndCreate converts the selection into a booking draft. A selection
// shorter than the click threshold is read as a plain click and proposes
// a default-duration booking starting at the pointer position instead of
// a zero-length one.
func (c *Controller) EndCreate(g *CreateGesture) models.BookingDraft {
	cal := c.cal

	if g.height < cal.ClickThresholdPx {
		start := PixelsToTime(cal, g.anchorY)
		end := start + cal.DefaultDurationMin
		if end > cal.EndMinutes() {
			end = cal.EndMinutes()
			start = end - cal.DefaultDurationMin
		}
		return models.BookingDraft{Date: g.date, Start: start, End: end}
	}

	start := PixelsToTime(cal, g.top)
	end := PixelsToTime(cal, g.top+g.height)
	if end <= start {
		// Both edges quantized onto the same boundary; keep one slot.
		end = start + cal.SlotMinutes
		if end > cal.EndMinutes() {
			end = cal.EndMinutes()
			start = end - cal.SlotMinutes
		}
	}
	return models.BookingDraft{Date: g.date, Start: start, End: end}
}
