package schedule

import (
	"sort"

	"roadbook/internal/models"
	"roadbook/internal/timeutil"
)

// Placement is the computed geometry for one booking in the day view.
// Top and Height are in pixels from the calendar start hour; Left and
// Width are fractions of the available horizontal space.
type Placement struct {
	Booking models.Booking
	Top     float64
	Height  float64
	Left    float64
	Width   float64
}

// LayoutDay packs one day's bookings into non-overlapping visual columns
// and computes each booking's geometry. Cancelled bookings are ignored.
//
// Bookings are sorted by (start, end) and each is assigned to the first
// column whose last booking ends at or before the candidate's start; if
// none fits, a new column opens. MaxColumns for a booking is the highest
// column index + 1 among all bookings overlapping it in time, not just
// those sharing its column, so a booking with no overlaps keeps full
// width even on a busy day.
func LayoutDay(cal Calendar, bookings []models.Booking) []Placement {
	day := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if !b.IsCancelled() {
			day = append(day, b)
		}
	}
	if len(day) == 0 {
		return nil
	}

	sort.SliceStable(day, func(i, j int) bool {
		if day[i].Start != day[j].Start {
			return day[i].Start < day[j].Start
		}
		return day[i].End < day[j].End
	})

	// columnEnds[c] is the end time of the last booking assigned to column c.
	var columnEnds []int
	for i := range day {
		assigned := false
		for c, end := range columnEnds {
			if end <= day[i].Start {
				day[i].Column = c
				columnEnds[c] = day[i].End
				assigned = true
				break
			}
		}
		if !assigned {
			day[i].Column = len(columnEnds)
			columnEnds = append(columnEnds, day[i].End)
		}
	}

	for i := range day {
		maxCol := day[i].Column
		for j := range day {
			if i == j {
				continue
			}
			if timeutil.IsOverlapping(day[i].Start, day[i].End, day[j].Start, day[j].End) && day[j].Column > maxCol {
				maxCol = day[j].Column
			}
		}
		day[i].MaxColumns = maxCol + 1
	}

	placements := make([]Placement, len(day))
	startMin := cal.StartMinutes()
	for i, b := range day {
		placements[i] = Placement{
			Booking: b,
			Top:     float64(b.Start-startMin) * cal.PixelsPerMinute,
			Height:  float64(b.End-b.Start) * cal.PixelsPerMinute,
			Left:    float64(b.Column) / float64(b.MaxColumns),
			Width:   1 / float64(b.MaxColumns),
		}
	}
	return placements
}
