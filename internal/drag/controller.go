// Package drag coordinates pointer gestures into booking mutations. The
// controller works purely with numeric pixel inputs and store snapshots,
// with no windowing-system dependency, so the same logic can back a mouse
// UI, a touch UI, or a test harness.
package drag

import (
	"time"

	"github.com/rs/zerolog"

	"roadbook/internal/metrics"
	"roadbook/internal/models"
	"roadbook/internal/schedule"
	"roadbook/internal/store"
	"roadbook/internal/timeutil"
)

// State is the phase of a reschedule drag.
type State string

const (
	StateIdle        State = "idle"
	StateDragStarted State = "drag_started"
	StateDragging    State = "dragging"
	StateDropped     State = "dropped"
	StateCommitted   State = "committed"
	StateRejected    State = "rejected"
)

// Outcome of a completed drop.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeRejected  Outcome = "rejected"
)

// Drop modes.
const (
	ModeMove = "move"
	ModeCopy = "copy"
)

// DropTarget describes where a dragged booking was released.
// DayGranular targets (the day-view timeline) carry a vertical pixel
// offset and produce a new start time; week and month cells change only
// the date.
type DropTarget struct {
	Date        time.Time
	DayGranular bool
	Y           float64
}

// Reschedule tracks one drag of an existing booking.
type Reschedule struct {
	BookingID string
	state     State
	hover     *DropTarget
}

// State returns the drag's current phase.
func (r *Reschedule) State() State { return r.state }

// Hover returns the currently highlighted target, if any.
func (r *Reschedule) Hover() (DropTarget, bool) {
	if r.hover == nil {
		return DropTarget{}, false
	}
	return *r.hover, true
}

// Enter highlights a prospective target while dragging over it.
func (r *Reschedule) Enter(target DropTarget) {
	r.state = StateDragging
	r.hover = &target
}

// Leave clears the highlight when the pointer exits a target.
func (r *Reschedule) Leave() {
	r.hover = nil
}

// DropResult reports what a drop did.
type DropResult struct {
	Outcome   Outcome
	Mode      string // move or copy; empty when rejected
	BookingID string // id of the moved booking or of the fresh copy
	Reason    string // user-visible explanation when rejected
}

// Controller turns gestures into validated booking mutations.
type Controller struct {
	cal       schedule.Calendar
	scheduler *store.Scheduler
	logger    *zerolog.Logger
}

// NewController builds a controller over the given calendar settings.
func NewController(cal schedule.Calendar, scheduler *store.Scheduler, logger *zerolog.Logger) *Controller {
	return &Controller{cal: cal, scheduler: scheduler, logger: logger}
}

// Calendar returns the controller's calendar settings.
func (c *Controller) Calendar() schedule.Calendar { return c.cal }

// StartDrag captures the source booking and begins a reschedule drag.
func (c *Controller) StartDrag(bookingID string) *Reschedule {
	return &Reschedule{BookingID: bookingID, state: StateDragStarted}
}

// Abandon ends a drag without a valid target. No state is mutated.
func (c *Controller) Abandon(r *Reschedule) {
	r.state = StateIdle
	r.hover = nil
}

// Drop completes the drag: a modified copy of the dragged booking is built
// for the target (new date always; new start time, duration preserved,
// only on day-granular targets), validated against everything except the
// dragged booking itself, and committed.
//
// With copyRequested a fresh booking is created under a new id with the
// payment status reset to Unpaid and no transaction link, leaving the
// original untouched; otherwise the original is replaced in place.
//
// On rejection, and when the booking id has vanished from the snapshot,
// the input snapshot is returned unchanged.
func (c *Controller) Drop(s *store.Store, r *Reschedule, target DropTarget, copyRequested bool) (*store.Store, DropResult, error) {
	r.state = StateDropped
	r.hover = nil

	b, ok := s.Bookings[r.BookingID]
	if !ok {
		// Raced with a delete (multi-tab): nothing to move, nothing broken.
		c.logger.Warn().Str("booking_id", r.BookingID).Msg("dropped booking no longer exists, no-op")
		r.state = StateRejected
		return s, DropResult{Outcome: OutcomeRejected, Reason: "booking no longer exists"}, store.ErrBookingNotFound
	}

	candidate := b
	candidate.Date = timeutil.DateOnly(target.Date)
	candidate.ResourceIDs = append([]string(nil), b.ResourceIDs...)
	if target.DayGranular {
		duration := b.End - b.Start
		start := PixelsToTime(c.cal, target.Y)
		if start+duration > c.cal.EndMinutes() {
			start = c.cal.EndMinutes() - duration
		}
		if start < c.cal.StartMinutes() {
			start = c.cal.StartMinutes()
		}
		candidate.Start = start
		candidate.End = start + duration
	}

	conflict := schedule.FindConflict(s.BookingList(), s.BlockedPeriodList(), candidate.Draft(), b.ID)
	if conflict != nil {
		metrics.IncConflictDetected(string(conflict.Kind))
		metrics.IncDragRejected()
		r.state = StateRejected
		return s, DropResult{Outcome: OutcomeRejected, Reason: conflict.Reason}, conflict
	}

	mode := ModeMove
	if copyRequested {
		mode = ModeCopy
		candidate.ID = c.scheduler.IDs().NewID()
		candidate.PaymentStatus = models.PaymentUnpaid
		candidate.TransactionID = ""
	}

	next := c.scheduler.ApplyBooking(s, candidate)
	metrics.IncDragCommitted(mode)
	r.state = StateCommitted

	c.logger.Info().
		Str("booking_id", candidate.ID).
		Str("mode", mode).
		Str("date", candidate.Date.Format("2006-01-02")).
		Str("window", candidate.Window()).
		Msg("drag reschedule committed")

	return next, DropResult{Outcome: OutcomeCommitted, Mode: mode, BookingID: candidate.ID}, nil
}
