package store

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"roadbook/internal/events"
	"roadbook/internal/metrics"
	"roadbook/internal/models"
	"roadbook/internal/schedule"
)

var (
	// ErrBookingNotFound is returned when an operation names a booking id
	// no longer present in the snapshot (e.g. deleted from another tab).
	ErrBookingNotFound = errors.New("booking not found")
	// ErrEntryNotFound is returned for a missing waiting-list entry id.
	ErrEntryNotFound = errors.New("waiting-list entry not found")
	// ErrInvalidBooking is returned when a booking violates its own
	// invariants before any conflict check runs.
	ErrInvalidBooking = errors.New("invalid booking")
)

// Scheduler applies booking mutations to store snapshots, running conflict
// validation, publishing domain events, and recomputing waiting-list
// availability. It never persists; the persistence layer subscribes to the
// event bus.
type Scheduler struct {
	bus    *events.EventBus
	ids    IDGenerator
	logger *zerolog.Logger
}

// NewScheduler wires a scheduler to the bus and id source.
func NewScheduler(bus *events.EventBus, ids IDGenerator, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{bus: bus, ids: ids, logger: logger}
}

// IDs exposes the identifier source, used by the drag controller when a
// copy-drop needs a fresh booking id.
func (sc *Scheduler) IDs() IDGenerator { return sc.ids }

func validateBooking(b *models.Booking) error {
	if b.Start >= b.End {
		return fmt.Errorf("%w: start %d not before end %d", ErrInvalidBooking, b.Start, b.End)
	}
	if b.Fee < 0 {
		return fmt.Errorf("%w: negative fee", ErrInvalidBooking)
	}
	return nil
}

// SaveBooking validates the booking and inserts or replaces it. The
// booking never conflicts with itself, so its own id is excluded from the
// check. A booking without an id is assigned one. On conflict the input
// snapshot is returned unchanged together with the *schedule.ConflictError.
func (sc *Scheduler) SaveBooking(s *Store, b models.Booking) (*Store, error) {
	if err := validateBooking(&b); err != nil {
		return s, err
	}
	if b.Status == "" {
		b.Status = models.StatusScheduled
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = models.PaymentUnpaid
	}

	if !b.IsCancelled() {
		conflict := schedule.FindConflict(s.BookingList(), s.BlockedPeriodList(), b.Draft(), b.ID)
		if conflict != nil {
			metrics.IncConflictDetected(string(conflict.Kind))
			return s, conflict
		}
	}

	if b.ID == "" {
		b.ID = sc.ids.NewID()
	}

	next := s.Clone()
	next.Bookings[b.ID] = b

	metrics.IncBookingSaved(string(b.Status))
	if err := sc.bus.PublishJSON(events.BookingSaved, b); err != nil {
		sc.logger.Error().Err(err).Str("booking_id", b.ID).Msg("publish booking.saved")
	}
	return next, nil
}

// ApplyBooking inserts or replaces the booking without re-running conflict
// checks. The drag controller uses this after validating a candidate with
// its own exclusion rule; everything else goes through SaveBooking.
func (sc *Scheduler) ApplyBooking(s *Store, b models.Booking) *Store {
	next := s.Clone()
	next.Bookings[b.ID] = b

	metrics.IncBookingSaved(string(b.Status))
	if err := sc.bus.PublishJSON(events.BookingSaved, b); err != nil {
		sc.logger.Error().Err(err).Str("booking_id", b.ID).Msg("publish booking.saved")
	}
	return next
}

// UpdateBooking clones the named booking, applies fn to the copy,
// re-validates invariants and conflicts, and commits the copy. The input
// snapshot is returned unchanged on any failure.
func (sc *Scheduler) UpdateBooking(s *Store, id string, fn func(*models.Booking)) (*Store, error) {
	current, ok := s.Bookings[id]
	if !ok {
		sc.logger.Warn().Str("booking_id", id).Msg("update on missing booking, no-op")
		return s, ErrBookingNotFound
	}

	updated := current
	fn(&updated)
	updated.ID = id

	return sc.SaveBooking(s, updated)
}

// CancelBooking soft-deletes for scheduling purposes: the record stays for
// billing history but stops participating in conflict checks. Returns the
// waiting-list entries whose slot became bookable through this
// cancellation; one waitlist.slot_freed event is published per entry.
func (sc *Scheduler) CancelBooking(s *Store, id string) (*Store, []models.WaitingListEntry, error) {
	current, ok := s.Bookings[id]
	if !ok {
		sc.logger.Warn().Str("booking_id", id).Msg("cancel on missing booking, no-op")
		return s, nil, ErrBookingNotFound
	}

	next := s.Clone()
	current.Status = models.StatusCancelled
	next.Bookings[id] = current

	freed := sc.freedEntries(s, next)
	if err := sc.bus.PublishJSON(events.BookingCancelled, current); err != nil {
		sc.logger.Error().Err(err).Str("booking_id", id).Msg("publish booking.cancelled")
	}
	return next, freed, nil
}

// DeleteBooking removes the record entirely. Waiting-list notification
// follows the same rules as cancellation.
func (sc *Scheduler) DeleteBooking(s *Store, id string) (*Store, []models.WaitingListEntry, error) {
	current, ok := s.Bookings[id]
	if !ok {
		sc.logger.Warn().Str("booking_id", id).Msg("delete on missing booking, no-op")
		return s, nil, ErrBookingNotFound
	}

	next := s.Clone()
	delete(next.Bookings, id)

	freed := sc.freedEntries(s, next)
	if err := sc.bus.PublishJSON(events.BookingDeleted, current); err != nil {
		sc.logger.Error().Err(err).Str("booking_id", id).Msg("publish booking.deleted")
	}
	return next, freed, nil
}

// freedEntries returns waiting-list entries that were blocked under the
// previous snapshot and are bookable under the next one.
func (sc *Scheduler) freedEntries(prev, next *Store) []models.WaitingListEntry {
	var freed []models.WaitingListEntry
	prevBookings, prevBlocked := prev.BookingList(), prev.BlockedPeriodList()
	nextBookings, nextBlocked := next.BookingList(), next.BlockedPeriodList()

	for _, e := range next.WaitingListEntries() {
		wasFree := schedule.IsSlotAvailable(prevBookings, prevBlocked, e.Draft())
		isFree := schedule.IsSlotAvailable(nextBookings, nextBlocked, e.Draft())
		if !wasFree && isFree {
			freed = append(freed, e)
			metrics.IncWaitlistNotified()
			if err := sc.bus.PublishJSON(events.WaitlistSlotFreed, e); err != nil {
				sc.logger.Error().Err(err).Str("entry_id", e.ID).Msg("publish waitlist.slot_freed")
			}
		}
	}
	return freed
}

// AddBlockedPeriod records a leave period. Creation always succeeds, even
// when existing bookings fall inside the blocked range; those bookings are
// returned so the caller can warn the user, but they are never flagged or
// cancelled automatically.
func (sc *Scheduler) AddBlockedPeriod(s *Store, p models.BlockedPeriod) (*Store, []models.Booking) {
	if p.ID == "" {
		p.ID = sc.ids.NewID()
	}

	var inconsistent []models.Booking
	for _, b := range s.BookingList() {
		if b.IsCancelled() || b.StaffID == "" {
			continue
		}
		if p.ContainsDate(b.Date) && p.AppliesTo(b.StaffID) {
			inconsistent = append(inconsistent, b)
		}
	}

	next := s.Clone()
	next.BlockedPeriods[p.ID] = p

	if err := sc.bus.PublishJSON(events.BlockedPeriodCreated, p); err != nil {
		sc.logger.Error().Err(err).Str("period_id", p.ID).Msg("publish blocked_period.created")
	}
	return next, inconsistent
}

// AddWaitingListEntry records a desired slot.
func (sc *Scheduler) AddWaitingListEntry(s *Store, e models.WaitingListEntry) *Store {
	if e.ID == "" {
		e.ID = sc.ids.NewID()
	}
	next := s.Clone()
	next.WaitingList[e.ID] = e
	return next
}

// RemoveWaitingListEntry drops an entry; entries leave the list only by
// explicit user action.
func (sc *Scheduler) RemoveWaitingListEntry(s *Store, id string) (*Store, error) {
	if _, ok := s.WaitingList[id]; !ok {
		return s, ErrEntryNotFound
	}
	next := s.Clone()
	delete(next.WaitingList, id)
	return next, nil
}
