package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadbook/internal/events"
	"roadbook/internal/models"
	"roadbook/internal/schedule"
)

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func newTestScheduler() (*Scheduler, *events.EventBus) {
	bus := events.NewEventBus()
	logger := zerolog.Nop()
	return NewScheduler(bus, &seqIDs{}, &logger), bus
}

var apr1 = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

func scheduled(id string, start, end int, staff, customer string) models.Booking {
	return models.Booking{
		ID:            id,
		Date:          apr1,
		Start:         start,
		End:           end,
		StaffID:       staff,
		CustomerID:    customer,
		Status:        models.StatusScheduled,
		PaymentStatus: models.PaymentUnpaid,
	}
}

func TestSaveBooking(t *testing.T) {
	sc, _ := newTestScheduler()
	s := New()

	s1, err := sc.SaveBooking(s, scheduled("a", 600, 660, "s1", "c1"))
	require.NoError(t, err)
	assert.Len(t, s1.Bookings, 1)
	assert.Empty(t, s.Bookings, "input snapshot untouched")

	t.Run("adjacent booking saves cleanly", func(t *testing.T) {
		s2, err := sc.SaveBooking(s1, scheduled("b", 660, 720, "s1", "c1"))
		require.NoError(t, err)
		assert.Len(t, s2.Bookings, 2)
	})

	t.Run("overlapping staff booking is rejected", func(t *testing.T) {
		s2, err := sc.SaveBooking(s1, scheduled("c", 630, 690, "s1", "c2"))
		require.Error(t, err)
		assert.Same(t, s1, s2, "rejected save returns the input snapshot")

		var conflict *schedule.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Contains(t, conflict.Reason, "10:00")
		assert.Contains(t, conflict.Reason, "11:00")
	})

	t.Run("missing id is minted", func(t *testing.T) {
		b := scheduled("", 900, 960, "s2", "c2")
		s2, err := sc.SaveBooking(s1, b)
		require.NoError(t, err)
		assert.Len(t, s2.Bookings, 2)
		_, ok := s2.Bookings["id-1"]
		assert.True(t, ok)
	})

	t.Run("invalid interval rejected before conflicts", func(t *testing.T) {
		_, err := sc.SaveBooking(s1, scheduled("x", 660, 660, "s9", "c9"))
		assert.ErrorIs(t, err, ErrInvalidBooking)
	})
}

func TestUpdateBooking(t *testing.T) {
	sc, _ := newTestScheduler()
	s, err := sc.SaveBooking(New(), scheduled("a", 600, 660, "s1", "c1"))
	require.NoError(t, err)
	s, err = sc.SaveBooking(s, scheduled("b", 720, 780, "s1", "c1"))
	require.NoError(t, err)

	t.Run("edit does not conflict with itself", func(t *testing.T) {
		next, err := sc.UpdateBooking(s, "a", func(b *models.Booking) {
			b.Start, b.End = 610, 650
		})
		require.NoError(t, err)
		assert.Equal(t, 610, next.Bookings["a"].Start)
		assert.Equal(t, 600, s.Bookings["a"].Start, "previous snapshot unchanged")
	})

	t.Run("edit into another booking is rejected", func(t *testing.T) {
		next, err := sc.UpdateBooking(s, "a", func(b *models.Booking) {
			b.Start, b.End = 720, 780
		})
		require.Error(t, err)
		assert.Same(t, s, next)
	})

	t.Run("missing id is a no-op", func(t *testing.T) {
		next, err := sc.UpdateBooking(s, "ghost", func(b *models.Booking) {})
		assert.ErrorIs(t, err, ErrBookingNotFound)
		assert.Same(t, s, next)
	})
}

func TestCancelBookingFreesWaitlist(t *testing.T) {
	sc, bus := newTestScheduler()

	var notified []string
	bus.Subscribe(events.WaitlistSlotFreed, func(e events.Event) error {
		notified = append(notified, string(e.Payload))
		return nil
	})

	s, err := sc.SaveBooking(New(), scheduled("a", 600, 660, "s1", "c1"))
	require.NoError(t, err)
	s = sc.AddWaitingListEntry(s, models.WaitingListEntry{
		ID: "w1", Date: apr1, Start: 600, End: 660, CustomerID: "c1",
	})
	s = sc.AddWaitingListEntry(s, models.WaitingListEntry{
		ID: "w2", Date: apr1, Start: 900, End: 960, CustomerID: "c2",
	})

	next, freed, err := sc.CancelBooking(s, "a")
	require.NoError(t, err)

	require.Len(t, freed, 1, "only the blocked entry is notified")
	assert.Equal(t, "w1", freed[0].ID)
	assert.Len(t, notified, 1)

	// Cancelled record is retained for billing history.
	b, ok := next.Bookings["a"]
	require.True(t, ok)
	assert.Equal(t, models.StatusCancelled, b.Status)

	// Entries stay on the list until the user removes them.
	assert.Len(t, next.WaitingList, 2)

	t.Run("cancel missing booking is a no-op", func(t *testing.T) {
		same, freed, err := sc.CancelBooking(next, "ghost")
		assert.ErrorIs(t, err, ErrBookingNotFound)
		assert.Same(t, next, same)
		assert.Empty(t, freed)
	})
}

func TestDeleteBooking(t *testing.T) {
	sc, _ := newTestScheduler()
	s, err := sc.SaveBooking(New(), scheduled("a", 600, 660, "s1", "c1"))
	require.NoError(t, err)
	s = sc.AddWaitingListEntry(s, models.WaitingListEntry{
		ID: "w1", Date: apr1, Start: 630, End: 690, CustomerID: "c1",
	})

	next, freed, err := sc.DeleteBooking(s, "a")
	require.NoError(t, err)
	assert.NotContains(t, next.Bookings, "a")
	require.Len(t, freed, 1)
	assert.Equal(t, "w1", freed[0].ID)
}

func TestAddBlockedPeriod(t *testing.T) {
	sc, _ := newTestScheduler()
	s, err := sc.SaveBooking(New(), scheduled("a", 600, 660, "s1", "c1"))
	require.NoError(t, err)

	period := models.BlockedPeriod{StaffID: "s1", Start: apr1, End: apr1.AddDate(0, 0, 1), Reason: "leave"}
	next, inconsistent := sc.AddBlockedPeriod(s, period)

	assert.Len(t, next.BlockedPeriods, 1)
	// The overlapping booking survives but is reported.
	require.Len(t, inconsistent, 1)
	assert.Equal(t, "a", inconsistent[0].ID)
	assert.Equal(t, models.StatusScheduled, next.Bookings["a"].Status)

	t.Run("unrelated staff is not reported", func(t *testing.T) {
		other := models.BlockedPeriod{StaffID: "s2", Start: apr1, End: apr1, Reason: "training"}
		_, inconsistent := sc.AddBlockedPeriod(s, other)
		assert.Empty(t, inconsistent)
	})
}

func TestWaitingListEntryLifecycle(t *testing.T) {
	sc, _ := newTestScheduler()
	s := sc.AddWaitingListEntry(New(), models.WaitingListEntry{Date: apr1, Start: 600, End: 660, CustomerID: "c1"})
	require.Len(t, s.WaitingList, 1)

	var id string
	for k := range s.WaitingList {
		id = k
	}
	next, err := sc.RemoveWaitingListEntry(s, id)
	require.NoError(t, err)
	assert.Empty(t, next.WaitingList)

	_, err = sc.RemoveWaitingListEntry(next, "ghost")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}
