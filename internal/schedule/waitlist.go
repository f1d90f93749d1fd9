package schedule

import "roadbook/internal/models"

// EntryAvailability pairs a waiting-list entry with whether its desired
// slot is currently free.
type EntryAvailability struct {
	Entry     models.WaitingListEntry
	Available bool
}

// WaitlistAvailability recomputes availability for every waiting-list
// entry against the current bookings and blocked periods. The customer
// check always applies; staff and leave checks apply only when the entry
// names a staff member, and the resource check only when it names
// resources. Recomputed from scratch on every call; the booking set is
// small and changes rarely, so no caching or invalidation is kept.
func WaitlistAvailability(bookings []models.Booking, blocked []models.BlockedPeriod, entries []models.WaitingListEntry) []EntryAvailability {
	if len(entries) == 0 {
		return nil
	}
	result := make([]EntryAvailability, len(entries))
	for i, e := range entries {
		result[i] = EntryAvailability{
			Entry:     e,
			Available: IsSlotAvailable(bookings, blocked, e.Draft()),
		}
	}
	return result
}
