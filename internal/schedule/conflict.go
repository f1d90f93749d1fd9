package schedule

import (
	"fmt"

	"roadbook/internal/models"
	"roadbook/internal/timeutil"
)

// ConflictKind identifies which commitment a candidate booking collides
// with. The four kinds are checked in a fixed precedence order and the
// first match wins; when several conflicts exist at once, only the highest
// precedence one is surfaced. This ordering is policy, not semantics.
type ConflictKind string

const (
	ConflictStaff    ConflictKind = "staff"
	ConflictCustomer ConflictKind = "customer"
	ConflictResource ConflictKind = "resource"
	ConflictLeave    ConflictKind = "leave"
)

// ConflictError describes why a candidate booking cannot be placed. The
// Reason is suitable for direct display to the user and names the
// conflicting window.
type ConflictError struct {
	Kind   ConflictKind
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// FindConflict checks a candidate booking against existing commitments and
// returns the first conflict found, or nil if the slot is clear.
//
// Precedence: staff, then customer, then resource, then staff leave.
// Cancelled bookings never conflict, and the booking identified by
// excludeID is skipped so an edited booking does not collide with itself.
// The staff and leave checks are skipped when the draft carries no staff
// id; the resource check is skipped when it carries no resources.
// Pure query: no side effects.
func FindConflict(bookings []models.Booking, blocked []models.BlockedPeriod, draft models.BookingDraft, excludeID string) *ConflictError {
	for i := range bookings {
		b := &bookings[i]
		if b.ID == excludeID || b.IsCancelled() {
			continue
		}
		if !timeutil.SameDay(b.Date, draft.Date) {
			continue
		}
		if !timeutil.IsOverlapping(b.Start, b.End, draft.Start, draft.End) {
			continue
		}

		if draft.StaffID != "" && b.StaffID == draft.StaffID {
			return &ConflictError{
				Kind:   ConflictStaff,
				Reason: fmt.Sprintf("staff member is already booked from %s", b.Window()),
			}
		}
	}

	for i := range bookings {
		b := &bookings[i]
		if b.ID == excludeID || b.IsCancelled() {
			continue
		}
		if !timeutil.SameDay(b.Date, draft.Date) {
			continue
		}
		if !timeutil.IsOverlapping(b.Start, b.End, draft.Start, draft.End) {
			continue
		}

		if draft.CustomerID != "" && b.CustomerID == draft.CustomerID {
			return &ConflictError{
				Kind:   ConflictCustomer,
				Reason: fmt.Sprintf("customer is already booked from %s", b.Window()),
			}
		}
	}

	if len(draft.ResourceIDs) > 0 {
		probe := models.Booking{ResourceIDs: draft.ResourceIDs}
		for i := range bookings {
			b := &bookings[i]
			if b.ID == excludeID || b.IsCancelled() {
				continue
			}
			if !timeutil.SameDay(b.Date, draft.Date) {
				continue
			}
			if !timeutil.IsOverlapping(b.Start, b.End, draft.Start, draft.End) {
				continue
			}

			if b.SharesResource(&probe) {
				return &ConflictError{
					Kind:   ConflictResource,
					Reason: fmt.Sprintf("resource is already booked from %s", b.Window()),
				}
			}
		}
	}

	if draft.StaffID != "" {
		if leave := StaffOnLeave(blocked, draft.StaffID, draft.Date); leave != nil {
			return &ConflictError{
				Kind: ConflictLeave,
				Reason: fmt.Sprintf("staff member is unavailable %s to %s (%s)",
					leave.Start.Format("02 Jan 2006"), leave.End.Format("02 Jan 2006"), leave.Reason),
			}
		}
	}

	return nil
}

// IsSlotAvailable answers whether a desired slot is currently bookable,
// applying the same overlap families as FindConflict so the waiting-list
// view never disagrees with the save path about availability.
func IsSlotAvailable(bookings []models.Booking, blocked []models.BlockedPeriod, draft models.BookingDraft) bool {
	return FindConflict(bookings, blocked, draft, "") == nil
}
