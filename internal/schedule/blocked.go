package schedule

import (
	"time"

	"roadbook/internal/models"
)

// BlockedForDate returns every blocked period whose inclusive date range
// contains the given calendar date. The scan is linear; the set of blocked
// periods is expected to stay small. A date may match zero, one, or several
// periods (a staff member's leave plus an organization-wide holiday), so
// callers must handle multiplicity.
func BlockedForDate(periods []models.BlockedPeriod, date time.Time) []models.BlockedPeriod {
	var matched []models.BlockedPeriod
	for _, p := range periods {
		if p.ContainsDate(date) {
			matched = append(matched, p)
		}
	}
	return matched
}

// StaffOnLeave returns the blocked period covering the given staff member
// on the given date, or nil. The organization-wide sentinel counts.
func StaffOnLeave(periods []models.BlockedPeriod, staffID string, date time.Time) *models.BlockedPeriod {
	for i := range periods {
		p := &periods[i]
		if p.ContainsDate(date) && p.AppliesTo(staffID) {
			return p
		}
	}
	return nil
}
