package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadbook/internal/models"
)

func TestBlockedForDate(t *testing.T) {
	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	periods := []models.BlockedPeriod{
		{ID: "p1", StaffID: "s1", Start: day, End: day.AddDate(0, 0, 4), Reason: "leave"},
		{ID: "p2", StaffID: models.AllStaff, Start: day, End: day, Reason: "holiday"},
		{ID: "p3", StaffID: "s2", Start: day.AddDate(0, 0, 7), End: day.AddDate(0, 0, 7), Reason: "training"},
	}

	t.Run("multiple matches on one date", func(t *testing.T) {
		matched := BlockedForDate(periods, day)
		require.Len(t, matched, 2)
		assert.Equal(t, "p1", matched[0].ID)
		assert.Equal(t, "p2", matched[1].ID)
	})

	t.Run("single match inside a range", func(t *testing.T) {
		matched := BlockedForDate(periods, day.AddDate(0, 0, 2))
		require.Len(t, matched, 1)
		assert.Equal(t, "p1", matched[0].ID)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, BlockedForDate(periods, day.AddDate(0, 0, 5)))
	})
}

func TestStaffOnLeave(t *testing.T) {
	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	periods := []models.BlockedPeriod{
		{ID: "p1", StaffID: "s1", Start: day, End: day, Reason: "leave"},
		{ID: "p2", StaffID: models.AllStaff, Start: day.AddDate(0, 0, 1), End: day.AddDate(0, 0, 1), Reason: "holiday"},
	}

	assert.NotNil(t, StaffOnLeave(periods, "s1", day))
	assert.Nil(t, StaffOnLeave(periods, "s2", day))
	// Sentinel covers everyone.
	assert.NotNil(t, StaffOnLeave(periods, "s2", day.AddDate(0, 0, 1)))
}
