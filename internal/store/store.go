// Package store holds the application-wide collections as immutable-by-
// convention snapshots. Every mutating operation clones the snapshot and
// returns a new one; a rejected operation returns its input untouched, so
// readers holding the previous pointer never observe partial state.
package store

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"roadbook/internal/models"
	"roadbook/internal/timeutil"
)

// IDGenerator mints opaque unique identifiers for new records.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the production IDGenerator.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Store is one snapshot of the application's collections, keyed by id.
// Insertion order is irrelevant; list accessors sort deterministically.
type Store struct {
	Bookings       map[string]models.Booking
	BlockedPeriods map[string]models.BlockedPeriod
	WaitingList    map[string]models.WaitingListEntry
	Customers      map[string]models.Customer
	Staff          map[string]models.Staff
	Resources      map[string]models.Resource
	Services       map[string]models.Service
}

// New returns an empty snapshot.
func New() *Store {
	return &Store{
		Bookings:       make(map[string]models.Booking),
		BlockedPeriods: make(map[string]models.BlockedPeriod),
		WaitingList:    make(map[string]models.WaitingListEntry),
		Customers:      make(map[string]models.Customer),
		Staff:          make(map[string]models.Staff),
		Resources:      make(map[string]models.Resource),
		Services:       make(map[string]models.Service),
	}
}

// Clone returns a snapshot sharing no map structure with the receiver.
// Record values are copied by value; mutators must replace whole records
// rather than edit slices in place.
func (s *Store) Clone() *Store {
	c := New()
	for k, v := range s.Bookings {
		c.Bookings[k] = v
	}
	for k, v := range s.BlockedPeriods {
		c.BlockedPeriods[k] = v
	}
	for k, v := range s.WaitingList {
		c.WaitingList[k] = v
	}
	for k, v := range s.Customers {
		c.Customers[k] = v
	}
	for k, v := range s.Staff {
		c.Staff[k] = v
	}
	for k, v := range s.Resources {
		c.Resources[k] = v
	}
	for k, v := range s.Services {
		c.Services[k] = v
	}
	return c
}

// BookingList returns all bookings ordered by date, start time, then id.
func (s *Store) BookingList() []models.Booking {
	list := make([]models.Booking, 0, len(s.Bookings))
	for _, b := range s.Bookings {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		if list[i].Start != list[j].Start {
			return list[i].Start < list[j].Start
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// BookingsOn returns the bookings falling on the given calendar date,
// cancelled ones included; layout and conflict code filters those itself.
func (s *Store) BookingsOn(date time.Time) []models.Booking {
	var list []models.Booking
	for _, b := range s.BookingList() {
		if timeutil.SameDay(b.Date, date) {
			list = append(list, b)
		}
	}
	return list
}

// BlockedPeriodList returns all blocked periods ordered by start date.
func (s *Store) BlockedPeriodList() []models.BlockedPeriod {
	list := make([]models.BlockedPeriod, 0, len(s.BlockedPeriods))
	for _, p := range s.BlockedPeriods {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Start.Equal(list[j].Start) {
			return list[i].Start.Before(list[j].Start)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// WaitingListEntries returns all waiting-list entries ordered by date and
// start time.
func (s *Store) WaitingListEntries() []models.WaitingListEntry {
	list := make([]models.WaitingListEntry, 0, len(s.WaitingList))
	for _, e := range s.WaitingList {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		if list[i].Start != list[j].Start {
			return list[i].Start < list[j].Start
		}
		return list[i].ID < list[j].ID
	})
	return list
}
