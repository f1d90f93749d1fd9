// Package models defines the scheduling domain records shared by the
// engine, the store, and the persistence layer.
package models

import (
	"time"

	"roadbook/internal/timeutil"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusScheduled BookingStatus = "Scheduled"
	StatusCompleted BookingStatus = "Completed"
	StatusCancelled BookingStatus = "Cancelled"
)

// PaymentStatus tracks how a booking's fee has been settled.
type PaymentStatus string

const (
	PaymentUnpaid     PaymentStatus = "Unpaid"
	PaymentPaid       PaymentStatus = "Paid"
	PaymentPaidCredit PaymentStatus = "Paid (Credit)"
)

// AllStaff is the sentinel staff id marking a blocked period that applies
// to the whole organization.
const AllStaff = "all"

// Booking is a reservation of one service for one customer over the
// half-open time interval [Start, End), expressed in minutes of day.
// Column and MaxColumns are transient layout fields assigned per render
// pass; they are never persisted.
type Booking struct {
	ID            string        `json:"id"`
	Date          time.Time     `json:"date"`
	Start         int           `json:"start_time"`
	End           int           `json:"end_time"`
	CustomerID    string        `json:"customer_id"`
	StaffID       string        `json:"staff_id,omitempty"`
	ResourceIDs   []string      `json:"resource_ids,omitempty"`
	ServiceID     string        `json:"service_id"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Fee           float64       `json:"fee"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Pickup        string        `json:"pickup,omitempty"`

	Column     int `json:"-"`
	MaxColumns int `json:"-"`
}

// IsCancelled reports whether the booking is soft-deleted for scheduling
// purposes. Cancelled bookings are retained for billing history but are
// excluded from every conflict and availability check.
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// OverlapsWith reports whether two bookings occupy overlapping intervals
// on the same calendar date.
func (b *Booking) OverlapsWith(other *Booking) bool {
	if !timeutil.SameDay(b.Date, other.Date) {
		return false
	}
	return timeutil.IsOverlapping(b.Start, b.End, other.Start, other.End)
}

// SharesResource reports whether the two bookings have at least one
// resource id in common. Order within ResourceIDs is irrelevant.
func (b *Booking) SharesResource(other *Booking) bool {
	for _, r := range b.ResourceIDs {
		for _, o := range other.ResourceIDs {
			if r == o {
				return true
			}
		}
	}
	return false
}

// Window formats the booking's interval as "HH:MM to HH:MM" for
// user-facing conflict messages.
func (b *Booking) Window() string {
	return timeutil.MinutesToTime(b.Start) + " to " + timeutil.MinutesToTime(b.End)
}

// BlockedPeriod is an inclusive date range [Start, End] during which one
// staff member, or the whole organization (StaffID == AllStaff), is
// unavailable. Periods are created once and never mutated.
type BlockedPeriod struct {
	ID      string    `json:"id"`
	StaffID string    `json:"staff_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Reason  string    `json:"reason"`
}

// ContainsDate reports whether the period covers the given calendar date,
// comparing at day granularity.
func (p *BlockedPeriod) ContainsDate(date time.Time) bool {
	d := timeutil.DateOnly(date)
	start := timeutil.DateOnly(p.Start)
	end := timeutil.DateOnly(p.End)
	return !d.Before(start) && !d.After(end)
}

// AppliesTo reports whether the period blocks the given staff member,
// either directly or via the organization-wide sentinel.
func (p *BlockedPeriod) AppliesTo(staffID string) bool {
	return p.StaffID == AllStaff || p.StaffID == staffID
}

// WaitingListEntry records a desired slot awaiting a cancellation.
// Entries are created and removed by explicit user action only.
type WaitingListEntry struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Start       int       `json:"start_time"`
	End         int       `json:"end_time"`
	CustomerID  string    `json:"customer_id"`
	StaffID     string    `json:"staff_id,omitempty"`
	ResourceIDs []string  `json:"resource_ids,omitempty"`
}

// Draft returns the entry's slot as a candidate for conflict checks.
func (w *WaitingListEntry) Draft() BookingDraft {
	return BookingDraft{
		Date:        w.Date,
		Start:       w.Start,
		End:         w.End,
		CustomerID:  w.CustomerID,
		StaffID:     w.StaffID,
		ResourceIDs: w.ResourceIDs,
	}
}

// BookingDraft is the candidate shape passed to conflict checks. It is
// shared by the save path, the drag path, and the waiting-list probe so
// that all three agree on what is being validated.
type BookingDraft struct {
	Date        time.Time
	Start       int
	End         int
	CustomerID  string
	StaffID     string
	ResourceIDs []string
}

// Valid reports whether the draft describes a non-empty interval.
func (d BookingDraft) Valid() bool {
	return d.Start < d.End
}

// Draft returns the booking's scheduling attributes as a candidate,
// used when re-validating a rescheduled copy.
func (b *Booking) Draft() BookingDraft {
	return BookingDraft{
		Date:        b.Date,
		Start:       b.Start,
		End:         b.End,
		CustomerID:  b.CustomerID,
		StaffID:     b.StaffID,
		ResourceIDs: b.ResourceIDs,
	}
}

// Customer is a client of the school. Only the fields the scheduling
// engine needs are modeled here; the full CRM record lives outside.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Staff is an instructor who can be assigned to bookings.
type Staff struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resource is a bookable physical asset, such as a vehicle.
type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service is a bookable offering with a default fee.
type Service struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Fee             float64 `json:"fee"`
}
