// Package api is the HTTP shell over the scheduling engine. It owns the
// mutable snapshot reference, swaps it on every committed mutation, and
// reports conflicts as plain-text reasons the UI can show verbatim.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"roadbook/internal/drag"
	"roadbook/internal/models"
	"roadbook/internal/schedule"
	"roadbook/internal/store"
)

const dateLayout = "2006-01-02"

// Server serves the scheduling API over one snapshot reference.
type Server struct {
	mu        sync.Mutex // guards current
	writeMu   sync.Mutex // serializes mutations end to end
	current   *store.Store
	scheduler *store.Scheduler
	dragCtrl  *drag.Controller
	cal       schedule.Calendar
	logger    *zerolog.Logger
	onChange  func(*store.Store)
}

// NewServer builds a server over an initial snapshot. onChange is invoked
// with every committed snapshot (the persistence writer hooks in here);
// it may be nil.
func NewServer(initial *store.Store, scheduler *store.Scheduler, dragCtrl *drag.Controller, cal schedule.Calendar, logger *zerolog.Logger, onChange func(*store.Store)) *Server {
	return &Server{
		current:   initial,
		scheduler: scheduler,
		dragCtrl:  dragCtrl,
		cal:       cal,
		logger:    logger,
		onChange:  onChange,
	}
}

// Router wires all routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/schedule/{date}", s.handleDayLayout).Methods(http.MethodGet)
	r.HandleFunc("/api/bookings", s.handleSaveBooking).Methods(http.MethodPost)
	r.HandleFunc("/api/bookings/{id}/reschedule", s.handleReschedule).Methods(http.MethodPost)
	r.HandleFunc("/api/bookings/{id}", s.handleCancelBooking).Methods(http.MethodDelete)
	r.HandleFunc("/api/waitlist", s.handleWaitlist).Methods(http.MethodGet)
	r.HandleFunc("/api/waitlist", s.handleAddWaitlistEntry).Methods(http.MethodPost)
	r.HandleFunc("/api/waitlist/{id}", s.handleRemoveWaitlistEntry).Methods(http.MethodDelete)
	r.HandleFunc("/api/blocked-periods", s.handleAddBlockedPeriod).Methods(http.MethodPost)
	return r
}

// Snapshot returns the current snapshot.
func (s *Server) Snapshot() *store.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Server) commit(next *store.Store) {
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(next)
	}
}

// mutate applies fn to the current snapshot and installs its result.
// writeMu is held for the whole read-validate-commit span: concurrent
// requests otherwise validate against the same base snapshot and the
// later commit silently drops the earlier one.
func (s *Server) mutate(fn func(snap *store.Store) (*store.Store, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, err := fn(s.Snapshot())
	if err != nil {
		return err
	}
	s.commit(next)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type placementResponse struct {
	Booking    models.Booking `json:"booking"`
	Column     int            `json:"column"`
	MaxColumns int            `json:"max_columns"`
	Top        float64        `json:"top"`
	Height     float64        `json:"height"`
	Left       float64        `json:"left"`
	Width      float64        `json:"width"`
}

func (s *Server) handleDayLayout(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation(dateLayout, mux.Vars(r)["date"], time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	snap := s.Snapshot()
	placements := schedule.LayoutDay(s.cal, snap.BookingsOn(date))

	resp := make([]placementResponse, len(placements))
	for i, p := range placements {
		resp[i] = placementResponse{
			Booking:    p.Booking,
			Column:     p.Booking.Column,
			MaxColumns: p.Booking.MaxColumns,
			Top:        p.Top,
			Height:     p.Height,
			Left:       p.Left,
			Width:      p.Width,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type bookingRequest struct {
	ID            string   `json:"id"`
	Date          string   `json:"date"`
	Start         int      `json:"start_time"`
	End           int      `json:"end_time"`
	CustomerID    string   `json:"customer_id"`
	StaffID       string   `json:"staff_id"`
	ResourceIDs   []string `json:"resource_ids"`
	ServiceID     string   `json:"service_id"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status"`
	Fee           float64  `json:"fee"`
	Pickup        string   `json:"pickup"`
}

func (s *Server) handleSaveBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	b := models.Booking{
		ID:            req.ID,
		Date:          date,
		Start:         req.Start,
		End:           req.End,
		CustomerID:    req.CustomerID,
		StaffID:       req.StaffID,
		ResourceIDs:   req.ResourceIDs,
		ServiceID:     req.ServiceID,
		Status:        models.BookingStatus(req.Status),
		PaymentStatus: models.PaymentStatus(req.PaymentStatus),
		Fee:           req.Fee,
		Pickup:        req.Pickup,
	}

	err = s.mutate(func(snap *store.Store) (*store.Store, error) {
		return s.scheduler.SaveBooking(snap, b)
	})
	if err != nil {
		var conflict *schedule.ConflictError
		if errors.As(err, &conflict) {
			writeError(w, http.StatusConflict, conflict.Reason)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "saved"})
}

type rescheduleRequest struct {
	Date        string  `json:"date"`
	DayGranular bool    `json:"day_granular"`
	Y           float64 `json:"y"`
	Copy        bool    `json:"copy"`
}

func (s *Server) handleReschedule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	gesture := s.dragCtrl.StartDrag(id)
	target := drag.DropTarget{Date: date, DayGranular: req.DayGranular, Y: req.Y}

	var result drag.DropResult
	err = s.mutate(func(snap *store.Store) (*store.Store, error) {
		var next *store.Store
		var dropErr error
		next, result, dropErr = s.dragCtrl.Drop(snap, gesture, target, req.Copy)
		return next, dropErr
	})
	if err != nil {
		if errors.Is(err, store.ErrBookingNotFound) {
			writeError(w, http.StatusNotFound, result.Reason)
			return
		}
		writeError(w, http.StatusConflict, result.Reason)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "committed",
		"mode":       result.Mode,
		"booking_id": result.BookingID,
	})
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var freed []models.WaitingListEntry
	err := s.mutate(func(snap *store.Store) (*store.Store, error) {
		var next *store.Store
		var cancelErr error
		next, freed, cancelErr = s.scheduler.CancelBooking(snap, id)
		return next, cancelErr
	})
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "cancelled",
		"freed_entries": freed,
	})
}

type waitlistResponse struct {
	Entry     models.WaitingListEntry `json:"entry"`
	Available bool                    `json:"available"`
}

func (s *Server) handleWaitlist(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()
	availability := schedule.WaitlistAvailability(snap.BookingList(), snap.BlockedPeriodList(), snap.WaitingListEntries())

	resp := make([]waitlistResponse, len(availability))
	for i, a := range availability {
		resp[i] = waitlistResponse{Entry: a.Entry, Available: a.Available}
	}
	writeJSON(w, http.StatusOK, resp)
}

type waitlistEntryRequest struct {
	Date        string   `json:"date"`
	Start       int      `json:"start_time"`
	End         int      `json:"end_time"`
	CustomerID  string   `json:"customer_id"`
	StaffID     string   `json:"staff_id"`
	ResourceIDs []string `json:"resource_ids"`
}

func (s *Server) handleAddWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	var req waitlistEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	_ = s.mutate(func(snap *store.Store) (*store.Store, error) {
		return s.scheduler.AddWaitingListEntry(snap, models.WaitingListEntry{
			Date:        date,
			Start:       req.Start,
			End:         req.End,
			CustomerID:  req.CustomerID,
			StaffID:     req.StaffID,
			ResourceIDs: req.ResourceIDs,
		}), nil
	})

	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleRemoveWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := s.mutate(func(snap *store.Store) (*store.Store, error) {
		return s.scheduler.RemoveWaitingListEntry(snap, id)
	})
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type blockedPeriodRequest struct {
	StaffID string `json:"staff_id"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Reason  string `json:"reason"`
}

func (s *Server) handleAddBlockedPeriod(w http.ResponseWriter, r *http.Request) {
	var req blockedPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	start, err := time.ParseInLocation(dateLayout, req.Start, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date, want YYYY-MM-DD")
		return
	}
	end, err := time.ParseInLocation(dateLayout, req.End, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date, want YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end date before start date")
		return
	}

	staffID := req.StaffID
	if staffID == "" {
		staffID = models.AllStaff
	}

	var inconsistent []models.Booking
	_ = s.mutate(func(snap *store.Store) (*store.Store, error) {
		var next *store.Store
		next, inconsistent = s.scheduler.AddBlockedPeriod(snap, models.BlockedPeriod{
			StaffID: staffID,
			Start:   start,
			End:     end,
			Reason:  req.Reason,
		})
		return next, nil
	})

	// Bookings inside the blocked range stay on the calendar; the UI
	// warns about them using this list.
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status":                "created",
		"inconsistent_bookings": inconsistent,
	})
}
