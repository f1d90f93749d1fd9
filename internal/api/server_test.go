package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadbook/internal/drag"
	"roadbook/internal/events"
	"roadbook/internal/schedule"
	"roadbook/internal/store"
)

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := zerolog.Nop()
	cal := schedule.DefaultCalendar()
	scheduler := store.NewScheduler(events.NewEventBus(), &seqIDs{}, &logger)
	ctrl := drag.NewController(cal, scheduler, &logger)

	srv := NewServer(store.New(), scheduler, ctrl, cal, &logger, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func saveBooking(t *testing.T, ts *httptest.Server, body map[string]interface{}) *http.Response {
	return postJSON(t, ts.URL+"/api/bookings", body)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSaveBookingAndConflict(t *testing.T) {
	_, ts := newTestServer(t)

	resp := saveBooking(t, ts, map[string]interface{}{
		"id": "a", "date": "2026-04-01", "start_time": 600, "end_time": 660,
		"customer_id": "c1", "staff_id": "s1",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("conflicting save returns 409 with reason", func(t *testing.T) {
		resp := saveBooking(t, ts, map[string]interface{}{
			"id": "b", "date": "2026-04-01", "start_time": 630, "end_time": 690,
			"customer_id": "c2", "staff_id": "s1",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var body errorResponse
		decodeBody(t, resp, &body)
		assert.Contains(t, body.Error, "10:00")
		assert.Contains(t, body.Error, "11:00")
	})

	t.Run("invalid date rejected", func(t *testing.T) {
		resp := saveBooking(t, ts, map[string]interface{}{
			"id": "c", "date": "01/04/2026", "start_time": 600, "end_time": 660,
			"customer_id": "c1",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDayLayoutEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	for i, slot := range [][2]int{{600, 660}, {615, 675}, {630, 690}} {
		resp := saveBooking(t, ts, map[string]interface{}{
			"id":   fmt.Sprintf("b%d", i),
			"date": "2026-04-01", "start_time": slot[0], "end_time": slot[1],
			"customer_id": fmt.Sprintf("c%d", i), "staff_id": fmt.Sprintf("s%d", i),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/api/schedule/2026-04-01")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var placements []placementResponse
	decodeBody(t, resp, &placements)
	require.Len(t, placements, 3)

	cols := map[int]bool{}
	for _, p := range placements {
		assert.Equal(t, 3, p.MaxColumns)
		cols[p.Column] = true
	}
	assert.Len(t, cols, 3, "three distinct columns")
}

func TestRescheduleEndpoint(t *testing.T) {
	srv, ts := newTestServer(t)

	resp := saveBooking(t, ts, map[string]interface{}{
		"id": "a", "date": "2026-04-01", "start_time": 600, "end_time": 660,
		"customer_id": "c1", "staff_id": "s1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("move to another day", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/api/bookings/a/reschedule", rescheduleRequest{Date: "2026-04-02"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		moved := srv.Snapshot().Bookings["a"]
		assert.Equal(t, "2026-04-02", moved.Date.Format("2006-01-02"))
	})

	t.Run("copy adds a booking", func(t *testing.T) {
		before := len(srv.Snapshot().Bookings)
		resp := postJSON(t, ts.URL+"/api/bookings/a/reschedule", rescheduleRequest{Date: "2026-04-03", Copy: true})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, before+1, len(srv.Snapshot().Bookings))
	})

	t.Run("unknown booking is 404", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/api/bookings/ghost/reschedule", rescheduleRequest{Date: "2026-04-02"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCancelFreesWaitlist(t *testing.T) {
	_, ts := newTestServer(t)

	resp := saveBooking(t, ts, map[string]interface{}{
		"id": "a", "date": "2026-04-01", "start_time": 600, "end_time": 660,
		"customer_id": "c1", "staff_id": "s1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/waitlist", waitlistEntryRequest{
		Date: "2026-04-01", Start: 600, End: 660, CustomerID: "c1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("entry starts unavailable", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/waitlist")
		require.NoError(t, err)
		defer resp.Body.Close()

		var entries []waitlistResponse
		decodeBody(t, resp, &entries)
		require.Len(t, entries, 1)
		assert.False(t, entries[0].Available)
	})

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/bookings/a", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	var cancelBody struct {
		FreedEntries []json.RawMessage `json:"freed_entries"`
	}
	decodeBody(t, delResp, &cancelBody)
	assert.Len(t, cancelBody.FreedEntries, 1)

	t.Run("entry becomes available", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/waitlist")
		require.NoError(t, err)
		defer resp.Body.Close()

		var entries []waitlistResponse
		decodeBody(t, resp, &entries)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Available)
	})
}

func TestAddBlockedPeriodReportsInconsistentBookings(t *testing.T) {
	_, ts := newTestServer(t)

	resp := saveBooking(t, ts, map[string]interface{}{
		"id": "a", "date": "2026-04-01", "start_time": 600, "end_time": 660,
		"customer_id": "c1", "staff_id": "s1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/blocked-periods", blockedPeriodRequest{
		StaffID: "s1", Start: "2026-04-01", End: "2026-04-02", Reason: "leave",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Inconsistent []json.RawMessage `json:"inconsistent_bookings"`
	}
	decodeBody(t, resp, &body)
	assert.Len(t, body.Inconsistent, 1)
}

func TestConcurrentSavesAllCommitted(t *testing.T) {
	srv, ts := newTestServer(t)

	// Distinct staff and customers on the same hour: none conflict, so
	// every save must survive into the final snapshot regardless of how
	// the requests interleave.
	const n = 50
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := saveBooking(t, ts, map[string]interface{}{
				"date": "2026-04-01", "start_time": 600, "end_time": 660,
				"customer_id": fmt.Sprintf("c%d", i),
				"staff_id":    fmt.Sprintf("s%d", i),
			})
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusCreated, code, "save %d", i)
	}
	assert.Len(t, srv.Snapshot().BookingList(), n)
}

func TestConcurrentConflictingSavesAdmitOne(t *testing.T) {
	srv, ts := newTestServer(t)

	// Same staff member, same hour: whichever request commits first must
	// be the base the other validates against, so exactly one wins.
	const n = 10
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := saveBooking(t, ts, map[string]interface{}{
				"date": "2026-04-01", "start_time": 600, "end_time": 660,
				"customer_id": fmt.Sprintf("c%d", i), "staff_id": "s1",
			})
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, created)
	assert.Len(t, srv.Snapshot().BookingList(), 1)
}
