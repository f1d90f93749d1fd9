// Package storage persists store snapshots to SQLite. The whole state is
// small (one school's calendar), so writes replace the scheduling tables
// wholesale inside one transaction rather than diffing rows, and reads
// rebuild a complete snapshot.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"roadbook/internal/models"
	"roadbook/internal/store"
)

const dateLayout = "2006-01-02"

// DB wraps sql.DB for snapshot persistence.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			start_min INTEGER NOT NULL,
			end_min INTEGER NOT NULL,
			customer_id TEXT NOT NULL,
			staff_id TEXT,
			resource_ids TEXT,
			service_id TEXT,
			status TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			fee REAL NOT NULL DEFAULT 0,
			transaction_id TEXT,
			pickup TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS blocked_periods (
			id TEXT PRIMARY KEY,
			staff_id TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			reason TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS waiting_list (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			start_min INTEGER NOT NULL,
			end_min INTEGER NOT NULL,
			customer_id TEXT NOT NULL,
			staff_id TEXT,
			resource_ids TEXT
		)`,

		// Directory records (customers, staff, resources, services) are
		// owned by the CRUD screens; the scheduler only reads them, so
		// one generic table with a JSON payload is enough here.
		`CREATE TABLE IF NOT EXISTS directory (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (kind, id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(date)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

func marshalIDs(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalIDs(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveSnapshot replaces the persisted state with the given snapshot in a
// single transaction.
func (db *DB) SaveSnapshot(ctx context.Context, s *store.Store) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"bookings", "blocked_periods", "waiting_list", "directory"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, b := range s.BookingList() {
		resources, err := marshalIDs(b.ResourceIDs)
		if err != nil {
			return fmt.Errorf("marshal resources for %s: %w", b.ID, err)
		}
		query, args, err := sq.Insert("bookings").
			Columns("id", "date", "start_min", "end_min", "customer_id", "staff_id",
				"resource_ids", "service_id", "status", "payment_status", "fee",
				"transaction_id", "pickup").
			Values(b.ID, b.Date.Format(dateLayout), b.Start, b.End, b.CustomerID, b.StaffID,
				resources, b.ServiceID, string(b.Status), string(b.PaymentStatus), b.Fee,
				b.TransactionID, b.Pickup).
			ToSql()
		if err != nil {
			return fmt.Errorf("build booking insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert booking %s: %w", b.ID, err)
		}
	}

	for _, p := range s.BlockedPeriodList() {
		query, args, err := sq.Insert("blocked_periods").
			Columns("id", "staff_id", "start_date", "end_date", "reason").
			Values(p.ID, p.StaffID, p.Start.Format(dateLayout), p.End.Format(dateLayout), p.Reason).
			ToSql()
		if err != nil {
			return fmt.Errorf("build blocked period insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert blocked period %s: %w", p.ID, err)
		}
	}

	for _, e := range s.WaitingListEntries() {
		resources, err := marshalIDs(e.ResourceIDs)
		if err != nil {
			return fmt.Errorf("marshal resources for entry %s: %w", e.ID, err)
		}
		query, args, err := sq.Insert("waiting_list").
			Columns("id", "date", "start_min", "end_min", "customer_id", "staff_id", "resource_ids").
			Values(e.ID, e.Date.Format(dateLayout), e.Start, e.End, e.CustomerID, e.StaffID, resources).
			ToSql()
		if err != nil {
			return fmt.Errorf("build waiting entry insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert waiting entry %s: %w", e.ID, err)
		}
	}

	if err := saveDirectory(ctx, tx, s); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func saveDirectory(ctx context.Context, tx *sql.Tx, s *store.Store) error {
	insert := func(kind, id string, record interface{}) error {
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", kind, id, err)
		}
		query, args, err := sq.Insert("directory").
			Columns("kind", "id", "payload").
			Values(kind, id, string(payload)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build directory insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %s %s: %w", kind, id, err)
		}
		return nil
	}

	for id, c := range s.Customers {
		if err := insert("customer", id, c); err != nil {
			return err
		}
	}
	for id, st := range s.Staff {
		if err := insert("staff", id, st); err != nil {
			return err
		}
	}
	for id, r := range s.Resources {
		if err := insert("resource", id, r); err != nil {
			return err
		}
	}
	for id, sv := range s.Services {
		if err := insert("service", id, sv); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot rebuilds a snapshot from the persisted state.
func (db *DB) LoadSnapshot(ctx context.Context) (*store.Store, error) {
	s := store.New()

	if err := db.loadBookings(ctx, s); err != nil {
		return nil, err
	}
	if err := db.loadBlockedPeriods(ctx, s); err != nil {
		return nil, err
	}
	if err := db.loadWaitingList(ctx, s); err != nil {
		return nil, err
	}
	if err := db.loadDirectory(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) loadBookings(ctx context.Context, s *store.Store) error {
	query, args, err := sq.Select("id", "date", "start_min", "end_min", "customer_id",
		"staff_id", "resource_ids", "service_id", "status", "payment_status", "fee",
		"transaction_id", "pickup").
		From("bookings").ToSql()
	if err != nil {
		return fmt.Errorf("build bookings select: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.Booking
		var date, resources string
		if err := rows.Scan(&b.ID, &date, &b.Start, &b.End, &b.CustomerID, &b.StaffID,
			&resources, &b.ServiceID, &b.Status, &b.PaymentStatus, &b.Fee,
			&b.TransactionID, &b.Pickup); err != nil {
			return fmt.Errorf("scan booking: %w", err)
		}
		if b.Date, err = time.ParseInLocation(dateLayout, date, time.UTC); err != nil {
			return fmt.Errorf("parse booking date %q: %w", date, err)
		}
		if b.ResourceIDs, err = unmarshalIDs(resources); err != nil {
			return fmt.Errorf("parse booking resources: %w", err)
		}
		s.Bookings[b.ID] = b
	}
	return rows.Err()
}

func (db *DB) loadBlockedPeriods(ctx context.Context, s *store.Store) error {
	query, args, err := sq.Select("id", "staff_id", "start_date", "end_date", "reason").
		From("blocked_periods").ToSql()
	if err != nil {
		return fmt.Errorf("build blocked periods select: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query blocked periods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.BlockedPeriod
		var start, end string
		if err := rows.Scan(&p.ID, &p.StaffID, &start, &end, &p.Reason); err != nil {
			return fmt.Errorf("scan blocked period: %w", err)
		}
		if p.Start, err = time.ParseInLocation(dateLayout, start, time.UTC); err != nil {
			return fmt.Errorf("parse period start %q: %w", start, err)
		}
		if p.End, err = time.ParseInLocation(dateLayout, end, time.UTC); err != nil {
			return fmt.Errorf("parse period end %q: %w", end, err)
		}
		s.BlockedPeriods[p.ID] = p
	}
	return rows.Err()
}

func (db *DB) loadWaitingList(ctx context.Context, s *store.Store) error {
	query, args, err := sq.Select("id", "date", "start_min", "end_min", "customer_id",
		"staff_id", "resource_ids").
		From("waiting_list").ToSql()
	if err != nil {
		return fmt.Errorf("build waiting list select: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query waiting list: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.WaitingListEntry
		var date, resources string
		if err := rows.Scan(&e.ID, &date, &e.Start, &e.End, &e.CustomerID, &e.StaffID, &resources); err != nil {
			return fmt.Errorf("scan waiting entry: %w", err)
		}
		if e.Date, err = time.ParseInLocation(dateLayout, date, time.UTC); err != nil {
			return fmt.Errorf("parse entry date %q: %w", date, err)
		}
		if e.ResourceIDs, err = unmarshalIDs(resources); err != nil {
			return fmt.Errorf("parse entry resources: %w", err)
		}
		s.WaitingList[e.ID] = e
	}
	return rows.Err()
}

func (db *DB) loadDirectory(ctx context.Context, s *store.Store) error {
	query, args, err := sq.Select("kind", "id", "payload").From("directory").ToSql()
	if err != nil {
		return fmt.Errorf("build directory select: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query directory: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, id, payload string
		if err := rows.Scan(&kind, &id, &payload); err != nil {
			return fmt.Errorf("scan directory row: %w", err)
		}

		switch kind {
		case "customer":
			var c models.Customer
			if err := json.Unmarshal([]byte(payload), &c); err != nil {
				return fmt.Errorf("parse customer %s: %w", id, err)
			}
			s.Customers[id] = c
		case "staff":
			var st models.Staff
			if err := json.Unmarshal([]byte(payload), &st); err != nil {
				return fmt.Errorf("parse staff %s: %w", id, err)
			}
			s.Staff[id] = st
		case "resource":
			var r models.Resource
			if err := json.Unmarshal([]byte(payload), &r); err != nil {
				return fmt.Errorf("parse resource %s: %w", id, err)
			}
			s.Resources[id] = r
		case "service":
			var sv models.Service
			if err := json.Unmarshal([]byte(payload), &sv); err != nil {
				return fmt.Errorf("parse service %s: %w", id, err)
			}
			s.Services[id] = sv
		}
	}
	return rows.Err()
}
