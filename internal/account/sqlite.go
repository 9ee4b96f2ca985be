package account

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Schema creates the account tables if they do not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS customers (
	customer_id TEXT PRIMARY KEY,
	full_name   TEXT NOT NULL,
	email       TEXT NOT NULL UNIQUE,
	is_blocked  INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS subscriptions (
	subscription_id TEXT PRIMARY KEY,
	customer_id     TEXT NOT NULL REFERENCES customers(customer_id),
	status          TEXT NOT NULL,
	tier            TEXT NOT NULL,
	monthly_quota   INTEGER NOT NULL,
	started_at      TIMESTAMP NOT NULL,
	ended_at        TIMESTAMP,
	updated_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS experiences (
	experience_id TEXT PRIMARY KEY,
	title         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reservations (
	reservation_id TEXT PRIMARY KEY,
	customer_id    TEXT NOT NULL REFERENCES customers(customer_id),
	experience_id  TEXT NOT NULL REFERENCES experiences(experience_id),
	status         TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subscriptions_customer ON subscriptions(customer_id);
CREATE INDEX IF NOT EXISTS idx_reservations_customer ON reservations(customer_id);
`

// SQLiteStore implements Store over a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the account database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open account db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply account schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStoreFromDB wraps an existing connection, applying the schema.
// Used by tests with a :memory: database.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("failed to apply account schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LookupCustomer finds a customer by email.
func (s *SQLiteStore) LookupCustomer(ctx context.Context, email string) (*Customer, error) {
	var c Customer
	err := s.db.QueryRowContext(ctx,
		`SELECT customer_id, full_name, email, is_blocked, created_at
		 FROM customers WHERE email = ?`, email,
	).Scan(&c.ID, &c.FullName, &c.Email, &c.Blocked, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: customer with email %s", ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	return &c, nil
}

// GetSubscription returns the customer's subscription.
func (s *SQLiteStore) GetSubscription(ctx context.Context, customerID string) (*Subscription, error) {
	sub, err := scanSubscription(s.db.QueryRowContext(ctx,
		`SELECT subscription_id, customer_id, status, tier, monthly_quota, started_at, ended_at, updated_at
		 FROM subscriptions WHERE customer_id = ?`, customerID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: subscription for customer %s", ErrNotFound, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// GetReservations returns all reservations for a customer, newest first.
func (s *SQLiteStore) GetReservations(ctx context.Context, customerID string) ([]Reservation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.reservation_id, r.customer_id, r.experience_id, COALESCE(e.title, 'Unknown'),
		        r.status, r.created_at, r.updated_at
		 FROM reservations r
		 LEFT JOIN experiences e ON e.experience_id = r.experience_id
		 WHERE r.customer_id = ?
		 ORDER BY r.created_at DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("get reservations: %w", err)
	}
	defer rows.Close()

	var reservations []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.ExperienceID, &r.ExperienceTitle,
			&r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

// CancelReservation moves an active reservation to cancelled. The status
// precondition is re-checked by the UPDATE itself; zero rows affected after a
// successful read means another writer got there first.
func (s *SQLiteStore) CancelReservation(ctx context.Context, reservationID string) (*Reservation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cancel: %w", err)
	}
	defer tx.Rollback()

	status, err := reservationStatus(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if status != ReservationActive {
		return nil, fmt.Errorf("%w: reservation %s is %s, only active reservations can be cancelled",
			ErrInvalidState, reservationID, status)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE reservation_id = ? AND status = ?`,
		ReservationCancelled, now, reservationID, ReservationActive)
	if err != nil {
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: reservation %s", ErrConflict, reservationID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel: %w", err)
	}

	log.Printf("reservation cancelled reservation_id=%s", reservationID)
	return s.getReservation(ctx, reservationID)
}

// ProcessRefund refunds a cancelled reservation.
func (s *SQLiteStore) ProcessRefund(ctx context.Context, reservationID, reason string) (*Refund, error) {
	if reason == "" {
		reason = "customer_request"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin refund: %w", err)
	}
	defer tx.Rollback()

	status, err := reservationStatus(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if status != ReservationCancelled {
		return nil, fmt.Errorf("%w: reservation %s must be cancelled before refund, current status is %s",
			ErrInvalidState, reservationID, status)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE reservation_id = ? AND status = ?`,
		ReservationRefunded, now, reservationID, ReservationCancelled)
	if err != nil {
		return nil, fmt.Errorf("process refund: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: reservation %s", ErrConflict, reservationID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit refund: %w", err)
	}

	refundID := uuid.NewString()[:8]
	log.Printf("refund processed reservation_id=%s refund_id=%s reason=%s", reservationID, refundID, reason)
	return &Refund{RefundID: refundID, ReservationID: reservationID, Reason: reason}, nil
}

// UpdateSubscription pauses or cancels a customer's subscription.
func (s *SQLiteStore) UpdateSubscription(ctx context.Context, customerID, action string) (*Subscription, error) {
	if action != ActionPause && action != ActionCancel {
		return nil, fmt.Errorf("%w: unknown subscription action %q, must be pause or cancel",
			ErrInvalidState, action)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin subscription update: %w", err)
	}
	defer tx.Rollback()

	sub, err := scanSubscription(tx.QueryRowContext(ctx,
		`SELECT subscription_id, customer_id, status, tier, monthly_quota, started_at, ended_at, updated_at
		 FROM subscriptions WHERE customer_id = ?`, customerID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: subscription for customer %s", ErrNotFound, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("read subscription: %w", err)
	}

	target := SubscriptionPaused
	if action == ActionCancel {
		target = SubscriptionCancelled
	}
	if sub.Status == target {
		return nil, fmt.Errorf("%w: subscription is already %s", ErrInvalidState, target)
	}

	now := time.Now().UTC()
	var res sql.Result
	if action == ActionCancel {
		res, err = tx.ExecContext(ctx,
			`UPDATE subscriptions SET status = ?, ended_at = ?, updated_at = ?
			 WHERE subscription_id = ? AND status = ?`,
			target, now, now, sub.ID, sub.Status)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE subscriptions SET status = ?, updated_at = ?
			 WHERE subscription_id = ? AND status = ?`,
			target, now, sub.ID, sub.Status)
	}
	if err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: subscription %s", ErrConflict, sub.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit subscription update: %w", err)
	}

	log.Printf("subscription updated customer_id=%s action=%s new_status=%s", customerID, action, target)
	return s.GetSubscription(ctx, customerID)
}

func (s *SQLiteStore) getReservation(ctx context.Context, reservationID string) (*Reservation, error) {
	var r Reservation
	err := s.db.QueryRowContext(ctx,
		`SELECT r.reservation_id, r.customer_id, r.experience_id, COALESCE(e.title, 'Unknown'),
		        r.status, r.created_at, r.updated_at
		 FROM reservations r
		 LEFT JOIN experiences e ON e.experience_id = r.experience_id
		 WHERE r.reservation_id = ?`, reservationID,
	).Scan(&r.ID, &r.CustomerID, &r.ExperienceID, &r.ExperienceTitle,
		&r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, reservationID)
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*Subscription, error) {
	var sub Subscription
	var endedAt sql.NullTime
	err := row.Scan(&sub.ID, &sub.CustomerID, &sub.Status, &sub.Tier,
		&sub.MonthlyQuota, &sub.StartedAt, &endedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		sub.EndedAt = &endedAt.Time
	}
	return &sub, nil
}

func reservationStatus(ctx context.Context, tx *sql.Tx, reservationID string) (string, error) {
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM reservations WHERE reservation_id = ?`, reservationID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: reservation %s", ErrNotFound, reservationID)
	}
	if err != nil {
		return "", fmt.Errorf("read reservation: %w", err)
	}
	return status, nil
}
