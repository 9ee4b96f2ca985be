package account

import (
	"context"
	"fmt"
	"time"
)

// Seed populates the store with demo data when the customers table is empty.
// It is safe to call on every startup.
func (s *SQLiteStore) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		return fmt.Errorf("seed check: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	stmts := []struct {
		query string
		args  []any
	}{
		{
			`INSERT INTO customers (customer_id, full_name, email, is_blocked, created_at) VALUES (?, ?, ?, ?, ?)`,
			[]any{"C001", "Ana Souza", "ana.souza@example.com", false, now.AddDate(0, -6, 0)},
		},
		{
			`INSERT INTO customers (customer_id, full_name, email, is_blocked, created_at) VALUES (?, ?, ?, ?, ?)`,
			[]any{"C002", "Bruno Lima", "bruno.lima@example.com", true, now.AddDate(0, -3, 0)},
		},
		{
			`INSERT INTO subscriptions (subscription_id, customer_id, status, tier, monthly_quota, started_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			[]any{"S001", "C001", SubscriptionActive, "premium", 4, now.AddDate(0, -6, 0), now},
		},
		{
			`INSERT INTO subscriptions (subscription_id, customer_id, status, tier, monthly_quota, started_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			[]any{"S002", "C002", SubscriptionPaused, "basic", 2, now.AddDate(0, -3, 0), now},
		},
		{
			`INSERT INTO experiences (experience_id, title) VALUES (?, ?)`,
			[]any{"E001", "Jazz Night at Blue Note"},
		},
		{
			`INSERT INTO experiences (experience_id, title) VALUES (?, ?)`,
			[]any{"E002", "Modern Art Museum Tour"},
		},
		{
			`INSERT INTO reservations (reservation_id, customer_id, experience_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"R100", "C001", "E001", ReservationActive, now.AddDate(0, 0, -7), now.AddDate(0, 0, -7)},
		},
		{
			`INSERT INTO reservations (reservation_id, customer_id, experience_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"R101", "C001", "E002", ReservationCancelled, now.AddDate(0, 0, -14), now.AddDate(0, 0, -10)},
		},
	}

	for _, st := range stmts {
		if _, err := s.db.ExecContext(ctx, st.query, st.args...); err != nil {
			return fmt.Errorf("seed insert: %w", err)
		}
	}
	return nil
}
