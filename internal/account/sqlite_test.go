package account

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStoreFromDB(db)
	require.NoError(t, err)
	require.NoError(t, store.Seed(context.Background()))
	return store
}

func TestLookupCustomer(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	c, err := store.LookupCustomer(ctx, "ana.souza@example.com")
	require.NoError(t, err)
	assert.Equal(t, "C001", c.ID)
	assert.Equal(t, "Ana Souza", c.FullName)
	assert.False(t, c.Blocked)

	blocked, err := store.LookupCustomer(ctx, "bruno.lima@example.com")
	require.NoError(t, err)
	assert.True(t, blocked.Blocked)

	_, err = store.LookupCustomer(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSubscription(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sub, err := store.GetSubscription(ctx, "C001")
	require.NoError(t, err)
	assert.Equal(t, SubscriptionActive, sub.Status)
	assert.Equal(t, "premium", sub.Tier)
	assert.Equal(t, 4, sub.MonthlyQuota)
	assert.Nil(t, sub.EndedAt)

	_, err = store.GetSubscription(ctx, "C999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReservations(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	reservations, err := store.GetReservations(ctx, "C001")
	require.NoError(t, err)
	require.Len(t, reservations, 2)

	// Newest first.
	assert.Equal(t, "R100", reservations[0].ID)
	assert.Equal(t, "Jazz Night at Blue Note", reservations[0].ExperienceTitle)
	assert.Equal(t, ReservationActive, reservations[0].Status)
	assert.Equal(t, ReservationCancelled, reservations[1].Status)

	empty, err := store.GetReservations(ctx, "C002")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCancelReservation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	res, err := store.CancelReservation(ctx, "R100")
	require.NoError(t, err)
	assert.Equal(t, ReservationCancelled, res.Status)

	// Cancelling again must fail without a second side effect.
	_, err = store.CancelReservation(ctx, "R100")
	assert.ErrorIs(t, err, ErrInvalidState)

	got, err := store.getReservation(ctx, "R100")
	require.NoError(t, err)
	assert.Equal(t, ReservationCancelled, got.Status)

	_, err = store.CancelReservation(ctx, "R999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProcessRefund(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// Active reservation cannot be refunded directly.
	_, err := store.ProcessRefund(ctx, "R100", "")
	assert.ErrorIs(t, err, ErrInvalidState)

	// R101 is seeded cancelled.
	refund, err := store.ProcessRefund(ctx, "R101", "")
	require.NoError(t, err)
	assert.Len(t, refund.RefundID, 8)
	assert.Equal(t, "R101", refund.ReservationID)
	assert.Equal(t, "customer_request", refund.Reason)

	// Refunding twice must fail.
	_, err = store.ProcessRefund(ctx, "R101", "duplicate")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = store.ProcessRefund(ctx, "R999", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelThenRefund(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CancelReservation(ctx, "R100")
	require.NoError(t, err)

	refund, err := store.ProcessRefund(ctx, "R100", "changed plans")
	require.NoError(t, err)
	assert.Equal(t, "changed plans", refund.Reason)

	got, err := store.getReservation(ctx, "R100")
	require.NoError(t, err)
	assert.Equal(t, ReservationRefunded, got.Status)
}

func TestUpdateSubscription(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		customerID string
		action     string
		wantStatus string
		wantErr    error
	}{
		{name: "invalid action", customerID: "C001", action: "upgrade", wantErr: ErrInvalidState},
		{name: "unknown customer", customerID: "C999", action: ActionPause, wantErr: ErrNotFound},
		{name: "already paused", customerID: "C002", action: ActionPause, wantErr: ErrInvalidState},
		{name: "pause active", customerID: "C001", action: ActionPause, wantStatus: SubscriptionPaused},
		{name: "cancel paused", customerID: "C001", action: ActionCancel, wantStatus: SubscriptionCancelled},
		{name: "cancel cancelled", customerID: "C001", action: ActionCancel, wantErr: ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := store.UpdateSubscription(ctx, tt.customerID, tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, sub.Status)
			if tt.wantStatus == SubscriptionCancelled {
				assert.NotNil(t, sub.EndedAt)
			}
		})
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, store.Seed(context.Background()))

	reservations, err := store.GetReservations(context.Background(), "C001")
	require.NoError(t, err)
	assert.Len(t, reservations, 2)
}
