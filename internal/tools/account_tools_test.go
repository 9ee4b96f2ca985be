package tools

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/udahub/udahub/internal/account"
	"github.com/udahub/udahub/pkg/toolserver"
)

func setupRegistry(t *testing.T) *toolserver.Registry {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := account.NewSQLiteStoreFromDB(db)
	require.NoError(t, err)
	require.NoError(t, store.Seed(context.Background()))

	registry := toolserver.NewRegistry()
	require.NoError(t, RegisterAccountTools(registry, store))
	return registry
}

func TestAllAccountToolsRegistered(t *testing.T) {
	registry := setupRegistry(t)

	for _, name := range []string{
		"lookup_customer", "get_subscription", "get_reservations",
		"cancel_reservation", "process_refund", "update_subscription",
	} {
		assert.True(t, registry.Has(name), "missing tool %s", name)
	}
}

func TestLookupCustomerTool(t *testing.T) {
	registry := setupRegistry(t)
	tool, err := registry.Get("lookup_customer")
	require.NoError(t, err)

	result, err := tool.Handler(context.Background(), toolserver.Args{"email": "ana.souza@example.com"})
	require.NoError(t, err)

	customer, ok := result.(*account.Customer)
	require.True(t, ok)
	assert.Equal(t, "C001", customer.ID)
}

func TestCancelReservationToolPassesTypedErrors(t *testing.T) {
	registry := setupRegistry(t)
	tool, err := registry.Get("cancel_reservation")
	require.NoError(t, err)

	ctx := context.Background()
	_, err = tool.Handler(ctx, toolserver.Args{"reservation_id": "R100"})
	require.NoError(t, err)

	_, err = tool.Handler(ctx, toolserver.Args{"reservation_id": "R100"})
	assert.ErrorIs(t, err, account.ErrInvalidState)

	_, err = tool.Handler(ctx, toolserver.Args{"reservation_id": "R999"})
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestUpdateSubscriptionToolSchema(t *testing.T) {
	registry := setupRegistry(t)
	tool, err := registry.Get("update_subscription")
	require.NoError(t, err)

	// The schema rejects unknown actions before the handler runs.
	err = tool.Schema.ValidateArgs(toolserver.Args{"customer_id": "C001", "action": "upgrade"})
	assert.Error(t, err)

	err = tool.Schema.ValidateArgs(toolserver.Args{"customer_id": "C001", "action": "pause"})
	assert.NoError(t, err)
}
