package tools

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/udahub/udahub/internal/memory"
	"github.com/udahub/udahub/pkg/toolserver"
)

func setupMemoryRegistry(t *testing.T) (*toolserver.Registry, *memory.SQLiteStore) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := memory.NewSQLiteStoreFromDB(db)
	require.NoError(t, err)

	registry := toolserver.NewRegistry()
	require.NoError(t, RegisterMemoryTools(registry, store))
	return registry, store
}

func TestAllMemoryToolsRegistered(t *testing.T) {
	registry, _ := setupMemoryRegistry(t)

	for _, name := range []string{
		"get_customer_context", "record_customer_preference", "record_resolution",
	} {
		assert.True(t, registry.Has(name), "missing tool %s", name)
	}
}

func TestGetCustomerContextTool(t *testing.T) {
	registry, store := setupMemoryRegistry(t)
	tool, err := registry.Get("get_customer_context")
	require.NoError(t, err)
	ctx := context.Background()

	// No history yet.
	result, err := tool.Handler(ctx, toolserver.Args{"customer_id": "C001"})
	require.NoError(t, err)
	body, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, body, "message")

	require.NoError(t, store.SaveResolution(ctx, &memory.Resolution{
		TicketID:   "T1",
		CustomerID: "C001",
		Type:       memory.ResolutionAction,
		Summary:    "cancelled reservation R100",
	}))
	require.NoError(t, store.SavePreference(ctx, "C001", "language", "português"))

	result, err = tool.Handler(ctx, toolserver.Args{"customer_id": "C001"})
	require.NoError(t, err)
	body, ok = result.(map[string]any)
	require.True(t, ok)

	resolutions, ok := body["past_resolutions"].([]memory.Resolution)
	require.True(t, ok)
	require.Len(t, resolutions, 1)
	assert.Equal(t, "cancelled reservation R100", resolutions[0].Summary)

	preferences, ok := body["preferences"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "português", preferences["language"])
}

func TestRecordCustomerPreferenceTool(t *testing.T) {
	registry, store := setupMemoryRegistry(t)
	tool, err := registry.Get("record_customer_preference")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = tool.Handler(ctx, toolserver.Args{
		"customer_id": "C001", "key": "contact_method", "value": "email",
	})
	require.NoError(t, err)

	prefs, err := store.LoadPreferences(ctx, "C001")
	require.NoError(t, err)
	assert.Equal(t, "email", prefs["contact_method"])
}

func TestRecordResolutionTool(t *testing.T) {
	registry, store := setupMemoryRegistry(t)
	tool, err := registry.Get("record_resolution")
	require.NoError(t, err)
	ctx := context.Background()

	// The schema pins resolution types to the known set.
	err = tool.Schema.ValidateArgs(toolserver.Args{
		"ticket_id": "T1", "customer_id": "C001", "summary": "s", "type": "guesswork",
	})
	assert.Error(t, err)

	_, err = tool.Handler(ctx, toolserver.Args{
		"ticket_id":   "T1",
		"customer_id": "C001",
		"summary":     "sent the refund policy article",
		"type":        memory.ResolutionArticle,
	})
	require.NoError(t, err)

	resolutions, err := store.LoadResolutionsForCustomer(ctx, "C001", 5)
	require.NoError(t, err)
	require.Len(t, resolutions, 1)
	assert.Equal(t, memory.ResolutionArticle, resolutions[0].Type)
}
