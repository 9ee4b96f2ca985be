package memory

import (
	"context"
	"database/sql"
	"testing"
	"time"

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
	return store
}

func TestMessagesChronological(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		_, err := store.SaveMessage(ctx, "T1", RoleUser, c)
		require.NoError(t, err)
	}
	_, err := store.SaveMessage(ctx, "T2", RoleAgent, "other ticket")
	require.NoError(t, err)

	history, err := store.LoadConversationHistory(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, m := range history {
		assert.Equal(t, contents[i], m.Content)
		assert.Equal(t, "T1", m.TicketID)
	}
}

func TestSaveMessageRejectsInvalidRole(t *testing.T) {
	store := setupStore(t)

	_, err := store.SaveMessage(context.Background(), "T1", "robot", "hi")
	require.Error(t, err)

	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, "save_message", perr.Op)
}

func TestResolutionsMostRecentFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, summary := range []string{"oldest", "middle", "newest"} {
		err := store.SaveResolution(ctx, &Resolution{
			TicketID:   "T1",
			CustomerID: "C001",
			Type:       ResolutionAction,
			Summary:    summary,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	resolutions, err := store.LoadResolutionsForCustomer(ctx, "C001", 0)
	require.NoError(t, err)
	require.Len(t, resolutions, 3)
	assert.Equal(t, "newest", resolutions[0].Summary)
	assert.Equal(t, "oldest", resolutions[2].Summary)

	limited, err := store.LoadResolutionsForCustomer(ctx, "C001", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "newest", limited[0].Summary)
}

func TestResolutionRoundTripsArticleList(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	err := store.SaveResolution(ctx, &Resolution{
		TicketID:     "T1",
		CustomerID:   "C001",
		Type:         ResolutionArticle,
		Summary:      "pointed at the refund policy",
		ArticlesUsed: []string{"kb-002"},
		ToolsUsed:    []string{"search_knowledge"},
	})
	require.NoError(t, err)

	resolutions, err := store.LoadResolutionsForCustomer(ctx, "C001", 1)
	require.NoError(t, err)
	require.Len(t, resolutions, 1)
	assert.Equal(t, []string{"kb-002"}, resolutions[0].ArticlesUsed)
	assert.Equal(t, []string{"search_knowledge"}, resolutions[0].ToolsUsed)
}

func TestSaveResolutionRequiresIDs(t *testing.T) {
	store := setupStore(t)
	err := store.SaveResolution(context.Background(), &Resolution{Summary: "no ids"})
	assert.Error(t, err)
}

func TestPreferenceLastWriteWins(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePreference(ctx, "C001", "language", "pt-BR"))
	require.NoError(t, store.SavePreference(ctx, "C001", "contact_method", "email"))
	require.NoError(t, store.SavePreference(ctx, "C001", "language", "en-US"))

	prefs, err := store.LoadPreferences(ctx, "C001")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"language":       "en-US",
		"contact_method": "email",
	}, prefs)

	// Other customers are unaffected.
	other, err := store.LoadPreferences(ctx, "C002")
	require.NoError(t, err)
	assert.Empty(t, other)
}
