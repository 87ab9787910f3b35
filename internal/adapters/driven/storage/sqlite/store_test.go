package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func saveSession(t *testing.T, store *Store, id string, started time.Time) {
	t.Helper()
	err := store.SaveSession(context.Background(), domain.SessionRecord{
		ID:              id,
		CorpusDirectory: "data",
		StartedAt:       started,
	})
	require.NoError(t, err)
}

// ==================== Store Creation Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(dir, DatabaseFile)
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "path")

	store, err := NewStore(nested)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nested)
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	for _, table := range []string{"sessions", "turns"} {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	saveSession(t, store, "s1", time.Now())
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	sessions, err := store.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)
}

func TestMigrate_SkipsAppliedAndUnnumbered(t *testing.T) {
	store := setupTestStore(t)

	fsys := fstest.MapFS{
		"001_transcripts.up.sql": {Data: []byte("this is not sql")},
		"002_notes.up.sql":       {Data: []byte("CREATE TABLE notes (id TEXT)")},
		"002_notes.down.sql":     {Data: []byte("DROP TABLE notes")},
		"readme.up.sql":          {Data: []byte("also not sql")},
	}
	require.NoError(t, store.migrate(fsys))

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)
}

func TestMigrate_FailedScriptIsNotRecorded(t *testing.T) {
	store := setupTestStore(t)

	err := store.migrate(fstest.MapFS{"005_broken.up.sql": {Data: []byte("CREATE TABLE")}})
	require.Error(t, err)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store := setupTestStore(t)

	var fkEnabled int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled))
	assert.Equal(t, 1, fkEnabled)
}

func TestStore_Close(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
}

// ==================== Transcript Tests ====================

func TestSaveSession_RequiresID(t *testing.T) {
	store := setupTestStore(t)

	err := store.SaveSession(context.Background(), domain.SessionRecord{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaveSession_Update(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	saveSession(t, store, "s1", started)
	require.NoError(t, store.SaveSummary(ctx, "s1", "Customer asked about EcoWipe."))

	ended := started.Add(5 * time.Minute)
	err := store.SaveSession(ctx, domain.SessionRecord{
		ID:              "s1",
		CorpusDirectory: "data",
		StartedAt:       started,
		EndedAt:         ended,
	})
	require.NoError(t, err)

	sessions, err := store.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].StartedAt.Equal(started))
	assert.True(t, sessions[0].EndedAt.Equal(ended))
	assert.Equal(t, domain.MemorySummary("Customer asked about EcoWipe."), sessions[0].Summary,
		"an empty summary must not erase the stored one")
}

func TestAppendTurn_AndTurns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	saveSession(t, store, "s1", time.Now())

	asked := time.Date(2024, 3, 1, 10, 1, 0, 0, time.UTC)
	require.NoError(t, store.AppendTurn(ctx, "s1", domain.ConversationTurn{
		Seq: 1, Question: "What is EcoWipe?", Answer: "A biodegradable paper towel.", AskedAt: asked,
	}))
	require.NoError(t, store.AppendTurn(ctx, "s1", domain.ConversationTurn{
		Seq: 2, Question: "Price?", AskedAt: asked.Add(time.Minute),
	}))

	turns, err := store.Turns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, 1, turns[0].Seq)
	assert.Equal(t, "What is EcoWipe?", turns[0].Question)
	assert.Equal(t, "A biodegradable paper towel.", turns[0].Answer)
	assert.True(t, turns[0].AskedAt.Equal(asked))
	assert.Equal(t, 2, turns[1].Seq)
	assert.Empty(t, turns[1].Answer)
}

func TestAppendTurn_DuplicateSeq(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	saveSession(t, store, "s1", time.Now())

	turn := domain.ConversationTurn{Seq: 1, Question: "q"}
	require.NoError(t, store.AppendTurn(ctx, "s1", turn))
	assert.Error(t, store.AppendTurn(ctx, "s1", turn))
}

func TestUnknownSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.AppendTurn(ctx, "missing", domain.ConversationTurn{Seq: 1, Question: "q"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.Turns(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.SaveSummary(ctx, "missing", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTurns_EmptySession(t *testing.T) {
	store := setupTestStore(t)
	saveSession(t, store, "s1", time.Now())

	turns, err := store.Turns(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestListSessions_OrderAndLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	saveSession(t, store, "old", base)
	saveSession(t, store, "new", base.Add(2*time.Hour))
	saveSession(t, store, "mid", base.Add(time.Hour))

	all, err := store.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.True(t, all[0].EndedAt.IsZero())

	limited, err := store.ListSessions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestTurns_DeletedWithSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	saveSession(t, store, "s1", time.Now())
	require.NoError(t, store.AppendTurn(ctx, "s1", domain.ConversationTurn{Seq: 1, Question: "q"}))

	_, err := store.db.Exec("DELETE FROM sessions WHERE id = ?", "s1")
	require.NoError(t, err)

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM turns").Scan(&count))
	assert.Zero(t, count)
}
