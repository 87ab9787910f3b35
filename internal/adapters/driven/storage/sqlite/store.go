package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/guru-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// DatabaseFile is the file name of the transcript database.
const DatabaseFile = "transcripts.db"

// Store is a SQLite-backed TranscriptStore.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.TranscriptStore = (*Store)(nil)

// NewStore opens (or creates) the transcript database in dataDir.
// If dataDir is empty, defaults to ~/.guru/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".guru", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every NNN_name.up.sql newer than the recorded version,
// each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveSession creates or updates a session record. The stored summary is
// only replaced when the record carries one.
func (s *Store) SaveSession(ctx context.Context, session domain.SessionRecord) error {
	if session.ID == "" {
		return fmt.Errorf("%w: session ID is required", domain.ErrInvalidInput)
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, corpus_directory, started_at, ended_at, summary)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			corpus_directory = excluded.corpus_directory,
			ended_at = excluded.ended_at,
			summary = CASE WHEN excluded.summary = '' THEN sessions.summary ELSE excluded.summary END
	`, session.ID, session.CorpusDirectory, session.StartedAt.UTC(),
		nullTime(session.EndedAt), string(session.Summary))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// AppendTurn records one turn. Returns domain.ErrNotFound for an unknown session.
func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn domain.ConversationTurn) error {
	if err := s.requireSession(ctx, sessionID); err != nil {
		return err
	}
	askedAt := turn.AskedAt
	if askedAt.IsZero() {
		askedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (session_id, seq, question, answer, asked_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, turn.Seq, turn.Question, turn.Answer, askedAt.UTC())
	if err != nil {
		return fmt.Errorf("appending turn %d: %w", turn.Seq, err)
	}
	return nil
}

// SaveSummary replaces the stored summary of a session.
func (s *Store) SaveSummary(ctx context.Context, sessionID string, summary domain.MemorySummary) error {
	res, err := s.db.ExecContext(ctx, "UPDATE sessions SET summary = ? WHERE id = ?", string(summary), sessionID)
	if err != nil {
		return fmt.Errorf("saving summary: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return nil
}

// ListSessions returns sessions, most recent first. A non-positive limit returns all.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, corpus_directory, started_at, ended_at, summary
		FROM sessions ORDER BY started_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.SessionRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			rec     domain.SessionRecord
			endedAt sql.NullTime
			summary string
		)
		if err := rows.Scan(&rec.ID, &rec.CorpusDirectory, &rec.StartedAt, &endedAt, &summary); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if endedAt.Valid {
			rec.EndedAt = endedAt.Time
		}
		rec.Summary = domain.MemorySummary(summary)
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// Turns returns the turns of a session ordered by sequence number.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	if err := s.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, question, answer, asked_at FROM turns
		WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	turns := []domain.ConversationTurn{}
	for rows.Next() {
		var turn domain.ConversationTurn
		if err := rows.Scan(&turn.Seq, &turn.Question, &turn.Answer, &turn.AskedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

func (s *Store) requireSession(ctx context.Context, sessionID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("looking up session: %w", err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
