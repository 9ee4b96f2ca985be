package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Schema creates the memory tables if they do not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS ticket_messages (
	message_id TEXT PRIMARY KEY,
	ticket_id  TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ticket_resolutions (
	resolution_id   TEXT PRIMARY KEY,
	ticket_id       TEXT NOT NULL,
	customer_id     TEXT NOT NULL,
	resolution_type TEXT NOT NULL,
	summary         TEXT NOT NULL,
	articles_used   TEXT NOT NULL DEFAULT '[]',
	tools_used      TEXT NOT NULL DEFAULT '[]',
	created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS customer_preferences (
	customer_id      TEXT NOT NULL,
	preference_key   TEXT NOT NULL,
	preference_value TEXT NOT NULL,
	updated_at       TIMESTAMP NOT NULL,
	PRIMARY KEY (customer_id, preference_key)
);

CREATE INDEX IF NOT EXISTS idx_messages_ticket ON ticket_messages(ticket_id, created_at);
CREATE INDEX IF NOT EXISTS idx_resolutions_customer ON ticket_resolutions(customer_id, created_at);
`

// SQLiteStore implements Store over a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the memory database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open memory db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply memory schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStoreFromDB wraps an existing connection, applying the schema.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("failed to apply memory schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveMessage appends a message to a ticket's history.
func (s *SQLiteStore) SaveMessage(ctx context.Context, ticketID, role, content string) (string, error) {
	if !validRole(role) {
		return "", &PersistenceError{Op: "save_message", Err: fmt.Errorf("invalid role %q", role)}
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ticket_messages (message_id, ticket_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, ticketID, role, content, time.Now().UTC())
	if err != nil {
		return "", &PersistenceError{Op: "save_message", Err: err}
	}
	return id, nil
}

// LoadConversationHistory returns a ticket's messages in chronological order.
// Insertion order breaks timestamp ties.
func (s *SQLiteStore) LoadConversationHistory(ctx context.Context, ticketID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, ticket_id, role, content, created_at
		 FROM ticket_messages WHERE ticket_id = ?
		 ORDER BY created_at ASC, rowid ASC`, ticketID)
	if err != nil {
		return nil, &PersistenceError{Op: "load_history", Err: err}
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.TicketID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, &PersistenceError{Op: "load_history", Err: err}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "load_history", Err: err}
	}
	return messages, nil
}

// SaveResolution appends a resolution record.
func (s *SQLiteStore) SaveResolution(ctx context.Context, res *Resolution) error {
	if res.TicketID == "" || res.CustomerID == "" {
		return &PersistenceError{Op: "save_resolution", Err: fmt.Errorf("ticket and customer IDs are required")}
	}

	id := res.ID
	if id == "" {
		id = uuid.NewString()
	}
	articles, err := json.Marshal(orEmpty(res.ArticlesUsed))
	if err != nil {
		return &PersistenceError{Op: "save_resolution", Err: err}
	}
	tools, err := json.Marshal(orEmpty(res.ToolsUsed))
	if err != nil {
		return &PersistenceError{Op: "save_resolution", Err: err}
	}

	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ticket_resolutions (resolution_id, ticket_id, customer_id, resolution_type, summary, articles_used, tools_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, res.TicketID, res.CustomerID, res.Type, res.Summary, string(articles), string(tools), createdAt)
	if err != nil {
		return &PersistenceError{Op: "save_resolution", Err: err}
	}

	log.Printf("resolution saved ticket_id=%s customer_id=%s type=%s", res.TicketID, res.CustomerID, res.Type)
	return nil
}

// LoadResolutionsForCustomer returns past resolutions, most recent first.
func (s *SQLiteStore) LoadResolutionsForCustomer(ctx context.Context, customerID string, limit int) ([]Resolution, error) {
	query := `SELECT resolution_id, ticket_id, customer_id, resolution_type, summary, articles_used, tools_used, created_at
	          FROM ticket_resolutions WHERE customer_id = ?
	          ORDER BY created_at DESC, rowid DESC`
	args := []any{customerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &PersistenceError{Op: "load_resolutions", Err: err}
	}
	defer rows.Close()

	var resolutions []Resolution
	for rows.Next() {
		var r Resolution
		var articles, tools string
		if err := rows.Scan(&r.ID, &r.TicketID, &r.CustomerID, &r.Type, &r.Summary,
			&articles, &tools, &r.CreatedAt); err != nil {
			return nil, &PersistenceError{Op: "load_resolutions", Err: err}
		}
		if err := json.Unmarshal([]byte(articles), &r.ArticlesUsed); err != nil {
			return nil, &PersistenceError{Op: "load_resolutions", Err: err}
		}
		if err := json.Unmarshal([]byte(tools), &r.ToolsUsed); err != nil {
			return nil, &PersistenceError{Op: "load_resolutions", Err: err}
		}
		resolutions = append(resolutions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "load_resolutions", Err: err}
	}
	return resolutions, nil
}

// SavePreference upserts a preference; the newest write wins.
func (s *SQLiteStore) SavePreference(ctx context.Context, customerID, key, value string) error {
	if customerID == "" || key == "" {
		return &PersistenceError{Op: "save_preference", Err: fmt.Errorf("customer ID and key are required")}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customer_preferences (customer_id, preference_key, preference_value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (customer_id, preference_key)
		 DO UPDATE SET preference_value = excluded.preference_value, updated_at = excluded.updated_at`,
		customerID, key, value, time.Now().UTC())
	if err != nil {
		return &PersistenceError{Op: "save_preference", Err: err}
	}
	return nil
}

// LoadPreferences returns the full current preference map for a customer.
func (s *SQLiteStore) LoadPreferences(ctx context.Context, customerID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT preference_key, preference_value FROM customer_preferences WHERE customer_id = ?`,
		customerID)
	if err != nil {
		return nil, &PersistenceError{Op: "load_preferences", Err: err}
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, &PersistenceError{Op: "load_preferences", Err: err}
		}
		prefs[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "load_preferences", Err: err}
	}
	return prefs, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
