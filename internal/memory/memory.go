// Package memory persists conversation history, ticket resolutions and
// customer preferences across sessions, and holds per-session checkpoints.
package memory

import (
	"context"
	"fmt"
	"time"
)

// Message roles.
const (
	RoleUser   = "user"
	RoleAgent  = "agent"
	RoleSystem = "system"
)

// Resolution types.
const (
	ResolutionArticle    = "kb_article"
	ResolutionAction     = "action"
	ResolutionEscalation = "escalation"
)

// Message is one utterance in a ticket's conversation.
type Message struct {
	ID        string    `json:"message_id"`
	TicketID  string    `json:"ticket_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Resolution records how a ticket was closed. Append-only.
type Resolution struct {
	ID           string    `json:"resolution_id"`
	TicketID     string    `json:"ticket_id"`
	CustomerID   string    `json:"customer_id"`
	Type         string    `json:"resolution_type"`
	Summary      string    `json:"summary"`
	ArticlesUsed []string  `json:"articles_used,omitempty"`
	ToolsUsed    []string  `json:"tools_used,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Preference is one customer preference entry. Upsert by (customer, key).
type Preference struct {
	CustomerID string    `json:"customer_id"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PersistenceError wraps a failed memory write or read. Turn processing
// logs it and carries on; memory is best-effort relative to the reply.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("memory persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store is the long-term memory boundary.
type Store interface {
	// SaveMessage appends a message to a ticket's history and returns its ID.
	SaveMessage(ctx context.Context, ticketID, role, content string) (string, error)

	// LoadConversationHistory returns a ticket's messages in chronological order.
	LoadConversationHistory(ctx context.Context, ticketID string) ([]Message, error)

	// SaveResolution appends a resolution record.
	SaveResolution(ctx context.Context, res *Resolution) error

	// LoadResolutionsForCustomer returns past resolutions, most recent first.
	// limit <= 0 means no limit.
	LoadResolutionsForCustomer(ctx context.Context, customerID string, limit int) ([]Resolution, error)

	// SavePreference upserts a preference; the newest write wins.
	SavePreference(ctx context.Context, customerID, key, value string) error

	// LoadPreferences returns the full current preference map for a customer.
	LoadPreferences(ctx context.Context, customerID string) (map[string]string, error)

	Close() error
}

func validRole(role string) bool {
	switch role {
	case RoleUser, RoleAgent, RoleSystem:
		return true
	}
	return false
}
