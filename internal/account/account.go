// Package account adapts the CultPass account database for the support
// router. Reads are side-effect-free; writes validate preconditions in a
// transaction and apply exactly one state transition.
package account

import (
	"context"
	"errors"
	"time"
)

// Reservation statuses.
const (
	ReservationActive    = "active"
	ReservationCancelled = "cancelled"
	ReservationRefunded  = "refunded"
)

// Subscription statuses.
const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionCancelled = "cancelled"
)

// Subscription update actions.
const (
	ActionPause  = "pause"
	ActionCancel = "cancel"
)

var (
	// ErrNotFound means the referenced customer, subscription or
	// reservation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the requested transition is not allowed from
	// the record's current state.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrConflict means a concurrent writer changed the record between the
	// precondition check and the update.
	ErrConflict = errors.New("concurrent modification")
)

// Customer is a CultPass account holder.
type Customer struct {
	ID        string    `json:"customer_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Blocked   bool      `json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription is a customer's plan.
type Subscription struct {
	ID           string     `json:"subscription_id"`
	CustomerID   string     `json:"customer_id"`
	Status       string     `json:"status"`
	Tier         string     `json:"tier"`
	MonthlyQuota int        `json:"monthly_quota"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Reservation is a booked cultural experience.
type Reservation struct {
	ID              string    `json:"reservation_id"`
	CustomerID      string    `json:"customer_id"`
	ExperienceID    string    `json:"experience_id"`
	ExperienceTitle string    `json:"experience_title"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Refund confirms a processed refund.
type Refund struct {
	RefundID      string `json:"refund_id"`
	ReservationID string `json:"reservation_id"`
	Reason        string `json:"reason"`
}

// Store is the account database boundary.
type Store interface {
	// LookupCustomer finds a customer by email.
	LookupCustomer(ctx context.Context, email string) (*Customer, error)

	// GetSubscription returns the customer's subscription.
	GetSubscription(ctx context.Context, customerID string) (*Subscription, error)

	// GetReservations returns all reservations for a customer, newest first.
	GetReservations(ctx context.Context, customerID string) ([]Reservation, error)

	// CancelReservation moves an active reservation to cancelled.
	CancelReservation(ctx context.Context, reservationID string) (*Reservation, error)

	// ProcessRefund refunds a cancelled reservation and returns a refund ID.
	ProcessRefund(ctx context.Context, reservationID, reason string) (*Refund, error)

	// UpdateSubscription pauses or cancels a customer's subscription.
	UpdateSubscription(ctx context.Context, customerID, action string) (*Subscription, error)

	Close() error
}
