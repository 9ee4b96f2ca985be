// Package tools binds account store operations to the tool server boundary.
package tools

import (
	"context"
	"fmt"

	"github.com/udahub/udahub/internal/account"
	"github.com/udahub/udahub/pkg/toolserver"
)

// AccountTools returns the account read and write operations as tools.
// Handlers pass store results and typed errors through unchanged.
func AccountTools(store account.Store) []toolserver.Tool {
	return []toolserver.Tool{
		{
			Name:        "lookup_customer",
			Description: "Look up a CultPass customer by email address.",
			Schema: toolserver.Schema{
				"email": {Type: "string", Description: "Email address of the customer", Required: true},
			},
			Handler: func(ctx context.Context, args toolserver.Args) (any, error) {
				return store.LookupCustomer(ctx, args.String("email"))
			},
		},
		{
			Name:        "get_subscription",
			Description: "Get subscription details for a customer.",
			Schema: toolserver.Schema{
				"customer_id": {Type: "string", Description: "Customer ID", Required: true},
			},
			Handler: func(ctx context.Context, args toolserver.Args) (any, error) {
				return store.GetSubscription(ctx, args.String("customer_id"))
			},
		},
		{
			Name:        "get_reservations",
			Description: "List all reservations for a customer, newest first.",
			Schema: toolserver.Schema{
				"customer_id": {Type: "string", Description: "Customer ID", Required: true},
			},
			Handler: func(ctx context.Context, args toolserver.Args) (any, error) {
				reservations, err := store.GetReservations(ctx, args.String("customer_id"))
				if err != nil {
					return nil, err
				}
				return map[string]any{"reservations": reservations}, nil
			},
		},
		{
			Name:        "cancel_reservation",
			Description: "Cancel an active reservation. Fails if the reservation is not active.",
			Schema: toolserver.Schema{
				"reservation_id": {Type: "string", Description: "Reservation ID to cancel", Required: true},
			},
			Handler: func(ctx context.Context, args toolserver.Args) (any, error) {
				return store.CancelReservation(ctx, args.String("reservation_id"))
			},
		},
		{
			Name:        "process_refund",
			Description: "Refund a cancelled reservation. The reservation must be cancelled first.",
			Schema: toolserver.Schema{
				"reservation_id": {Type: "string", Description: "Reservation ID to refund", Required: true},
				"reason":         {Type: "string", Description: "Refund reason", Default: "customer_request"},
			},
			Handler: func(ctx context.Context, args toolserver.Args) (any, error) {
				return store.ProcessRefund(ctx, args.String("reservation_id"), args.String("reason"))
			},
		},
		{
			Name:        "update_subscription",
			Description: "Pause or cancel a customer's subscription.",
			Schema: toolserver.Schema{
				"customer_id": {Type: "string", Description: "Customer ID", Required: true},
				"action":      {Type: "string", Description: "pause or cancel", Required: true, Enum: []any{account.ActionPause, account.ActionCancel}},
			},
			Handler: func(ctx context.Context, args toolserver.Args) (any, error) {
				return store.UpdateSubscription(ctx, args.String("customer_id"), args.String("action"))
			},
		},
	}
}

// RegisterAccountTools registers the account tools on a registry.
func RegisterAccountTools(registry *toolserver.Registry, store account.Store) error {
	if err := registry.Register(AccountTools(store)...); err != nil {
		return fmt.Errorf("register account tools: %w", err)
	}
	return nil
}
