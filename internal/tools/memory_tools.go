package tools

import (
	"context"
	"fmt"

	"github.com/udahub/udahub/internal/memory"
	"github.com/udahub/udahub/pkg/toolserver"
)

// contextResolutionLimit caps how many past resolutions a context load returns.
const contextResolutionLimit = 5

// MemoryTools returns the long-term memory operations as tools: loading a
// customer's cross-session context, recording stated preferences and
// recording ticket resolutions.
func MemoryTools(store memory.Store) []toolserver.Tool {
	return []toolserver.Tool{
		{
			Name:        "get_customer_context",
			Description: "Load a customer's past resolutions and preferences for personalized support.",
			Schema: toolserver.Schema{
				"customer_id": {Type: "string", Description: "Customer ID", Required: true},
			},
			Handler: func(ctx context.Context, args toolserver.Args) (any, error) {
				customerID := args.String("customer_id")

				resolutions, err := store.LoadResolutionsForCustomer(ctx, customerID, contextResolutionLimit)
				if err != nil {
					return nil, err
				}
				preferences, err := store.LoadPreferences(ctx, customerID)
				if err != nil {
					return nil, err
				}

				if len(resolutions) == 0 && len(preferences) == 0 {
					return map[string]any{
						"message": "No prior history found for this customer.",
					}, nil
				}
				return map[string]any{
					"past_resolutions": resolutions,
					"preferences":      preferences,
				}, nil
			},
		},
		{
			Name:        "record_customer_preference",
			Description: "Save a preference the customer states, such as language or contact method.",
			Schema: toolserver.Schema{
				"customer_id": {Type: "string", Description: "Customer ID", Required: true},
				"key":         {Type: "string", Description: "Preference key, e.g. language", Required: true},
				"value":       {Type: "string", Description: "Preference value", Required: true},
			},
			Handler: func(ctx context.Context, args toolserver.Args) (any, error) {
				customerID := args.String("customer_id")
				key := args.String("key")
				if err := store.SavePreference(ctx, customerID, key, args.String("value")); err != nil {
					return nil, err
				}
				return map[string]any{
					"status":  "success",
					"message": fmt.Sprintf("Saved preference %q for customer %s", key, customerID),
				}, nil
			},
		},
		{
			Name:        "record_resolution",
			Description: "Record how a ticket was resolved for future reference.",
			Schema: toolserver.Schema{
				"ticket_id":   {Type: "string", Description: "Resolved ticket ID", Required: true},
				"customer_id": {Type: "string", Description: "Customer ID", Required: true},
				"summary":     {Type: "string", Description: "How the issue was resolved", Required: true},
				"type": {Type: "string", Description: "Resolution type", Required: true,
					Enum: []any{memory.ResolutionArticle, memory.ResolutionAction, memory.ResolutionEscalation}},
			},
			Handler: func(ctx context.Context, args toolserver.Args) (any, error) {
				ticketID := args.String("ticket_id")
				err := store.SaveResolution(ctx, &memory.Resolution{
					TicketID:   ticketID,
					CustomerID: args.String("customer_id"),
					Type:       args.String("type"),
					Summary:    args.String("summary"),
				})
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"status":  "success",
					"message": fmt.Sprintf("Resolution recorded for ticket %s", ticketID),
				}, nil
			},
		},
	}
}

// RegisterMemoryTools registers the memory tools on a registry.
func RegisterMemoryTools(registry *toolserver.Registry, store memory.Store) error {
	if err := registry.Register(MemoryTools(store)...); err != nil {
		return fmt.Errorf("register memory tools: %w", err)
	}
	return nil
}
