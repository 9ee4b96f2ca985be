package router

import (
	"regexp"
	"strings"
)

// ActionKind is one supported write operation.
type ActionKind string

const (
	ActionCancelReservation  ActionKind = "cancel_reservation"
	ActionProcessRefund      ActionKind = "process_refund"
	ActionPauseSubscription  ActionKind = "pause_subscription"
	ActionCancelSubscription ActionKind = "cancel_subscription"
	ActionUnknown            ActionKind = "unknown"
)

// ActionRequest is a parsed write request. ReservationID may be empty when
// the message names none; the engine then resolves it from account context.
type ActionRequest struct {
	Kind          ActionKind
	ReservationID string
}

var reservationIDPattern = regexp.MustCompile(`(?i)\b(R\d+)\b`)

// ParseActionRequest extracts the requested operation from the message text.
// Parsing is deterministic keyword matching; the language model only
// classifies, it never chooses parameters.
func ParseActionRequest(message string) ActionRequest {
	lower := strings.ToLower(message)

	req := ActionRequest{Kind: ActionUnknown}
	if m := reservationIDPattern.FindStringSubmatch(message); m != nil {
		req.ReservationID = strings.ToUpper(m[1])
	}

	mentionsSubscription := strings.Contains(lower, "subscription") ||
		strings.Contains(lower, "membership") || strings.Contains(lower, "plan")

	switch {
	case strings.Contains(lower, "refund") || strings.Contains(lower, "money back"):
		req.Kind = ActionProcessRefund
	case mentionsSubscription && (strings.Contains(lower, "pause") || strings.Contains(lower, "suspend") ||
		strings.Contains(lower, "hold")):
		req.Kind = ActionPauseSubscription
	case mentionsSubscription && (strings.Contains(lower, "cancel") || strings.Contains(lower, "terminate") ||
		strings.Contains(lower, "end my")):
		req.Kind = ActionCancelSubscription
	case strings.Contains(lower, "cancel") &&
		(req.ReservationID != "" || strings.Contains(lower, "reservation") || strings.Contains(lower, "booking")):
		req.Kind = ActionCancelReservation
	}
	return req
}

var humanRequestPhrases = []string{
	"speak to a human",
	"talk to a human",
	"speak to a person",
	"talk to a person",
	"real person",
	"speak to someone",
	"talk to someone",
	"human agent",
	"live agent",
	"speak to an agent",
	"talk to an agent",
	"customer service representative",
	"speak to a representative",
	"talk to a representative",
	"speak to a manager",
	"talk to a manager",
	"speak with a manager",
	"get me a manager",
	"i want a human",
	"i need a human",
}

// DetectHumanRequest reports whether the customer explicitly asked for a
// person. Kept deterministic so the escalation trigger never depends on the
// model.
func DetectHumanRequest(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range humanRequestPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
