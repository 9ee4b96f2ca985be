// Package router drives one conversation turn through classification,
// routing, optional escalation and reply composition.
package router

import (
	"github.com/udahub/udahub/internal/triage"
)

// Route names the handler a classified turn is dispatched to.
type Route string

const (
	// RouteKnowledge answers informational questions from the article index.
	RouteKnowledge Route = "knowledge"

	// RouteAccount reads account state and reports it. Terminal.
	RouteAccount Route = "account"

	// RouteAction loads account context and then performs one write.
	RouteAction Route = "action"
)

// DecideRoute maps a classification to a route. Pure; the same
// classification always yields the same route.
func DecideRoute(c *triage.Classification) Route {
	switch c.IssueType {
	case triage.IssueAction:
		return RouteAction
	case triage.IssueAccount, triage.IssueSubscription, triage.IssueReservation, triage.IssueBilling:
		return RouteAccount
	default:
		// general, technical, legal and anything future-proofed reads the
		// knowledge base; the escalation policy handles legal before any
		// answer is surfaced.
		return RouteKnowledge
	}
}
