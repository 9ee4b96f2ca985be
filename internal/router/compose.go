package router

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/udahub/udahub/internal/account"
	"github.com/udahub/udahub/internal/knowledge"
	"github.com/udahub/udahub/internal/triage"
)

func isNotFound(err error) bool     { return errors.Is(err, account.ErrNotFound) }
func isInvalidState(err error) bool { return errors.Is(err, account.ErrInvalidState) }

// handoffMessage is the single fixed escalation reply. Every trigger
// collapses to this one hand-off notice.
const handoffMessage = "I'm connecting you with one of our support specialists who can help you " +
	"directly. They'll have the full context of our conversation and will follow up shortly. " +
	"Thank you for your patience."

// composeHandoff builds the escalation reply, acknowledging frustration when
// the classification detected it.
func composeHandoff(c *triage.Classification) string {
	if c != nil && c.Sentiment == triage.SentimentFrustrated {
		return "I'm really sorry about the trouble you've had. " + handoffMessage
	}
	return handoffMessage
}

// composeAnswer turns the top knowledge candidate into a reply. Only called
// when the retrieval cleared the usability gate.
func composeAnswer(c *triage.Classification, top knowledge.Candidate) string {
	var b strings.Builder
	if c.Sentiment == triage.SentimentFrustrated || c.Sentiment == triage.SentimentNegative {
		b.WriteString("Sorry you're running into this. ")
	}
	b.WriteString("Here's what I found that should help:\n\n")
	b.WriteString(top.Title)
	b.WriteString("\n")
	b.WriteString(articleBody(top))
	b.WriteString("\n\nIf this doesn't resolve it, just let me know and I'll get you more help.")
	return b.String()
}

// articleBody strips the indexed "title\n\ncontent" framing back to content.
func articleBody(c knowledge.Candidate) string {
	if rest, ok := strings.CutPrefix(c.Content, c.Title+"\n\n"); ok {
		return rest
	}
	return c.Content
}

// composeAccountSummary reports current account state for a read-only turn,
// personalized with the customer's long-term history when there is any.
func composeAccountSummary(customer *account.Customer, sub *account.Subscription, reservations []account.Reservation, cc customerContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, here's your account overview:\n\n", firstName(customer.FullName))

	if len(cc.Resolutions) > 0 {
		fmt.Fprintf(&b, "Welcome back! Last time we helped you with: %s.\n\n", cc.Resolutions[0].Summary)
	}

	if customer.Blocked {
		b.WriteString("Your account is currently blocked. A specialist may need to review it.\n\n")
	}

	if sub != nil {
		fmt.Fprintf(&b, "Subscription: %s (%s tier, %d experiences per month)\n",
			sub.Status, sub.Tier, sub.MonthlyQuota)
	} else {
		b.WriteString("Subscription: none on file\n")
	}

	if len(reservations) == 0 {
		b.WriteString("Reservations: none on file\n")
	} else {
		b.WriteString("Reservations:\n")
		for _, r := range reservations {
			fmt.Fprintf(&b, "  - %s: %s (%s)\n", r.ID, r.ExperienceTitle, r.Status)
		}
	}

	if len(cc.Preferences) > 0 {
		b.WriteString("Your saved preferences:\n")
		keys := make([]string, 0, len(cc.Preferences))
		for k := range cc.Preferences {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  - %s: %s\n", k, cc.Preferences[k])
		}
	}

	b.WriteString("\nIs there anything here you'd like me to look into further?")
	return b.String()
}

// composeActionSuccess confirms a completed write.
func composeActionSuccess(req ActionRequest, reservation *account.Reservation, refund *account.Refund, sub *account.Subscription) string {
	switch req.Kind {
	case ActionCancelReservation:
		return fmt.Sprintf("Done. Your reservation %s (%s) has been cancelled. "+
			"If you'd like a refund, just say the word.",
			reservation.ID, reservation.ExperienceTitle)
	case ActionProcessRefund:
		return fmt.Sprintf("Your refund for reservation %s has been processed (confirmation %s). "+
			"You should see it within 5 business days.",
			refund.ReservationID, refund.RefundID)
	case ActionPauseSubscription:
		return "Your subscription is now paused. You can resume it any time, and you won't be charged while it's paused."
	case ActionCancelSubscription:
		return "Your subscription has been cancelled. You'll keep access until the end of the current billing period. " +
			"We'd love to have you back whenever you're ready."
	default:
		return handoffMessage
	}
}

// composeActionError surfaces a typed store error as a customer-facing
// explanation. The write is not retried.
func composeActionError(req ActionRequest, err error) string {
	switch {
	case isNotFound(err):
		if req.ReservationID != "" {
			return fmt.Sprintf("I couldn't find reservation %s on your account. "+
				"Could you double-check the reservation ID?", req.ReservationID)
		}
		return "I couldn't find that record on your account. Could you double-check the details?"
	case isInvalidState(err):
		switch req.Kind {
		case ActionCancelReservation:
			return fmt.Sprintf("Reservation %s isn't active, so there's nothing to cancel. "+
				"It may already be cancelled or refunded.", req.ReservationID)
		case ActionProcessRefund:
			return "That reservation isn't eligible for a refund yet. A reservation has to be " +
				"cancelled before it can be refunded. Want me to cancel it first?"
		default:
			return "That change isn't possible from your subscription's current state, " +
				"so I haven't modified anything."
		}
	default:
		return "Something went wrong while making that change, so I've left your account as it was. " +
			"Please try again in a moment."
	}
}

// composeClarification asks for the missing parameter of a write request.
func composeClarification(req ActionRequest) string {
	switch req.Kind {
	case ActionCancelReservation:
		return "I can cancel a reservation for you. Which one should I cancel? " +
			"You can give me the reservation ID, for example R100."
	case ActionProcessRefund:
		return "I can process a refund for a cancelled reservation. " +
			"Which reservation is it? You can give me the ID, for example R100."
	default:
		return "I want to make sure I change the right thing. Could you tell me exactly " +
			"what you'd like me to do, for example cancel a reservation or pause your subscription?"
	}
}

func firstName(full string) string {
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
