package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/udahub/udahub/pkg/observability"
)

const systemPrompt = `You are a ticket classification engine for CultPass, a Brazilian cultural
experiences subscription service. Analyze the customer message and produce a
structured classification as a single JSON object.

Definitions:
- issue_type: "account" (login, password, profile, blocked),
  "subscription" (plan questions, tier, quota),
  "reservation" (booking status, events, experiences, spots),
  "billing" (payment, charges, invoices),
  "technical" (app bugs, crashes, QR codes, errors),
  "action" (the customer asks you to change something: cancel a reservation,
  process a refund, pause or cancel a subscription),
  "legal" (legal action, regulatory complaints, discrimination reports),
  "general" (anything else)
- priority: "urgent" (needs immediate attention, safety, legal),
  "high" (service blocked, refund needed, access lost),
  "normal" (standard request),
  "low" (informational question, how-to)
- sentiment: "frustrated" (anger, exclamation, threats),
  "negative" (dissatisfaction, complaint),
  "positive" (gratitude, praise),
  "neutral" (factual, no strong emotion)
- requires_human: true when the customer explicitly asks for a human/manager,
  mentions legal action or discrimination, or is frustrated with urgent/high
  priority
- summary: a concise one-sentence summary of what the customer needs

Respond with JSON only: {"issue_type": ..., "priority": ..., "sentiment": ...,
"requires_human": ..., "summary": ...}`

// Provider is the bounded LLM call the classifier depends on. It takes a
// system prompt and a user prompt and returns the raw model output.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Classifier is the classification service.
type Classifier struct {
	provider Provider
	// maxHistory caps how many prior messages are included in the prompt.
	maxHistory int
}

// NewClassifier creates a classification service on top of a provider.
func NewClassifier(provider Provider) *Classifier {
	return &Classifier{
		provider:   provider,
		maxHistory: 10,
	}
}

// Classify produces a full classification for a message, or fails with a
// ClassificationError. It never returns a partially filled record.
func (c *Classifier) Classify(ctx context.Context, message string, history []string) (*Classification, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &ClassificationError{Reason: "empty message"}
	}

	ctx, span := observability.StartSpan(ctx, "triage.classify",
		attribute.Int("triage.history_len", len(history)),
	)
	defer span.End()

	start := time.Now()
	raw, err := c.provider.Complete(ctx, systemPrompt, c.userPrompt(message, history))
	observability.RecordClassification(time.Since(start))
	if err != nil {
		span.RecordError(err)
		return nil, &ClassificationError{Reason: "inference call failed", Err: err}
	}

	classification, err := parseClassification(raw)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	log.Printf("ticket classified issue_type=%s priority=%s sentiment=%s requires_human=%t",
		classification.IssueType, classification.Priority, classification.Sentiment, classification.RequiresHuman)
	return classification, nil
}

func (c *Classifier) userPrompt(message string, history []string) string {
	var b strings.Builder
	if len(history) > 0 {
		start := 0
		if len(history) > c.maxHistory {
			start = len(history) - c.maxHistory
		}
		b.WriteString("Prior conversation:\n")
		for _, m := range history[start:] {
			b.WriteString("- ")
			b.WriteString(m)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Customer message:\n")
	b.WriteString(message)
	return b.String()
}

// parseClassification decodes and validates the model output. Models
// occasionally wrap JSON in a code fence; strip it before decoding.
func parseClassification(raw string) (*Classification, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var c Classification
	if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
		return nil, &ClassificationError{
			Reason: fmt.Sprintf("malformed inference output %q", truncate(trimmed, 80)),
			Err:    err,
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err.(*ClassificationError)
	}
	return &c, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
