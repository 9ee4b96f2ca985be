// Package triage turns raw customer messages into structured ticket
// classifications that drive routing.
package triage

import (
	"errors"
	"fmt"
)

// IssueType categorizes what the customer needs.
type IssueType string

const (
	IssueAccount      IssueType = "account"
	IssueSubscription IssueType = "subscription"
	IssueReservation  IssueType = "reservation"
	IssueBilling      IssueType = "billing"
	IssueTechnical    IssueType = "technical"
	IssueGeneral      IssueType = "general"
	// IssueAction marks an explicit write request (cancel, refund, change).
	IssueAction IssueType = "action"
	// IssueLegal marks legal threats, compliance and discrimination reports.
	IssueLegal IssueType = "legal"
)

// Priority indicates how fast a ticket needs attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Sentiment captures the customer's emotional state.
type Sentiment string

const (
	SentimentPositive   Sentiment = "positive"
	SentimentNeutral    Sentiment = "neutral"
	SentimentNegative   Sentiment = "negative"
	SentimentFrustrated Sentiment = "frustrated"
)

// Classification is the structured result of triaging one message.
// It is produced once per turn and immutable afterwards; the next turn
// supersedes it with a fresh classification.
type Classification struct {
	IssueType     IssueType `json:"issue_type"`
	Priority      Priority  `json:"priority"`
	Sentiment     Sentiment `json:"sentiment"`
	RequiresHuman bool      `json:"requires_human"`
	Summary       string    `json:"summary"`
}

// ErrClassification is the sentinel wrapped by every classification failure.
// Callers must treat a failed classification as "no classification", never as
// a partially filled one.
var ErrClassification = errors.New("classification failed")

// ClassificationError reports why a classification could not be produced.
type ClassificationError struct {
	Reason string
	Err    error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classification failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("classification failed: %s", e.Reason)
}

func (e *ClassificationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrClassification
}

// Is lets errors.Is match any ClassificationError against ErrClassification.
func (e *ClassificationError) Is(target error) bool {
	return target == ErrClassification
}

var validIssueTypes = map[IssueType]bool{
	IssueAccount:      true,
	IssueSubscription: true,
	IssueReservation:  true,
	IssueBilling:      true,
	IssueTechnical:    true,
	IssueGeneral:      true,
	IssueAction:       true,
	IssueLegal:        true,
}

var validPriorities = map[Priority]bool{
	PriorityLow:    true,
	PriorityNormal: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

var validSentiments = map[Sentiment]bool{
	SentimentPositive:   true,
	SentimentNeutral:    true,
	SentimentNegative:   true,
	SentimentFrustrated: true,
}

// Validate checks that every field is populated with a known value.
func (c *Classification) Validate() error {
	if !validIssueTypes[c.IssueType] {
		return &ClassificationError{Reason: fmt.Sprintf("unknown issue_type %q", c.IssueType)}
	}
	if !validPriorities[c.Priority] {
		return &ClassificationError{Reason: fmt.Sprintf("unknown priority %q", c.Priority)}
	}
	if !validSentiments[c.Sentiment] {
		return &ClassificationError{Reason: fmt.Sprintf("unknown sentiment %q", c.Sentiment)}
	}
	if c.Summary == "" {
		return &ClassificationError{Reason: "empty summary"}
	}
	return nil
}
