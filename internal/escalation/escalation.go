// Package escalation decides when a conversation leaves automated handling.
package escalation

import (
	"github.com/udahub/udahub/internal/knowledge"
	"github.com/udahub/udahub/internal/triage"
)

// Trigger names the condition that forced an escalation. Used for metrics
// and logging only; callers see a single boolean.
type Trigger string

const (
	TriggerNone           Trigger = ""
	TriggerRequiresHuman  Trigger = "requires_human"
	TriggerNoAnswer       Trigger = "no_usable_answer"
	TriggerExplicitHuman  Trigger = "explicit_request"
	TriggerFrustration    Trigger = "frustrated_high_priority"
	TriggerAlwaysEscalate Trigger = "always_escalate_category"
)

// Input carries everything the policy may consider. No other signals exist.
type Input struct {
	Classification *triage.Classification

	// NeededKnowledge is true when the route required a knowledge answer.
	NeededKnowledge bool

	// KnowledgeUsable is true when a candidate cleared the confidence
	// threshold. Ignored unless NeededKnowledge.
	KnowledgeUsable bool

	// ExplicitHumanRequest is true when the customer asked for a person
	// outright.
	ExplicitHumanRequest bool
}

// Policy is the escalation rule set.
type Policy struct {
	// alwaysEscalate holds issue categories that bypass automated handling.
	alwaysEscalate map[triage.IssueType]bool
}

// NewPolicy creates a policy. categories lists issue types that always
// escalate; a nil or empty list means only the other triggers apply.
func NewPolicy(categories []string) *Policy {
	always := make(map[triage.IssueType]bool, len(categories))
	for _, c := range categories {
		always[triage.IssueType(c)] = true
	}
	return &Policy{alwaysEscalate: always}
}

// Decide is pure and total: any combination of inputs yields a definite
// answer. A nil classification escalates; a failed triage must fail closed.
func (p *Policy) Decide(in Input) (bool, Trigger) {
	c := in.Classification
	if c == nil {
		return true, TriggerRequiresHuman
	}

	if c.RequiresHuman {
		return true, TriggerRequiresHuman
	}
	if p.alwaysEscalate[c.IssueType] {
		return true, TriggerAlwaysEscalate
	}
	if in.ExplicitHumanRequest {
		return true, TriggerExplicitHuman
	}
	if c.Sentiment == triage.SentimentFrustrated &&
		(c.Priority == triage.PriorityHigh || c.Priority == triage.PriorityUrgent) {
		return true, TriggerFrustration
	}
	if in.NeededKnowledge && !in.KnowledgeUsable {
		return true, TriggerNoAnswer
	}
	return false, TriggerNone
}

// ShouldEscalate is the boolean form of Decide.
func (p *Policy) ShouldEscalate(in Input) bool {
	escalate, _ := p.Decide(in)
	return escalate
}

// KnowledgeInput builds an Input for a knowledge-routed turn from the
// retrieved candidates and the retriever's usability gate.
func KnowledgeInput(c *triage.Classification, candidates []knowledge.Candidate, usable bool, explicitHuman bool) Input {
	return Input{
		Classification:       c,
		NeededKnowledge:      true,
		KnowledgeUsable:      usable && len(candidates) > 0,
		ExplicitHumanRequest: explicitHuman,
	}
}
