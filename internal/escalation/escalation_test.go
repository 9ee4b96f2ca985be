package escalation

import (
	"testing"

	"github.com/udahub/udahub/internal/knowledge"
	"github.com/udahub/udahub/internal/triage"
)

func classification(issue triage.IssueType, priority triage.Priority, sentiment triage.Sentiment, requiresHuman bool) *triage.Classification {
	return &triage.Classification{
		IssueType:     issue,
		Priority:      priority,
		Sentiment:     sentiment,
		RequiresHuman: requiresHuman,
		Summary:       "test",
	}
}

func TestDecide(t *testing.T) {
	policy := NewPolicy([]string{"legal"})

	tests := []struct {
		name        string
		in          Input
		wantEsc     bool
		wantTrigger Trigger
	}{
		{
			name:        "nil classification fails closed",
			in:          Input{},
			wantEsc:     true,
			wantTrigger: TriggerRequiresHuman,
		},
		{
			name: "requires human flag",
			in: Input{
				Classification: classification(triage.IssueGeneral, triage.PriorityLow, triage.SentimentNeutral, true),
			},
			wantEsc:     true,
			wantTrigger: TriggerRequiresHuman,
		},
		{
			name: "always escalate category",
			in: Input{
				Classification: classification(triage.IssueLegal, triage.PriorityNormal, triage.SentimentNeutral, false),
			},
			wantEsc:     true,
			wantTrigger: TriggerAlwaysEscalate,
		},
		{
			name: "explicit human request",
			in: Input{
				Classification:       classification(triage.IssueAccount, triage.PriorityNormal, triage.SentimentNeutral, false),
				ExplicitHumanRequest: true,
			},
			wantEsc:     true,
			wantTrigger: TriggerExplicitHuman,
		},
		{
			name: "frustrated and urgent without requires_human",
			in: Input{
				Classification: classification(triage.IssueBilling, triage.PriorityUrgent, triage.SentimentFrustrated, false),
			},
			wantEsc:     true,
			wantTrigger: TriggerFrustration,
		},
		{
			name: "frustrated and high",
			in: Input{
				Classification: classification(triage.IssueBilling, triage.PriorityHigh, triage.SentimentFrustrated, false),
			},
			wantEsc:     true,
			wantTrigger: TriggerFrustration,
		},
		{
			name: "frustrated but low priority stays automated",
			in: Input{
				Classification: classification(triage.IssueBilling, triage.PriorityLow, triage.SentimentFrustrated, false),
			},
			wantEsc: false,
		},
		{
			name: "knowledge needed and nothing usable",
			in: Input{
				Classification:  classification(triage.IssueGeneral, triage.PriorityNormal, triage.SentimentNeutral, false),
				NeededKnowledge: true,
				KnowledgeUsable: false,
			},
			wantEsc:     true,
			wantTrigger: TriggerNoAnswer,
		},
		{
			name: "neutral normal with usable answer stays automated",
			in: Input{
				Classification:  classification(triage.IssueGeneral, triage.PriorityNormal, triage.SentimentNeutral, false),
				NeededKnowledge: true,
				KnowledgeUsable: true,
			},
			wantEsc: false,
		},
		{
			name: "account route with no knowledge needed stays automated",
			in: Input{
				Classification: classification(triage.IssueAccount, triage.PriorityNormal, triage.SentimentNegative, false),
			},
			wantEsc: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotEsc, gotTrigger := policy.Decide(tt.in)
			if gotEsc != tt.wantEsc {
				t.Fatalf("Decide() escalate = %v, want %v", gotEsc, tt.wantEsc)
			}
			if gotEsc && gotTrigger != tt.wantTrigger {
				t.Errorf("Decide() trigger = %q, want %q", gotTrigger, tt.wantTrigger)
			}
			if !gotEsc && gotTrigger != TriggerNone {
				t.Errorf("Decide() trigger = %q, want none", gotTrigger)
			}
		})
	}
}

func TestKnowledgeInput(t *testing.T) {
	policy := NewPolicy(nil)
	c := classification(triage.IssueGeneral, triage.PriorityNormal, triage.SentimentNeutral, false)

	// A candidate at 0.82 confidence that passed the gate stays automated.
	candidates := []knowledge.Candidate{{ArticleID: "kb-001", Confidence: 0.82}}
	if policy.ShouldEscalate(KnowledgeInput(c, candidates, true, false)) {
		t.Error("usable candidate should not escalate")
	}

	// Candidates below the gate escalate.
	if !policy.ShouldEscalate(KnowledgeInput(c, candidates, false, false)) {
		t.Error("unusable candidates should escalate")
	}

	// No candidates at all escalate even if the gate claims usable.
	if !policy.ShouldEscalate(KnowledgeInput(c, nil, true, false)) {
		t.Error("empty candidate list should escalate")
	}
}
