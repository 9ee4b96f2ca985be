package router

import (
	"fmt"

	"github.com/udahub/udahub/internal/knowledge"
	"github.com/udahub/udahub/internal/triage"
)

// State is a turn's position in the processing state machine.
type State string

const (
	StateNew             State = "new"
	StateClassified      State = "classified"
	StateKnowledgeRouted State = "knowledge_routed"
	StateAccountRouted   State = "account_routed"
	StateActionRouted    State = "action_routed"
	StateEscalated       State = "escalated"
	StateComposed        State = "composed"
)

// legalTransitions encodes the only allowed state moves. Escalation is
// reachable from every pre-composition state; composition closes the turn.
var legalTransitions = map[State][]State{
	StateNew:             {StateClassified, StateEscalated},
	StateClassified:      {StateKnowledgeRouted, StateAccountRouted, StateActionRouted, StateEscalated},
	StateKnowledgeRouted: {StateEscalated, StateComposed},
	StateAccountRouted:   {StateEscalated, StateComposed},
	StateActionRouted:    {StateEscalated, StateComposed},
	StateEscalated:       {StateComposed},
	StateComposed:        {},
}

// Turn is one message's trip through the state machine. A turn's
// classification never outlives it; the next turn starts fresh.
type Turn struct {
	SessionID      string
	TicketID       string
	CustomerID     string
	Message        string
	State          State
	Classification *triage.Classification
	Route          Route
	Candidates     []knowledge.Candidate
	Escalated      bool
	Reply          string
}

func newTurn(sessionID, ticketID, message string) *Turn {
	return &Turn{
		SessionID: sessionID,
		TicketID:  ticketID,
		Message:   message,
		State:     StateNew,
	}
}

// advance moves the turn to the next state, panicking on an illegal move.
// Illegal transitions are programming errors, not runtime conditions.
func (t *Turn) advance(next State) {
	for _, allowed := range legalTransitions[t.State] {
		if allowed == next {
			t.State = next
			return
		}
	}
	panic(fmt.Sprintf("illegal turn transition %s -> %s", t.State, next))
}

// routedState maps a route to its state.
func routedState(route Route) State {
	switch route {
	case RouteKnowledge:
		return StateKnowledgeRouted
	case RouteAccount:
		return StateAccountRouted
	default:
		return StateActionRouted
	}
}
