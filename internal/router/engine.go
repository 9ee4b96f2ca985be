package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/udahub/udahub/internal/account"
	"github.com/udahub/udahub/internal/escalation"
	"github.com/udahub/udahub/internal/knowledge"
	"github.com/udahub/udahub/internal/memory"
	"github.com/udahub/udahub/internal/triage"
	"github.com/udahub/udahub/pkg/observability"
)

// Classifier is the triage boundary the engine depends on.
type Classifier interface {
	Classify(ctx context.Context, message string, history []string) (*triage.Classification, error)
}

// Retriever is the knowledge boundary the engine depends on.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]knowledge.Candidate, error)
	Usable(candidates []knowledge.Candidate) bool
}

// Request is one inbound customer message.
type Request struct {
	SessionID     string
	CustomerEmail string
	Message       string
}

// Engine runs the turn state machine. Sessions are serialized with keyed
// locks; distinct sessions proceed concurrently.
type Engine struct {
	classifier  Classifier
	retriever   Retriever
	accounts    account.Store
	memories    memory.Store
	checkpoints memory.CheckpointStore
	policy      *escalation.Policy
	locks       *sessionLocks
}

// NewEngine wires the engine's collaborators.
func NewEngine(
	classifier Classifier,
	retriever Retriever,
	accounts account.Store,
	memories memory.Store,
	checkpoints memory.CheckpointStore,
	policy *escalation.Policy,
) *Engine {
	return &Engine{
		classifier:  classifier,
		retriever:   retriever,
		accounts:    accounts,
		memories:    memories,
		checkpoints: checkpoints,
		policy:      policy,
		locks:       newSessionLocks(),
	}
}

// HandleTurn processes one message and always produces exactly one reply.
// The returned error covers only malformed requests; every processing
// failure ends in an escalation or an explanatory reply instead.
func (e *Engine) HandleTurn(ctx context.Context, req Request) (*Turn, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is empty")
	}

	unlock := e.locks.lock(req.SessionID)
	defer unlock()

	ctx, span := observability.StartSpan(ctx, "router.turn",
		attribute.String("session.id", req.SessionID),
	)
	defer span.End()
	start := time.Now()

	cp := e.loadCheckpoint(ctx, req.SessionID)
	turn := newTurn(req.SessionID, cp.TicketID, req.Message)
	turn.CustomerID = cp.CustomerID
	history := historyFromCheckpoint(cp)

	e.saveMessage(ctx, turn.TicketID, memory.RoleUser, req.Message)

	classification, err := e.classifier.Classify(ctx, req.Message, history)
	if err != nil {
		// Triage failure fails closed: no classification means no routing.
		log.Printf("turn escalated after classification failure session=%s err=%v", req.SessionID, err)
		span.RecordError(err)
		e.escalate(ctx, turn, escalation.TriggerRequiresHuman)
		turn.advance(StateComposed)
		e.finish(ctx, cp, turn, "none", start)
		return turn, nil
	}

	turn.Classification = classification
	turn.advance(StateClassified)
	turn.Route = DecideRoute(classification)
	turn.advance(routedState(turn.Route))
	explicitHuman := DetectHumanRequest(req.Message)

	switch turn.Route {
	case RouteKnowledge:
		e.handleKnowledge(ctx, turn, explicitHuman)
	case RouteAccount:
		e.handleAccount(ctx, turn, req.CustomerEmail, explicitHuman)
	case RouteAction:
		e.handleAction(ctx, turn, req.CustomerEmail, explicitHuman)
	}
	turn.advance(StateComposed)

	e.finish(ctx, cp, turn, string(turn.Route), start)
	return turn, nil
}

func (e *Engine) handleKnowledge(ctx context.Context, turn *Turn, explicitHuman bool) {
	candidates, err := e.retriever.Search(ctx, turn.Message, 0)
	usable := false
	if err != nil {
		// A broken retrieval is indistinguishable from no answer.
		log.Printf("knowledge retrieval failed ticket=%s err=%v", turn.TicketID, err)
	} else {
		turn.Candidates = candidates
		usable = e.retriever.Usable(candidates)
	}

	if esc, trigger := e.policy.Decide(escalation.KnowledgeInput(turn.Classification, candidates, usable, explicitHuman)); esc {
		e.escalate(ctx, turn, trigger)
		return
	}

	top := candidates[0]
	turn.Reply = composeAnswer(turn.Classification, top)
	e.saveResolution(ctx, turn, memory.ResolutionArticle, []string{top.ArticleID}, nil)
}

func (e *Engine) handleAccount(ctx context.Context, turn *Turn, email string, explicitHuman bool) {
	if esc, trigger := e.policy.Decide(escalation.Input{
		Classification:       turn.Classification,
		ExplicitHumanRequest: explicitHuman,
	}); esc {
		e.escalate(ctx, turn, trigger)
		return
	}

	customer, ok := e.loadCustomer(ctx, turn, email)
	if !ok {
		return
	}

	sub, err := e.accounts.GetSubscription(ctx, customer.ID)
	if err != nil && !errors.Is(err, account.ErrNotFound) {
		turn.Reply = "I'm having trouble reading your account right now. Please try again in a moment."
		return
	}
	reservations, err := e.accounts.GetReservations(ctx, customer.ID)
	if err != nil {
		turn.Reply = "I'm having trouble reading your account right now. Please try again in a moment."
		return
	}

	turn.Reply = composeAccountSummary(customer, sub, reservations, e.loadCustomerContext(ctx, customer.ID))
}

// recentResolutionLimit caps how much history personalizes a reply.
const recentResolutionLimit = 5

// customerContext is the long-term memory loaded for a returning customer:
// past resolutions and stated preferences.
type customerContext struct {
	Resolutions []memory.Resolution
	Preferences map[string]string
}

// loadCustomerContext reads resolutions and preferences for personalization.
// Best-effort: a failed read degrades to an empty context, never the turn.
func (e *Engine) loadCustomerContext(ctx context.Context, customerID string) customerContext {
	var cc customerContext

	resolutions, err := e.memories.LoadResolutionsForCustomer(ctx, customerID, recentResolutionLimit)
	if err != nil {
		log.Printf("resolution load failed customer=%s err=%v", customerID, err)
	} else {
		cc.Resolutions = resolutions
	}

	prefs, err := e.memories.LoadPreferences(ctx, customerID)
	if err != nil {
		log.Printf("preference load failed customer=%s err=%v", customerID, err)
	} else {
		cc.Preferences = prefs
	}
	return cc
}

func (e *Engine) handleAction(ctx context.Context, turn *Turn, email string, explicitHuman bool) {
	if esc, trigger := e.policy.Decide(escalation.Input{
		Classification:       turn.Classification,
		ExplicitHumanRequest: explicitHuman,
	}); esc {
		e.escalate(ctx, turn, trigger)
		return
	}

	// Context load is mandatory and strictly precedes any write.
	customer, ok := e.loadCustomer(ctx, turn, email)
	if !ok {
		return
	}
	reservations, err := e.accounts.GetReservations(ctx, customer.ID)
	if err != nil {
		turn.Reply = "I'm having trouble reading your account right now, so I haven't changed anything. " +
			"Please try again in a moment."
		return
	}

	actionReq := ParseActionRequest(turn.Message)
	switch actionReq.Kind {
	case ActionCancelReservation:
		e.runCancelReservation(ctx, turn, actionReq, reservations)
	case ActionProcessRefund:
		e.runProcessRefund(ctx, turn, actionReq, reservations)
	case ActionPauseSubscription, ActionCancelSubscription:
		e.runUpdateSubscription(ctx, turn, actionReq, customer.ID)
	default:
		turn.Reply = composeClarification(actionReq)
	}
}

func (e *Engine) runCancelReservation(ctx context.Context, turn *Turn, req ActionRequest, reservations []account.Reservation) {
	id := req.ReservationID
	if id == "" {
		id = soleReservationWithStatus(reservations, account.ReservationActive)
	}
	if id == "" {
		turn.Reply = composeClarification(req)
		return
	}

	res, err := e.accounts.CancelReservation(ctx, id)
	if err != nil {
		req.ReservationID = id
		turn.Reply = composeActionError(req, err)
		return
	}
	turn.Reply = composeActionSuccess(req, res, nil, nil)
	e.saveResolution(ctx, turn, memory.ResolutionAction, nil, []string{"cancel_reservation"})
}

func (e *Engine) runProcessRefund(ctx context.Context, turn *Turn, req ActionRequest, reservations []account.Reservation) {
	id := req.ReservationID
	if id == "" {
		id = soleReservationWithStatus(reservations, account.ReservationCancelled)
	}
	if id == "" {
		turn.Reply = composeClarification(req)
		return
	}

	refund, err := e.accounts.ProcessRefund(ctx, id, "customer_request")
	if err != nil {
		req.ReservationID = id
		turn.Reply = composeActionError(req, err)
		return
	}
	turn.Reply = composeActionSuccess(req, nil, refund, nil)
	e.saveResolution(ctx, turn, memory.ResolutionAction, nil, []string{"process_refund"})
}

func (e *Engine) runUpdateSubscription(ctx context.Context, turn *Turn, req ActionRequest, customerID string) {
	action := account.ActionPause
	toolName := "update_subscription"
	if req.Kind == ActionCancelSubscription {
		action = account.ActionCancel
	}

	sub, err := e.accounts.UpdateSubscription(ctx, customerID, action)
	if err != nil {
		turn.Reply = composeActionError(req, err)
		return
	}
	turn.Reply = composeActionSuccess(req, nil, nil, sub)
	e.saveResolution(ctx, turn, memory.ResolutionAction, nil, []string{toolName})
}

// loadCustomer resolves the customer for account-facing routes. A failed
// lookup produces the reply directly and reports false.
func (e *Engine) loadCustomer(ctx context.Context, turn *Turn, email string) (*account.Customer, bool) {
	if email == "" {
		turn.Reply = "To look into your account I need the email address it's registered under. " +
			"Could you share it?"
		return nil, false
	}

	customer, err := e.accounts.LookupCustomer(ctx, email)
	if errors.Is(err, account.ErrNotFound) {
		turn.Reply = fmt.Sprintf("I couldn't find an account registered to %s. "+
			"Could you double-check the email address?", email)
		return nil, false
	}
	if err != nil {
		turn.Reply = "I'm having trouble reading your account right now. Please try again in a moment."
		return nil, false
	}

	turn.CustomerID = customer.ID
	return customer, true
}

func (e *Engine) escalate(ctx context.Context, turn *Turn, trigger escalation.Trigger) {
	turn.Escalated = true
	turn.advance(StateEscalated)
	turn.Reply = composeHandoff(turn.Classification)
	observability.RecordEscalation(string(trigger))
	log.Printf("turn escalated session=%s ticket=%s trigger=%s", turn.SessionID, turn.TicketID, trigger)
	e.saveResolution(ctx, turn, memory.ResolutionEscalation, nil, nil)
}

// finish persists the reply, the checkpoint and the turn metrics. All
// memory writes here are best-effort; the reply has already been composed.
func (e *Engine) finish(ctx context.Context, cp *memory.Checkpoint, turn *Turn, route string, start time.Time) {
	e.saveMessage(ctx, turn.TicketID, memory.RoleAgent, turn.Reply)

	cp.TicketID = turn.TicketID
	cp.CustomerID = turn.CustomerID
	cp.NextAgent = route
	cp.Messages = append(cp.Messages,
		memory.ChatMessage{Role: memory.RoleUser, Content: turn.Message},
		memory.ChatMessage{Role: memory.RoleAgent, Content: turn.Reply},
	)
	cp.UpdatedAt = time.Now().UTC()
	if err := e.checkpoints.Save(ctx, cp); err != nil {
		log.Printf("checkpoint save failed session=%s err=%v", turn.SessionID, err)
	}

	outcome := "completed"
	if turn.Escalated {
		outcome = "escalated"
	}
	observability.RecordTurn(route, outcome, time.Since(start))
}

func (e *Engine) loadCheckpoint(ctx context.Context, sessionID string) *memory.Checkpoint {
	cp, err := e.checkpoints.Load(ctx, sessionID)
	if errors.Is(err, memory.ErrCheckpointNotFound) {
		return &memory.Checkpoint{SessionID: sessionID, TicketID: uuid.NewString()}
	}
	if err != nil {
		log.Printf("checkpoint load failed session=%s err=%v", sessionID, err)
		return &memory.Checkpoint{SessionID: sessionID, TicketID: uuid.NewString()}
	}
	if cp.TicketID == "" {
		cp.TicketID = uuid.NewString()
	}
	return cp
}

func (e *Engine) saveMessage(ctx context.Context, ticketID, role, content string) {
	if _, err := e.memories.SaveMessage(ctx, ticketID, role, content); err != nil {
		log.Printf("message save failed ticket=%s role=%s err=%v", ticketID, role, err)
	}
}

func (e *Engine) saveResolution(ctx context.Context, turn *Turn, resType string, articles, tools []string) {
	if turn.CustomerID == "" {
		// Resolutions are keyed by customer; without one there is nothing
		// to attach the record to.
		return
	}

	summary := turn.Message
	if turn.Classification != nil {
		summary = turn.Classification.Summary
	}
	err := e.memories.SaveResolution(ctx, &memory.Resolution{
		TicketID:     turn.TicketID,
		CustomerID:   turn.CustomerID,
		Type:         resType,
		Summary:      summary,
		ArticlesUsed: articles,
		ToolsUsed:    tools,
	})
	if err != nil {
		log.Printf("resolution save failed ticket=%s err=%v", turn.TicketID, err)
	}
}

func historyFromCheckpoint(cp *memory.Checkpoint) []string {
	if len(cp.Messages) == 0 {
		return nil
	}
	history := make([]string, 0, len(cp.Messages))
	for _, m := range cp.Messages {
		history = append(history, m.Content)
	}
	return history
}

func soleReservationWithStatus(reservations []account.Reservation, status string) string {
	id := ""
	for _, r := range reservations {
		if r.Status != status {
			continue
		}
		if id != "" {
			return ""
		}
		id = r.ID
	}
	return id
}
