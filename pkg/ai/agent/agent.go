package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/internal/repository/contract"
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/ai/state"
	"med-agent-be/pkg/events"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const module = "AGENT"

type Gate interface {
	Evaluate(ctx context.Context, text string) (decision.GateDecision, error)
}

type Router interface {
	Classify(ctx context.Context, text string) (decision.RouteDecision, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, rd decision.RouteDecision, text string, st *state.RequestState) error
}

type Renderer interface {
	Render(ctx context.Context, st *state.RequestState) string
}

type Option func(*Agent)

// WithPublisher emits a TURN_COMPLETED event after every turn.
func WithPublisher(p events.Publisher) Option {
	return func(a *Agent) { a.publisher = p }
}

// Agent runs one conversational turn end to end.
type Agent struct {
	sessions   contract.SessionStore
	gate       Gate
	router     Router
	dispatcher Dispatcher
	renderer   Renderer
	publisher  events.Publisher
	tracer     trace.Tracer
	now        func() time.Time
	logger     logger.ILogger
}

func New(
	sessions contract.SessionStore,
	gate Gate,
	router Router,
	dispatcher Dispatcher,
	renderer Renderer,
	log logger.ILogger,
	opts ...Option,
) *Agent {
	a := &Agent{
		sessions:   sessions,
		gate:       gate,
		router:     router,
		dispatcher: dispatcher,
		renderer:   renderer,
		tracer:     otel.Tracer("med-agent-be/agent"),
		now:        time.Now,
		logger:     log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HandleTurn answers text within sessionID and records both sides of the
// exchange. It fails only when the session store or the catalog index is
// unavailable; every other problem degrades to a partial answer.
//
// Callers must not run two turns of the same session concurrently.
func (a *Agent) HandleTurn(ctx context.Context, sessionID, text string) (reply string, err error) {
	started := a.now()
	ctx, span := a.tracer.Start(ctx, "agent.HandleTurn", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	history, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session read failed")
		return "", fmt.Errorf("load session %s: %w", sessionID, err)
	}

	st := state.New(sessionID, text, history)
	span.SetAttributes(attribute.String("request.id", st.ID))
	defer func() {
		a.publish(ctx, st, started, err != nil)
	}()

	if strings.TrimSpace(text) == "" {
		st.Route = decision.RouteDecision{Primary: decision.RouteGreeting}
	} else {
		st.Gate = a.evaluate(ctx, st)
	}

	if !st.Gate.Blocked {
		if st.Route.Primary == "" {
			st.Route = a.classify(ctx, st)
		}
		if err := a.dispatch(ctx, st); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dispatch failed")
			return "", err
		}
	}

	reply = a.renderer.Render(ctx, st)

	if err := a.sessions.AppendUser(ctx, sessionID, text); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("save user message: %w", err)
	}
	if err := a.sessions.AppendAssistant(ctx, sessionID, reply); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("save assistant message: %w", err)
	}

	a.logger.Info(module, "Turn completed", map[string]interface{}{
		"request_id": st.ID,
		"session_id": sessionID,
		"blocked":    st.Gate.Blocked,
		"routes":     st.Ran,
		"latency_ms": a.now().Sub(started).Milliseconds(),
	})
	return reply, nil
}

// evaluate fails closed: a gate that cannot decide blocks the turn.
func (a *Agent) evaluate(ctx context.Context, st *state.RequestState) decision.GateDecision {
	ctx, span := a.tracer.Start(ctx, "agent.gate")
	defer span.End()

	gd, err := a.gate.Evaluate(ctx, st.Text)
	if err != nil {
		span.RecordError(err)
		a.logger.Error(module, "Gate failed, blocking turn", map[string]interface{}{
			"request_id": st.ID,
			"error":      err.Error(),
		})
		return decision.Blocked("")
	}
	span.SetAttributes(attribute.Bool("gate.blocked", gd.Blocked))
	return gd
}

func (a *Agent) classify(ctx context.Context, st *state.RequestState) decision.RouteDecision {
	ctx, span := a.tracer.Start(ctx, "agent.route")
	defer span.End()

	rd, err := a.router.Classify(ctx, st.Text)
	if err != nil {
		span.RecordError(err)
		a.logger.Warn(module, "Router degraded", map[string]interface{}{
			"request_id": st.ID,
			"error":      err.Error(),
		})
	}
	span.SetAttributes(attribute.String("route.primary", string(rd.Primary)))
	return rd
}

func (a *Agent) dispatch(ctx context.Context, st *state.RequestState) error {
	ctx, span := a.tracer.Start(ctx, "agent.dispatch")
	defer span.End()

	err := a.dispatcher.Dispatch(ctx, st.Route, st.Text, st)
	if err != nil {
		span.RecordError(err)
		a.logger.Error(module, "Dispatch aborted", map[string]interface{}{
			"request_id": st.ID,
			"error":      err.Error(),
		})
	}
	return err
}

func (a *Agent) publish(ctx context.Context, st *state.RequestState, started time.Time, failed bool) {
	if a.publisher == nil {
		return
	}
	summary := events.TurnSummary{
		RequestID: st.ID,
		SessionID: st.SessionID,
		Blocked:   st.Gate.Blocked,
		Latency:   a.now().Sub(started),
		Failed:    failed,
	}
	for _, r := range st.Ran {
		summary.Routes = append(summary.Routes, string(r))
	}
	if st.Outlets != nil {
		summary.Outlets = len(st.Outlets.Rows)
		summary.Fallback = st.Outlets.Fallback
	}
	if st.OnDuty != nil {
		summary.OnDuty = len(st.OnDuty.Rows)
	}
	if c := st.Catalog; c != nil {
		summary.Catalog = len(c.Names) + len(c.Entries)
		summary.NotFound = c.NotFound
	}

	if err := a.publisher.Publish(context.WithoutCancel(ctx), events.NewTurnCompleted(summary, a.now())); err != nil {
		a.logger.Warn(module, "Failed to publish turn event", map[string]interface{}{
			"request_id": st.ID,
			"error":      err.Error(),
		})
	}
}
