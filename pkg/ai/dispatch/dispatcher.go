package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/ai/handler"
	"med-agent-be/pkg/ai/state"
	"med-agent-be/pkg/catalog"

	"golang.org/x/sync/errgroup"
)

const module = "DISPATCH"

type Option func(*Dispatcher)

// WithBudget bounds the whole fan-out. Zero means no extra deadline.
func WithBudget(d time.Duration) Option {
	return func(ds *Dispatcher) { ds.budget = d }
}

// Dispatcher fans a turn out to the handlers of its routes and merges their
// partials into the request state in priority order.
type Dispatcher struct {
	handlers map[decision.Route]handler.Handler
	budget   time.Duration
	logger   logger.ILogger
}

func New(handlers []handler.Handler, log logger.ILogger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[decision.Route]handler.Handler, len(handlers)),
		logger:   log,
	}
	for _, h := range handlers {
		d.handlers[h.Route()] = h
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type outcome struct {
	partial state.Partial
	ok      bool
}

// Dispatch runs the handlers concurrently. Only catalog.ErrIndexUnavailable
// is returned; any other handler failure leaves that route's section empty.
func (d *Dispatcher) Dispatch(ctx context.Context, rd decision.RouteDecision, text string, st *state.RequestState) error {
	if d.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.budget)
		defer cancel()
	}

	routes := rd.FanOut()
	outcomes := make([]outcome, len(routes))
	req := handler.Request{Text: text, Decision: rd}

	g, gctx := errgroup.WithContext(ctx)
	for i, route := range routes {
		h, ok := d.handlers[route]
		if !ok {
			d.logger.Debug(module, "No handler for route", map[string]interface{}{"route": route})
			continue
		}
		g.Go(func() error {
			p, err := h.Handle(gctx, req)
			if err != nil {
				if errors.Is(err, catalog.ErrIndexUnavailable) {
					return fmt.Errorf("dispatch %s: %w", route, err)
				}
				d.logger.Error(module, "Handler failed", map[string]interface{}{
					"route":      route,
					"request_id": st.ID,
					"error":      err.Error(),
				})
				return nil
			}
			outcomes[i] = outcome{partial: p, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, route := range routes {
		if outcomes[i].ok {
			st.Apply(route, outcomes[i].partial)
		}
	}
	return nil
}
