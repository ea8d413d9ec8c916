package handler

import (
	"context"

	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/ai/state"
)

const module = "HANDLER"

// Request is the input every handler receives.
type Request struct {
	Text     string
	Decision decision.RouteDecision
}

// Handler produces the partial result for one route. A handler never writes
// to the request state directly; the dispatcher applies its partial.
type Handler interface {
	Route() decision.Route
	Handle(ctx context.Context, req Request) (state.Partial, error)
}

// MaxRows caps every outlet list.
const MaxRows = 50

func capRows[T any](rows []T, n int) []T {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
