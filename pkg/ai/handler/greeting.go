package handler

import (
	"context"

	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/ai/state"
)

const GreetingText = "Hello! I can help you find pharmacies, check which pharmacies are on duty today, " +
	"and look up general information about medications. Tell me your commune or the medication you are interested in."

type Greeting struct{}

func NewGreeting() *Greeting { return &Greeting{} }

func (h *Greeting) Route() decision.Route { return decision.RouteGreeting }

func (h *Greeting) Handle(ctx context.Context, req Request) (state.Partial, error) {
	text := GreetingText
	return state.Partial{Greeting: &text}, nil
}
