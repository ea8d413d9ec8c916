package state

import (
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/fetch"
	"med-agent-be/pkg/store"

	"github.com/google/uuid"
)

// OutletResult is what the locator or scheduled-service handler found.
type OutletResult struct {
	Rows []store.OutletRecord
	// Fallback is set when the rows came from the duty feed because the general
	// feed had nothing for the requested area.
	Fallback  bool
	Tier      fetch.Tier
	Exhausted bool
}

// CatalogResult is what the catalog handler found.
type CatalogResult struct {
	ListMode bool
	Field    store.CatalogField
	Target   string
	Names    []string
	Entries  []store.CatalogEntry
	NotFound bool
	Query    string
}

// Empty reports whether there is nothing to render.
func (c *CatalogResult) Empty() bool {
	return c == nil || (len(c.Names) == 0 && len(c.Entries) == 0)
}

// RequestState is the per-turn record threaded from the gate to the
// formatter. Each route owns a disjoint field.
type RequestState struct {
	ID        string
	SessionID string
	Text      string
	History   []store.Message

	Gate  decision.GateDecision
	Route decision.RouteDecision

	Outlets  *OutletResult
	OnDuty   *OutletResult
	Catalog  *CatalogResult
	Greeting *string

	// Ran lists the routes whose partial was applied, in application order.
	Ran []decision.Route
}

func New(sessionID, text string, history []store.Message) *RequestState {
	return &RequestState{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Text:      text,
		History:   history,
	}
}

// Partial is one handler's contribution. Only the field matching the
// handler's route is read.
type Partial struct {
	Outlets  *OutletResult
	OnDuty   *OutletResult
	Catalog  *CatalogResult
	Greeting *string
}

// Apply merges p into the field owned by route. Unknown routes are a no-op.
func (s *RequestState) Apply(route decision.Route, p Partial) {
	switch route {
	case decision.RouteLocator:
		s.Outlets = p.Outlets
	case decision.RouteScheduledService:
		s.OnDuty = p.OnDuty
	case decision.RouteCatalog:
		s.Catalog = p.Catalog
	case decision.RouteGreeting:
		s.Greeting = p.Greeting
	default:
		return
	}
	s.Ran = append(s.Ran, route)
}

// OnlyGreeting reports whether the greeting was the sole route applied.
func (s *RequestState) OnlyGreeting() bool {
	return len(s.Ran) == 1 && s.Ran[0] == decision.RouteGreeting && s.Greeting != nil
}
