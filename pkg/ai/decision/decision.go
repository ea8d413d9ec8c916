package decision

import (
	"fmt"
	"strings"
)

// Route is a semantic category of handling assigned to a turn.
type Route string

const (
	RouteLocator          Route = "locator"
	RouteScheduledService Route = "scheduled_service"
	RouteCatalog          Route = "catalog"
	RouteGreeting         Route = "greeting"
)

// Priority is the fixed order in which handlers run and results merge.
var Priority = []Route{RouteLocator, RouteScheduledService, RouteCatalog, RouteGreeting}

// Valid reports whether r is one of the enumerated routes.
func (r Route) Valid() bool {
	for _, known := range Priority {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRoute accepts the canonical names plus the aliases the classifier is
// known to emit.
func ParseRoute(s string) (Route, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "locator", "pharmacies", "farmacias":
		return RouteLocator, nil
	case "scheduled_service", "scheduled", "on_duty", "turnos":
		return RouteScheduledService, nil
	case "catalog", "meds", "medications":
		return RouteCatalog, nil
	case "greeting", "saludo", "small_talk":
		return RouteGreeting, nil
	}
	return "", fmt.Errorf("unknown route %q", s)
}

// Attributes are the optional filters extracted from the user's text. A nil
// field means the text did not mention it.
type Attributes struct {
	Location    *string  `json:"location,omitempty"`
	SubLocation *string  `json:"sub_location,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Date        *string  `json:"date,omitempty"`
	DayOfWeek   *string  `json:"day_of_week,omitempty"`
	RegionID    *string  `json:"region_id,omitempty"`
	LocalityID  *string  `json:"locality_id,omitempty"`
	SubLocalID  *string  `json:"sub_locality_id,omitempty"`
	OrgName     *string  `json:"org_name,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	OpenHour    *string  `json:"open_hour,omitempty"`
	CloseHour   *string  `json:"close_hour,omitempty"`
}

// IDChain returns the region/locality/sub-locality ids in that order.
func (a Attributes) IDChain() []*string {
	return []*string{a.RegionID, a.LocalityID, a.SubLocalID}
}

// RouteDecision is the router's classification of one turn.
type RouteDecision struct {
	Primary     Route
	Routes      []Route
	AddressMode bool
	Attributes  Attributes
}

// FanOut returns the routes to dispatch in priority order, deduplicated.
// Routes wins when non-empty, otherwise Primary alone.
func (d RouteDecision) FanOut() []Route {
	requested := d.Routes
	if len(requested) == 0 {
		requested = []Route{d.Primary}
	}
	want := make(map[Route]bool, len(requested))
	for _, r := range requested {
		want[r] = true
	}
	out := make([]Route, 0, len(want))
	for _, r := range Priority {
		if want[r] {
			out = append(out, r)
		}
	}
	return out
}

// PolicyPrefix starts every blocking policy message.
const PolicyPrefix = "I'm sorry, but I can't provide medical recommendations."

// CanonicalPolicyMessage is used whenever the classifier's own wording is
// missing or malformed.
const CanonicalPolicyMessage = PolicyPrefix + " Please consult a healthcare professional or an official source such as MINSAL for accurate information."

// GateDecision is the outcome of the request gate.
type GateDecision struct {
	Blocked       bool
	PolicyMessage string
}

// Blocked builds a blocking decision whose message honours PolicyPrefix.
func Blocked(message string) GateDecision {
	message = strings.TrimSpace(message)
	if message == "" || !strings.HasPrefix(message, PolicyPrefix) {
		message = CanonicalPolicyMessage
	}
	return GateDecision{Blocked: true, PolicyMessage: message}
}

// Allowed is the non-blocking decision.
func Allowed() GateDecision {
	return GateDecision{}
}
