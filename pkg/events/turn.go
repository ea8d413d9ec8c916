package events

import "time"

const TypeTurnCompleted = "TURN_COMPLETED"

// TurnSummary is what a finished turn reports about itself.
type TurnSummary struct {
	RequestID string
	SessionID string
	Routes    []string
	Blocked   bool
	Fallback  bool
	Outlets   int
	OnDuty    int
	Catalog   int
	NotFound  bool
	Latency   time.Duration
	Failed    bool
}

func NewTurnCompleted(s TurnSummary, at time.Time) BaseEvent {
	routes := make([]interface{}, len(s.Routes))
	for i, r := range s.Routes {
		routes[i] = r
	}
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"request_id": s.RequestID,
			"session_id": s.SessionID,
			"routes":     routes,
			"blocked":    s.Blocked,
			"fallback":   s.Fallback,
			"outlets":    s.Outlets,
			"on_duty":    s.OnDuty,
			"catalog":    s.Catalog,
			"not_found":  s.NotFound,
			"latency_ms": s.Latency.Milliseconds(),
			"failed":     s.Failed,
		},
		OccurredAt: at,
	}
}
