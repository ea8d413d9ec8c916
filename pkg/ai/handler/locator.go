package handler

import (
	"context"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/ai/state"
	"med-agent-be/pkg/store"
)

// Locator lists outlets from the general feed.
type Locator struct {
	feed   *Feed
	logger logger.ILogger
}

func NewLocator(feed *Feed, log logger.ILogger) *Locator {
	return &Locator{feed: feed, logger: log}
}

func (h *Locator) Route() decision.Route { return decision.RouteLocator }

func (h *Locator) Handle(ctx context.Context, req Request) (state.Partial, error) {
	attrs := req.Decision.Attributes
	res := h.feed.Outlets(ctx)

	rows := res.Rows
	if attrs.Location != nil {
		rows = byLocation(rows, *attrs.Location)
	}
	preds := commonPredicates(attrs)
	if attrs.OrgName != nil {
		preds = append(preds, contains(func(r store.OutletRecord) string { return r.Name }, *attrs.OrgName))
	}
	if attrs.Phone != nil {
		preds = append(preds, phoneMatches(*attrs.Phone))
	}
	if attrs.OpenHour != nil {
		preds = append(preds, hasPrefix(func(r store.OutletRecord) string { return r.OpeningHour }, *attrs.OpenHour))
	}
	if attrs.CloseHour != nil {
		preds = append(preds, hasPrefix(func(r store.OutletRecord) string { return r.ClosingHour }, *attrs.CloseHour))
	}
	rows = filterRows(rows, preds...)

	if req.Decision.AddressMode {
		query := req.Text
		if attrs.Address != nil {
			query = *attrs.Address
		}
		rows = byAddress(rows, query, addressExclusions(attrs)...)
	}

	result := &state.OutletResult{Rows: rows, Tier: res.Tier, Exhausted: res.Exhausted}

	if len(rows) == 0 && attrs.Location != nil {
		duty := h.feed.OnDuty(ctx)
		if fallback := byExactLocation(duty.Rows, *attrs.Location); len(fallback) > 0 {
			h.logger.Info(module, "Locator fell back to on-duty feed", map[string]interface{}{
				"location": *attrs.Location,
				"rows":     len(fallback),
			})
			result = &state.OutletResult{Rows: fallback, Fallback: true, Tier: duty.Tier}
		}
	}

	result.Rows = capRows(result.Rows, MaxRows)
	return state.Partial{Outlets: result}, nil
}

// addressExclusions are attribute values that describe where or when, never
// which street.
func addressExclusions(attrs decision.Attributes) []string {
	var out []string
	for _, v := range []*string{attrs.Location, attrs.SubLocation, attrs.Date, attrs.DayOfWeek, attrs.OpenHour, attrs.CloseHour} {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
