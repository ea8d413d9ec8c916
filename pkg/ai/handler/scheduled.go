package handler

import (
	"context"
	"strings"
	"time"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/ai/state"
	"med-agent-be/pkg/store"
	"med-agent-be/pkg/textnorm"
)

var relativeDays = textnorm.Set("today", "now", "tonight", "hoy", "ahora", "esta noche", "ahorita")

// Scheduled lists outlets on rotating duty.
type Scheduled struct {
	feed   *Feed
	now    func() time.Time
	logger logger.ILogger
}

func NewScheduled(feed *Feed, log logger.ILogger) *Scheduled {
	return &Scheduled{feed: feed, now: time.Now, logger: log}
}

func (h *Scheduled) Route() decision.Route { return decision.RouteScheduledService }

func (h *Scheduled) Handle(ctx context.Context, req Request) (state.Partial, error) {
	attrs := req.Decision.Attributes
	res := h.feed.OnDuty(ctx)

	rows := res.Rows
	if attrs.Location != nil {
		rows = byLocation(rows, *attrs.Location)
	}
	preds := commonPredicates(attrs)
	if attrs.Date != nil && !isRelative(*attrs.Date) {
		if want := strings.TrimSpace(*attrs.Date); want != "" {
			preds = append(preds, func(r store.OutletRecord) bool {
				return sameDate(r.Date, want)
			})
		}
	}
	if attrs.DayOfWeek != nil {
		if day, ok := h.weekday(*attrs.DayOfWeek); ok {
			want := textnorm.SpanishWeekday(day)
			preds = append(preds, func(r store.OutletRecord) bool {
				return textnorm.Normalize(r.DayOfWeek) == want
			})
		}
	}
	rows = filterRows(rows, preds...)

	return state.Partial{OnDuty: &state.OutletResult{
		Rows:      capRows(rows, MaxRows),
		Tier:      res.Tier,
		Exhausted: res.Exhausted,
	}}, nil
}

func (h *Scheduled) weekday(s string) (time.Weekday, bool) {
	if isRelative(s) {
		return h.now().Weekday(), true
	}
	return textnorm.ParseWeekday(s)
}

func isRelative(s string) bool {
	_, ok := relativeDays[textnorm.Normalize(s)]
	return ok
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006", "02-01-06", "2006/01/02"}

// sameDate compares two dates written in any of the layouts the feed and
// users are seen to use, falling back to comparing their digits.
func sameDate(a, b string) bool {
	ta, okA := parseDate(a)
	tb, okB := parseDate(b)
	if okA && okB {
		return ta.Equal(tb)
	}
	return textnorm.Digits(a) != "" && textnorm.Digits(a) == textnorm.Digits(b)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
