package router

import (
	"context"
	"strconv"
	"strings"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/classifier"
	"med-agent-be/pkg/textnorm"
)

const module = "ROUTER"

// Router assigns routes and attributes to a turn.
type Router struct {
	classifier classifier.Classifier
	logger     logger.ILogger
}

func New(c classifier.Classifier, log logger.ILogger) *Router {
	return &Router{classifier: c, logger: log}
}

// Classify asks the classifier for a route decision and cleans it up:
//   - attributes not grounded in the text are dropped
//   - a missing location is filled by local extraction
//   - AddressMode is set when the text looks like a street address
//
// On classifier failure the decision is {Primary: catalog} with the locally
// extracted location, and the error is returned alongside it.
func (r *Router) Classify(ctx context.Context, text string) (decision.RouteDecision, error) {
	d, err := r.classifier.Route(ctx, text)
	if err != nil {
		r.logger.Warn(module, "Classifier failed, defaulting to catalog", map[string]interface{}{"error": err.Error()})
		d = decision.RouteDecision{Primary: decision.RouteCatalog}
	} else {
		d.Attributes = Ground(d.Attributes, text)
	}

	if d.Attributes.Location == nil {
		if location, _ := textnorm.ExtractLocation(text); location != "" {
			d.Attributes.Location = &location
		}
	}
	d.AddressMode = d.AddressMode || d.Attributes.Address != nil || LooksLikeAddress(text)

	r.logger.Debug(module, "Route decided", map[string]interface{}{
		"primary":      d.Primary,
		"routes":       d.Routes,
		"address_mode": d.AddressMode,
	})
	return d, err
}

// Ground drops every attribute whose value does not appear in text. Phones
// compare by digits and weekdays match in either language.
func Ground(a decision.Attributes, text string) decision.Attributes {
	normalized := " " + textnorm.Normalize(text) + " "
	digits := textnorm.Digits(text)

	mentioned := func(v *string) *string {
		if v == nil {
			return nil
		}
		n := textnorm.Normalize(*v)
		if n == "" || !strings.Contains(normalized, " "+n+" ") {
			return nil
		}
		return v
	}
	mentionedNumber := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		n := textnorm.Normalize(strconv.FormatFloat(*v, 'f', -1, 64))
		if !strings.Contains(normalized, n) {
			return nil
		}
		return v
	}

	out := decision.Attributes{
		Location:    mentioned(a.Location),
		SubLocation: mentioned(a.SubLocation),
		Address:     mentioned(a.Address),
		Date:        mentioned(a.Date),
		RegionID:    mentioned(a.RegionID),
		LocalityID:  mentioned(a.LocalityID),
		SubLocalID:  mentioned(a.SubLocalID),
		OrgName:     mentioned(a.OrgName),
		OpenHour:    mentioned(a.OpenHour),
		CloseHour:   mentioned(a.CloseHour),
		Lat:         mentionedNumber(a.Lat),
		Lng:         mentionedNumber(a.Lng),
	}

	if a.Phone != nil {
		if p := textnorm.Digits(*a.Phone); p != "" && strings.Contains(digits, p) {
			out.Phone = a.Phone
		}
	}

	if a.DayOfWeek != nil {
		out.DayOfWeek = mentioned(a.DayOfWeek)
		if day, ok := textnorm.ParseWeekday(*a.DayOfWeek); ok && out.DayOfWeek == nil {
			for _, w := range strings.Fields(normalized) {
				if other, ok := textnorm.ParseWeekday(w); ok && other == day {
					out.DayOfWeek = a.DayOfWeek
					break
				}
			}
		}
	}
	return out
}
