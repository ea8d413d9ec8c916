package gate

import (
	"context"
	"fmt"
	"strings"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/classifier"
	"med-agent-be/pkg/textnorm"
)

const module = "GATE"

// Markers are matched against normalized text padded with one space on each
// side, so a leading or trailing space in a marker anchors it to a word edge.
var (
	safeMarkers = []string{
		"what can you tell me", "can you tell me about", "tell me about", "information on",
		"information about", "what is ", "side effects", "adverse effects", "contraindications",
		"mechanism of action", "indications", "interactions of",
		"que me puedes", "me puedes decir", "informacion de", "informacion sobre", "que es ",
		"efectos adversos", "contraindicaciones", "mecanismo de accion", "indicaciones",
	}

	clinicalMarkers = []string{
		" take ", " taking ", "dosage", " dose", "how often", "how many pills", "how much should",
		" tomar ", "dosis", "posologia", "cada cuanto",
	}

	triggerPhrases = []string{
		"can i take", "what can i take", "what should i take", "should i take", "do you recommend",
		"what do you recommend", "recommend me", "dosage", " dose", "how often", "is it good for me",
		"will it help me", "must i take",
		"puedo tomar", "que puedo tomar", "me recomiendas", "que me recomiendas", "dosis", "posologia",
		"cada cuanto", "me hara bien", "me hace bien", "debo tomar", "deberia tomar",
	}

	takeVerbs  = textnorm.Set("take", "tomar")
	modalWords = textnorm.Set("can", "should", "must", "recommend", "puedo", "debo", "deberia", "recomiendas")
)

// Gate rejects requests for personalised medical advice.
//
// Local heuristics run first. A safe informational question is let through
// without asking the classifier. A request matching the trigger heuristics is
// always blocked and the classifier only supplies wording. Anything else is
// the classifier's call.
type Gate struct {
	classifier classifier.Classifier
	logger     logger.ILogger
}

func New(c classifier.Classifier, log logger.ILogger) *Gate {
	return &Gate{classifier: c, logger: log}
}

// Evaluate returns the gate decision for text. An error is returned only when
// the heuristics were inconclusive and the classifier failed.
func (g *Gate) Evaluate(ctx context.Context, text string) (decision.GateDecision, error) {
	normalized := textnorm.Normalize(text)

	if IsSafeInformational(normalized) {
		g.logger.Debug(module, "Safe informational request", nil)
		return decision.Allowed(), nil
	}

	if isTriggered(normalized) {
		verdict, err := g.classifier.Gate(ctx, text)
		if err != nil {
			g.logger.Warn(module, "Classifier unavailable for policy wording", map[string]interface{}{"error": err.Error()})
			return decision.Blocked(""), nil
		}
		return decision.Blocked(verdict.PolicyMessage), nil
	}

	verdict, err := g.classifier.Gate(ctx, text)
	if err != nil {
		return decision.GateDecision{}, fmt.Errorf("gate: %w", err)
	}
	if verdict.Blocked {
		return decision.Blocked(verdict.PolicyMessage), nil
	}
	return decision.Allowed(), nil
}

// IsSafeInformational reports whether normalized text carries an
// informational marker and no clinical-action marker.
func IsSafeInformational(normalized string) bool {
	padded := pad(normalized)
	return textnorm.ContainsAny(padded, safeMarkers) && !isClinical(padded)
}

func pad(normalized string) string {
	return " " + strings.TrimSpace(normalized) + " "
}

func isClinical(padded string) bool {
	return textnorm.ContainsAny(padded, clinicalMarkers)
}

func isTriggered(normalized string) bool {
	padded := pad(normalized)
	if textnorm.ContainsAny(padded, triggerPhrases) {
		return true
	}
	var hasTake, hasModal bool
	for _, w := range strings.Fields(padded) {
		if _, ok := takeVerbs[w]; ok {
			hasTake = true
		}
		if _, ok := modalWords[w]; ok {
			hasModal = true
		}
	}
	return hasTake && hasModal
}
