package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"med-agent-be/internal/constant"
	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/llm"
	"med-agent-be/pkg/textnorm"

	"github.com/go-playground/validator/v10"
)

const module = "CLASSIFIER"

const maxAliases = 3

type gateWire struct {
	Blocked       *bool   `json:"blocked" validate:"required"`
	PolicyMessage *string `json:"policy_message"`
}

type routeWire struct {
	Route       string   `json:"route" validate:"required"`
	Routes      []string `json:"routes" validate:"omitempty,max=4"`
	AddressMode *bool    `json:"address_mode"`
}

type intentWire struct {
	Mode   string  `json:"mode" validate:"required,oneof=by_name list_by_class list_by_indications list_by_mechanism list_by_route list_by_pregnancy_category"`
	Target *string `json:"target"`
}

// LLMClassifier implements Classifier by prompting an LLMProvider with a
// fixed JSON schema per task and validating what comes back.
type LLMClassifier struct {
	provider llm.LLMProvider
	validate *validator.Validate
	logger   logger.ILogger
}

var _ Classifier = &LLMClassifier{}

func NewLLMClassifier(provider llm.LLMProvider, log logger.ILogger) *LLMClassifier {
	return &LLMClassifier{
		provider: provider,
		validate: validator.New(),
		logger:   log,
	}
}

func (c *LLMClassifier) ask(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	opts := []llm.Option{llm.WithTemperature(0)}
	if jsonMode {
		opts = append(opts, llm.WithJSONMode())
	}
	return c.provider.Chat(ctx, []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: system},
		{Role: constant.ChatMessageRoleUser, Content: user},
	}, opts...)
}

func (c *LLMClassifier) decode(task Task, raw string, out interface{}) error {
	body, ok := extractObject(raw)
	if !ok {
		c.logger.Warn(module, "No JSON object in classifier output", map[string]interface{}{
			"task":   task,
			"output": truncate(raw, 300),
		})
		return fail(task, ErrMalformed)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fail(task, fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if err := c.validate.Struct(out); err != nil {
		return fail(task, fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	return nil
}

// decodeAttributes reads the optional route attributes field by field. A
// field of the wrong type is dropped on its own; ids, phone and hours may
// arrive as numbers.
func (c *LLMClassifier) decodeAttributes(raw string) decision.Attributes {
	var a decision.Attributes
	body, ok := extractObject(raw)
	if !ok {
		return a
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return a
	}

	textFields := map[string]**string{
		"location":     &a.Location,
		"sub_location": &a.SubLocation,
		"address":      &a.Address,
		"date":         &a.Date,
		"day_of_week":  &a.DayOfWeek,
		"org_name":     &a.OrgName,
	}
	numericFields := map[string]**string{
		"region_id":       &a.RegionID,
		"locality_id":     &a.LocalityID,
		"sub_locality_id": &a.SubLocalID,
		"phone":           &a.Phone,
		"open_hour":       &a.OpenHour,
		"close_hour":      &a.CloseHour,
	}
	for key, dst := range textFields {
		c.assignString(fields, key, dst, false)
	}
	for key, dst := range numericFields {
		c.assignString(fields, key, dst, true)
	}
	for key, dst := range map[string]**float64{"lat": &a.Lat, "lng": &a.Lng} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if v, ok := coerceFloat(raw); ok {
			*dst = &v
		} else if !isNull(raw) {
			c.logger.Debug(module, "Dropping mistyped attribute", map[string]interface{}{"field": key})
		}
	}
	return cleanAttributes(a)
}

func (c *LLMClassifier) assignString(fields map[string]json.RawMessage, key string, dst **string, allowNumber bool) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return
	}
	if v, ok := coerceString(raw, allowNumber); ok {
		*dst = &v
		return
	}
	c.logger.Debug(module, "Dropping mistyped attribute", map[string]interface{}{"field": key})
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func coerceString(raw json.RawMessage, allowNumber bool) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	if !allowNumber {
		return "", false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func coerceFloat(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func (c *LLMClassifier) Gate(ctx context.Context, text string) (GateVerdict, error) {
	raw, err := c.ask(ctx, constant.GateSystemPrompt, text, true)
	if err != nil {
		return GateVerdict{}, fail(TaskGate, err)
	}

	var wire gateWire
	if err := c.decode(TaskGate, raw, &wire); err != nil {
		return GateVerdict{}, err
	}

	verdict := GateVerdict{Blocked: *wire.Blocked}
	if wire.PolicyMessage != nil {
		verdict.PolicyMessage = strings.TrimSpace(*wire.PolicyMessage)
	}
	return verdict, nil
}

func (c *LLMClassifier) Route(ctx context.Context, text string) (decision.RouteDecision, error) {
	raw, err := c.ask(ctx, constant.RouterSystemPrompt, text, true)
	if err != nil {
		return decision.RouteDecision{}, fail(TaskRoute, err)
	}

	var wire routeWire
	if err := c.decode(TaskRoute, raw, &wire); err != nil {
		return decision.RouteDecision{}, err
	}

	primary, err := decision.ParseRoute(wire.Route)
	if err != nil {
		return decision.RouteDecision{}, fail(TaskRoute, fmt.Errorf("%w: %v", ErrMalformed, err))
	}

	out := decision.RouteDecision{
		Primary:    primary,
		Attributes: c.decodeAttributes(raw),
	}
	for _, r := range wire.Routes {
		route, err := decision.ParseRoute(r)
		if err != nil {
			c.logger.Debug(module, "Dropping unknown route", map[string]interface{}{"route": r})
			continue
		}
		out.Routes = append(out.Routes, route)
	}
	if wire.AddressMode != nil {
		out.AddressMode = *wire.AddressMode
	}
	return out, nil
}

func (c *LLMClassifier) CatalogIntent(ctx context.Context, text string) (CatalogIntent, error) {
	raw, err := c.ask(ctx, constant.CatalogIntentSystemPrompt, text, true)
	if err != nil {
		return CatalogIntent{}, fail(TaskCatalogIntent, err)
	}

	var wire intentWire
	if err := c.decode(TaskCatalogIntent, raw, &wire); err != nil {
		return CatalogIntent{}, err
	}

	intent := CatalogIntent{Mode: IntentMode(wire.Mode)}
	if wire.Target != nil {
		intent.Target = strings.TrimSpace(*wire.Target)
	}
	return intent, nil
}

func (c *LLMClassifier) Translate(ctx context.Context, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	raw, err := c.ask(ctx, constant.TranslateSystemPrompt, term, false)
	if err != nil {
		return nil, fail(TaskTranslate, err)
	}
	return parseAliases(raw), nil
}

// parseAliases splits a comma separated answer into normalized aliases longer
// than three characters, deduplicated, at most maxAliases.
func parseAliases(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, item := range strings.Split(raw, ",") {
		norm := textnorm.Normalize(item)
		if len(norm) <= 3 {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
		if len(out) == maxAliases {
			break
		}
	}
	return out
}

func cleanAttributes(a decision.Attributes) decision.Attributes {
	for _, p := range []**string{
		&a.Location, &a.SubLocation, &a.Address, &a.Date, &a.DayOfWeek,
		&a.RegionID, &a.LocalityID, &a.SubLocalID, &a.OrgName, &a.Phone,
		&a.OpenHour, &a.CloseHour,
	} {
		if *p == nil {
			continue
		}
		v := strings.TrimSpace(**p)
		if v == "" || strings.EqualFold(v, "null") {
			*p = nil
			continue
		}
		*p = &v
	}
	return a
}

// extractObject pulls the outermost JSON object out of a model reply that may
// be wrapped in code fences or prose.
func extractObject(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
