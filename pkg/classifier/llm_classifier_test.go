package classifier

import (
	"context"
	"errors"
	"testing"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/llm"
	"med-agent-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	reply   string
	err     error
	history []llm.Message
	opts    llm.Options
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	s.history = history
	s.opts = llm.Apply(llm.Options{}, opts...)
	return s.reply, s.err
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func newTestClassifier(reply string, err error) (*LLMClassifier, *scriptedLLM) {
	fake := &scriptedLLM{reply: reply, err: err}
	return NewLLMClassifier(fake, logger.NewNopLogger()), fake
}

func TestGate(t *testing.T) {
	c, fake := newTestClassifier("```json\n{\"blocked\": true, \"policy_message\": \"  I'm sorry, but I can't provide medical recommendations. Ask a doctor. \"}\n```", nil)

	v, err := c.Gate(context.Background(), "how much ibuprofen should I take")
	require.NoError(t, err)
	assert.True(t, v.Blocked)
	assert.Equal(t, "I'm sorry, but I can't provide medical recommendations. Ask a doctor.", v.PolicyMessage)
	assert.True(t, fake.opts.JSONMode)
	assert.Equal(t, 0.0, fake.opts.Temperature)
	require.Len(t, fake.history, 2)
	assert.Equal(t, "system", fake.history[0].Role)
}

func TestGate_MissingBlockedIsMalformed(t *testing.T) {
	c, _ := newTestClassifier(`{"policy_message": "x"}`, nil)

	_, err := c.Gate(context.Background(), "hi")

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, TaskGate, cerr.Task)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestGate_ProviderFailureIsTyped(t *testing.T) {
	boom := errors.New("connection refused")
	c, _ := newTestClassifier("", boom)

	_, err := c.Gate(context.Background(), "hi")

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, boom)
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr bool
		check   func(t *testing.T, d decision.RouteDecision)
	}{
		{
			name:  "multi route with location",
			reply: `Sure! {"route": "locator", "routes": ["locator", "scheduled_service", "weather"], "location": " Springfield ", "phone": "", "lat": -37.2, "address_mode": true}`,
			check: func(t *testing.T, d decision.RouteDecision) {
				assert.Equal(t, decision.RouteLocator, d.Primary)
				assert.Equal(t, []decision.Route{decision.RouteLocator, decision.RouteScheduledService}, d.Routes)
				require.NotNil(t, d.Attributes.Location)
				assert.Equal(t, "Springfield", *d.Attributes.Location)
				assert.Nil(t, d.Attributes.Phone)
				require.NotNil(t, d.Attributes.Lat)
				assert.Equal(t, -37.2, *d.Attributes.Lat)
				assert.True(t, d.AddressMode)
			},
		},
		{
			name:  "alias route name",
			reply: `{"route": "saludo", "routes": null, "location": "null"}`,
			check: func(t *testing.T, d decision.RouteDecision) {
				assert.Equal(t, decision.RouteGreeting, d.Primary)
				assert.Empty(t, d.Routes)
				assert.Nil(t, d.Attributes.Location)
			},
		},
		{name: "unknown primary", reply: `{"route": "weather"}`, wantErr: true},
		{name: "no json", reply: `I think this is about pharmacies`, wantErr: true},
		{
			name:  "numeric ids and phone",
			reply: `{"route":"locator","routes":["locator","scheduled_service"],"location":"Lebu","region_id":8,"phone":56412345678,"open_hour":9}`,
			check: func(t *testing.T, d decision.RouteDecision) {
				assert.Equal(t, decision.RouteLocator, d.Primary)
				assert.Equal(t, []decision.Route{decision.RouteLocator, decision.RouteScheduledService}, d.Routes)
				require.NotNil(t, d.Attributes.Location)
				assert.Equal(t, "Lebu", *d.Attributes.Location)
				require.NotNil(t, d.Attributes.RegionID)
				assert.Equal(t, "8", *d.Attributes.RegionID)
				require.NotNil(t, d.Attributes.Phone)
				assert.Equal(t, "56412345678", *d.Attributes.Phone)
				require.NotNil(t, d.Attributes.OpenHour)
				assert.Equal(t, "9", *d.Attributes.OpenHour)
			},
		},
		{
			name:  "mistyped attributes are dropped",
			reply: `{"route": "locator", "lat": "south", "lng": "-73.65", "location": 12, "region_id": {"id": 8}, "date": true}`,
			check: func(t *testing.T, d decision.RouteDecision) {
				assert.Equal(t, decision.RouteLocator, d.Primary)
				assert.Nil(t, d.Attributes.Lat)
				require.NotNil(t, d.Attributes.Lng)
				assert.Equal(t, -73.65, *d.Attributes.Lng)
				assert.Nil(t, d.Attributes.Location)
				assert.Nil(t, d.Attributes.RegionID)
				assert.Nil(t, d.Attributes.Date)
			},
		},
		{name: "wrong route type", reply: `{"route": 3}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClassifier(tt.reply, nil)
			d, err := c.Route(context.Background(), "text")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			tt.check(t, d)
		})
	}
}

func TestCatalogIntent(t *testing.T) {
	c, _ := newTestClassifier(`{"mode": "list_by_class", "target": "antibióticos"}`, nil)

	intent, err := c.CatalogIntent(context.Background(), "which antibiotics exist?")
	require.NoError(t, err)
	assert.Equal(t, ModeListByClass, intent.Mode)
	assert.Equal(t, "antibióticos", intent.Target)

	field, ok := intent.Mode.Field()
	assert.True(t, ok)
	assert.Equal(t, store.FieldClass, field)

	_, ok = ModeByName.Field()
	assert.False(t, ok)
}

func TestCatalogIntent_RejectsUnknownMode(t *testing.T) {
	c, _ := newTestClassifier(`{"mode": "list_by_color"}`, nil)

	_, err := c.CatalogIntent(context.Background(), "red pills")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestTranslate(t *testing.T) {
	c, fake := newTestClassifier("Antibiotics, antibiotic, ABX, antibacterial, antibiotics, antimicrobial", nil)

	aliases, err := c.Translate(context.Background(), "antibióticos")
	require.NoError(t, err)
	assert.Equal(t, []string{"antibiotics", "antibiotic", "antibacterial"}, aliases)
	assert.False(t, fake.opts.JSONMode)

	empty, err := c.Translate(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
