package response

import (
	"context"
	"errors"
	"strings"
	"testing"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/ai/state"
	"med-agent-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSynth struct {
	out    string
	err    error
	called bool
}

func (s *stubSynth) Synthesize(ctx context.Context, question, body string) (string, error) {
	s.called = true
	return s.out, s.err
}

func newState() *state.RequestState {
	return state.New("s1", "text", nil)
}

func TestRender_BlockedIsPolicyMessageOnly(t *testing.T) {
	st := newState()
	st.Gate = decision.Blocked("")
	st.Apply(decision.RouteLocator, state.Partial{Outlets: &state.OutletResult{Rows: []store.OutletRecord{{Name: "A"}}}})
	synth := &stubSynth{out: "rewritten"}

	out := New(logger.NewNopLogger(), WithSynthesizer(synth)).Render(context.Background(), st)

	assert.Equal(t, decision.CanonicalPolicyMessage, out)
	assert.False(t, synth.called)
}

func TestRender_GreetingOnly(t *testing.T) {
	st := newState()
	g := "Hello!"
	st.Apply(decision.RouteGreeting, state.Partial{Greeting: &g})

	out := New(logger.NewNopLogger()).Render(context.Background(), st)

	assert.Equal(t, "Hello!\n\n"+Disclaimer, out)
}

func TestRender_SectionsInOrderAndDisclaimerLast(t *testing.T) {
	st := newState()
	st.Apply(decision.RouteCatalog, state.Partial{Catalog: &state.CatalogResult{
		Entries: []store.CatalogEntry{{Name: "Ibuprofen", Fields: map[store.CatalogField]string{store.FieldClass: "NSAID"}}},
	}})
	st.Apply(decision.RouteScheduledService, state.Partial{OnDuty: &state.OutletResult{Rows: []store.OutletRecord{{Name: "TURNO", Locality: "LEBU"}}}})
	st.Apply(decision.RouteLocator, state.Partial{Outlets: &state.OutletResult{Rows: []store.OutletRecord{{Name: "GENERAL", Address: "PRAT 1", OpeningHour: "09:00", ClosingHour: "21:00"}}}})

	out := New(logger.NewNopLogger()).Render(context.Background(), st)

	iOutlets := strings.Index(out, TitleOutlets)
	iDuty := strings.Index(out, TitleOnDuty)
	iCatalog := strings.Index(out, TitleCatalogInfo)
	require.True(t, iOutlets >= 0 && iDuty >= 0 && iCatalog >= 0, out)
	assert.Less(t, iOutlets, iDuty)
	assert.Less(t, iDuty, iCatalog)
	assert.True(t, strings.HasSuffix(out, Disclaimer))
	assert.Contains(t, out, "- GENERAL, PRAT 1. Hours: 09:00-21:00")
	assert.Contains(t, out, "- Drug Class: NSAID")

	general := out[iOutlets:iDuty]
	assert.NotContains(t, general, "TURNO")
	assert.NotContains(t, out[iDuty:iCatalog], "GENERAL")
}

func TestRender_EmptySectionsOmitted(t *testing.T) {
	st := newState()
	st.Apply(decision.RouteLocator, state.Partial{Outlets: &state.OutletResult{}})
	st.Apply(decision.RouteScheduledService, state.Partial{OnDuty: &state.OutletResult{Rows: []store.OutletRecord{{Name: "TURNO"}}}})

	out := New(logger.NewNopLogger()).Render(context.Background(), st)

	assert.NotContains(t, out, TitleOutlets)
	assert.Contains(t, out, TitleOnDuty)
}

func TestRender_FallbackIsDisclosed(t *testing.T) {
	st := newState()
	loc := "Springfield"
	st.Route = decision.RouteDecision{Attributes: decision.Attributes{Location: &loc}}
	st.Apply(decision.RouteLocator, state.Partial{Outlets: &state.OutletResult{
		Rows:     []store.OutletRecord{{Name: "TURNO"}},
		Fallback: true,
	}})
	synth := &stubSynth{out: "A friendly rewrite."}

	out := New(logger.NewNopLogger(), WithSynthesizer(synth)).Render(context.Background(), st)

	assert.Contains(t, out, "no regular pharmacy listings for Springfield")
	assert.Contains(t, out, "A friendly rewrite.")
	assert.NotContains(t, out, TitleOutlets, "fallback rows are never labelled as general outlets")
	assert.True(t, strings.HasSuffix(out, Disclaimer))
}

func TestRender_FallbackNotDuplicatedWhenOnDutyRan(t *testing.T) {
	st := newState()
	rows := []store.OutletRecord{{Name: "TURNO"}}
	st.Apply(decision.RouteLocator, state.Partial{Outlets: &state.OutletResult{Rows: rows, Fallback: true}})
	st.Apply(decision.RouteScheduledService, state.Partial{OnDuty: &state.OutletResult{Rows: rows}})

	out := New(logger.NewNopLogger()).Render(context.Background(), st)

	assert.Equal(t, 1, strings.Count(out, "- TURNO"))
	assert.Contains(t, out, "no regular pharmacy listings")
}

func TestRender_SynthesizerFailureKeepsStructuredBody(t *testing.T) {
	for _, synth := range []*stubSynth{{err: errors.New("boom")}, {out: "   "}} {
		st := newState()
		st.Apply(decision.RouteCatalog, state.Partial{Catalog: &state.CatalogResult{
			ListMode: true, Field: store.FieldClass, Target: "antibiotics", Names: []string{"Amoxicillin"},
		}})

		out := New(logger.NewNopLogger(), WithSynthesizer(synth)).Render(context.Background(), st)

		assert.True(t, synth.called)
		assert.Contains(t, out, "Medication list (Drug Class: antibiotics):\n- Amoxicillin")
	}
}

func TestRender_NotFoundAndNoResults(t *testing.T) {
	st := newState()
	st.Apply(decision.RouteCatalog, state.Partial{Catalog: &state.CatalogResult{Target: "zzzmed", NotFound: true}})
	out := New(logger.NewNopLogger()).Render(context.Background(), st)
	assert.Equal(t, "I couldn't find \"zzzmed\" in the medication catalog.\n\n"+Disclaimer, out)

	st = newState()
	st.Apply(decision.RouteLocator, state.Partial{Outlets: &state.OutletResult{}})
	out = New(logger.NewNopLogger()).Render(context.Background(), st)
	assert.Equal(t, NoResults+"\n\n"+Disclaimer, out)
}

func TestRender_UpstreamExhaustedIsLabelled(t *testing.T) {
	st := newState()
	st.Apply(decision.RouteLocator, state.Partial{Outlets: &state.OutletResult{Exhausted: true}})

	out := New(logger.NewNopLogger()).Render(context.Background(), st)

	assert.Contains(t, out, "not responding")
	assert.NotContains(t, out, NoResults)
	assert.True(t, strings.HasSuffix(out, Disclaimer))
}
