package dispatch

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/ai/handler"
	"med-agent-be/pkg/ai/response"
	"med-agent-be/pkg/ai/state"
	"med-agent-be/pkg/catalog"
	"med-agent-be/pkg/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFetcher map[string][]any

func (f staticFetcher) Fetch(ctx context.Context, primaryURL, alternateURL string, params url.Values) fetch.Result {
	rows, ok := f[primaryURL]
	if !ok {
		return fetch.Result{Payload: fetch.EmptyPayload(), Exhausted: true}
	}
	return fetch.Result{Payload: rows, Tier: fetch.TierPrimary}
}

type funcHandler struct {
	route decision.Route
	delay time.Duration
	fn    func() (state.Partial, error)
}

func (h funcHandler) Route() decision.Route { return h.route }

func (h funcHandler) Handle(ctx context.Context, req handler.Request) (state.Partial, error) {
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	return h.fn()
}

func TestDispatch_LocatorAndScheduledPopulateSeparateSections(t *testing.T) {
	fetcher := staticFetcher{
		"outlets": {
			map[string]any{"local_nombre": "GENERAL SPRINGFIELD", "comuna_nombre": "Springfield", "local_direccion": "EVERGREEN 742"},
			map[string]any{"local_nombre": "GENERAL SHELBYVILLE", "comuna_nombre": "Shelbyville"},
		},
		"duty": {
			map[string]any{"local_nombre": "TURNO SPRINGFIELD", "comuna_nombre": "SPRINGFIELD", "funcionamiento_dia": "lunes"},
		},
	}
	log := logger.NewNopLogger()
	feed := handler.NewFeed(fetcher, handler.FeedConfig{OutletsURL: "outlets", OnDutyURL: "duty"}, log)
	d := New([]handler.Handler{handler.NewLocator(feed, log), handler.NewScheduled(feed, log)}, log)

	loc := "Springfield"
	rd := decision.RouteDecision{
		Primary:    decision.RouteLocator,
		Routes:     []decision.Route{decision.RouteScheduledService, decision.RouteLocator},
		Attributes: decision.Attributes{Location: &loc},
	}
	text := "pharmacies and duty pharmacies in Springfield"
	st := state.New("s1", text, nil)
	st.Route = rd

	require.NoError(t, d.Dispatch(context.Background(), rd, text, st))

	require.NotNil(t, st.Outlets)
	require.NotNil(t, st.OnDuty)
	require.Len(t, st.Outlets.Rows, 1)
	require.Len(t, st.OnDuty.Rows, 1)
	assert.Equal(t, "GENERAL SPRINGFIELD", st.Outlets.Rows[0].Name)
	assert.Equal(t, "TURNO SPRINGFIELD", st.OnDuty.Rows[0].Name)
	assert.False(t, st.Outlets.Fallback)
	assert.Equal(t, []decision.Route{decision.RouteLocator, decision.RouteScheduledService}, st.Ran)

	out := response.New(log).Render(context.Background(), st)
	iOutlets := strings.Index(out, response.TitleOutlets)
	iDuty := strings.Index(out, response.TitleOnDuty)
	require.True(t, iOutlets >= 0 && iDuty > iOutlets, out)
	assert.NotContains(t, out[iOutlets:iDuty], "TURNO")
	assert.NotContains(t, out[iDuty:], "GENERAL")
	assert.True(t, strings.HasSuffix(out, response.Disclaimer))
}

func TestDispatch_MergesInPriorityOrderRegardlessOfCompletion(t *testing.T) {
	greeting := "hi"
	d := New([]handler.Handler{
		funcHandler{route: decision.RouteLocator, delay: 30 * time.Millisecond, fn: func() (state.Partial, error) {
			return state.Partial{Outlets: &state.OutletResult{}}, nil
		}},
		funcHandler{route: decision.RouteGreeting, fn: func() (state.Partial, error) {
			return state.Partial{Greeting: &greeting}, nil
		}},
	}, logger.NewNopLogger())

	st := state.New("s1", "x", nil)
	rd := decision.RouteDecision{Routes: []decision.Route{decision.RouteGreeting, decision.RouteLocator}}

	require.NoError(t, d.Dispatch(context.Background(), rd, "x", st))
	assert.Equal(t, []decision.Route{decision.RouteLocator, decision.RouteGreeting}, st.Ran)
}

func TestDispatch_PrimaryOnlyWhenRoutesEmpty(t *testing.T) {
	calls := map[decision.Route]int{}
	mk := func(r decision.Route) handler.Handler {
		return funcHandler{route: r, fn: func() (state.Partial, error) {
			calls[r]++
			return state.Partial{}, nil
		}}
	}
	d := New([]handler.Handler{mk(decision.RouteCatalog)}, logger.NewNopLogger())

	st := state.New("s1", "x", nil)
	require.NoError(t, d.Dispatch(context.Background(), decision.RouteDecision{Primary: decision.RouteCatalog}, "x", st))

	assert.Equal(t, 1, calls[decision.RouteCatalog])
	assert.Equal(t, []decision.Route{decision.RouteCatalog}, st.Ran)
}

func TestDispatch_HandlerErrors(t *testing.T) {
	okGreeting := "hello"
	greeting := funcHandler{route: decision.RouteGreeting, fn: func() (state.Partial, error) {
		return state.Partial{Greeting: &okGreeting}, nil
	}}

	t.Run("ordinary failure leaves section empty", func(t *testing.T) {
		failing := funcHandler{route: decision.RouteLocator, fn: func() (state.Partial, error) {
			return state.Partial{}, errors.New("boom")
		}}
		d := New([]handler.Handler{failing, greeting}, logger.NewNopLogger())
		st := state.New("s1", "x", nil)

		err := d.Dispatch(context.Background(), decision.RouteDecision{
			Routes: []decision.Route{decision.RouteLocator, decision.RouteGreeting, decision.Route("weather")},
		}, "x", st)

		require.NoError(t, err)
		assert.Nil(t, st.Outlets)
		assert.Equal(t, []decision.Route{decision.RouteGreeting}, st.Ran)
	})

	t.Run("index unavailable aborts", func(t *testing.T) {
		failing := funcHandler{route: decision.RouteCatalog, fn: func() (state.Partial, error) {
			return state.Partial{}, catalog.ErrIndexUnavailable
		}}
		d := New([]handler.Handler{failing, greeting}, logger.NewNopLogger())
		st := state.New("s1", "x", nil)

		err := d.Dispatch(context.Background(), decision.RouteDecision{
			Routes: []decision.Route{decision.RouteCatalog, decision.RouteGreeting},
		}, "x", st)

		assert.ErrorIs(t, err, catalog.ErrIndexUnavailable)
		assert.Empty(t, st.Ran)
	})
}
