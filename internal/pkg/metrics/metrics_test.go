package metrics

import (
	"testing"
	"time"

	"med-agent-be/pkg/fetch"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveFetch(t *testing.T) {
	m := New()

	m.ObserveFetch(fetch.TierPrimary, false)
	m.ObserveFetch(fetch.TierAlternate, true)
	m.ObserveFetch(fetch.TierAlternate, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchTiers.WithLabelValues("primary", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetchTiers.WithLabelValues("alternate", "ok")))
}

func TestObserveTurn(t *testing.T) {
	m := New()

	m.ObserveTurn(Turn{Routes: []string{"locator", "scheduled_service"}, Fallback: true, Latency: time.Second})
	m.ObserveTurn(Turn{Blocked: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("false", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("true", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.routes.WithLabelValues("locator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.catalogEmpty))
}
