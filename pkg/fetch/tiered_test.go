package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"med-agent-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hitCounter struct {
	mu   sync.Mutex
	hits map[string]int
	urls map[string][]string
}

func newHitCounter() *hitCounter {
	return &hitCounter{hits: map[string]int{}, urls: map[string][]string{}}
}

func (h *hitCounter) record(path string, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[path]++
	h.urls[path] = append(h.urls[path], r.URL.String())
}

func (h *hitCounter) count(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

func testConfig(base string) Config {
	cfg := DefaultConfig()
	cfg.Backoff = time.Millisecond
	cfg.Timeout = 2 * time.Second
	cfg.Budget = 5 * time.Second
	cfg.RelayA = base + "/relay-a?url=%s"
	cfg.RelayB = base + "/relay-b?u=%s"
	return cfg
}

func TestFetch_PrimaryForbiddenFallsBackToAlternate(t *testing.T) {
	hits := newHitCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.record(r.URL.Path, r)
		switch r.URL.Path {
		case "/primary":
			w.WriteHeader(http.StatusForbidden)
		case "/alternate":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`[{"local_nombre":"FARMACIA UNO","comuna_nombre":"SPRINGFIELD"}]`))
		default:
			t.Errorf("unexpected tier hit: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	var observed []Tier
	f := New(testConfig(srv.URL), logger.NewNopLogger(), WithObserver(func(tier Tier, ok bool) {
		observed = append(observed, tier)
	}))

	res := f.Fetch(context.Background(), srv.URL+"/primary", srv.URL+"/alternate", nil)

	assert.False(t, res.Exhausted)
	assert.Equal(t, TierAlternate, res.Tier)
	rows := res.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "FARMACIA UNO", rows[0]["local_nombre"])
	assert.Equal(t, 2, hits.count("/primary"), "403 is retried exactly once")
	assert.Equal(t, []Tier{TierPrimary, TierAlternate}, observed)
}

func TestFetch_AllTiersUnparseableReturnsEmptyDefault(t *testing.T) {
	hits := newHitCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.record(r.URL.Path, r)
		_, _ = w.Write([]byte("<html>Access denied</html>"))
	}))
	defer srv.Close()

	f := New(testConfig(srv.URL), logger.NewNopLogger())

	var res Result
	assert.NotPanics(t, func() {
		res = f.Fetch(context.Background(), srv.URL+"/primary", srv.URL+"/alternate", url.Values{"comuna_nombre": {"Lebu"}})
	})

	assert.True(t, res.Exhausted)
	assert.Equal(t, EmptyPayload(), res.Payload)
	assert.Empty(t, res.Rows())
	for _, path := range []string{"/primary", "/alternate", "/relay-a", "/relay-b"} {
		assert.Equal(t, 1, hits.count(path), "tier %s tried once", path)
	}
}

func TestFetch_RetriesOnceOnTooManyRequests(t *testing.T) {
	hits := newHitCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.record(r.URL.Path, r)
		if hits.count(r.URL.Path) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"local_nombre":"A"}]}`))
	}))
	defer srv.Close()

	f := New(testConfig(srv.URL), logger.NewNopLogger())
	res := f.Fetch(context.Background(), srv.URL+"/primary", "", nil)

	assert.Equal(t, TierPrimary, res.Tier)
	assert.Len(t, res.Rows(), 1)
	assert.Equal(t, 2, hits.count("/primary"))
}

func TestFetch_ServerErrorIsNotRetried(t *testing.T) {
	hits := newHitCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.record(r.URL.Path, r)
		if r.URL.Path == "/primary" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := New(testConfig(srv.URL), logger.NewNopLogger())
	res := f.Fetch(context.Background(), srv.URL+"/primary", srv.URL+"/alternate", nil)

	assert.Equal(t, TierAlternate, res.Tier)
	assert.Equal(t, 1, hits.count("/primary"))
}

func TestFetch_RelayWrapsFullyQualifiedPrimaryURL(t *testing.T) {
	hits := newHitCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.record(r.URL.Path, r)
		if r.URL.Path == "/relay-a" {
			_, _ = w.Write([]byte("\xEF\xBB\xBF  [{\"local_nombre\":\"RELAYED\"}]\n"))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := New(testConfig(srv.URL), logger.NewNopLogger())
	params := url.Values{"comuna_nombre": {"Los Angeles"}}
	res := f.Fetch(context.Background(), srv.URL+"/primary", "", params)

	require.Equal(t, TierRelayA, res.Tier)
	require.Len(t, hits.urls["/relay-a"], 1)

	relayed, err := url.Parse(hits.urls["/relay-a"][0])
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/primary?comuna_nombre=Los+Angeles", relayed.Query().Get("url"))
	assert.Equal(t, 0, hits.count("/alternate"), "empty alternate URL is skipped")
}

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := New(testConfig(srv.URL), logger.NewNopLogger())
	f.Fetch(context.Background(), srv.URL+"/primary", "", nil)
	got := <-headers

	assert.Contains(t, got.Get("User-Agent"), "Mozilla/5.0")
	assert.NotEmpty(t, got.Get("Accept"))
	assert.Equal(t, srv.URL+"/", got.Get("Referer"))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, v any)
	}{
		{
			name: "strict array",
			body: `[{"a":1}]`,
			check: func(t *testing.T, v any) {
				assert.Len(t, v, 1)
			},
		},
		{
			name: "bom and whitespace",
			body: "\xEF\xBB\xBF\n  {\"data\":[]}  ",
			check: func(t *testing.T, v any) {
				assert.Contains(t, v, "data")
			},
		},
		{
			name: "trailing garbage after value",
			body: `{"data":[{"a":"b"}]} <!-- cached -->`,
			check: func(t *testing.T, v any) {
				assert.Contains(t, v, "data")
			},
		},
		{
			name: "embedded in html",
			body: `<pre>callback([{"name":"x [1]"}]);</pre>`,
			check: func(t *testing.T, v any) {
				arr, ok := v.([]any)
				require.True(t, ok)
				assert.Equal(t, "x [1]", arr[0].(map[string]any)["name"])
			},
		},
		{name: "garbage", body: "Service Unavailable", wantErr: true},
		{name: "empty", body: "", wantErr: true},
		{name: "unbalanced", body: `{"a":[1,2}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUndecodable)
				return
			}
			require.NoError(t, err)
			tt.check(t, v)
		})
	}
}
