package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"med-agent-be/internal/pkg/logger"
)

// Tier names one stage of the fallback chain.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierAlternate Tier = "alternate"
	TierRelayA    Tier = "relay_a"
	TierRelayB    Tier = "relay_b"
)

const module = "FETCH"

// Result is the outcome of one Fetch call. Exhausted means every tier failed
// and Payload holds the empty default.
type Result struct {
	Payload   any
	Tier      Tier
	Exhausted bool
}

// EmptyPayload is the default returned when no tier produced usable data.
func EmptyPayload() map[string]any {
	return map[string]any{"data": []any{}}
}

// Rows flattens the payload into feed rows. Both a bare array and an object
// wrapping the array under "data" are accepted; anything else yields nil.
func (r Result) Rows() []map[string]any {
	var items []any
	switch p := r.Payload.(type) {
	case []any:
		items = p
	case map[string]any:
		if data, ok := p["data"].([]any); ok {
			items = data
		}
	}
	rows := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			rows = append(rows, m)
		}
	}
	return rows
}

// Config controls timeouts and the relay endpoints. Relay templates receive
// the escaped, fully-qualified primary request URL through a single %s.
type Config struct {
	Timeout     time.Duration
	Budget      time.Duration
	Backoff     time.Duration
	MaxAttempts int
	RelayA      string
	RelayB      string
	UserAgent   string
}

func DefaultConfig() Config {
	return Config{
		Timeout:     20 * time.Second,
		Budget:      25 * time.Second,
		Backoff:     500 * time.Millisecond,
		MaxAttempts: 2,
		RelayA:      "https://api.allorigins.win/raw?url=%s",
		RelayB:      "https://corsproxy.io/?%s",
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	}
}

// Strategy resolves the URL one tier requests. An empty URL skips the tier.
type Strategy struct {
	Tier    Tier
	Resolve func(primary, alternate string) string
}

// Observer is notified once per tier tried.
type Observer func(tier Tier, ok bool)

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithObserver(o Observer) Option {
	return func(f *Fetcher) { f.observer = o }
}

// WithStrategies replaces the default tier order.
func WithStrategies(s ...Strategy) Option {
	return func(f *Fetcher) { f.strategies = s }
}

// Fetcher retrieves JSON from unreliable upstream sources by walking an
// ordered list of strategies under one shared time budget.
type Fetcher struct {
	client     *http.Client
	cfg        Config
	strategies []Strategy
	observer   Observer
	logger     logger.ILogger
}

func New(cfg Config, log logger.ILogger, opts ...Option) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	f := &Fetcher{
		client: &http.Client{},
		cfg:    cfg,
		logger: log,
	}
	f.strategies = DefaultStrategies(cfg)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultStrategies is primary, alternate, then the two relays wrapping the
// primary request URL.
func DefaultStrategies(cfg Config) []Strategy {
	relay := func(tmpl string) func(primary, alternate string) string {
		return func(primary, _ string) string {
			if tmpl == "" || primary == "" {
				return ""
			}
			return fmt.Sprintf(tmpl, url.QueryEscape(primary))
		}
	}
	return []Strategy{
		{Tier: TierPrimary, Resolve: func(p, _ string) string { return p }},
		{Tier: TierAlternate, Resolve: func(_, a string) string { return a }},
		{Tier: TierRelayA, Resolve: relay(cfg.RelayA)},
		{Tier: TierRelayB, Resolve: relay(cfg.RelayB)},
	}
}

// Fetch never fails: when every tier is exhausted it returns EmptyPayload.
func (f *Fetcher) Fetch(ctx context.Context, primaryURL, alternateURL string, params url.Values) Result {
	if f.cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Budget)
		defer cancel()
	}

	primary := withParams(primaryURL, params)
	alternate := withParams(alternateURL, params)

	for _, s := range f.strategies {
		target := s.Resolve(primary, alternate)
		if target == "" {
			continue
		}
		if ctx.Err() != nil {
			f.logger.Warn(module, "Fetch budget exhausted", map[string]interface{}{"tier": s.Tier})
			break
		}

		payload, err := f.tryTier(ctx, target)
		if f.observer != nil {
			f.observer(s.Tier, err == nil)
		}
		if err != nil {
			f.logger.Warn(module, "Tier failed", map[string]interface{}{
				"tier":  s.Tier,
				"url":   target,
				"error": err.Error(),
			})
			continue
		}

		f.logger.Debug(module, "Tier succeeded", map[string]interface{}{"tier": s.Tier})
		return Result{Payload: payload, Tier: s.Tier}
	}

	return Result{Payload: EmptyPayload(), Exhausted: true}
}

func (f *Fetcher) tryTier(ctx context.Context, target string) (any, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		body, status, err := f.get(ctx, target, origin(target))
		if err != nil {
			return nil, err
		}
		if status == http.StatusForbidden || status == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("status %d", status)
			if attempt < f.cfg.MaxAttempts {
				if err := sleep(ctx, f.cfg.Backoff); err != nil {
					return nil, err
				}
			}
			continue
		}
		if status < 200 || status > 299 {
			return nil, fmt.Errorf("status %d", status)
		}
		return Decode(body)
	}
	return nil, fmt.Errorf("blocked after %d attempts: %w", f.cfg.MaxAttempts, lastErr)
}

func (f *Fetcher) get(ctx context.Context, target, referer string) ([]byte, int, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/javascript, text/plain, */*; q=0.01")
	req.Header.Set("Accept-Language", "es-CL,es;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func withParams(raw string, params url.Values) string {
	if raw == "" || len(params) == 0 {
		return raw
	}
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + params.Encode()
}

func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
