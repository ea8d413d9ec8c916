package handler

import (
	"context"
	"net/url"
	"time"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/fetch"
	"med-agent-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// Fetcher is the part of the tiered fetcher the feeds need.
type Fetcher interface {
	Fetch(ctx context.Context, primaryURL, alternateURL string, params url.Values) fetch.Result
}

type FeedConfig struct {
	OutletsURL    string
	OutletsAltURL string
	OnDutyURL     string
	OnDutyAltURL  string
	CacheTTL      time.Duration
}

// FeedResult is a decoded feed snapshot.
type FeedResult struct {
	Rows      []store.OutletRecord
	Tier      fetch.Tier
	Exhausted bool
}

// Feed reads the outlet and on-duty feeds through the tiered fetcher and
// keeps successful snapshots for CacheTTL. Exhausted results are not cached.
type Feed struct {
	fetcher Fetcher
	cfg     FeedConfig
	cache   *cache.Cache
	logger  logger.ILogger
}

func NewFeed(f Fetcher, cfg FeedConfig, log logger.ILogger) *Feed {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Feed{
		fetcher: f,
		cfg:     cfg,
		cache:   cache.New(ttl, 10*time.Minute),
		logger:  log,
	}
}

// Outlets returns the general outlet feed. The upstream ignores filter
// parameters, so none are sent.
func (f *Feed) Outlets(ctx context.Context) FeedResult {
	return f.load(ctx, f.cfg.OutletsURL, f.cfg.OutletsAltURL)
}

// OnDuty returns the scheduled-service (on-duty) feed.
func (f *Feed) OnDuty(ctx context.Context) FeedResult {
	return f.load(ctx, f.cfg.OnDutyURL, f.cfg.OnDutyAltURL)
}

func (f *Feed) load(ctx context.Context, primary, alternate string) FeedResult {
	if f.cfg.CacheTTL > 0 {
		if v, ok := f.cache.Get(primary); ok {
			return v.(FeedResult)
		}
	}

	res := f.fetcher.Fetch(ctx, primary, alternate, nil)
	raw := res.Rows()
	rows := make([]store.OutletRecord, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, store.OutletFromMap(r))
	}
	out := FeedResult{Rows: rows, Tier: res.Tier, Exhausted: res.Exhausted}

	if res.Exhausted {
		f.logger.Warn(module, "Feed unavailable on every tier", map[string]interface{}{"url": primary})
		return out
	}
	if f.cfg.CacheTTL > 0 {
		f.cache.SetDefault(primary, out)
	}
	f.logger.Debug(module, "Feed loaded", map[string]interface{}{"url": primary, "tier": res.Tier, "rows": len(rows)})
	return out
}
