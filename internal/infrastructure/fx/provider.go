package fx

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/metrics"
	"github.com/iho/gesledger/internal/usecase"
)

const cacheKey = "fx:" + domain.PairUSDTRY

// Config for Provider.
type Config struct {
	Source       Source
	Cache        usecase.Cache // optional last-known-good store shared across instances
	FallbackRate decimal.Decimal
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// Provider implements usecase.FXProvider. CurrentRate never calls the
// upstream; it serves the last refreshed quote, then the cached one, then the
// configured fallback.
type Provider struct {
	source       Source
	cache        usecase.Cache
	fallbackRate decimal.Decimal
	cacheTTL     time.Duration
	fetchTimeout time.Duration
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	now          func() time.Time

	mu   sync.RWMutex
	last *domain.FXQuote
}

// NewProvider creates a new Provider.
func NewProvider(cfg Config) *Provider {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	return &Provider{
		source:       cfg.Source,
		cache:        cfg.Cache,
		fallbackRate: cfg.FallbackRate,
		cacheTTL:     cfg.CacheTTL,
		fetchTimeout: cfg.FetchTimeout,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger.With().Str("component", "fx").Logger(),
		now:          time.Now,
	}
}

type cachedQuote struct {
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// CurrentRate returns the best known quote.
func (p *Provider) CurrentRate(ctx context.Context) (domain.FXQuote, error) {
	p.mu.RLock()
	last := p.last
	p.mu.RUnlock()
	if last != nil {
		return *last, nil
	}

	if q, ok := p.fromCache(ctx); ok {
		p.remember(q)
		return q, nil
	}

	if p.fallbackRate.IsPositive() {
		return domain.FXQuote{Pair: domain.PairUSDTRY, Rate: p.fallbackRate, Stale: true}, nil
	}
	return domain.FXQuote{}, domain.ErrRateUnavailable
}

// Refresh fetches a fresh quote. On failure the last quote is kept and
// flagged stale.
func (p *Provider) Refresh(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	rate, err := p.source.Fetch(fetchCtx)
	if err != nil {
		p.recordRefresh("failure")
		p.markStale()
		p.logger.Warn().Err(err).Msg("fx refresh failed, serving last known rate")
		return err
	}

	quote := domain.FXQuote{Pair: domain.PairUSDTRY, Rate: rate, FetchedAt: p.now().UTC()}
	p.remember(quote)
	p.recordRefresh("success")
	if p.metrics != nil {
		p.metrics.FXRate.Set(rate.InexactFloat64())
	}

	if p.cache != nil {
		payload, _ := json.Marshal(cachedQuote{Rate: quote.Rate, FetchedAt: quote.FetchedAt})
		if err := p.cache.Set(ctx, cacheKey, payload, p.cacheTTL); err != nil {
			p.logger.Warn().Err(err).Msg("failed to cache fx rate")
		}
	}

	p.logger.Debug().Str("rate", rate.String()).Msg("fx rate refreshed")
	return nil
}

// Run refreshes every interval until ctx is cancelled.
func (p *Provider) Run(ctx context.Context, interval time.Duration) error {
	_ = p.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = p.Refresh(ctx)
		}
	}
}

func (p *Provider) fromCache(ctx context.Context) (domain.FXQuote, bool) {
	if p.cache == nil {
		return domain.FXQuote{}, false
	}
	raw, err := p.cache.Get(ctx, cacheKey)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			p.logger.Warn().Err(err).Msg("failed to read cached fx rate")
		}
		return domain.FXQuote{}, false
	}

	var cached cachedQuote
	if err := json.Unmarshal(raw, &cached); err != nil || !cached.Rate.IsPositive() {
		return domain.FXQuote{}, false
	}
	return domain.FXQuote{Pair: domain.PairUSDTRY, Rate: cached.Rate, FetchedAt: cached.FetchedAt, Stale: true}, true
}

func (p *Provider) remember(q domain.FXQuote) {
	p.mu.Lock()
	p.last = &q
	p.mu.Unlock()
}

func (p *Provider) markStale() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last != nil && !p.last.Stale {
		stale := *p.last
		stale.Stale = true
		p.last = &stale
	}
}

func (p *Provider) recordRefresh(result string) {
	if p.metrics != nil {
		p.metrics.FXRefreshes.WithLabelValues(result).Inc()
	}
}
