// Package discovery finds a phone number for a company by running an ordered
// chain of fail-soft strategies: website guessing, homepage scraping, a web
// search, a business directory lookup and finally common contact pages.
package discovery

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/octobees/bedriftssok/internal/config"
	"github.com/octobees/bedriftssok/internal/logger"
)

// Provenance labels reported in Result.Source and Result.WebsiteSource.
const (
	SourceResolvedByGuessing = "resolved-by-guessing"
	SourceSearchEngine       = "search-engine"
	SourceBusinessDirectory  = "business-directory"
	SourceContactPage        = "contact-page"
	WebsiteSupplied          = "supplied"
)

// Request is the immutable input of a discovery run.
type Request struct {
	CompanyName string
	OrgNumber   string
	Website     string
}

// Result is the outcome of a run. PhoneNumber and Source are nil when nothing was found.
type Result struct {
	PhoneNumber   *string
	Source        *string
	Website       string
	WebsiteSource string
}

// Hit is a phone number produced by a strategy together with its provenance.
type Hit struct {
	Phone  string
	Source string
}

// Run carries the state of one discovery run between strategies.
type Run struct {
	Request       Request
	Website       string
	WebsiteSource string
}

// Strategy is one step of the fallback chain. Attempt must not return errors:
// failures are logged and reported as a miss.
type Strategy interface {
	Name() string
	Applies(run *Run) bool
	Attempt(ctx context.Context, run *Run) (Hit, bool)
}

// Pipeline runs its strategies in order and stops at the first hit.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	strategies []Strategy
	log        *zap.Logger
	metrics    *Metrics
}

type options struct {
	client     HTTPClient
	log        *zap.Logger
	sleep      Sleeper
	metrics    *Metrics
	strategies []Strategy
}

// Option configures optional pipeline dependencies.
type Option func(*options)

// WithHTTPClient overrides the outbound HTTP client.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		if client != nil {
			o.client = client
		}
	}
}

// WithLogger injects the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithSleeper replaces the politeness delay implementation.
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		if s != nil {
			o.sleep = s
		}
	}
}

// WithMetrics records strategy outcomes.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithStrategies replaces the default chain.
func WithStrategies(strategies ...Strategy) Option {
	return func(o *options) {
		o.strategies = strategies
	}
}

// New builds the default five-step pipeline from cfg.
func New(cfg config.DiscoveryConfig, opts ...Option) *Pipeline {
	o := options{
		client: &http.Client{Timeout: 30 * time.Second},
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrNop(o.log)

	strategies := o.strategies
	if strategies == nil {
		f := &fetcher{client: o.client, userAgent: cfg.UserAgent}
		strategies = []Strategy{
			&websiteResolver{fetch: f, timeout: cfg.ProbeTimeout, log: log},
			&websiteScraper{fetch: f, timeout: cfg.PageTimeout, log: log},
			&searchEngine{
				fetch:   f,
				baseURL: cfg.SearchEngineURL,
				timeout: cfg.QueryTimeout,
				delay:   cfg.SearchDelay,
				sleep:   o.sleep,
				log:     log,
			},
			&directory{
				fetch:      f,
				baseURL:    cfg.DirectoryURL,
				timeout:    cfg.QueryTimeout,
				delay:      cfg.DirectoryDelay,
				retryDelay: cfg.DirectoryRetryDelay,
				sleep:      o.sleep,
				log:        log,
			},
			&contactPages{fetch: f, paths: cfg.ContactPaths, timeout: cfg.ContactTimeout, log: log},
		}
	}

	return &Pipeline{strategies: strategies, log: log, metrics: o.metrics}
}

// Strategies returns the strategy names in execution order.
func (p *Pipeline) Strategies() []string {
	names := make([]string, 0, len(p.strategies))
	for _, s := range p.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Discover runs the chain for req. Not finding a number is a normal outcome.
func (p *Pipeline) Discover(ctx context.Context, req Request) Result {
	start := time.Now()
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.OrgNumber = strings.TrimSpace(req.OrgNumber)

	run := &Run{Request: req}
	if raw := strings.TrimSpace(req.Website); raw != "" {
		website, err := NormalizeWebsite(raw)
		if err != nil {
			p.log.Debug("ignoring unusable website", zap.String("website", raw), zap.Error(err))
		} else {
			run.Website = website
			run.WebsiteSource = WebsiteSupplied
		}
	}

	log := p.log.With(zap.String("company", req.CompanyName), zap.String("org_number", req.OrgNumber))

	var hit Hit
	found := false
	for _, s := range p.strategies {
		if ctx.Err() != nil {
			log.Debug("discovery cancelled", zap.String("next_strategy", s.Name()))
			break
		}
		if !s.Applies(run) {
			p.metrics.attempt(s.Name(), outcomeSkipped)
			continue
		}
		h, ok := s.Attempt(ctx, run)
		if !ok || h.Phone == "" {
			p.metrics.attempt(s.Name(), outcomeMiss)
			continue
		}
		p.metrics.attempt(s.Name(), outcomeHit)
		hit, found = h, true
		break
	}

	p.metrics.run(found, time.Since(start))

	result := Result{Website: run.Website, WebsiteSource: run.WebsiteSource}
	if found {
		phone, source := hit.Phone, hit.Source
		result.PhoneNumber = &phone
		result.Source = &source
		log.Info("phone number found", zap.String("phone", phone), zap.String("source", source))
	} else {
		log.Info("no phone number found")
	}
	return result
}
