package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/octobees/bedriftssok/internal/config"
)

type searchEngine struct {
	fetch   *fetcher
	baseURL string
	timeout time.Duration
	delay   config.DelayRange
	sleep   Sleeper
	log     *zap.Logger
}

func (s *searchEngine) Name() string { return "search-engine" }

func (s *searchEngine) Applies(run *Run) bool {
	return s.baseURL != "" && run.Request.CompanyName != ""
}

// SearchQuery builds the free-text query sent to the search engine.
func SearchQuery(companyName, orgNumber string) string {
	parts := []string{strings.TrimSpace(companyName), "telefon telefonnummer"}
	if org := strings.TrimSpace(orgNumber); org != "" {
		parts = append(parts, org)
	}
	return strings.Join(parts, " ")
}

func (s *searchEngine) Attempt(ctx context.Context, run *Run) (Hit, bool) {
	if err := s.sleep(ctx, jitter(s.delay)); err != nil {
		return Hit{}, false
	}

	q := url.Values{}
	q.Set("q", SearchQuery(run.Request.CompanyName, run.Request.OrgNumber))
	q.Set("hl", "no")
	q.Set("gl", "no")
	target := s.baseURL + "?" + q.Encode()

	html, err := s.fetch.page(ctx, target, s.timeout, true)
	if err != nil {
		s.log.Debug("search engine query failed", zap.Error(err))
		return Hit{}, false
	}

	if phone, ok := ExtractLabeled(pageText(html)); ok {
		return Hit{Phone: phone, Source: SourceSearchEngine}, true
	}
	if phone, ok := Extract(html); ok {
		return Hit{Phone: phone, Source: SourceSearchEngine}, true
	}
	return Hit{}, false
}

// pageText returns the visible text of html with whitespace collapsed, so that a
// label and its number split across tags can still be matched. Unparsable input
// is returned unchanged.
func pageText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

type directory struct {
	fetch      *fetcher
	baseURL    string
	timeout    time.Duration
	delay      config.DelayRange
	retryDelay config.DelayRange
	sleep      Sleeper
	log        *zap.Logger
}

func (s *directory) Name() string { return "business-directory" }

func (s *directory) Applies(run *Run) bool {
	return s.baseURL != "" && run.Request.CompanyName != ""
}

func (s *directory) Attempt(ctx context.Context, run *Run) (Hit, bool) {
	html, err := s.query(ctx, run.Request.CompanyName, s.delay)

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusForbidden && run.Request.OrgNumber != "" {
		s.log.Info("directory blocked the name query, retrying with organization number")
		html, err = s.query(ctx, run.Request.OrgNumber, s.retryDelay)
	}
	if err != nil {
		s.log.Debug("directory lookup failed", zap.Error(err))
		return Hit{}, false
	}

	phone, ok := Extract(html)
	if !ok {
		return Hit{}, false
	}
	return Hit{Phone: phone, Source: SourceBusinessDirectory}, true
}

func (s *directory) query(ctx context.Context, term string, delay config.DelayRange) (string, error) {
	if err := s.sleep(ctx, jitter(delay)); err != nil {
		return "", err
	}
	return s.fetch.page(ctx, s.baseURL+"?q="+url.QueryEscape(term), s.timeout, true)
}
