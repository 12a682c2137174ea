package discovery

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/bedriftssok/internal/config"
)

const (
	testSearchURL    = "http://search.test/search"
	testDirectoryURL = "http://directory.test/resultat"
)

type fakeResponse struct {
	status int
	body   string
	err    error
}

// fakeWeb answers requests keyed by "METHOD URL"; unknown URLs get a 404.
type fakeWeb struct {
	mu     sync.Mutex
	routes map[string]fakeResponse
	calls  []string
}

func newFakeWeb() *fakeWeb {
	return &fakeWeb{routes: map[string]fakeResponse{}}
}

func (w *fakeWeb) on(method, target string, resp fakeResponse) *fakeWeb {
	w.routes[method+" "+target] = resp
	return w
}

func (w *fakeWeb) Do(req *http.Request) (*http.Response, error) {
	key := req.Method + " " + req.URL.String()
	w.mu.Lock()
	w.calls = append(w.calls, key)
	resp, ok := w.routes[key]
	w.mu.Unlock()

	if !ok {
		resp = fakeResponse{status: http.StatusNotFound}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return &http.Response{
		StatusCode: resp.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(resp.body)),
	}, nil
}

func (w *fakeWeb) count(prefix string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func searchURL(name, org string) string {
	q := url.Values{}
	q.Set("q", SearchQuery(name, org))
	q.Set("hl", "no")
	q.Set("gl", "no")
	return testSearchURL + "?" + q.Encode()
}

func directoryURL(term string) string {
	return testDirectoryURL + "?q=" + url.QueryEscape(term)
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func testConfig() config.DiscoveryConfig {
	cfg := config.DefaultDiscovery()
	cfg.SearchEngineURL = testSearchURL
	cfg.DirectoryURL = testDirectoryURL
	return cfg
}

func newTestPipeline(web *fakeWeb, sleeper *recordingSleeper, extra ...Option) *Pipeline {
	opts := append([]Option{WithHTTPClient(web), WithSleeper(sleeper.sleep)}, extra...)
	return New(testConfig(), opts...)
}

func TestStrategyOrder(t *testing.T) {
	p := New(testConfig())
	assert.Equal(t, []string{
		"website-resolution", "website", "search-engine", "business-directory", "contact-page",
	}, p.Strategies())
}

func TestDiscoverWithoutNameOrWebsiteMakesNoCalls(t *testing.T) {
	web := newFakeWeb()
	sleeper := &recordingSleeper{}
	p := newTestPipeline(web, sleeper)

	result := p.Discover(context.Background(), Request{OrgNumber: "923456789"})

	assert.Nil(t, result.PhoneNumber)
	assert.Nil(t, result.Source)
	assert.Empty(t, web.calls)
	assert.Empty(t, sleeper.delays)
}

func TestDiscoverFromSuppliedWebsite(t *testing.T) {
	web := newFakeWeb().
		on(http.MethodGet, "https://acme.no", fakeResponse{status: http.StatusOK, body: `<footer>Sentralbord 22334455</footer>`})
	p := newTestPipeline(web, &recordingSleeper{})

	result := p.Discover(context.Background(), Request{CompanyName: "Acme AS", OrgNumber: "923456789", Website: "acme.no/"})

	require.NotNil(t, result.PhoneNumber)
	assert.Equal(t, "22334455", *result.PhoneNumber)
	assert.Equal(t, "https://acme.no", *result.Source)
	assert.Equal(t, WebsiteSupplied, result.WebsiteSource)
	assert.Zero(t, web.count("GET "+testSearchURL), "search must not run after a hit")
}

func TestDiscoverKeepsSuppliedWebsiteWithPort(t *testing.T) {
	web := newFakeWeb().
		on(http.MethodGet, "https://acme.no:8080", fakeResponse{status: http.StatusOK, body: `<p>Sentralbord 22334455</p>`})
	p := newTestPipeline(web, &recordingSleeper{})

	result := p.Discover(context.Background(), Request{CompanyName: "Acme AS", Website: "acme.no:8080"})

	require.NotNil(t, result.PhoneNumber)
	assert.Equal(t, "22334455", *result.PhoneNumber)
	assert.Equal(t, "https://acme.no:8080", *result.Source)
	assert.Equal(t, "https://acme.no:8080", result.Website)
	assert.Equal(t, WebsiteSupplied, result.WebsiteSource)
	assert.Zero(t, web.count("HEAD "), "a supplied website must not trigger domain guessing")
}

func TestDiscoverDoesNotGuessDomainsForSuffixOnlyName(t *testing.T) {
	web := newFakeWeb()
	p := newTestPipeline(web, &recordingSleeper{})

	result := p.Discover(context.Background(), Request{CompanyName: "AS"})

	assert.Nil(t, result.PhoneNumber)
	assert.Empty(t, result.Website)
	assert.Zero(t, web.count("HEAD "))
}

func TestDiscoverResolvesWebsiteByGuessing(t *testing.T) {
	page := `<p>Ring oss på 23456789</p>`
	web := newFakeWeb().
		on(http.MethodHead, "https://acme.no", fakeResponse{err: errors.New("no such host")}).
		on(http.MethodHead, "https://acme.com", fakeResponse{status: http.StatusMethodNotAllowed}).
		on(http.MethodGet, "https://acme.com", fakeResponse{status: http.StatusOK, body: page})
	p := newTestPipeline(web, &recordingSleeper{})

	result := p.Discover(context.Background(), Request{CompanyName: "Acme AS"})

	require.NotNil(t, result.PhoneNumber)
	assert.Equal(t, "23456789", *result.PhoneNumber)
	assert.Equal(t, "https://acme.com", *result.Source)
	assert.Equal(t, "https://acme.com", result.Website)
	assert.Equal(t, SourceResolvedByGuessing, result.WebsiteSource)
	assert.Zero(t, web.count("HEAD https://www."), "probing stops at the first live candidate")
}

func TestDiscoverFallsBackToSearchEngineWhenWebsiteTimesOut(t *testing.T) {
	serp := `<div class="result"><span>Acme AS</span> <span>Telefon:</span> <span>81549300</span></div>`
	web := newFakeWeb().
		on(http.MethodGet, "https://acme.no", fakeResponse{err: context.DeadlineExceeded}).
		on(http.MethodGet, searchURL("Acme AS", "923456789"), fakeResponse{status: http.StatusOK, body: serp})
	sleeper := &recordingSleeper{}
	p := newTestPipeline(web, sleeper)

	result := p.Discover(context.Background(), Request{CompanyName: "Acme AS", OrgNumber: "923456789", Website: "https://acme.no"})

	require.NotNil(t, result.PhoneNumber)
	assert.Equal(t, "81549300", *result.PhoneNumber)
	assert.Equal(t, SourceSearchEngine, *result.Source)
	assert.Zero(t, web.count("GET "+testDirectoryURL))
	require.Len(t, sleeper.delays, 1, "the search query is preceded by a politeness delay")
	assert.GreaterOrEqual(t, sleeper.delays[0], 2*time.Second)
	assert.LessOrEqual(t, sleeper.delays[0], 5*time.Second)
}

func TestSearchEngineLabeledNumbersWinOverGenericRanges(t *testing.T) {
	serp := `<p>Org.nr 923456789</p><p><b>Tlf:</b> 81549300</p>`
	web := newFakeWeb().
		on(http.MethodGet, searchURL("Acme AS", "923456789"), fakeResponse{status: http.StatusOK, body: serp})
	p := newTestPipeline(web, &recordingSleeper{})

	result := p.Discover(context.Background(), Request{CompanyName: "Acme AS", OrgNumber: "923456789"})

	require.NotNil(t, result.PhoneNumber)
	assert.Equal(t, "81549300", *result.PhoneNumber, "the org number's digits must not be mistaken for a landline")
}

func TestDirectoryRetriesWithOrgNumberOnForbidden(t *testing.T) {
	web := newFakeWeb().
		on(http.MethodGet, directoryURL("Acme AS"), fakeResponse{status: http.StatusForbidden}).
		on(http.MethodGet, directoryURL("923456789"), fakeResponse{status: http.StatusOK, body: `<li>Acme AS 22 33 44 55 / 33445566</li>`})
	sleeper := &recordingSleeper{}
	p := newTestPipeline(web, sleeper)

	result := p.Discover(context.Background(), Request{CompanyName: "Acme AS", OrgNumber: "923456789"})

	require.NotNil(t, result.PhoneNumber)
	assert.Equal(t, "33445566", *result.PhoneNumber)
	assert.Equal(t, SourceBusinessDirectory, *result.Source)
	assert.Equal(t, 1, web.count("GET "+directoryURL("923456789")))
	assert.Len(t, sleeper.delays, 3, "search, directory and directory retry each wait first")
}

func TestDirectoryRetryFailureFallsThroughToContactPage(t *testing.T) {
	web := newFakeWeb().
		on(http.MethodGet, "https://acme.no", fakeResponse{status: http.StatusOK, body: `<h1>Velkommen</h1>`}).
		on(http.MethodGet, searchURL("Acme AS", "923456789"), fakeResponse{status: http.StatusOK, body: `<p>Ingen treff</p>`}).
		on(http.MethodGet, directoryURL("Acme AS"), fakeResponse{status: http.StatusForbidden}).
		on(http.MethodGet, directoryURL("923456789"), fakeResponse{status: http.StatusForbidden}).
		on(http.MethodGet, "https://acme.no/contact", fakeResponse{status: http.StatusOK, body: `<a href="tel:+4722334455">Ring</a>`})
	p := newTestPipeline(web, &recordingSleeper{})

	result := p.Discover(context.Background(), Request{CompanyName: "Acme AS", OrgNumber: "923456789", Website: "https://acme.no"})

	require.NotNil(t, result.PhoneNumber)
	assert.Equal(t, "+4722334455", *result.PhoneNumber)
	assert.Equal(t, SourceContactPage, *result.Source)
	assert.Equal(t, 2, web.count("GET "+testDirectoryURL), "one name query and exactly one org number retry")
	assert.Equal(t, 1, web.count("GET https://acme.no/kontakt"))
	assert.Zero(t, web.count("GET https://acme.no/om-oss"), "contact pages stop at the first match")
}

func TestDirectoryDoesNotRetryOtherFailures(t *testing.T) {
	web := newFakeWeb().
		on(http.MethodGet, directoryURL("Acme AS"), fakeResponse{status: http.StatusInternalServerError})
	p := newTestPipeline(web, &recordingSleeper{})

	result := p.Discover(context.Background(), Request{CompanyName: "Acme AS", OrgNumber: "923456789"})

	assert.Nil(t, result.PhoneNumber)
	assert.Nil(t, result.Source)
	assert.Zero(t, web.count("GET "+directoryURL("923456789")))
}

func TestDiscoverNothingFound(t *testing.T) {
	web := newFakeWeb()
	p := newTestPipeline(web, &recordingSleeper{})

	result := p.Discover(context.Background(), Request{CompanyName: "Acme AS", OrgNumber: "923456789"})

	assert.Nil(t, result.PhoneNumber)
	assert.Nil(t, result.Source)
	assert.Empty(t, result.Website)
	assert.Equal(t, 4, web.count("HEAD "), "every guessed domain is probed once")
}

func TestDiscoverIsIdempotent(t *testing.T) {
	web := newFakeWeb().
		on(http.MethodGet, "https://acme.no", fakeResponse{err: errors.New("connection reset")}).
		on(http.MethodGet, directoryURL("Acme AS"), fakeResponse{status: http.StatusOK, body: `<span>41234567</span>`})
	p := newTestPipeline(web, &recordingSleeper{})
	req := Request{CompanyName: "Acme AS", OrgNumber: "923456789", Website: "acme.no"}

	first := p.Discover(context.Background(), req)
	second := p.Discover(context.Background(), req)

	assert.Equal(t, first, second)
	require.NotNil(t, first.PhoneNumber)
	assert.Equal(t, "41234567", *first.PhoneNumber)
}

func TestDiscoverStopsWhenContextCancelled(t *testing.T) {
	web := newFakeWeb()
	p := newTestPipeline(web, &recordingSleeper{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := p.Discover(ctx, Request{CompanyName: "Acme AS"})

	assert.Nil(t, result.PhoneNumber)
	assert.Empty(t, web.calls)
}

type stubStrategy struct {
	name    string
	applies bool
	hit     Hit
	ok      bool
	calls   int
}

func (s *stubStrategy) Name() string { return s.name }
func (s *stubStrategy) Applies(*Run) bool { return s.applies }
func (s *stubStrategy) Attempt(context.Context, *Run) (Hit, bool) {
	s.calls++
	return s.hit, s.ok
}

func TestPipelineStopsAtFirstHitAndRecordsMetrics(t *testing.T) {
	skipped := &stubStrategy{name: "skipped"}
	miss := &stubStrategy{name: "miss", applies: true}
	hit := &stubStrategy{name: "hit", applies: true, hit: Hit{Phone: "22334455", Source: "stub"}, ok: true}
	after := &stubStrategy{name: "after", applies: true}

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	p := New(testConfig(), WithStrategies(skipped, miss, hit, after), WithMetrics(metrics))

	result := p.Discover(context.Background(), Request{CompanyName: "Acme AS"})

	require.NotNil(t, result.Source)
	assert.Equal(t, "stub", *result.Source)
	assert.Zero(t, skipped.calls)
	assert.Equal(t, 1, miss.calls)
	assert.Equal(t, 1, hit.calls)
	assert.Zero(t, after.calls)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.attempts.WithLabelValues("skipped", outcomeSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.attempts.WithLabelValues("miss", outcomeMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.attempts.WithLabelValues("hit", outcomeHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("true")))
}

func TestPipelineTreatsEmptyPhoneAsMiss(t *testing.T) {
	empty := &stubStrategy{name: "empty", applies: true, ok: true}
	p := New(testConfig(), WithStrategies(empty))

	result := p.Discover(context.Background(), Request{CompanyName: "Acme AS"})

	assert.Nil(t, result.PhoneNumber)
	assert.Nil(t, result.Source)
}
