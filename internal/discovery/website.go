package discovery

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/idna"
)

var idnaProfile = idna.Lookup

// legalSuffixes are dropped from the end of a company name before guessing domains.
var legalSuffixes = map[string]struct{}{
	"as":  {},
	"asa": {},
	"ab":  {},
	"aps": {},
	"inc": {},
	"ltd": {},
	"llc": {},
}

var guessTLDs = []string{"no", "com"}

// NormalizeWebsite returns an absolute URL with an ASCII host and no trailing slash.
func NormalizeWebsite(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", errors.New("invalid url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("unsupported scheme " + u.Scheme)
	}
	host, err := idnaProfile.ToASCII(strings.ToLower(u.Hostname()))
	if err != nil || host == "" {
		return "", errors.New("invalid host")
	}
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(host, port)
	}
	u.Host = host
	u.Fragment = ""
	u.RawQuery = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// NormalizeCompanyName lowercases name, drops a trailing legal-entity suffix and
// keeps only ASCII letters and digits. A name that is nothing but a suffix
// normalizes to "".
func NormalizeCompanyName(name string) string {
	tokens := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	if n := len(tokens); n > 0 {
		if _, ok := legalSuffixes[tokens[n-1]]; ok {
			tokens = tokens[:n-1]
		}
	}
	return strings.Join(tokens, "")
}

// CandidateDomains lists the URLs probed when no website is known, in probe order.
func CandidateDomains(companyName string) []string {
	base := NormalizeCompanyName(companyName)
	if base == "" {
		return nil
	}
	var out []string
	for _, prefix := range []string{"", "www."} {
		for _, tld := range guessTLDs {
			out = append(out, "https://"+prefix+base+"."+tld)
		}
	}
	return out
}

type websiteResolver struct {
	fetch   *fetcher
	timeout time.Duration
	log     *zap.Logger
}

func (s *websiteResolver) Name() string { return "website-resolution" }

func (s *websiteResolver) Applies(run *Run) bool {
	return run.Website == "" && run.Request.CompanyName != ""
}

// Attempt never yields a phone number; it only adopts a website for later steps.
func (s *websiteResolver) Attempt(ctx context.Context, run *Run) (Hit, bool) {
	for _, candidate := range CandidateDomains(run.Request.CompanyName) {
		if !s.fetch.exists(ctx, candidate, s.timeout) {
			continue
		}
		s.log.Debug("website resolved by guessing", zap.String("website", candidate))
		run.Website = candidate
		run.WebsiteSource = SourceResolvedByGuessing
		break
	}
	return Hit{}, false
}

type websiteScraper struct {
	fetch   *fetcher
	timeout time.Duration
	log     *zap.Logger
}

func (s *websiteScraper) Name() string { return "website" }

func (s *websiteScraper) Applies(run *Run) bool { return run.Website != "" }

func (s *websiteScraper) Attempt(ctx context.Context, run *Run) (Hit, bool) {
	html, err := s.fetch.page(ctx, run.Website, s.timeout, false)
	if err != nil {
		s.log.Debug("website scrape failed", zap.String("website", run.Website), zap.Error(err))
		return Hit{}, false
	}
	phone, ok := Extract(html)
	if !ok {
		return Hit{}, false
	}
	return Hit{Phone: phone, Source: run.Website}, true
}

type contactPages struct {
	fetch   *fetcher
	paths   []string
	timeout time.Duration
	log     *zap.Logger
}

func (s *contactPages) Name() string { return "contact-page" }

func (s *contactPages) Applies(run *Run) bool { return run.Website != "" }

func (s *contactPages) Attempt(ctx context.Context, run *Run) (Hit, bool) {
	for _, path := range s.paths {
		if ctx.Err() != nil {
			return Hit{}, false
		}
		target := run.Website + "/" + strings.TrimLeft(path, "/")
		html, err := s.fetch.page(ctx, target, s.timeout, false)
		if err != nil {
			s.log.Debug("contact page unavailable", zap.String("url", target), zap.Error(err))
			continue
		}
		if phone, ok := Extract(html); ok {
			return Hit{Phone: phone, Source: SourceContactPage}, true
		}
	}
	return Hit{}, false
}
