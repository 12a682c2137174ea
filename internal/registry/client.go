// Package registry queries the Norwegian business registry (Enhetsregisteret)
// and normalizes its entries into entity.Company values.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/octobees/bedriftssok/internal/config"
	"github.com/octobees/bedriftssok/internal/discovery"
	"github.com/octobees/bedriftssok/internal/entity"
	"github.com/octobees/bedriftssok/internal/logger"
)

// MaxRecords is the most entries the registry will page through for one query.
const MaxRecords = 10000

// HTTPClient abstracts outbound requests so tests can stub the registry.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client searches the registry.
type Client struct {
	baseURL  string
	pageSize int
	http     HTTPClient
	log      *zap.Logger
}

// Option configures optional client dependencies.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger injects the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New builds a client from cfg.
func New(cfg config.RegistryConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
	if c.pageSize <= 0 || c.pageSize > 1000 {
		c.pageSize = 1000
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.OrNop(c.log)
	return c
}

type link struct {
	Href string `json:"href"`
}

type pageResponse struct {
	Embedded struct {
		Enheter      []rawEnhet `json:"enheter"`
		Underenheter []rawEnhet `json:"underenheter"`
	} `json:"_embedded"`
	Links struct {
		Next *link `json:"next"`
	} `json:"_links"`
	Page struct {
		Size          int `json:"size"`
		TotalElements int `json:"totalElements"`
		TotalPages    int `json:"totalPages"`
		Number        int `json:"number"`
	} `json:"page"`
}

type rawAdresse struct {
	Adresse       []string `json:"adresse"`
	Postnummer    string   `json:"postnummer"`
	Poststed      string   `json:"poststed"`
	Kommunenummer string   `json:"kommunenummer"`
}

type rawKode struct {
	Kode        string `json:"kode"`
	Beskrivelse string `json:"beskrivelse"`
}

type rawEnhet struct {
	Organisasjonsnummer               string          `json:"organisasjonsnummer"`
	Navn                              json.RawMessage `json:"navn"`
	Beskrivelse                       string          `json:"beskrivelse"`
	Forretningsadresse                *rawAdresse     `json:"forretningsadresse"`
	Beliggenhetsadresse               *rawAdresse     `json:"beliggenhetsadresse"`
	Postadresse                       *rawAdresse     `json:"postadresse"`
	AntallAnsatte                     int             `json:"antallAnsatte"`
	Naeringskode1                     *rawKode        `json:"naeringskode1"`
	Organisasjonsform                 *rawKode        `json:"organisasjonsform"`
	RegistreringsdatoEnhetsregisteret string          `json:"registreringsdatoEnhetsregisteret"`
	Registreringsdato                 string          `json:"registreringsdato"`
	Konkurs                           bool            `json:"konkurs"`
	UnderAvvikling                    bool            `json:"underAvvikling"`
	Hjemmeside                        string          `json:"hjemmeside"`
	Telefon                           string          `json:"telefon"`
	Mobil                             string          `json:"mobil"`
	Epostadresse                      string          `json:"epostadresse"`
}

// Search runs one paginated query per NACE code and merges the results,
// keeping the first occurrence of each organization number.
func (c *Client) Search(ctx context.Context, filters entity.SearchFilters) (entity.SearchResult, error) {
	codes := make([]string, 0, len(filters.NaceCodes))
	for _, code := range filters.NaceCodes {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		codes = []string{""}
	}

	seen := make(map[string]struct{})
	result := entity.SearchResult{Data: []entity.Company{}}
	for _, code := range codes {
		companies, more, err := c.searchCode(ctx, code, filters)
		if err != nil {
			return entity.SearchResult{}, err
		}
		result.HasMore = result.HasMore || more
		for _, company := range companies {
			if _, dup := seen[company.Organisasjonsnummer]; dup {
				continue
			}
			seen[company.Organisasjonsnummer] = struct{}{}
			result.Data = append(result.Data, company)
		}
	}
	result.TotalCount = len(result.Data)

	c.log.Info("registry search completed",
		zap.Strings("nace_codes", codes),
		zap.Int("count", result.TotalCount),
		zap.Bool("has_more", result.HasMore),
	)
	return result, nil
}

func (c *Client) searchCode(ctx context.Context, code string, filters entity.SearchFilters) ([]entity.Company, bool, error) {
	endpoint := c.baseURL + "/enheter"
	if strings.EqualFold(strings.TrimSpace(filters.EnhetType), entity.EnhetTypeSub) {
		endpoint = c.baseURL + "/underenheter"
	}

	params := url.Values{}
	if code != "" {
		params.Set("naeringskode", code)
	}
	if filters.MinAnsatte > 0 {
		params.Set("fraAntallAnsatte", strconv.Itoa(filters.MinAnsatte))
	}
	if v := strings.TrimSpace(filters.Postnummer); v != "" {
		params.Set("postnummer", v)
	}
	if v := strings.TrimSpace(filters.Kommunenummer); v != "" {
		params.Set("kommunenummer", v)
	}
	params.Set("size", strconv.Itoa(c.pageSize))

	var (
		out           []entity.Company
		totalPages    int
		totalElements int
	)
	for page := 0; ; page++ {
		params.Set("page", strconv.Itoa(page))
		resp, err := c.fetchPage(ctx, endpoint+"?"+params.Encode())
		if err != nil {
			if page == 0 {
				return nil, false, err
			}
			c.log.Warn("registry page failed, returning partial result",
				zap.String("nace_code", code),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}
		if page == 0 {
			totalPages = resp.Page.TotalPages
			totalElements = resp.Page.TotalElements
		}

		entries := resp.Embedded.Enheter
		if len(resp.Embedded.Underenheter) > 0 {
			entries = resp.Embedded.Underenheter
		}
		if len(entries) == 0 {
			break
		}
		for _, raw := range entries {
			out = append(out, transform(raw))
		}

		if len(out) >= MaxRecords {
			out = out[:MaxRecords]
			break
		}
		if resp.Links.Next == nil || page >= totalPages-1 {
			break
		}
	}

	c.log.Debug("registry query fetched",
		zap.String("nace_code", code),
		zap.Int("count", len(out)),
		zap.Int("total_elements", totalElements),
	)
	return out, totalElements > len(out), nil
}

func (c *Client) fetchPage(ctx context.Context, target string) (*pageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("registry returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}
	return &page, nil
}

func transform(raw rawEnhet) entity.Company {
	c := entity.Company{
		Organisasjonsnummer: strings.TrimSpace(raw.Organisasjonsnummer),
		Navn:                companyName(raw.Navn, raw.Beskrivelse),
		AntallAnsatte:       raw.AntallAnsatte,
		Registreringsdato:   raw.RegistreringsdatoEnhetsregisteret,
		Status:              companyStatus(raw.Konkurs, raw.UnderAvvikling),
		Telefon:             NormalizePhone(raw.Telefon, defaultPhoneRegion),
		Mobil:               NormalizePhone(raw.Mobil, defaultPhoneRegion),
		Epost:               cleanEmail(raw.Epostadresse),
	}
	if c.Registreringsdato == "" {
		c.Registreringsdato = raw.Registreringsdato
	}
	if raw.Naeringskode1 != nil {
		c.NaceKode = raw.Naeringskode1.Kode
		c.NaceBeskrivelse = raw.Naeringskode1.Beskrivelse
	}
	if raw.Organisasjonsform != nil {
		c.Organisasjonsform = raw.Organisasjonsform.Kode
	}

	business := raw.Forretningsadresse
	if business == nil {
		business = raw.Beliggenhetsadresse
	}
	switch {
	case business != nil && business.Poststed != "":
		c.Postadresse = business.Poststed
	case raw.Postadresse != nil && len(raw.Postadresse.Adresse) > 0:
		c.Postadresse = raw.Postadresse.Adresse[0]
	}
	for _, addr := range []*rawAdresse{raw.Postadresse, business} {
		if addr == nil {
			continue
		}
		if c.Postnummer == "" {
			c.Postnummer = addr.Postnummer
		}
		if c.Kommunenummer == "" {
			c.Kommunenummer = addr.Kommunenummer
		}
	}

	if raw.Hjemmeside != "" {
		if website, err := discovery.NormalizeWebsite(raw.Hjemmeside); err == nil {
			c.Hjemmeside = website
		}
	}
	return c
}
