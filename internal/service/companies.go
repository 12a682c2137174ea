package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/octobees/bedriftssok/internal/discovery"
	"github.com/octobees/bedriftssok/internal/entity"
	"github.com/octobees/bedriftssok/internal/logger"
	"github.com/octobees/bedriftssok/internal/registry"
)

// Searcher queries the business registry.
type Searcher interface {
	Search(ctx context.Context, filters entity.SearchFilters) (entity.SearchResult, error)
}

// PhoneDiscoverer finds a phone number for one company.
type PhoneDiscoverer interface {
	Discover(ctx context.Context, req discovery.Request) discovery.Result
}

// Progress is called after each company has been processed during enrichment.
type Progress func(done, total int, company entity.Company)

// CompaniesService combines registry search with phone enrichment.
type CompaniesService struct {
	searcher   Searcher
	discoverer PhoneDiscoverer
	log        *zap.Logger
}

// NewCompaniesService creates a new instance of CompaniesService.
func NewCompaniesService(searcher Searcher, discoverer PhoneDiscoverer, log *zap.Logger) *CompaniesService {
	return &CompaniesService{searcher: searcher, discoverer: discoverer, log: logger.OrNop(log)}
}

// Search returns the registry results for filters.
func (s *CompaniesService) Search(ctx context.Context, filters entity.SearchFilters) (entity.SearchResult, error) {
	result, err := s.searcher.Search(ctx, filters)
	if err != nil {
		return entity.SearchResult{}, fmt.Errorf("search registry: %w", err)
	}
	return result, nil
}

// EnrichPhones runs phone discovery, one company at a time, for every entry
// without a registered landline. Found numbers are written into companies in
// place. It returns how many numbers were found and stops early when ctx ends.
func (s *CompaniesService) EnrichPhones(ctx context.Context, companies []entity.Company, progress Progress) (int, error) {
	if s.discoverer == nil {
		return 0, fmt.Errorf("phone discovery is not configured")
	}

	found := 0
	for i := range companies {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		c := &companies[i]
		if c.Telefon == "" {
			result := s.discoverer.Discover(ctx, discovery.Request{
				CompanyName: c.Navn,
				OrgNumber:   c.Organisasjonsnummer,
				Website:     c.Hjemmeside,
			})
			if result.PhoneNumber != nil {
				c.Telefon = displayPhone(*result.PhoneNumber)
				if result.Source != nil {
					c.TelefonKilde = *result.Source
				}
				found++
			}
			if c.Hjemmeside == "" && result.Website != "" {
				c.Hjemmeside = result.Website
			}
		}
		if progress != nil {
			progress(i+1, len(companies), *c)
		}
	}

	s.log.Info("phone enrichment completed", zap.Int("companies", len(companies)), zap.Int("found", found))
	return found, nil
}

// displayPhone prefers the E.164 form and keeps the scraped digits when the
// number does not validate.
func displayPhone(raw string) string {
	if e164 := registry.NormalizePhone(raw, ""); e164 != "" {
		return e164
	}
	return raw
}
