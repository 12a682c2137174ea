package dto

import "github.com/octobees/bedriftssok/internal/entity"

// SearchRequest wraps the registry filters posted by clients.
type SearchRequest struct {
	Filters entity.SearchFilters `json:"filters"`
}

// ExportRequest carries the rows to render and an optional file name without extension.
type ExportRequest struct {
	Data     []entity.Company `json:"data"`
	Filename string           `json:"filename,omitempty"`
}
