package httpserver

import (
	"github.com/helixir/literature-retrieval-service/internal/domain"
)

// Error kinds reported alongside failures so callers can tell them apart.
const (
	errorKindValidation = "validation"
	errorKindSearch     = "search"
	errorKindFetch      = "fetch"
	errorKindTimeout    = "timeout"
	errorKindCancelled  = "cancelled"
	errorKindInternal   = "internal"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type searchResponse struct {
	Results []domain.Paper `json:"results"`
	Count   int            `json:"count"`
}

// legacySearchResponse is the bare shape served on /api/search.
type legacySearchResponse struct {
	Results []domain.Paper `json:"results"`
}

func newSearchResponse(papers []domain.Paper) searchResponse {
	if papers == nil {
		papers = []domain.Paper{}
	}
	return searchResponse{Results: papers, Count: len(papers)}
}
