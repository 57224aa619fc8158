package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/hlog"

	"github.com/helixir/literature-retrieval-service/internal/domain"
)

const maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies

// searchRequest is the JSON request body for a literature search.
type searchRequest struct {
	Query      string `json:"query" validate:"required,max=1000"`
	MaxResults *int   `json:"max_results,omitempty" validate:"omitempty,min=1"`
}

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// searchLiterature handles POST /api/v1/search.
func (s *Server) searchLiterature(w http.ResponseWriter, r *http.Request) {
	papers, ok := s.runSearch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSearchResponse(papers))
}

// searchLiteratureLegacy handles POST /api/search.
func (s *Server) searchLiteratureLegacy(w http.ResponseWriter, r *http.Request) {
	papers, ok := s.runSearch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, legacySearchResponse{Results: newSearchResponse(papers).Results})
}

// runSearch decodes and validates the request, runs the retrieval, and
// writes the error response itself when it returns false.
func (s *Server) runSearch(w http.ResponseWriter, r *http.Request) ([]domain.Paper, bool) {
	if s.retriever == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service unavailable", Kind: errorKindInternal})
		return nil, false
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeValidationError(w, "failed to read request body")
		return nil, false
	}

	var req searchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeValidationError(w, "invalid JSON request body")
		return nil, false
	}

	req.Query = strings.TrimSpace(req.Query)
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, validationMessage(err))
		return nil, false
	}

	maxResults := s.config.DefaultMaxResults
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}
	if err := s.validate.Var(maxResults, fmt.Sprintf("max=%d", s.config.MaxResultsLimit)); err != nil {
		writeValidationError(w, fmt.Sprintf("max_results must be at most %d", s.config.MaxResultsLimit))
		return nil, false
	}

	ctx := r.Context()
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	papers, err := s.retriever.SearchLiterature(ctx, req.Query, maxResults)
	if err != nil {
		hlog.FromRequest(r).Warn().
			Err(err).
			Str("strategy", s.retriever.Name()).
			Msg("search request failed")
		writeDomainError(w, err)
		return nil, false
	}
	return papers, true
}

// writeDomainError maps retrieval errors to HTTP responses. Messages are
// fixed strings; upstream bodies and causes are never echoed.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeValidationError(w, ve.Error())
		} else {
			writeValidationError(w, "invalid input")
		}
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "literature retrieval timed out", Kind: errorKindTimeout})
	case errors.Is(err, context.Canceled):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled", Kind: errorKindCancelled})
	case errors.Is(err, domain.ErrSearchFailed):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "literature search failed", Kind: errorKindSearch})
	case errors.Is(err, domain.ErrFetchFailed):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "record fetch failed", Kind: errorKindFetch})
	case errors.Is(err, domain.ErrUnknownStrategy):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service unavailable", Kind: errorKindInternal})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Kind: errorKindInternal})
	}
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message, Kind: errorKindValidation})
}

// validationMessage renders validator errors as "<field> <problem>" phrases.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid input"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
