package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperURL(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		source   SourceType
		expected string
	}{
		{
			name:     "pubmed id",
			id:       "12345678",
			source:   SourceTypePubMed,
			expected: "https://pubmed.ncbi.nlm.nih.gov/12345678/",
		},
		{
			name:     "arxiv id",
			id:       "2301.01234",
			source:   SourceTypeArXiv,
			expected: "https://arxiv.org/abs/2301.01234",
		},
		{
			name:     "old-style arxiv id keeps archive prefix",
			id:       "hep-th/9901001",
			source:   SourceTypeArXiv,
			expected: "https://arxiv.org/abs/hep-th/9901001",
		},
		{
			name:     "surrounding whitespace is ignored",
			id:       "  111 ",
			source:   SourceTypePubMed,
			expected: "https://pubmed.ncbi.nlm.nih.gov/111/",
		},
		{
			name:     "empty id",
			id:       "",
			source:   SourceTypePubMed,
			expected: "",
		},
		{
			name:     "unknown source",
			id:       "111",
			source:   SourceType("scopus"),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PaperURL(tt.id, tt.source))
		})
	}
}

func TestPaperURL_Deterministic(t *testing.T) {
	assert.Equal(t, PaperURL("222", SourceTypePubMed), PaperURL("222", SourceTypePubMed))
}

func TestIsValidSourceType(t *testing.T) {
	assert.True(t, IsValidSourceType(SourceTypePubMed))
	assert.True(t, IsValidSourceType(SourceTypeArXiv))
	assert.False(t, IsValidSourceType(SourceType("pubmed")))
	assert.False(t, IsValidSourceType(""))
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		raw      string
		expected int
	}{
		{"2023", 2023},
		{"2022 Jan-Feb", 2022},
		{"2020 Spring", 2020},
		{"2019-2020", 2019},
		{"Winter 1998", 1998},
		{"  2001 ", 2001},
		{"", 0},
		{"unknown", 0},
		{"12345", 0},
		{"0999", 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseYear(tt.raw))
		})
	}
}

func TestErrors_Unwrap(t *testing.T) {
	t.Run("transport error matches sentinel and cause", func(t *testing.T) {
		err := NewTransportError("esearch", 0, "", context.DeadlineExceeded)
		assert.True(t, errors.Is(err, ErrTransport))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Contains(t, err.Error(), "esearch")
	})

	t.Run("transport error with status", func(t *testing.T) {
		err := NewTransportError("efetch", 503, "Service Unavailable", nil)
		assert.True(t, errors.Is(err, ErrTransport))
		assert.Equal(t, "transport: efetch returned status 503: Service Unavailable", err.Error())
	})

	t.Run("long body is cut on a rune boundary", func(t *testing.T) {
		body := strings.Repeat("é", 250)
		err := NewTransportError("efetch", 502, body, nil)

		msg := err.Error()
		assert.True(t, utf8.ValidString(msg))
		assert.True(t, strings.HasSuffix(msg, strings.Repeat("é", 200)+"..."))
	})

	t.Run("search error wraps transport error", func(t *testing.T) {
		cause := NewTransportError("esearch", 500, "", nil)
		err := NewSearchError("aspirin", cause)

		assert.True(t, errors.Is(err, ErrSearchFailed))
		assert.True(t, errors.Is(err, ErrTransport))
		assert.False(t, errors.Is(err, ErrFetchFailed))

		var te *TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, 500, te.StatusCode)
	})

	t.Run("fetch error", func(t *testing.T) {
		err := NewFetchError([]string{"1", "2"}, errors.New("boom"))
		assert.True(t, errors.Is(err, ErrFetchFailed))
		assert.False(t, errors.Is(err, ErrSearchFailed))
		assert.Equal(t, "fetch 2 record(s): boom", err.Error())
	})

	t.Run("validation error", func(t *testing.T) {
		err := NewValidationError("max_results", "must be positive")
		assert.True(t, errors.Is(err, ErrInvalidInput))
		assert.Equal(t, "validation error: max_results: must be positive", err.Error())
	})
}

func TestParseWarning_String(t *testing.T) {
	assert.Equal(t, "record 111: abstract: missing", ParseWarning{RecordID: "111", Field: "abstract", Message: "missing"}.String())
	assert.Equal(t, "pmid: missing", ParseWarning{Field: "pmid", Message: "missing"}.String())
}
