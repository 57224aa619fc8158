package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// Fallback values substituted when a record field is absent or unreadable.
const (
	NoTitle    = "No Title"
	NoAbstract = "No abstract available."
	NoJournal  = "Unknown Journal"
)

// SourceType identifies the bibliographic service that produced a record.
// The values are the display tags used by the UI collaborator.
type SourceType string

const (
	SourceTypePubMed SourceType = "PubMed"
	SourceTypeArXiv  SourceType = "arXiv"
)

// IsValidSourceType reports whether st is one of the known source tags.
func IsValidSourceType(st SourceType) bool {
	switch st {
	case SourceTypePubMed, SourceTypeArXiv:
		return true
	default:
		return false
	}
}

// PaperURL derives the canonical web address for a record.
// It returns an empty string for an unknown source or an empty id.
func PaperURL(id string, source SourceType) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}

	switch source {
	case SourceTypePubMed:
		return "https://pubmed.ncbi.nlm.nih.gov/" + url.PathEscape(id) + "/"
	case SourceTypeArXiv:
		// Old-style identifiers carry an archive prefix ("hep-th/9901001").
		segments := strings.Split(id, "/")
		for i, seg := range segments {
			segments[i] = url.PathEscape(seg)
		}
		return "https://arxiv.org/abs/" + strings.Join(segments, "/")
	default:
		return ""
	}
}

// Paper is the canonical bibliographic record handed to callers.
// It is built once per retrieval call and passed by value.
type Paper struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`

	// Year is the publication date exactly as the source printed it
	// ("2023", "2022 Jan-Feb", "2020 Spring").
	Year string `json:"year"`

	// PublicationYear is the four-digit year read from Year, or 0.
	PublicationYear int `json:"publicationYear,omitempty"`

	Journal string     `json:"journal"`
	DOI     string     `json:"doi,omitempty"`
	Source  SourceType `json:"source"`
	URL     string     `json:"url"`

	// Selected belongs to the UI collaborator. This service always emits false.
	Selected bool `json:"selected"`
}

// RecordFields holds the raw per-record values extracted from a source payload,
// before fallbacks are applied. Empty strings mean the field was absent.
type RecordFields struct {
	ID       string
	Title    string
	Abstract string
	Authors  []string
	Year     string
	Journal  string
	DOI      string
}

// ParseYear extracts the leading four-digit year from a loosely formatted
// publication date. It returns 0 when no plausible year is found.
func ParseYear(raw string) int {
	raw = strings.TrimSpace(raw)
	for i := 0; i+4 <= len(raw); i++ {
		if !isDigits(raw[i : i+4]) {
			continue
		}
		if i+4 < len(raw) && isDigit(raw[i+4]) {
			continue
		}
		if i > 0 && isDigit(raw[i-1]) {
			continue
		}
		year, err := strconv.Atoi(raw[i : i+4])
		if err == nil && year >= 1000 {
			return year
		}
	}
	return 0
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
