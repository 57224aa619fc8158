// Package pubmed retrieves literature from the NCBI PubMed E-utilities API.
//
// A retrieval runs three sequential stages through one shared, rate-limited
// transport: esearch.fcgi resolves the query to PMIDs, efetch.fcgi returns
// the full records for those PMIDs in one batch, and the parser turns the
// PubmedArticleSet payload into per-record fields.
//
// The E-utilities API documentation is available at:
// https://www.ncbi.nlm.nih.gov/books/NBK25499/
package pubmed

import (
	"encoding/xml"
	"strings"
)

// ESearchResult represents the response from the esearch.fcgi endpoint.
type ESearchResult struct {
	XMLName   xml.Name   `xml:"eSearchResult"`
	Count     string     `xml:"Count"`
	RetMax    string     `xml:"RetMax"`
	IDList    IDList     `xml:"IdList"`
	ErrorList *ErrorList `xml:"ErrorList,omitempty"`

	// Error is set when NCBI rejects the request outright.
	Error string `xml:"ERROR,omitempty"`
}

// IDList contains the list of PMIDs returned by a search.
type IDList struct {
	IDs []string `xml:"Id"`
}

// ErrorList contains errors from the E-utilities API.
type ErrorList struct {
	PhraseNotFound []string `xml:"PhraseNotFound,omitempty"`
	FieldNotFound  []string `xml:"FieldNotFound,omitempty"`
}

// PubmedArticle represents a single journal article in an efetch payload.
type PubmedArticle struct {
	MedlineCitation MedlineCitation `xml:"MedlineCitation"`
	PubmedData      PubmedData      `xml:"PubmedData"`
}

// MedlineCitation contains the core bibliographic information.
type MedlineCitation struct {
	PMID    PMID    `xml:"PMID"`
	Article Article `xml:"Article"`
}

// PMID represents the PubMed identifier with optional version.
type PMID struct {
	Version string `xml:"Version,attr,omitempty"`
	Value   string `xml:",chardata"`
}

// Article contains the article metadata.
type Article struct {
	Journal      Journal       `xml:"Journal"`
	ArticleTitle MarkupText    `xml:"ArticleTitle"`
	ELocationID  []ELocationID `xml:"ELocationID,omitempty"`
	Abstract     *Abstract     `xml:"Abstract,omitempty"`
	AuthorList   *AuthorList   `xml:"AuthorList,omitempty"`
}

// Journal contains journal information.
type Journal struct {
	JournalIssue    JournalIssue `xml:"JournalIssue"`
	Title           string       `xml:"Title,omitempty"`
	ISOAbbreviation string       `xml:"ISOAbbreviation,omitempty"`
}

// JournalIssue contains the volume, issue, and publication date.
type JournalIssue struct {
	Volume  string  `xml:"Volume,omitempty"`
	Issue   string  `xml:"Issue,omitempty"`
	PubDate PubDate `xml:"PubDate"`
}

// PubDate represents the publication date which may have various formats.
type PubDate struct {
	Year        string `xml:"Year,omitempty"`
	Month       string `xml:"Month,omitempty"`
	Day         string `xml:"Day,omitempty"`
	Season      string `xml:"Season,omitempty"`
	MedlineDate string `xml:"MedlineDate,omitempty"`
}

// Raw returns the date as printed by the source: the Year element when
// present, otherwise the free-text MedlineDate, otherwise the Season.
func (p PubDate) Raw() string {
	if year := strings.TrimSpace(p.Year); year != "" {
		return year
	}
	if medline := strings.TrimSpace(p.MedlineDate); medline != "" {
		return medline
	}
	return strings.TrimSpace(p.Season)
}

// ELocationID represents an electronic location identifier (DOI or PII).
type ELocationID struct {
	EIdType string `xml:"EIdType,attr"`
	Valid   string `xml:"ValidYN,attr,omitempty"`
	Value   string `xml:",chardata"`
}

// Abstract contains the article abstract, which may have multiple sections.
type Abstract struct {
	AbstractTexts []AbstractText `xml:"AbstractText"`
}

// AbstractText represents a section of the abstract.
// Structured abstracts have labeled sections (Background, Methods, Results, etc.).
type AbstractText struct {
	Label       string
	NlmCategory string
	Value       string
}

// UnmarshalXML reads the section attributes and the full text of the
// section, including text nested in inline markup.
func (a *AbstractText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "Label":
			a.Label = attr.Value
		case "NlmCategory":
			a.NlmCategory = attr.Value
		}
	}
	text, err := collectText(d)
	if err != nil {
		return err
	}
	a.Value = text
	return nil
}

// AuthorList contains the list of authors.
type AuthorList struct {
	Type       string   `xml:"Type,attr,omitempty"`
	CompleteYN string   `xml:"CompleteYN,attr,omitempty"`
	Authors    []Author `xml:"Author"`
}

// Author represents a single author.
type Author struct {
	ValidYN        string `xml:"ValidYN,attr,omitempty"`
	LastName       string `xml:"LastName,omitempty"`
	ForeName       string `xml:"ForeName,omitempty"`
	Initials       string `xml:"Initials,omitempty"`
	CollectiveName string `xml:"CollectiveName,omitempty"`
}

// PubmedData contains additional PubMed-specific data.
type PubmedData struct {
	ArticleIdList ArticleIdList `xml:"ArticleIdList"`
}

// ArticleIdList contains various identifiers for the article.
type ArticleIdList struct {
	ArticleIds []ArticleId `xml:"ArticleId"`
}

// ArticleId represents an article identifier (PMID, DOI, PMC, etc.).
type ArticleId struct {
	IdType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// PubmedBookArticle represents a book or book chapter in an efetch payload.
type PubmedBookArticle struct {
	BookDocument   BookDocument `xml:"BookDocument"`
	PubmedBookData PubmedData   `xml:"PubmedBookData"`
}

// BookDocument contains the bibliographic data of a book record.
type BookDocument struct {
	PMID          PMID          `xml:"PMID"`
	ArticleIdList ArticleIdList `xml:"ArticleIdList"`
	Book          Book          `xml:"Book"`
	ArticleTitle  MarkupText    `xml:"ArticleTitle"`
	AuthorList    []AuthorList  `xml:"AuthorList"`
	Abstract      *Abstract     `xml:"Abstract,omitempty"`
}

// Book describes the book a chapter belongs to, or the book itself.
type Book struct {
	BookTitle  MarkupText   `xml:"BookTitle"`
	PubDate    PubDate      `xml:"PubDate"`
	AuthorList []AuthorList `xml:"AuthorList"`
}

// MarkupText is element text that may contain inline markup such as
// <i>, <sup> or <b>. All nested character data is kept in document order.
type MarkupText string

// UnmarshalXML implements xml.Unmarshaler.
func (m *MarkupText) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	text, err := collectText(d)
	if err != nil {
		return err
	}
	*m = MarkupText(text)
	return nil
}

// String returns the text with surrounding whitespace removed.
func (m MarkupText) String() string {
	return strings.TrimSpace(string(m))
}

// collectText consumes tokens up to the end of the current element and
// returns the concatenated character data of it and all its descendants.
func collectText(d *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return b.String(), nil
			}
			depth--
		}
	}
}
