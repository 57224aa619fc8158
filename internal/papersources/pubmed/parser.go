package pubmed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/helixir/literature-retrieval-service/internal/domain"
)

// ErrNotArticleSet is returned when an efetch payload is not a
// PubmedArticleSet document.
var ErrNotArticleSet = errors.New("payload is not a PubmedArticleSet")

// Warning fields reported by the parser.
const (
	FieldPMID     = "pmid"
	FieldTitle    = "title"
	FieldAbstract = "abstract"
	FieldJournal  = "journal"
	FieldYear     = "year"
	FieldAuthors  = "authors"
	FieldPayload  = "payload"
)

// ParseArticleSet streams an efetch payload and extracts the fields of each
// PubmedArticle and PubmedBookArticle, in payload order.
//
// Records are decoded independently: a missing field yields a warning and an
// empty value, never a dropped record. A record without a PMID is dropped
// with a warning. A payload whose root is not PubmedArticleSet returns
// ErrNotArticleSet. A syntax error after the root was read stops the walk;
// the records read so far are returned together with a payload warning.
func ParseArticleSet(payload []byte) ([]domain.RecordFields, []domain.ParseWarning, error) {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	dec.Entity = xml.HTMLEntity

	var (
		records  []domain.RecordFields
		warnings []domain.ParseWarning
		rootSeen bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !rootSeen {
				return nil, nil, fmt.Errorf("%w: %v", ErrNotArticleSet, err)
			}
			warnings = append(warnings, domain.ParseWarning{
				Field:   FieldPayload,
				Message: fmt.Sprintf("stopped after %d record(s): %v", len(records), err),
			})
			break
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !rootSeen {
			if start.Name.Local != "PubmedArticleSet" {
				return nil, nil, fmt.Errorf("%w: root element is <%s>", ErrNotArticleSet, start.Name.Local)
			}
			rootSeen = true
			continue
		}

		var (
			fields  domain.RecordFields
			recWarn []domain.ParseWarning
			keep    bool
			decErr  error
		)
		switch start.Name.Local {
		case "PubmedArticle":
			var article PubmedArticle
			if decErr = dec.DecodeElement(&article, &start); decErr == nil {
				fields, recWarn, keep = articleFields(article)
			}
		case "PubmedBookArticle":
			var book PubmedBookArticle
			if decErr = dec.DecodeElement(&book, &start); decErr == nil {
				fields, recWarn, keep = bookFields(book)
			}
		default:
			// DeleteCitation and other non-record siblings.
			decErr = dec.Skip()
		}

		if decErr != nil {
			warnings = append(warnings, domain.ParseWarning{
				Field:   FieldPayload,
				Message: fmt.Sprintf("stopped after %d record(s): %v", len(records), decErr),
			})
			break
		}

		warnings = append(warnings, recWarn...)
		if keep {
			records = append(records, fields)
		}
	}

	if !rootSeen {
		return nil, nil, fmt.Errorf("%w: empty document", ErrNotArticleSet)
	}
	return records, warnings, nil
}

func articleFields(a PubmedArticle) (domain.RecordFields, []domain.ParseWarning, bool) {
	citation := a.MedlineCitation
	article := citation.Article

	journal := strings.TrimSpace(article.Journal.Title)
	if journal == "" {
		journal = strings.TrimSpace(article.Journal.ISOAbbreviation)
	}

	fields := domain.RecordFields{
		ID:       strings.TrimSpace(citation.PMID.Value),
		Title:    article.ArticleTitle.String(),
		Abstract: joinAbstract(article.Abstract),
		Authors:  formatAuthors(article.AuthorList),
		Year:     article.Journal.JournalIssue.PubDate.Raw(),
		Journal:  journal,
		DOI:      extractDOI(article.ELocationID, a.PubmedData.ArticleIdList),
	}
	return checkFields(fields)
}

func bookFields(b PubmedBookArticle) (domain.RecordFields, []domain.ParseWarning, bool) {
	doc := b.BookDocument

	title := doc.ArticleTitle.String()
	if title == "" {
		title = doc.Book.BookTitle.String()
	}

	// Chapter authors come first; whole books list theirs under Book.
	var authors []string
	for _, list := range append(doc.AuthorList, doc.Book.AuthorList...) {
		if list.Type != "" && list.Type != "authors" {
			continue
		}
		authors = append(authors, formatAuthors(&list)...)
		if len(authors) > 0 {
			break
		}
	}

	ids := doc.ArticleIdList
	ids.ArticleIds = append(ids.ArticleIds, b.PubmedBookData.ArticleIdList.ArticleIds...)

	fields := domain.RecordFields{
		ID:       strings.TrimSpace(doc.PMID.Value),
		Title:    title,
		Abstract: joinAbstract(doc.Abstract),
		Authors:  authors,
		Year:     doc.Book.PubDate.Raw(),
		Journal:  doc.Book.BookTitle.String(),
		DOI:      extractDOI(nil, ids),
	}
	return checkFields(fields)
}

// checkFields reports absent fields and rejects records without an identifier.
func checkFields(f domain.RecordFields) (domain.RecordFields, []domain.ParseWarning, bool) {
	if f.ID == "" {
		return f, []domain.ParseWarning{{
			Field:   FieldPMID,
			Message: fmt.Sprintf("record without identifier dropped (title %q)", truncate(f.Title, 80)),
		}}, false
	}

	var warnings []domain.ParseWarning
	missing := func(field, value string) {
		if value == "" {
			warnings = append(warnings, domain.ParseWarning{RecordID: f.ID, Field: field, Message: "missing"})
		}
	}
	missing(FieldTitle, f.Title)
	missing(FieldAbstract, f.Abstract)
	missing(FieldJournal, f.Journal)
	missing(FieldYear, f.Year)

	return f, warnings, true
}

// joinAbstract concatenates every abstract section, in order, with single
// spaces. Section labels are not included.
func joinAbstract(abstract *Abstract) string {
	if abstract == nil {
		return ""
	}
	parts := make([]string, 0, len(abstract.AbstractTexts))
	for _, at := range abstract.AbstractTexts {
		if text := strings.TrimSpace(at.Value); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// formatAuthors renders each author as "<LastName> <Initials>". Either part
// alone is accepted; entries with neither (including collective names) are
// skipped. The result is never nil.
func formatAuthors(list *AuthorList) []string {
	authors := []string{}
	if list == nil {
		return authors
	}
	for _, a := range list.Authors {
		parts := make([]string, 0, 2)
		if last := strings.TrimSpace(a.LastName); last != "" {
			parts = append(parts, last)
		}
		if initials := strings.TrimSpace(a.Initials); initials != "" {
			parts = append(parts, initials)
		}
		if len(parts) == 0 {
			continue
		}
		authors = append(authors, strings.Join(parts, " "))
	}
	return authors
}

// extractDOI checks ELocationID first, then the ArticleIdList.
func extractDOI(locations []ELocationID, ids ArticleIdList) string {
	for _, eloc := range locations {
		if eloc.EIdType == "doi" && eloc.Valid != "N" {
			if doi := strings.TrimSpace(eloc.Value); doi != "" {
				return doi
			}
		}
	}
	for _, aid := range ids.ArticleIds {
		if aid.IdType == "doi" {
			if doi := strings.TrimSpace(aid.Value); doi != "" {
				return doi
			}
		}
	}
	return ""
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
