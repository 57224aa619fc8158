// Package dedup turns parsed source records into canonical papers and
// removes duplicates by external identifier.
//
// All functions are pure and deterministic: the same input always yields
// the same output, and the first occurrence of an identifier wins.
package dedup

import (
	"strings"

	"github.com/helixir/literature-retrieval-service/internal/domain"
)

// Normalize converts records into canonical papers in input order.
// Records with a blank identifier are skipped; a repeated identifier keeps
// only its first record. Absent title, abstract and journal are replaced by
// the domain sentinels, the URL is derived from the identifier and source,
// and Selected is always false.
func Normalize(records []domain.RecordFields, source domain.SourceType) []domain.Paper {
	papers := make([]domain.Paper, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, r := range records {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		year := strings.TrimSpace(r.Year)
		papers = append(papers, domain.Paper{
			ID:              id,
			Title:           orDefault(r.Title, domain.NoTitle),
			Abstract:        orDefault(r.Abstract, domain.NoAbstract),
			Authors:         cloneAuthors(r.Authors),
			Year:            year,
			PublicationYear: domain.ParseYear(year),
			Journal:         orDefault(r.Journal, domain.NoJournal),
			DOI:             strings.TrimSpace(r.DOI),
			Source:          source,
			URL:             domain.PaperURL(id, source),
			Selected:        false,
		})
	}
	return papers
}

// OrderBy arranges records in the order of ids, the order the search stage
// returned them. Records whose identifier was not requested, and repeats of
// a requested identifier, follow in payload order. Nothing is dropped.
func OrderBy(ids []string, records []domain.RecordFields) []domain.RecordFields {
	first := make(map[string]int, len(records))
	for i, r := range records {
		id := strings.TrimSpace(r.ID)
		if _, ok := first[id]; !ok {
			first[id] = i
		}
	}

	ordered := make([]domain.RecordFields, 0, len(records))
	used := make([]bool, len(records))
	for _, id := range ids {
		i, ok := first[strings.TrimSpace(id)]
		if !ok || used[i] {
			continue
		}
		used[i] = true
		ordered = append(ordered, records[i])
	}
	for i, r := range records {
		if !used[i] {
			ordered = append(ordered, r)
		}
	}
	return ordered
}

// Papers removes repeated identifiers from already-canonical papers,
// keeping the first occurrence, and drops papers with a blank identifier.
func Papers(papers []domain.Paper) []domain.Paper {
	out := make([]domain.Paper, 0, len(papers))
	seen := make(map[string]struct{}, len(papers))
	for _, p := range papers {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		p.ID = id
		out = append(out, p)
	}
	return out
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// cloneAuthors copies the list so papers never share backing arrays with
// parser output. The result is never nil.
func cloneAuthors(authors []string) []string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
