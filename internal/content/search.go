package content

import (
	"strings"

	"golang.org/x/text/cases"
)

// Search filters concepts whose identifier or display name contains query,
// comparing case-folded text. An empty query returns concepts unchanged.
func Search(concepts []Concept, query string) []Concept {
	query = strings.TrimSpace(query)
	if query == "" {
		return concepts
	}

	fold := cases.Fold()
	q := fold.String(query)

	out := []Concept{}
	for _, c := range concepts {
		if strings.Contains(fold.String(c.ID), q) || strings.Contains(fold.String(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}
