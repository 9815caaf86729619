// Package resolver binds raw spreadsheet headers to canonical fields using a
// synonym dictionary.
package resolver

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"survey-recon-go/internal/config"
	"survey-recon-go/internal/types"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug folds a header into its matching form: NFKC, trimmed, lowercased,
// every run of non [a-z0-9] characters collapsed to one underscore.
// Slug(Slug(s)) == Slug(s).
func Slug(s string) string {
	s = strings.TrimSpace(norm.NFKC.String(s))
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "_")
}

// NormalizeHeaders slugs every header. Blank headers get a positional name.
func NormalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		s := Slug(h)
		if s == "" {
			s = "unnamed_" + strconv.Itoa(i)
		}
		out[i] = s
	}
	return out
}

// Resolution is the outcome of binding one table's headers.
type Resolution struct {
	Headers []string
	columns map[types.Field]int
}

// Column returns the raw column index bound to f.
func (r Resolution) Column(f types.Field) (int, bool) {
	idx, ok := r.columns[f]
	return idx, ok
}

func (r Resolution) Has(f types.Field) bool {
	_, ok := r.columns[f]
	return ok
}

// Fields lists resolved fields in canonical order.
func (r Resolution) Fields() []types.Field {
	var out []types.Field
	for _, f := range types.CanonicalFields {
		if r.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Shared reports columns bound to more than one field.
func (r Resolution) Shared() map[string][]types.Field {
	byCol := map[int][]types.Field{}
	for _, f := range r.Fields() {
		byCol[r.columns[f]] = append(byCol[r.columns[f]], f)
	}
	out := map[string][]types.Field{}
	for idx, fields := range byCol {
		if len(fields) > 1 {
			out[r.Headers[idx]] = fields
		}
	}
	return out
}

// Resolve binds each canonical field to the first of its aliases present
// among the headers. Fields are resolved independently. Raw headers are
// slugged first; when two headers share a slug the leftmost one wins.
func Resolve(rawHeaders []string, synonyms config.SynonymMap) Resolution {
	headers := NormalizeHeaders(rawHeaders)
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	res := Resolution{Headers: headers, columns: map[types.Field]int{}}
	for _, f := range types.CanonicalFields {
		for _, alias := range synonyms[f] {
			if idx, ok := index[Slug(alias)]; ok {
				res.columns[f] = idx
				break
			}
		}
	}
	return res
}

// Score counts canonical fields with at least one alias among headers.
// Each field counts once no matter how many of its aliases match.
func Score(rawHeaders []string, synonyms config.SynonymMap) int {
	return len(Resolve(rawHeaders, synonyms).Fields())
}
