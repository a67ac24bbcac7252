// Package search provides food-name lookup over the catalog: exact id and
// synonym matching first, then trigram similarity for misspellings.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/seasonscope/internal/model"
)

// Minimum trigram similarity to count as a fuzzy hit. Matches the 0.6
// threshold used for pg_trgm-style matching.
const similarityThreshold = 0.6

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName standardizes a food name for matching: trims, lowercases,
// folds diacritics, strips punctuation, and collapses whitespace. "Açaí" and
// "acai" normalize to the same string.
func NormalizeName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return ""
	}

	if folded, _, err := transform.String(foldDiacritics, name); err == nil {
		name = folded
	}

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"(", " ",
		")", " ",
		"-", " ",
		"_", " ",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// Match is one search hit with its similarity score in [0,1].
type Match struct {
	Food  model.Food `json:"food"`
	Score float64    `json:"score"`
}

// Index is a pre-normalized food catalog for repeated lookups.
type Index struct {
	foods []model.Food
	names []indexed
}

type indexed struct {
	foodIdx int
	name    string
}

// NewIndex builds a search index over the catalog. Canonical names, ids, and
// synonyms all participate in matching.
func NewIndex(foods []model.Food) *Index {
	idx := &Index{foods: foods}
	for i, f := range foods {
		idx.names = append(idx.names, indexed{i, NormalizeName(f.ID)})
		idx.names = append(idx.names, indexed{i, NormalizeName(f.CanonicalName)})
		for _, syn := range f.Synonyms {
			idx.names = append(idx.names, indexed{i, NormalizeName(syn)})
		}
	}
	return idx
}

// Lookup resolves a query to at most one food: an exact normalized match, or
// the single best fuzzy match above the similarity threshold. The second
// return is false when nothing qualifies.
func (idx *Index) Lookup(query string) (model.Food, bool) {
	matches := idx.Search(query, 1)
	if len(matches) == 0 {
		return model.Food{}, false
	}
	return matches[0].Food, true
}

// Search returns up to limit matches ordered by descending similarity, exact
// matches first. Each food appears at most once.
func (idx *Index) Search(query string, limit int) []Match {
	q := NormalizeName(query)
	if q == "" {
		return nil
	}

	best := make(map[int]float64)
	for _, n := range idx.names {
		if n.name == "" {
			continue
		}
		var score float64
		if n.name == q {
			score = 1.0
		} else {
			score = TrigramSimilarity(q, n.name)
			if score < similarityThreshold {
				continue
			}
		}
		if score > best[n.foodIdx] {
			best[n.foodIdx] = score
		}
	}

	matches := make([]Match, 0, len(best))
	for i, score := range best {
		matches = append(matches, Match{Food: idx.foods[i], Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Food.ID < matches[j].Food.ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// TrigramSimilarity computes the pg_trgm similarity of two normalized
// strings: shared trigrams divided by total distinct trigrams. Strings are
// padded with two leading and one trailing space per word, matching the
// Postgres extension's behavior.
func TrigramSimilarity(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if tb[t] {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

func trigrams(s string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(s) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = true
		}
	}
	return set
}
