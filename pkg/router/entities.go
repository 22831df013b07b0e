package router

import (
	"sort"
	"strings"
	"unicode"
)

// FallbackEntity is the seed used when nothing in the query matches the
// entity dictionary and bigram extraction yields nothing. Graph retrieval
// never hard-fails on zero matches.
const FallbackEntity = "Space Biology"

// maxQueryEntities caps how many entities a single query fans out to.
const maxQueryEntities = 5

// DefaultEntityDictionary lists well-known domain entities matched against
// query text. Entries are stored in their canonical graph form.
func DefaultEntityDictionary() []string {
	return []string{
		"Microgravity", "Radiation", "Bone Loss", "Muscle Atrophy",
		"Oxidative Stress", "Stem Cells", "Immune System", "Cardiovascular",
		"Neurovestibular", "Tissue Regeneration", "Gene Expression",
	}
}

var queryStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true, "on": true,
	"to": true, "and": true, "or": true, "is": true, "are": true, "what": true,
	"how": true, "does": true, "do": true, "why": true, "which": true,
	"about": true, "for": true, "with": true, "between": true,
}

// EntityExtractor finds graph seed entities in free-text queries.
// Dictionary matches are preferred, multi-word phrases before single
// words so "bone loss" wins over "bone".
type EntityExtractor struct {
	dictionary []string
}

// NewEntityExtractor builds an extractor over the given dictionary.
// A nil or empty dictionary falls back to the default.
func NewEntityExtractor(dictionary []string) *EntityExtractor {
	if len(dictionary) == 0 {
		dictionary = DefaultEntityDictionary()
	}
	ordered := make([]string, len(dictionary))
	copy(ordered, dictionary)
	sort.SliceStable(ordered, func(i, j int) bool {
		wi, wj := len(strings.Fields(ordered[i])), len(strings.Fields(ordered[j]))
		if wi != wj {
			return wi > wj
		}
		return len(ordered[i]) > len(ordered[j])
	})
	return &EntityExtractor{dictionary: ordered}
}

// Extract returns the entities to seed graph retrieval with. It never
// returns an empty slice: dictionary matches first, then naive bigrams
// over the query, then the fixed fallback entity.
func (e *EntityExtractor) Extract(query string) []string {
	lower := strings.ToLower(query)

	var found []string
	for _, entity := range e.dictionary {
		if strings.Contains(lower, strings.ToLower(entity)) {
			found = append(found, entity)
			if len(found) == maxQueryEntities {
				return found
			}
		}
	}
	if len(found) > 0 {
		return found
	}

	if bigrams := extractBigrams(lower); len(bigrams) > 0 {
		return bigrams
	}
	return []string{FallbackEntity}
}

// extractBigrams forms candidate entities from adjacent non-stopword
// tokens of the query.
func extractBigrams(lower string) []string {
	tokens := tokenize(lower)
	var bigrams []string
	for i := 0; i+1 < len(tokens); i++ {
		bigrams = append(bigrams, titleCase(tokens[i]+" "+tokens[i+1]))
		if len(bigrams) == 3 {
			break
		}
	}
	return bigrams
}

func tokenize(lower string) []string {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if !queryStopwords[f] {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
