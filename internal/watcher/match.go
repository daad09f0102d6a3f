package watcher

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

const default_similarity = 0.85

// event names are usually `<series>：<title>`, each part is compared separately
var nameSeparators = regexp.MustCompile(`[：:、|｜()（）\[\]【】\s]+`)

// Matcher decides which event names are worth signing up to.
type Matcher struct {
	keywords   []string
	similarity float64
}

// NewMatcher returns a matcher over keywords, a similarity of 0 uses the
// default threshold. A matcher without keywords matches every name.
func NewMatcher(keywords []string, similarity float64) Matcher {
	if similarity <= 0 {
		similarity = default_similarity
	}
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			normalized = append(normalized, k)
		}
	}
	return Matcher{keywords: normalized, similarity: similarity}
}

// Match returns the keyword that name matched, either as a substring or by
// Jaro-Winkler similarity against a part of the name.
func (m Matcher) Match(name string) (string, bool) {
	if len(m.keywords) == 0 {
		return "", true
	}

	name = strings.ToLower(name)
	parts := nameSeparators.Split(name, -1)
	for _, keyword := range m.keywords {
		if strings.Contains(name, keyword) {
			return keyword, true
		}
		for _, part := range parts {
			// short parts like a single character match anything with the same prefix
			if utf8.RuneCountInString(part) < 2 {
				continue
			}
			if matchr.JaroWinkler(keyword, part, false) >= m.similarity {
				return keyword, true
			}
		}
	}
	return "", false
}
