package analysis

import (
	"html"
	"regexp"
	"sort"
	"strings"
)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// Tokens shorter than this carry too little signal to index.
const minKeywordRunes = 7

// CleanText strips HTML entities and punctuation and squeezes whitespace.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = punctuation.ReplaceAllString(decoded, " ")
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// Keywords returns up to limit distinct long tokens from the text, most
// frequent first, ties broken alphabetically so results are deterministic.
func Keywords(text string, limit int) []string {
	clean := strings.ToLower(CleanText(text))
	if clean == "" || limit <= 0 {
		return nil
	}

	freq := make(map[string]int)
	for _, token := range strings.Fields(clean) {
		if len([]rune(token)) < minKeywordRunes {
			continue
		}
		freq[token]++
	}

	if len(freq) == 0 {
		return nil
	}

	type kv struct {
		word  string
		count int
	}

	pairs := make([]kv, 0, len(freq))
	for word, count := range freq {
		pairs = append(pairs, kv{word: word, count: count})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count == pairs[j].count {
			return pairs[i].word < pairs[j].word
		}
		return pairs[i].count > pairs[j].count
	})

	if limit > len(pairs) {
		limit = len(pairs)
	}

	keywords := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		keywords = append(keywords, pairs[i].word)
	}

	return keywords
}
