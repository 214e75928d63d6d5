package usecase

import (
	"regexp"
	"strings"
	"unicode"
)

// QuerySignals is what the signal extractor reads off a raw query. The
// booster uses these strictly as tie-breaking nudges, never as filters.
type QuerySignals struct {
	SalientTerms     []string
	CapitalizedTerms []string
	QuotedPhrases    []string
	IsWhoQuery       bool
}

const (
	minSalientRunes = 3
	minQuotedRunes  = 2
	maxQuotedRunes  = 120
)

// \b is ASCII-only in Go regexp, so Cyrillic alternatives end on (\s|$).
var whoQueryPattern = regexp.MustCompile(`(?i)^\s*(?:who\s+(?:is|are|was|were)(?:\s|$)|кто\s+так(?:ой|ая|ое|ие)(?:\s|$)|кто\s+это(?:\s|$))`)

// Small bilingual stop-word set: articles, conjunctions, prepositions and
// interrogatives in English and Russian.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "and", "or", "but", "not", "of", "in", "on", "at",
		"to", "for", "with", "from", "by", "about", "as", "into", "over",
		"under", "after", "before", "is", "are", "was", "were", "be", "been",
		"this", "that", "these", "those", "what", "who", "whom", "whose",
		"which", "how", "where", "when", "why", "it", "its", "does", "did",

		"и", "или", "но", "не", "нет", "да", "же", "ли", "бы", "в", "во",
		"на", "с", "со", "из", "к", "ко", "по", "за", "от", "до", "у", "о",
		"об", "обо", "при", "для", "без", "через", "над", "под", "между",
		"это", "этот", "эта", "эти", "тот", "та", "те", "кто", "что", "как",
		"где", "когда", "почему", "какой", "какая", "какие", "есть", "был",
		"была", "были", "такой", "такая", "такие",
	} {
		stopWords[w] = struct{}{}
	}
}

// ExtractQuerySignals is pure text analysis over the raw query; it makes no
// external calls and is safe for concurrent use.
func ExtractQuerySignals(query string) QuerySignals {
	tokens := splitQueryTokens(query)

	return QuerySignals{
		SalientTerms:     salientTerms(tokens),
		CapitalizedTerms: capitalizedTerms(tokens),
		QuotedPhrases:    quotedPhrases(query),
		IsWhoQuery:       whoQueryPattern.MatchString(query),
	}
}

// splitQueryTokens splits on non-letter/digit boundaries while preserving
// internal hyphens and accented letters. Original case is kept so the
// capitalization heuristic can run on the same token list.
func splitQueryTokens(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := strings.Trim(b.String(), "-")
		if token != "" {
			tokens = append(tokens, token)
		}
		b.Reset()
	}

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func salientTerms(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		lowered := strings.ToLower(token)
		if len([]rune(lowered)) < minSalientRunes {
			continue
		}
		if _, stop := stopWords[lowered]; stop {
			continue
		}
		if _, dup := seen[lowered]; dup {
			continue
		}
		seen[lowered] = struct{}{}
		out = append(out, lowered)
	}
	return out
}

// capitalizedTerms keeps initial-capital tokens except the first one:
// sentence-initial capitalization is not a proper-noun signal.
func capitalizedTerms(tokens []string) []string {
	out := make([]string, 0, 4)
	seen := make(map[string]struct{}, 4)
	skippedFirst := false
	for _, token := range tokens {
		runes := []rune(token)
		if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
			continue
		}
		if !skippedFirst {
			skippedFirst = true
			continue
		}
		lowered := strings.ToLower(token)
		if _, stop := stopWords[lowered]; stop {
			continue
		}
		if _, dup := seen[lowered]; dup {
			continue
		}
		seen[lowered] = struct{}{}
		out = append(out, lowered)
	}
	return out
}

var quotePairs = []struct {
	open  rune
	close rune
}{
	{'"', '"'},
	{'«', '»'},
	{'“', '”'},
}

func quotedPhrases(query string) []string {
	out := make([]string, 0, 2)
	runes := []rune(query)
	for _, pair := range quotePairs {
		for i := 0; i < len(runes); i++ {
			if runes[i] != pair.open {
				continue
			}
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == pair.close {
					end = j
					break
				}
			}
			if end < 0 {
				break
			}
			phrase := strings.TrimSpace(string(runes[i+1 : end]))
			if n := len([]rune(phrase)); n >= minQuotedRunes && n <= maxQuotedRunes {
				out = append(out, strings.ToLower(phrase))
			}
			i = end
		}
	}
	return out
}
