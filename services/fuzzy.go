package services

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// SimilarityScore compares two labels regardless of word order and returns
// an integer score in [0, 100]. Tokens are sorted once and compared as one
// string; a second comparison with the spaces removed lets a joined
// spelling such as "Speedbump" line up with "Speed Hump".
func SimilarityScore(a, b string) int {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 100
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	best := similarity(sortedJoin(ta), sortedJoin(tb))
	if joined := similarity(strings.Join(ta, ""), strings.Join(tb, "")); joined > best {
		best = joined
	}
	return int(math.Round(best * 100))
}

// similarity is 1 - distance / longer length, counted in runes.
func similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.Distance(a, b, nil)
	return 1 - float64(d)/float64(longest)
}

// tokenize lower-cases s and splits it on anything that is not a letter or
// digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// sortedJoin joins a sorted copy of tokens with single spaces.
func sortedJoin(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}
