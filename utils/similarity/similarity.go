package similarity

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// Normalize lowercases a title, transliterates accented characters to ASCII,
// strips punctuation, and collapses whitespace. Two catalog records are the
// same film for dedup purposes when their normalized titles are equal, so
// "Amélie" and "Amelie" must normalize identically.
func Normalize(s string) string {
	// Interpunct separates words in titles like "WALL·E"; unidecode drops it
	// rather than mapping it to a space, so replace it first.
	s = strings.ReplaceAll(s, "·", " ")
	s = unidecode.Unidecode(s)
	s = strings.ReplaceAll(s, "&", " and ")

	var result strings.Builder
	result.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		} else if unicode.IsSpace(r) || r == '.' || r == '-' || r == '_' {
			result.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(result.String()), " ")
}

// Similarity calculates the similarity percentage between two strings
// using Levenshtein distance. Returns a value between 0.0 (completely
// different) and 1.0 (identical).
//
// Also handles suffix containment for titles with possessive prefixes like
// "Will Vinton's Claymation Christmas" vs "Claymation Christmas" - if one
// title is a suffix of the other and represents a substantial portion (>60%),
// returns a high similarity score.
func Similarity(s1, s2 string) float64 {
	s1 = Normalize(s1)
	s2 = Normalize(s2)

	if s1 == s2 {
		return 1.0
	}

	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	if score := suffixContainmentScore(s1, s2); score > 0 {
		return score
	}

	distance := levenshteinDistance(s1, s2)
	maxLen := max(len(s1), len(s2))

	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(distance)/float64(maxLen)
}

// suffixContainmentScore returns a high similarity score if one string is a
// suffix of the other and represents a substantial portion of the longer
// string. Returns 0 if no suffix containment is found.
func suffixContainmentScore(s1, s2 string) float64 {
	longer, shorter := s1, s2
	if len(s1) < len(s2) {
		longer, shorter = s2, s1
	}

	if strings.HasSuffix(longer, shorter) {
		prefixLen := len(longer) - len(shorter)
		if prefixLen == 0 || longer[prefixLen-1] == ' ' {
			ratio := float64(len(shorter)) / float64(len(longer))
			if ratio >= 0.6 {
				return 0.90 + (ratio * 0.10)
			}
		}
	}

	return 0
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	len1 := len(r1)
	len2 := len(r2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len1][len2]
}

func min(values ...int) int {
	if len(values) == 0 {
		return 0
	}
	minVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
	}
	return minVal
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
