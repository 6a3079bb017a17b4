package domain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/comses/citation/pkg/utils/slices"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldToASCII strips diacritical marks: "Ramírez" becomes "Ramirez".
func FoldToASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeName uppercases a person or container name and strips characters
// which vary between data sources.
//
// Newlines become spaces, the characters ".,{}" are removed and diacritics
// are folded away, so "Ramírez, J." and "RAMIREZ J" normalize to the same string.
func NormalizeName(name string) string {
	n := strings.ToUpper(name)
	n = strings.NewReplacer("\n", " ", "\r", " ").Replace(n)
	n = strings.NewReplacer(".", "", ",", "", "{", "", "}", "").Replace(n)
	return strings.TrimSpace(FoldToASCII(n))
}

// NormalizeAuthorName splits a raw author name into its family and given
// parts: "Smith, John A." yields ("Smith", "John A").
//
// The characters ".,{}" are removed, newlines become spaces and the first
// space separates family from given. A name without a space is all family.
func NormalizeAuthorName(name string) (family, given string) {
	n := strings.NewReplacer("\n", " ", "\r", " ").Replace(strings.TrimSpace(name))
	n = strings.NewReplacer(".", "", ",", "", "{", "", "}", "").Replace(n)
	family, given, _ = strings.Cut(n, " ")
	return family, given
}

var nameSep = regexp.MustCompile(`\b,? +\b`)

func allInitials(givenNames []string) bool {
	for _, g := range givenNames {
		if len(g) != 1 || g != strings.ToUpper(g) {
			return false
		}
	}
	return true
}

// LastNameAndInitials reduces a raw name to its normalized family name and
// the initials of the given names: "Smith, John A." becomes ("SMITH", "JA").
//
// When the given names are spelled out, each contributes its initial.
// A single spelled-out given name is kept as is.
func LastNameAndInitials(name string) (family, given string) {
	parts := nameSep.Split(NormalizeName(name), -1)
	family = parts[0]
	givenNames := parts[1:]

	_, spelled := slices.First(givenNames, func(g string) bool { return 1 < len(g) })
	if allInitials(givenNames) {
		given = strings.Join(givenNames, "")
	} else if 1 < len(givenNames) && spelled {
		given = strings.Join(slices.Map(givenNames, func(g string) string { return g[:1] }), "")
	} else {
		given = strings.Join(givenNames, " ")
	}
	return family, given
}

// Similarity scores how alike two strings read, from 0 to 100.
//
// Case is ignored. 100 means equal; the score falls with the edit distance
// between the two, measured against the longer one.
func Similarity(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 100
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); longest < n {
		longest = n
	}
	return (longest - levenshtein.ComputeDistance(a, b)) * 100 / longest
}

// LastNameAndInitial reduces an already normalized name to "FAMILY G" with a
// single given initial, the shape Crossref author lists are matched against.
//
// Names it cannot reduce are returned unchanged.
func LastNameAndInitial(normalizedName string) string {
	parts := nameSep.Split(normalizedName, -1)
	family := parts[0]
	givenNames := parts[1:]
	if len(givenNames) == 0 {
		return normalizedName
	}
	if allInitials(givenNames) || 1 < len(givenNames[0]) {
		return family + " " + givenNames[0][:1]
	}
	return normalizedName
}
