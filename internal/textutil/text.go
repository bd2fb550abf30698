// Package textutil holds the Unicode-aware text helpers shared by the
// benchmark steps.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// wordRe matches runs of word characters in any script.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]+`)

// Lower returns s lowercased with full Unicode case mapping.
func Lower(s string) string {
	// A Caser carries state, so a fresh one is built per call.
	return cases.Lower(language.Und).String(s)
}

// Words returns the lowercased word-character runs of s in order of
// appearance. Punctuation and whitespace separate words.
func Words(s string) []string {
	return wordRe.FindAllString(Lower(s), -1)
}

// WordSet is Words collected into a set.
func WordSet(s string) map[string]struct{} {
	words := Words(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Tokens splits s on whitespace, leaving punctuation attached.
func Tokens(s string) []string {
	return strings.Fields(s)
}

// LowerSet lowercases every entry of items into a set.
func LowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[Lower(it)] = struct{}{}
	}
	return set
}
