// Package normalize provides the pure string-normalization primitives shared
// by every matching tier of the resolution engine.  Index keys and query keys
// must be produced by the same functions so that reduced-index lookups agree
// with reduced-query keys; the index builder and both resolvers depend on
// this package and nothing else for key construction.
package normalize

import (
	"strings"
	"unicode"
)

// DefaultStopwords is the domain stop-word vocabulary stripped by reduced-key
// construction.  Membership is part of the matching contract: the reduced
// ontology indexes are built with exactly this list, so a resolver configured
// with a different list will silently miss reduced-tier matches.
var DefaultStopwords = []string{
	"cell", "line", "primary", "the", "of", "and",
	"or", "but", "tissue", "cells", "human", "for",
	"organ", "region", "system", "sample", "assay",
	"disease", "to", "measurement", "down", "up", "part",
	"layer", "membrane", "area", "like", "related",
	"type", "with", "amount", "containing",
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Strict lowercases s and strips every character that is not a letter, digit,
// or underscore.  Whitespace is removed along with punctuation.  Empty input
// yields the empty string.  Strict is idempotent.
func Strict(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if isWordRune(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Fuzzy lowercases s and strips punctuation while preserving whitespace, so
// that token boundaries survive for token-sort similarity scoring.
func Fuzzy(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if isWordRune(r) || unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Normalizer builds index/query keys against a fixed stop-word vocabulary.
// The zero value is not usable; construct with New.
type Normalizer struct {
	stopwords map[string]struct{}
}

// New returns a Normalizer over the supplied stop-word list.  Pass
// DefaultStopwords for the standard vocabulary; a custom list lets multiple
// resolution runs with different vocabularies coexist in one process.
func New(stopwords []string) *Normalizer {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[w] = struct{}{}
	}
	return &Normalizer{stopwords: set}
}

// Key tokenizes s on whitespace, strict-normalizes each token, drops empty
// tokens, and rejoins with no separator.  This is the exact-tier key form.
func (n *Normalizer) Key(s string) string {
	return n.key(s, false)
}

// ReducedKey is Key with stop-word tokens additionally dropped.  This is the
// reduced-tier key form.
func (n *Normalizer) ReducedKey(s string) string {
	return n.key(s, true)
}

// FuzzyKey lowercases and strips punctuation while keeping whitespace; the
// fuzzy tier compares these keys by token-sort similarity rather than
// equality.
func (n *Normalizer) FuzzyKey(s string) string {
	return Fuzzy(s)
}

func (n *Normalizer) key(s string, reduced bool) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, tok := range strings.Fields(s) {
		cleaned := Strict(tok)
		if cleaned == "" {
			continue
		}
		if reduced {
			if _, drop := n.stopwords[cleaned]; drop {
				continue
			}
		}
		sb.WriteString(cleaned)
	}
	return sb.String()
}
