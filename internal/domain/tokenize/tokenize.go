// Package tokenize turns free-text task descriptions into significant terms.
package tokenize

import (
	"regexp"
	"strings"
)

// minTokenLength is the shortest token kept.
const minTokenLength = 2

// nonTermChars matches everything that cannot be part of a term.
var nonTermChars = regexp.MustCompile(`[^a-z0-9\- ]`)

// stopWords are low-signal words dropped from queries.
var stopWords = map[string]struct{}{
	"i": {}, "me": {}, "my": {}, "we": {}, "our": {}, "you": {}, "your": {}, "it": {}, "its": {},
	"want": {}, "wants": {}, "would": {}, "like": {}, "should": {}, "could": {}, "will": {},
	"to": {}, "a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "for": {}, "with": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "by": {}, "from": {}, "into": {}, "about": {},
	"is": {}, "are": {}, "be": {}, "am": {}, "do": {}, "does": {}, "can": {}, "need": {}, "needs": {},
	"that": {}, "this": {}, "these": {}, "some": {}, "how": {}, "what": {}, "please": {},
	"make": {}, "create": {}, "build": {}, "help": {}, "add": {}, "get": {},
	"use": {}, "using": {}, "work": {}, "working": {},
}

// IsStopWord reports whether w is dropped by Tokenize.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Tokenize lowercases text, strips characters outside [a-z0-9- ], splits on
// whitespace and drops short tokens and stop words. Order is preserved and
// repeated tokens are kept.
func Tokenize(text string) []string {
	cleaned := nonTermChars.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minTokenLength || IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
