// Package textdiff aligns two whitespace-tokenized texts with a longest common
// subsequence edit script. The alignment is deterministic: among the optimal
// scripts it always returns the one produced by the backtrack tie-break in
// Align, so rendered diffs are stable across runs.
package textdiff

import (
	"strings"
	"unicode"
)

// Token is one whitespace-delimited word and its position in its sequence.
// Two tokens are equal when their Text is byte-for-byte identical.
type Token struct {
	Text  string `json:"text" yaml:"text" msgpack:"text"`
	Index int    `json:"index" yaml:"index" msgpack:"index"`
}

// Tokens is an ordered token sequence produced by Tokenize.
type Tokens []Token

// Tokenize splits text on maximal runs of white space and returns the
// non-empty segments in order, indexed from 0. Empty and whitespace-only input
// yield an empty, non-nil sequence. White space is the set matched by the
// ECMAScript \s class, see IsSpace.
func Tokenize(text string) Tokens {
	fields := strings.FieldsFunc(text, IsSpace)
	toks := make(Tokens, len(fields))
	for i, f := range fields {
		toks[i] = Token{Text: f, Index: i}
	}
	return toks
}

// IsSpace reports whether r separates tokens: the Zs space separators, the
// ASCII controls \t \n \v \f \r, the line and paragraph separators and the
// byte order mark U+FEFF. Unlike unicode.IsSpace it does not match U+0085
// (NEL), which stays part of its token.
func IsSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// Texts returns the token texts in order.
func (ts Tokens) Texts() []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Text
	}
	return out
}

// String joins the token texts with single spaces.
func (ts Tokens) String() string {
	return strings.Join(ts.Texts(), " ")
}
