// Copyright 2026 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lexer turns the bytes of a document into token matches.
//
// A grammar is an ordered list of token types, each recognised by a Matcher. The Lexer walks the document and, at
// every token start, asks its Grammar for the first type that matches. Matches are kept in an index ordered by start
// offset, and can later be retyped, rewritten or erased. Edits are applied to the document and every later match is
// shifted accordingly.
package lexer

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/EngFlow/lexcore/internal/reader"
)

// NoByte is the value of the current byte passed to matchers when there is no byte at the token start.
const NoByte = -1

type (
	// Matcher recognises a single token type.
	//
	// Matches is called with the reader positioned one byte past tokenStart and current holding the byte at tokenStart,
	// or NoByte. It may move the reader while looking ahead. When it reports a match, the reader position is the end of
	// the token. When it does not, the caller restores the reader.
	Matcher interface {
		Matches(r *reader.Reader, tokenStart int64, current int) bool
	}

	// MatcherFunc adapts a plain function to the Matcher interface.
	MatcherFunc func(r *reader.Reader, tokenStart int64, current int) bool

	// Literal matches a fixed sequence of bytes.
	Literal string

	// ByteClass matches a run of one or more bytes accepted by the predicate.
	ByteClass func(b byte) bool

	// Matcher for regular expressions, anchored at the token start.
	patternMatcher struct {
		re *regexp.Regexp
	}

	// TokenType is a named lexical category. Token types are compared by identity.
	TokenType struct {
		name    string
		matcher Matcher
	}
)

var (
	// Invalid classifies a single byte no other type recognised. It matches anything.
	Invalid = NewTokenType("__INVALID__", MatcherFunc(func(*reader.Reader, int64, int) bool { return true }))

	// EndOfInput classifies the empty match produced once the document is exhausted.
	EndOfInput = NewTokenType("__EOF__", MatcherFunc(func(r *reader.Reader, tokenStart int64, current int) bool {
		return current == NoByte || tokenStart >= r.Length()
	}))
)

// NewTokenType creates a token type recognised by m.
func NewTokenType(name string, m Matcher) *TokenType {
	return &TokenType{name: name, matcher: m}
}

func (t *TokenType) Name() string   { return t.name }
func (t *TokenType) String() string { return t.name }

func (t *TokenType) Matches(r *reader.Reader, tokenStart int64, current int) bool {
	return t.matcher.Matches(r, tokenStart, current)
}

func (f MatcherFunc) Matches(r *reader.Reader, tokenStart int64, current int) bool {
	return f(r, tokenStart, current)
}

func (lit Literal) Matches(r *reader.Reader, tokenStart int64, current int) bool {
	if len(lit) == 0 || current != int(lit[0]) {
		return false
	}
	rest := int64(len(lit) - 1)
	if rest == 0 {
		return true
	}
	if !bytes.Equal(r.PeekAt(tokenStart+1, rest), []byte(lit[1:])) {
		return false
	}
	r.MoveForward(int(rest))
	return true
}

func (class ByteClass) Matches(r *reader.Reader, _ int64, current int) bool {
	if current == NoByte || !class(byte(current)) {
		return false
	}
	for {
		b, ok := r.Current()
		if !ok || !class(b) {
			return true
		}
		r.MoveForward(1)
	}
}

// Pattern returns a Matcher for the regular expression expr. The expression is anchored at the token start and must
// match at least one byte. It panics if expr does not compile, like regexp.MustCompile.
func Pattern(expr string) Matcher {
	return patternMatcher{re: regexp.MustCompile(`^(?:` + expr + `)`)}
}

func (p patternMatcher) Matches(r *reader.Reader, tokenStart int64, current int) bool {
	if current == NoByte {
		return false
	}
	loc := p.re.FindReaderIndex(r.RuneReader(tokenStart))
	if loc == nil || loc[1] == 0 {
		return false
	}
	r.MoveForward(loc[1] - 1)
	return true
}

func (p patternMatcher) String() string {
	return fmt.Sprintf("pattern(%s)", p.re)
}
