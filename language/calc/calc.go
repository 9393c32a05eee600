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

// Package calc is the grammar of a small calculator language:
//
//	# comment
//	let radius = 2.5
//	print("area", 3.14159 * radius ** 2)
//
// It is used by lexdump and lexserver, and doubles as an example of a grammar built from every kind of matcher.
package calc

import (
	"github.com/Masterminds/semver/v3"

	"github.com/EngFlow/lexcore/internal/collections"
	"github.com/EngFlow/lexcore/internal/document"
	"github.com/EngFlow/lexcore/internal/lexer"
	"github.com/EngFlow/lexcore/internal/reader"
)

// Language of calc documents.
var Language = document.Languages.Register(&document.Language{
	Name:         "Calc",
	Abbreviation: "calc",
	Version:      semver.MustParse("1.0.0"),
})

// Token types, in precedence order.
var (
	Newline    = lexer.NewTokenType("Newline", lexer.Literal("\n"))
	Whitespace = lexer.NewTokenType("Whitespace", lexer.ByteClass(isSpace))
	Comment    = lexer.NewTokenType("Comment", lexer.Pattern(`#[^\n]*`))
	Number     = lexer.NewTokenType("Number", lexer.Pattern(`[0-9]+(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?`))
	String     = lexer.NewTokenType("String", lexer.MatcherFunc(matchString))
	Identifier = lexer.NewTokenType("Identifier", lexer.Pattern(`[A-Za-z_][A-Za-z0-9_]*`))
	Power      = lexer.NewTokenType("Power", lexer.Literal("**"))
	Plus       = lexer.NewTokenType("Plus", lexer.Literal("+"))
	Minus      = lexer.NewTokenType("Minus", lexer.Literal("-"))
	Star       = lexer.NewTokenType("Star", lexer.Literal("*"))
	Slash      = lexer.NewTokenType("Slash", lexer.Literal("/"))
	Assign     = lexer.NewTokenType("Assign", lexer.Literal("="))
	LeftParen  = lexer.NewTokenType("LeftParen", lexer.Literal("("))
	RightParen = lexer.NewTokenType("RightParen", lexer.Literal(")"))
	Comma      = lexer.NewTokenType("Comma", lexer.Literal(","))

	// Keyword is never matched directly. Identifiers spelling a keyword are retyped once matched.
	Keyword = lexer.NewTokenType("Keyword", lexer.MatcherFunc(func(*reader.Reader, int64, int) bool { return false }))
)

var keywords = collections.SetOf("let", "print")

// Tokens is the token set of calc.
type Tokens struct {
	*lexer.Set
}

func init() {
	lexer.DefaultSets.Register(Tokens{lexer.NewSet("calc", func(add func(*lexer.TokenType)) {
		add(Newline)
		add(Whitespace)
		add(Comment)
		add(Number)
		add(String)
		add(Identifier)
		// Power must come before Star.
		add(Power)
		add(Plus)
		add(Minus)
		add(Star)
		add(Slash)
		add(Assign)
		add(LeftParen)
		add(RightParen)
		add(Comma)
	})})
}

// NewLexer creates a lexer for a calc document.
func NewLexer(doc *document.Document, leaveOpen bool) (*lexer.Lexer, error) {
	tokens, err := lexer.Locate[Tokens](lexer.DefaultSets)
	if err != nil {
		return nil, err
	}
	l, err := lexer.NewForSets(doc, leaveOpen, tokens)
	if err != nil {
		return nil, err
	}
	l.OnTokenMatched(classifyKeyword)
	return l, nil
}

func classifyKeyword(m *lexer.TokenMatch) {
	if m.Is(Identifier) && keywords.Contains(string(m.Text())) {
		m.Retype(Keyword)
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}

// Double quoted string on a single line. A backslash escapes the next byte.
func matchString(r *reader.Reader, _ int64, current int) bool {
	if current != '"' {
		return false
	}
	for {
		b, ok := r.Current()
		switch {
		case !ok || b == '\n':
			return false
		case b == '"':
			r.MoveForward(1)
			return true
		case b == '\\':
			if _, ok := r.PeekNext(); !ok {
				return false
			}
			r.MoveForward(2)
		default:
			r.MoveForward(1)
		}
	}
}
