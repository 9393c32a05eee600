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

// Package cc is a grammar for the subset of C and C++ needed to follow preprocessor directives: include paths,
// conditional expressions and macro definitions. Tokens outside that subset are lexed as Invalid bytes.
//
// Unlike calc, the grammar picks the longest match among all token types, so "#ifdef" is never split into "#if" and
// "def".
package cc

import (
	"github.com/Masterminds/semver/v3"

	"github.com/EngFlow/lexcore/internal/document"
	"github.com/EngFlow/lexcore/internal/lexer"
)

var Language = document.Languages.Register(&document.Language{
	Name:         "C/C++",
	Abbreviation: "cc",
	Version:      semver.MustParse("1.0.0"),
})

var (
	Newline = lexer.NewTokenType("Newline", lexer.Literal("\n"))
	// Whitespace other than newlines, which end a directive.
	Whitespace = lexer.NewTokenType("Whitespace", lexer.ByteClass(isSpace))
	// Backslash followed by a newline, with optional whitespace between.
	ContinueLine = lexer.NewTokenType("ContinueLine", lexer.Pattern(`\\[\t\v\f\r ]*\n`))
	// Include path in angle brackets, e.g. <stdio.h>.
	SystemPath   = lexer.NewTokenType("SystemPath", lexer.Pattern(`<[\w\-+./]+>`))
	Defined      = lexer.NewTokenType("Defined", lexer.Literal("defined"))
	Identifier   = lexer.NewTokenType("Identifier", lexer.Pattern(`(?i)[a-z_][a-z0-9_]*`))
	Integer      = lexer.NewTokenType("Integer", lexer.Pattern(`(?i)0x[0-9a-f]+|0b[01]+|0[0-7]*|[1-9][0-9]*`))
	String       = lexer.NewTokenType("String", lexer.Pattern(`"(?:[^"\\\n]|\\.)*"`))
	LineComment  = lexer.NewTokenType("LineComment", lexer.Pattern(`//[^\n]*`))
	BlockComment = lexer.NewTokenType("BlockComment", lexer.Pattern(`(?s)/\*.*?\*/`))

	DirectiveDefine      = directive("define")
	DirectiveElif        = directive("elif")
	DirectiveElifdef     = directive("elifdef")
	DirectiveElifndef    = directive("elifndef")
	DirectiveElse        = directive("else")
	DirectiveEndif       = directive("endif")
	DirectiveIf          = directive("if")
	DirectiveIfdef       = directive("ifdef")
	DirectiveIfndef      = directive("ifndef")
	DirectiveInclude     = directive("include")
	DirectiveIncludeNext = directive("include_next")
	DirectiveUndef       = directive("undef")

	Equal          = lexer.NewTokenType("Equal", lexer.Literal("=="))
	Greater        = lexer.NewTokenType("Greater", lexer.Literal(">"))
	GreaterOrEqual = lexer.NewTokenType("GreaterOrEqual", lexer.Literal(">="))
	Less           = lexer.NewTokenType("Less", lexer.Literal("<"))
	LessOrEqual    = lexer.NewTokenType("LessOrEqual", lexer.Literal("<="))
	LogicalAnd     = lexer.NewTokenType("LogicalAnd", lexer.Literal("&&"))
	LogicalNot     = lexer.NewTokenType("LogicalNot", lexer.Literal("!"))
	LogicalOr      = lexer.NewTokenType("LogicalOr", lexer.Literal("||"))
	NotEqual       = lexer.NewTokenType("NotEqual", lexer.Literal("!="))

	BraceLeft        = lexer.NewTokenType("BraceLeft", lexer.Literal("{"))
	BraceRight       = lexer.NewTokenType("BraceRight", lexer.Literal("}"))
	BracketLeft      = lexer.NewTokenType("BracketLeft", lexer.Literal("["))
	BracketRight     = lexer.NewTokenType("BracketRight", lexer.Literal("]"))
	Comma            = lexer.NewTokenType("Comma", lexer.Literal(","))
	ParenthesisLeft  = lexer.NewTokenType("ParenthesisLeft", lexer.Literal("("))
	ParenthesisRight = lexer.NewTokenType("ParenthesisRight", lexer.Literal(")"))
	Semicolon        = lexer.NewTokenType("Semicolon", lexer.Literal(";"))
)

var directives []*lexer.TokenType

// A hash followed by the directive name, with optional whitespace between.
func directive(name string) *lexer.TokenType {
	t := lexer.NewTokenType("#"+name, lexer.Pattern(`#[\t\v\f\r ]*`+name+`\b`))
	directives = append(directives, t)
	return t
}

// IsDirective reports whether t is one of the preprocessor directive types.
func IsDirective(t *lexer.TokenType) bool {
	for _, d := range directives {
		if d == t {
			return true
		}
	}
	return false
}

type Tokens struct {
	*lexer.Set
}

func init() {
	lexer.DefaultSets.Register(Tokens{lexer.NewSet("cc", func(add func(*lexer.TokenType)) {
		add(Newline)
		add(Whitespace)
		add(ContinueLine)
		add(SystemPath)
		// Defined and Identifier match "defined" with the same length; the first one listed wins.
		add(Defined)
		add(Identifier)
		add(Integer)
		add(String)
		add(LineComment)
		add(BlockComment)
		for _, d := range directives {
			add(d)
		}
		add(Equal)
		add(Greater)
		add(GreaterOrEqual)
		add(Less)
		add(LessOrEqual)
		add(LogicalAnd)
		add(LogicalNot)
		add(LogicalOr)
		add(NotEqual)
		add(BraceLeft)
		add(BraceRight)
		add(BracketLeft)
		add(BracketRight)
		add(Comma)
		add(ParenthesisLeft)
		add(ParenthesisRight)
		add(Semicolon)
	})})
}

// NewLexer creates a longest-match lexer for a C or C++ document.
func NewLexer(doc *document.Document, leaveOpen bool) (*lexer.Lexer, error) {
	tokens, err := lexer.Locate[Tokens](lexer.DefaultSets)
	if err != nil {
		return nil, err
	}
	return lexer.New(doc, lexer.LongestMatchGrammar{tokens}, leaveOpen)
}

func isSpace(b byte) bool {
	switch b {
	case '\t', '\v', '\f', '\r', ' ':
		return true
	}
	return false
}
