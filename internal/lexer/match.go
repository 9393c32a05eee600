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

package lexer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/EngFlow/lexcore/internal/reader"
)

// ErrDetachedMatch is returned by edits on a match its lexer no longer tracks: it was erased, superseded, or the
// lexer was closed.
var ErrDetachedMatch = errors.New("token match is detached from its lexer")

type (
	// TokenMatch is a span of the document recognised as one token.
	//
	// Start and End follow the document through edits routed via the lexer. OriginalStart and OriginalEnd keep the
	// span recorded when the token was matched.
	TokenMatch struct {
		// Type may be changed by TokenMatched handlers or later analysis.
		Type *TokenType

		text          []byte
		start, end    int64
		originalStart int64
		originalEnd   int64
		location      reader.Cursor

		// Owning lexer, nil once detached.
		lexer *Lexer
	}

	// Substring is a piece of text together with the span it occupied.
	Substring struct {
		Text       []byte
		Start, End int64
	}

	// TokenEdit describes a replaced token text.
	TokenEdit struct {
		Match *TokenMatch
		Old   Substring
	}
)

// Text returns the bytes of the token. The slice is owned by the match and must not be modified.
func (m *TokenMatch) Text() []byte { return m.text }

func (m *TokenMatch) Start() int64         { return m.start }
func (m *TokenMatch) End() int64           { return m.end }
func (m *TokenMatch) Len() int64           { return m.end - m.start }
func (m *TokenMatch) OriginalStart() int64 { return m.originalStart }
func (m *TokenMatch) OriginalEnd() int64   { return m.originalEnd }

// Lexer returns the owning lexer, or nil once the match is detached.
func (m *TokenMatch) Lexer() *Lexer { return m.lexer }

func (m *TokenMatch) Attached() bool { return m.lexer != nil }

func (m *TokenMatch) Substring() Substring {
	return Substring{Text: m.text, Start: m.start, End: m.end}
}

func (m *TokenMatch) String() string {
	return fmt.Sprintf("%v %q@[%d,%d)", m.Type, m.text, m.start, m.end)
}

// Location returns the line and column at which the token starts.
func (m *TokenMatch) Location() (reader.Cursor, error) {
	if m.location != reader.CursorNone {
		return m.location, nil
	}
	if m.lexer == nil {
		return reader.CursorNone, ErrDetachedMatch
	}
	loc, err := m.lexer.Coordinates(m.start)
	if err != nil {
		return reader.CursorNone, err
	}
	m.location = loc
	return loc, nil
}

// Decoded returns the token text decoded from the document encoding.
func (m *TokenMatch) Decoded() (string, error) {
	if m.lexer == nil {
		return string(m.text), nil
	}
	decoded, err := m.lexer.Document().Encoding().NewDecoder().Bytes(m.text)
	if err != nil {
		return "", fmt.Errorf("decoding %v: %w", m, err)
	}
	return string(decoded), nil
}

// Is reports whether the token is of type t.
func (m *TokenMatch) Is(t *TokenType) bool { return m.Type == t }

// Erase removes the token from its lexer and from the document.
func (m *TokenMatch) Erase() error {
	if m.lexer == nil {
		return ErrDetachedMatch
	}
	return m.lexer.RemoveTokenMatch(m)
}

// SetText replaces the token text in the document.
func (m *TokenMatch) SetText(text []byte) error {
	if m.lexer == nil {
		return ErrDetachedMatch
	}
	return m.lexer.ReplaceTokenMatchText(m, text)
}

// SetString replaces the token text with s encoded in the document encoding.
func (m *TokenMatch) SetString(s string) error {
	if m.lexer == nil {
		return ErrDetachedMatch
	}
	return m.lexer.ReplaceTokenMatchString(m, s)
}

// Retype changes the type of the token without touching the document.
func (m *TokenMatch) Retype(t *TokenType) { m.Type = t }

// Equal reports whether the substring has the given text and span.
func (s Substring) Equal(other Substring) bool {
	return s.Start == other.Start && s.End == other.End && bytes.Equal(s.Text, other.Text)
}
