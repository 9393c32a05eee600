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
	"fmt"

	"github.com/EngFlow/lexcore/internal/collections"
)

// Stream is a thin wrapper around a Lexer that provides `Peek` and `Next` primitives while skipping the token types
// given at construction, typically whitespace and comments. The stream ends at EndOfInput or at the first error.
type Stream struct {
	lexer *Lexer
	skip  collections.Set[*TokenType]
	buf   *TokenMatch // one-token look-ahead; nil when empty
	last  *TokenMatch // previously returned token
	atEOF bool
	err   error
}

func NewStream(l *Lexer, skip ...*TokenType) *Stream {
	return &Stream{lexer: l, skip: collections.SetOf(skip...)}
}

// Next returns the next token that is not skipped.
func (s *Stream) Next() (*TokenMatch, bool) {
	m, ok := s.Peek()
	if ok {
		s.buf = nil
		s.last = m
	}
	return m, ok
}

// Peek returns the next token without consuming it.
func (s *Stream) Peek() (*TokenMatch, bool) {
	if s.buf != nil {
		return s.buf, true
	}
	for !s.atEOF {
		m, err := s.lexer.LexToken()
		if err != nil {
			s.err, s.atEOF = err, true
			break
		}
		if m.Type == EndOfInput {
			s.atEOF = true
			break
		}
		if !s.skip.Contains(m.Type) {
			s.buf = m
			return m, true
		}
	}
	return nil, false
}

// LookAheadIs reports whether the next token is of type t.
func (s *Stream) LookAheadIs(t *TokenType) bool {
	m, ok := s.Peek()
	return ok && m.Type == t
}

// Consume reads the next token and checks that it is of type t.
func (s *Stream) Consume(t *TokenType) (*TokenMatch, error) {
	m, ok := s.Next()
	if !ok {
		if s.err != nil {
			return nil, s.err
		}
		return nil, fmt.Errorf("expected %v but reached end of input", t)
	}
	if m.Type != t {
		return m, fmt.Errorf("expected %v but found %v", t, m)
	}
	return m, nil
}

// Last returns the token most recently returned by Next.
func (s *Stream) Last() *TokenMatch { return s.last }

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error { return s.err }
