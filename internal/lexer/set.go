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
	"errors"
	"fmt"
	"iter"
	"reflect"
	"slices"
	"sync"

	"github.com/EngFlow/lexcore/internal/collections"
	"github.com/EngFlow/lexcore/internal/reader"
)

// ErrSetNotRegistered is returned by Locate when no set of the requested type was registered.
var ErrSetNotRegistered = errors.New("token set not registered")

type (
	// TokenSet is an ordered collection of token types. Grammars usually define their own set type embedding *Set, so
	// that the registry can find it by its Go type.
	TokenSet interface {
		Name() string
		Types() iter.Seq[*TokenType]
	}

	// Set is a named, ordered list of token types populated on first use.
	Set struct {
		name   string
		define func(add func(*TokenType))

		once    sync.Once
		types   []*TokenType
		members collections.Set[*TokenType]
	}

	// SetRegistry holds at most one TokenSet per concrete Go type. It is safe for concurrent use.
	SetRegistry struct {
		mu   sync.RWMutex
		sets map[reflect.Type]TokenSet
	}

	// Grammar picks the token type found at a token start. It returns nil, or Invalid, when nothing matches. The
	// reader is positioned one byte past tokenStart and, on success, must be left at the end of the token.
	Grammar interface {
		LocateNextMatch(r *reader.Reader, tokenStart int64, current int) *TokenType
	}

	// SetGrammar tries the types of its sets in order and returns the first one that matches. Sets listed first take
	// precedence, so a grammar extending another lists its own set before the base one.
	SetGrammar []TokenSet

	// LongestMatchGrammar tries every type of its sets and returns the one matching the most bytes. Ties go to the
	// type listed first.
	LongestMatchGrammar []TokenSet
)

// NewSet creates a Set whose types are added by define the first time they are needed. Types are kept in the order
// they are added; adding a type twice keeps the first position.
func NewSet(name string, define func(add func(*TokenType))) *Set {
	return &Set{name: name, define: define}
}

func (s *Set) Name() string { return s.name }

func (s *Set) init() {
	s.members = make(collections.Set[*TokenType])
	s.define(func(t *TokenType) {
		if s.members.Add(t) {
			s.types = append(s.types, t)
		}
	})
}

// Types returns the token types in precedence order. The sequence can be iterated any number of times.
func (s *Set) Types() iter.Seq[*TokenType] {
	s.once.Do(s.init)
	return slices.Values(s.types)
}

func (s *Set) Contains(t *TokenType) bool {
	s.once.Do(s.init)
	return s.members.Contains(t)
}

func (s *Set) Len() int {
	s.once.Do(s.init)
	return len(s.types)
}

// DefaultSets is the registry used by grammars that do not carry their own.
var DefaultSets = NewSetRegistry()

func NewSetRegistry() *SetRegistry {
	return &SetRegistry{sets: make(map[reflect.Type]TokenSet)}
}

// Register records set under its concrete type and returns the canonical instance for that type. When a set of the
// same type is already registered, the existing one is kept and returned.
func (reg *SetRegistry) Register(set TokenSet) TokenSet {
	key := reflect.TypeOf(set)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if existing, ok := reg.sets[key]; ok {
		return existing
	}
	reg.sets[key] = set
	return set
}

// Locate returns the set registered under type T.
func Locate[T TokenSet](reg *SetRegistry) (T, error) {
	key := reflect.TypeFor[T]()
	reg.mu.RLock()
	set, ok := reg.sets[key]
	reg.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%v: %w", key, ErrSetNotRegistered)
	}
	return set.(T), nil
}

// Types returns the types of all sets in precedence order.
func (g SetGrammar) Types() iter.Seq[*TokenType] {
	return func(yield func(*TokenType) bool) {
		for _, set := range g {
			for t := range set.Types() {
				if !yield(t) {
					return
				}
			}
		}
	}
}

func (g SetGrammar) LocateNextMatch(r *reader.Reader, tokenStart int64, current int) *TokenType {
	mark := r.Mark()
	for t := range g.Types() {
		if t == Invalid || t == EndOfInput {
			continue
		}
		if t.Matches(r, tokenStart, current) {
			return t
		}
		r.Rewind(mark)
	}
	return nil
}

func (g LongestMatchGrammar) Types() iter.Seq[*TokenType] {
	return SetGrammar(g).Types()
}

func (g LongestMatchGrammar) LocateNextMatch(r *reader.Reader, tokenStart int64, current int) *TokenType {
	mark := r.Mark()
	var best *TokenType
	bestEnd := tokenStart
	for t := range g.Types() {
		if t == Invalid || t == EndOfInput {
			continue
		}
		if t.Matches(r, tokenStart, current) && r.Position() > bestEnd {
			best, bestEnd = t, r.Position()
		}
		r.Rewind(mark)
	}
	if best != nil {
		best.Matches(r, tokenStart, current)
	}
	return best
}
