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
	"iter"
	"slices"

	"github.com/tliron/commonlog"

	"github.com/EngFlow/lexcore/internal/document"
	"github.com/EngFlow/lexcore/internal/reader"
)

// ErrLexerClosed is returned by operations on a closed lexer.
var ErrLexerClosed = errors.New("lexer is closed")

var log = commonlog.GetLogger("lexcore.lexer")

type (
	// Lexer is a Reader that splits its document into token matches.
	//
	// Edits made through the Lexer, its matches or its shadowed Reader methods (ReplaceRange, RemoveRange,
	// ReplaceCurrent, ReplacePrevious) keep the match index in step with the document. Editing the Document through
	// another Reader does not.
	//
	// A Lexer is not safe for concurrent use. Event handlers run synchronously on the goroutine that triggered them;
	// events raised by a handler's own edits are not delivered.
	Lexer struct {
		*reader.Reader
		grammar Grammar

		// Live matches ordered by start offset. Their spans never overlap.
		matches []*TokenMatch
		last    *TokenMatch

		// Location of the byte at cursorAt, used to place sequentially lexed tokens without a line index.
		cursor   reader.Cursor
		cursorAt int64

		muted       bool
		dispatching bool
		matched     handlers[*TokenMatch]
		edited      handlers[TokenEdit]
		removed     handlers[*TokenMatch]
	}

	handler[E any] struct {
		id int
		fn func(E)
	}

	handlers[E any] struct {
		nextID  int
		entries []handler[E]
	}
)

// New creates a Lexer over doc. Unless leaveOpen is set, closing the Lexer closes the Document.
func New(doc *document.Document, grammar Grammar, leaveOpen bool) (*Lexer, error) {
	r, err := reader.New(doc, leaveOpen)
	if err != nil {
		return nil, err
	}
	return &Lexer{
		Reader:  r,
		grammar: grammar,
		cursor:  reader.CursorInit,
	}, nil
}

// NewForSets creates a Lexer trying the types of sets in order.
func NewForSets(doc *document.Document, leaveOpen bool, sets ...TokenSet) (*Lexer, error) {
	return New(doc, SetGrammar(sets), leaveOpen)
}

func (l *Lexer) Grammar() Grammar { return l.grammar }

// LexToken recognises the token starting at the current position and moves past it.
//
// The first type reported by the grammar wins. When no type matches, a single byte is classified as Invalid. At the
// end of the document an empty EndOfInput match is returned; it is not added to the index.
func (l *Lexer) LexToken() (*TokenMatch, error) {
	if l.Closed() {
		return nil, ErrLexerClosed
	}

	start := l.Position()
	current := NoByte
	if b, ok := l.Current(); ok {
		current = int(b)
		l.MoveForward(1)
	}
	seeded := l.Mark()

	var matchedType *TokenType
	if EndOfInput.Matches(l.Reader, start, current) {
		matchedType = EndOfInput
	} else {
		matchedType = l.grammar.LocateNextMatch(l.Reader, start, current)
		if matchedType == nil || matchedType == Invalid || l.Position() <= start {
			matchedType = Invalid
			l.Rewind(seeded)
		}
	}
	if err := l.Err(); err != nil {
		return nil, err
	}

	end := l.Position()
	m := &TokenMatch{
		Type:          matchedType,
		text:          bytes.Clone(l.PeekAt(start, end-start)),
		start:         start,
		end:           end,
		originalStart: start,
		originalEnd:   end,
		location:      reader.CursorNone,
	}
	if start == l.cursorAt {
		m.location = l.cursor
		l.cursor = l.cursor.AdvancedBy(m.text)
		l.cursorAt = end
	}

	// The match is indexed before handlers run, so edits they make elsewhere in the document move it like any other
	// live match.
	if matchedType != EndOfInput {
		m.lexer = l
		l.insert(m)
	}
	l.last = m
	l.fireMatched(m)
	if matchedType == EndOfInput {
		m.start, m.end = l.Length(), l.Length()
	}
	return m, nil
}

// All lexes tokens until the end of the document, yielding the final EndOfInput match as well.
func (l *Lexer) All() iter.Seq2[*TokenMatch, error] {
	return func(yield func(*TokenMatch, error) bool) {
		for {
			m, err := l.LexToken()
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(m, nil) || m.Type == EndOfInput {
				return
			}
		}
	}
}

// PreviousMatches returns the live matches ordered by start offset. The sequence is a snapshot; edits made while
// iterating do not affect it.
func (l *Lexer) PreviousMatches() iter.Seq[*TokenMatch] {
	return slices.Values(slices.Clone(l.matches))
}

func (l *Lexer) MatchCount() int { return len(l.matches) }

// LastMatch returns the most recently lexed match, or nil.
func (l *Lexer) LastMatch() *TokenMatch { return l.last }

// FarthestIndexed returns the end of the last indexed match, or the current position when nothing is indexed.
func (l *Lexer) FarthestIndexed() int64 {
	if len(l.matches) == 0 {
		return l.Position()
	}
	return l.matches[len(l.matches)-1].end
}

// MatchAt returns the live match whose span contains offset.
func (l *Lexer) MatchAt(offset int64) (*TokenMatch, bool) {
	i, found := l.search(offset)
	if !found {
		if i == 0 {
			return nil, false
		}
		i--
	}
	if m := l.matches[i]; offset >= m.start && offset < m.end {
		return m, true
	}
	return nil, false
}

// Close detaches every live match and closes the reader.
func (l *Lexer) Close() error {
	for _, m := range l.matches {
		m.lexer = nil
	}
	l.matches = nil
	return l.Reader.Close()
}

// OnTokenMatched registers fn to be called with every new match before it is indexed. Handlers may retype the match.
// The returned function unregisters fn.
func (l *Lexer) OnTokenMatched(fn func(*TokenMatch)) (unsubscribe func()) {
	return l.matched.add(fn)
}

// OnTokenEdited registers fn to be called after the text of a match was replaced.
func (l *Lexer) OnTokenEdited(fn func(TokenEdit)) (unsubscribe func()) {
	return l.edited.add(fn)
}

// OnTokenRemoved registers fn to be called before a match is erased.
func (l *Lexer) OnTokenRemoved(fn func(*TokenMatch)) (unsubscribe func()) {
	return l.removed.add(fn)
}

// SetEventsMuted turns event delivery off or on.
func (l *Lexer) SetEventsMuted(muted bool) { l.muted = muted }

func (l *Lexer) EventsMuted() bool { return l.muted }

func (l *Lexer) fireMatched(m *TokenMatch) { fire(l, &l.matched, m) }
func (l *Lexer) fireEdited(e TokenEdit)    { fire(l, &l.edited, e) }
func (l *Lexer) fireRemoved(m *TokenMatch) { fire(l, &l.removed, m) }

func fire[E any](l *Lexer, hs *handlers[E], event E) {
	if l.muted || l.dispatching || len(hs.entries) == 0 {
		return
	}
	l.dispatching = true
	defer func() { l.dispatching = false }()
	// Handlers may unsubscribe while being called.
	for _, h := range slices.Clone(hs.entries) {
		h.fn(event)
	}
}

func (hs *handlers[E]) add(fn func(E)) func() {
	id := hs.nextID
	hs.nextID++
	hs.entries = append(hs.entries, handler[E]{id: id, fn: fn})
	return func() {
		hs.entries = slices.DeleteFunc(hs.entries, func(h handler[E]) bool { return h.id == id })
	}
}

// search finds the index of the match starting at offset, or the index at which such a match would be inserted.
func (l *Lexer) search(offset int64) (int, bool) {
	return slices.BinarySearchFunc(l.matches, offset, func(m *TokenMatch, off int64) int {
		switch {
		case m.start < off:
			return -1
		case m.start > off:
			return 1
		}
		return 0
	})
}

// insert indexes m. Live matches overlapping m, including one with the same start, are superseded and detached.
func (l *Lexer) insert(m *TokenMatch) {
	i, _ := l.search(m.start)
	lo, hi := i, i
	if lo > 0 && l.matches[lo-1].end > m.start {
		lo--
	}
	for hi < len(l.matches) && l.matches[hi].start < m.end {
		hi++
	}
	for _, old := range l.matches[lo:hi] {
		log.Debugf("%s: match %v supersedes %v", l.Name(), m, old)
		old.lexer = nil
	}
	l.matches = slices.Replace(l.matches, lo, hi, m)
}

// indexOf returns the position of m in the index, or -1 when m is not live in this lexer.
func (l *Lexer) indexOf(m *TokenMatch) int {
	if m == nil || m.lexer != l {
		return -1
	}
	if i, found := l.search(m.start); found && l.matches[i] == m {
		return i
	}
	return -1
}
