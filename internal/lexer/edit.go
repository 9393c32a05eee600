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
	"fmt"
	"slices"

	"github.com/EngFlow/lexcore/internal/reader"
)

// RemoveTokenMatch erases m from the index and its text from the document. TokenRemoved handlers run once the edit is
// known to be possible and before it is applied. Matches after m move left by its length.
func (l *Lexer) RemoveTokenMatch(m *TokenMatch) error {
	if err := l.checkEditable(m, true); err != nil {
		return err
	}
	l.fireRemoved(m)
	// Handlers may have edited the document themselves.
	if l.indexOf(m) < 0 {
		return ErrDetachedMatch
	}

	start, end, pos := m.start, m.end, l.Position()
	if err := l.Reader.RemoveRange(start, end); err != nil {
		return err
	}
	l.detach(m)
	l.shift(nil, start, end, start, pos)
	log.Debugf("%s: removed %v", l.Name(), m)
	return nil
}

// ReplaceTokenMatchText replaces the text of m in the document. The match keeps its start and takes the length of
// text. Matches after m move by the change in length. TokenEdited handlers run after the edit with the old text.
//
// A live match always covers at least one byte, so replacing the text with nothing leaves m detached.
func (l *Lexer) ReplaceTokenMatchText(m *TokenMatch, text []byte) error {
	if err := l.checkEditable(m, int64(len(text)) != m.Len()); err != nil {
		return err
	}

	old, pos := m.Substring(), l.Position()
	if err := l.Reader.ReplaceRange(m.start, m.end, text); err != nil {
		return err
	}
	m.text = bytes.Clone(text)
	m.end = m.start + int64(len(text))
	if len(text) == 0 {
		l.detach(m)
	}
	l.shift(m, old.Start, old.End, m.end, pos)
	log.Debugf("%s: replaced %q with %v", l.Name(), old.Text, m)
	l.fireEdited(TokenEdit{Match: m, Old: old})
	return nil
}

// ReplaceTokenMatchString replaces the text of m with s encoded in the document encoding.
func (l *Lexer) ReplaceTokenMatchString(m *TokenMatch, s string) error {
	encoded, err := l.Document().Encoding().NewEncoder().Bytes([]byte(s))
	if err != nil {
		return fmt.Errorf("encoding %q for %s: %w", s, l.Name(), err)
	}
	return l.ReplaceTokenMatchText(m, encoded)
}

// checkEditable validates an edit of m before anything observable happens.
func (l *Lexer) checkEditable(m *TokenMatch, resizes bool) error {
	switch {
	case l.Closed():
		return ErrLexerClosed
	case l.indexOf(m) < 0:
		return ErrDetachedMatch
	case !l.Writable():
		return fmt.Errorf("%s: %w", l.Name(), reader.ErrNotWritable)
	case resizes && !l.Resizable():
		return fmt.Errorf("%s: %w", l.Name(), reader.ErrNotResizable)
	}
	return nil
}

func (l *Lexer) detach(m *TokenMatch) {
	if i := l.indexOf(m); i >= 0 {
		l.matches = slices.Delete(l.matches, i, i+1)
	}
	m.lexer = nil
}

// shift updates the index after the bytes in [start, oldEnd) were replaced by the bytes in [start, newEnd). edited is
// the match that now covers the new bytes, if any, and pos is the reader position before the edit.
//
// Live matches at or after oldEnd move by the difference. Any other match overlapping the edited span, or containing
// an insertion point, lost part of its text and is detached. The reader position follows the same rule, and positions
// inside the span are clamped to newEnd.
func (l *Lexer) shift(edited *TokenMatch, start, oldEnd, newEnd, pos int64) {
	delta := newEnd - oldEnd
	kept := l.matches[:0]
	for _, m := range l.matches {
		switch {
		case m == edited:
		case m.start >= oldEnd:
			m.start += delta
			m.end += delta
		case m.end > start:
			m.lexer = nil
			continue
		}
		m.location = reader.CursorNone
		kept = append(kept, m)
	}
	clear(l.matches[len(kept):])
	l.matches = kept

	target := pos
	switch {
	case pos >= oldEnd:
		target = pos + delta
	case pos > start:
		target = min(pos, newEnd)
	}
	// The reader restored the old position, clamped to the new length.
	if diff := target - l.Position(); diff > 0 {
		l.MoveForward(int(diff))
	} else if diff < 0 {
		l.MoveBackward(int(-diff))
	}
	l.cursorAt = -1
}

// ReplaceRange replaces the bytes in [start, end) like Reader.ReplaceRange. Matches overlapping the range are detached
// and matches after it move by the change in length. No events are raised.
func (l *Lexer) ReplaceRange(start, end int64, content []byte) error {
	pos := l.Position()
	if err := l.Reader.ReplaceRange(start, end, content); err != nil {
		return err
	}
	l.shift(nil, start, end, start+int64(len(content)), pos)
	return nil
}

// RemoveRange deletes the bytes in [start, end) like Reader.RemoveRange, updating the index as ReplaceRange does.
func (l *Lexer) RemoveRange(start, end int64) error {
	pos := l.Position()
	if err := l.Reader.RemoveRange(start, end); err != nil {
		return err
	}
	l.shift(nil, start, end, start, pos)
	return nil
}

// ReplaceCurrent overwrites the byte at the current position and detaches the match containing it.
func (l *Lexer) ReplaceCurrent(b byte) error {
	pos := l.Position()
	if err := l.Reader.ReplaceCurrent(b); err != nil {
		return err
	}
	l.shift(nil, pos, pos+1, pos+1, pos)
	return nil
}

// ReplacePrevious overwrites the byte before the current position and detaches the match containing it.
func (l *Lexer) ReplacePrevious(b byte) error {
	pos := l.Position()
	if err := l.Reader.ReplacePrevious(b); err != nil {
		return err
	}
	l.shift(nil, pos-1, pos, pos, pos)
	return nil
}
