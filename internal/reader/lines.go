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

package reader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"unicode/utf8"
)

// Position in the document. Line and Column are 1-based, which is natural for humans. Column counts runes, not bytes.
type Cursor struct {
	Line, Column int
}

var (
	// Initial cursor position, at the beginning of the document.
	CursorInit = Cursor{Line: 1, Column: 1}
	// Special cursor value for offsets that cannot be located.
	CursorNone = Cursor{}
)

func (c Cursor) String() string {
	if c == CursorNone {
		return "?"
	}
	return fmt.Sprintf("%d:%d", c.Line, c.Column)
}

// Return a new Cursor advanced by the given lookAhead bytes. Assumes the current cursor points at the beginning of
// lookAhead and returns the cursor position right after lookAhead.
//
// Newlines in lookAhead increment the line number and reset the column; other characters increment the column.
func (c Cursor) AdvancedBy(lookAhead []byte) Cursor {
	newlinesCount := bytes.Count(lookAhead, []byte{'\n'})
	tailBegin := 1 + bytes.LastIndexByte(lookAhead, '\n')
	tailLength := utf8.RuneCount(lookAhead[tailBegin:])

	if newlinesCount == 0 {
		c.Column += tailLength
	} else {
		c.Line += newlinesCount
		c.Column = 1 + tailLength
	}

	return c
}

// lineIndex holds the offsets at which lines start. It is rebuilt lazily after mutations.
type lineIndex struct {
	starts []int64
	valid  bool
}

func (li *lineIndex) invalidate() {
	li.valid = false
	li.starts = li.starts[:0]
}

func (r *Reader) ensureLines() error {
	if r.lines.valid {
		return nil
	}
	content, err := r.Bytes()
	if err != nil {
		return err
	}
	starts := append(r.lines.starts[:0], 0)
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, int64(i)+1)
		}
	}
	r.lines.starts, r.lines.valid = starts, true
	return nil
}

// LineCount returns the number of lines. A trailing newline starts an empty last line.
func (r *Reader) LineCount() (int, error) {
	if err := r.ensureLines(); err != nil {
		return 0, err
	}
	return len(r.lines.starts), nil
}

// Line returns the span [start, end) of the 1-based line n, excluding its newline.
func (r *Reader) Line(n int) (start, end int64, err error) {
	if err := r.ensureLines(); err != nil {
		return 0, 0, err
	}
	if n < 1 || n > len(r.lines.starts) {
		return 0, 0, fmt.Errorf("line %d of %s: %w", n, r.Name(), ErrOutOfRange)
	}
	start = r.lines.starts[n-1]
	if n == len(r.lines.starts) {
		return start, r.length, nil
	}
	return start, r.lines.starts[n] - 1, nil
}

// Coordinates converts a byte offset in [0, Length] into a line/column Cursor.
func (r *Reader) Coordinates(offset int64) (Cursor, error) {
	if offset < 0 || offset > r.length {
		return CursorNone, fmt.Errorf("offset %d of %s: %w", offset, r.Name(), ErrOutOfRange)
	}
	if err := r.ensureLines(); err != nil {
		return CursorNone, err
	}
	line := sort.Search(len(r.lines.starts), func(i int) bool { return r.lines.starts[i] > offset })
	lineStart := r.lines.starts[line-1]
	prefix := r.PeekAt(lineStart, offset-lineStart)
	return Cursor{Line: line, Column: 1 + utf8.RuneCount(prefix)}, nil
}

// RuneReader returns a reader decoding UTF-8 runes from offset to the end of the document, independent of the reader
// position.
func (r *Reader) RuneReader(offset int64) io.RuneReader {
	if offset < 0 || offset > r.length {
		offset = r.length
	}
	if zc, ok := r.src.(zeroCopy); ok {
		return bytes.NewReader(zc.Bytes()[offset:r.length])
	}
	return bufio.NewReader(io.NewSectionReader(r.src.Stream(), offset, r.length-offset))
}
