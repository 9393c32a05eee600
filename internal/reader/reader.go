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

// Package reader provides a positioned cursor over the bytes of a document. The Reader supports random-access
// peeking, forward and backward stepping and in-place mutation of byte ranges, resizing the backing store when the
// length of the document changes.
//
// Reads go through a small sliding window so that stepping over a file-backed document does not issue one system call
// per byte. Memory-backed documents are read without copying.
package reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/tliron/commonlog"

	"github.com/EngFlow/lexcore/internal/document"
	"github.com/EngFlow/lexcore/internal/source"
)

var (
	// ErrInvalidOperation is the class of errors raised by mutations a document does not support.
	ErrInvalidOperation = errors.New("invalid operation")
	ErrNotWritable      = fmt.Errorf("%w: document is not writable", ErrInvalidOperation)
	ErrNotResizable     = fmt.Errorf("%w: document is not resizable", ErrInvalidOperation)
	ErrOutOfRange       = errors.New("range out of bounds")
	ErrClosed           = errors.New("reader is closed")
)

var log = commonlog.GetLogger("lexcore.reader")

const (
	noByte     = -1
	windowSize = 4096
)

type (
	// Reader is a cursor over the bytes of a Document.
	//
	// Position is always within [0, Length]. The current byte is the byte at Position and is absent at the end of the
	// document. The previous byte is the byte right before Position; it is absent right after JumpTo.
	Reader struct {
		doc       *document.Document
		src       source.Source
		leaveOpen bool
		closed    bool

		position int64
		length   int64
		current  int
		previous int

		// Sliding window over file-backed sources, unused for memory-backed ones.
		window      []byte
		windowStart int64
		windowBuf   []byte

		lines lineIndex
		err   error
	}

	// Mark is a saved reader state that can be restored with Rewind.
	Mark struct {
		position int64
		previous int
	}

	zeroCopy interface {
		Bytes() []byte
	}
)

// New creates a Reader positioned at the beginning of doc. Unless leaveOpen is set, closing the Reader closes the
// Document and its Source.
func New(doc *document.Document, leaveOpen bool) (*Reader, error) {
	length, err := doc.Source().Length()
	if err != nil {
		return nil, fmt.Errorf("reading length of %s: %w", doc.Source().Name(), err)
	}
	r := &Reader{
		doc:       doc,
		src:       doc.Source(),
		leaveOpen: leaveOpen,
		length:    length,
		current:   noByte,
		previous:  noByte,
	}
	if r.seek(0); r.err != nil {
		return nil, r.err
	}
	return r, nil
}

func (r *Reader) Document() *document.Document { return r.doc }
func (r *Reader) Name() string                 { return r.src.Name() }
func (r *Reader) Position() int64              { return r.position }
func (r *Reader) Length() int64                { return r.length }
func (r *Reader) Writable() bool               { return !r.closed && r.doc.Writable() }
func (r *Reader) Resizable() bool              { return !r.closed && r.doc.Resizable() }

// Err returns the first I/O error encountered by a query. Queries report such failures as an absent byte.
func (r *Reader) Err() error { return r.err }

// Current returns the byte at the current position.
func (r *Reader) Current() (byte, bool) { return unpack(r.current) }

// Previous returns the byte preceding the current position.
func (r *Reader) Previous() (byte, bool) { return unpack(r.previous) }

func unpack(b int) (byte, bool) {
	if b == noByte {
		return 0, false
	}
	return byte(b), true
}

// JumpTo moves to the absolute position pos and returns the byte found there. Positions outside [0, Length] leave the
// reader unchanged. Jumping to Length is allowed and reports no byte.
func (r *Reader) JumpTo(pos int64) (byte, bool) {
	if r.closed || pos < 0 || pos > r.length {
		return 0, false
	}
	r.position = pos
	r.current = r.byteAt(pos)
	r.previous = noByte
	return unpack(r.current)
}

// MoveForward advances by count bytes and returns the new current byte. A target beyond Length leaves the reader
// unchanged.
func (r *Reader) MoveForward(count int) (byte, bool) {
	if r.closed || count < 0 || r.position+int64(count) > r.length {
		return 0, false
	}
	r.seek(r.position + int64(count))
	return unpack(r.current)
}

// MoveBackward steps back by count bytes and returns the new current byte. A target before the beginning leaves the
// reader unchanged.
func (r *Reader) MoveBackward(count int) (byte, bool) {
	if r.closed || count < 0 || r.position-int64(count) < 0 {
		return 0, false
	}
	r.seek(r.position - int64(count))
	return unpack(r.current)
}

// PeekNext returns the byte following the current one without moving.
func (r *Reader) PeekNext() (byte, bool) {
	if r.closed {
		return 0, false
	}
	return unpack(r.byteAt(r.position + 1))
}

// PeekAt returns length bytes starting at location without moving. It returns an empty slice when the range does not
// fit in the document. For memory-backed documents the result aliases the document content and is only valid until
// the next mutation.
func (r *Reader) PeekAt(location, length int64) []byte {
	if r.closed || location < 0 || length < 0 || location+length > r.length {
		return []byte{}
	}
	if zc, ok := r.src.(zeroCopy); ok {
		data := zc.Bytes()
		return data[location : location+length : location+length]
	}
	buf := make([]byte, length)
	if err := r.readExactly(location, buf); err != nil {
		r.fail(err)
		return []byte{}
	}
	return buf
}

// Mark captures the current state.
func (r *Reader) Mark() Mark {
	return Mark{position: r.position, previous: r.previous}
}

// Position of the mark.
func (m Mark) Position() int64 { return m.position }

// Rewind restores a state captured by Mark. Marks taken before a mutation are clamped to the new length.
func (r *Reader) Rewind(m Mark) {
	if !r.closed {
		r.restore(m)
	}
}

// Reset moves back to the beginning of the document.
func (r *Reader) Reset() {
	r.JumpTo(0)
}

// AsStream exposes read access to the whole document. The returned reader has its own position.
func (r *Reader) AsStream() *io.SectionReader {
	return io.NewSectionReader(r.src.Stream(), 0, r.length)
}

// Bytes returns the whole content of the document, without copying when the document is memory-backed.
func (r *Reader) Bytes() ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if zc, ok := r.src.(zeroCopy); ok {
		return zc.Bytes(), nil
	}
	buf := make([]byte, r.length)
	if err := r.readExactly(0, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close releases the reader and, unless it was created with leaveOpen, the document.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.window = nil
	if r.leaveOpen {
		return nil
	}
	return r.doc.Close()
}

func (r *Reader) Closed() bool { return r.closed }

// seek moves to pos and refreshes both the current and the previous byte.
func (r *Reader) seek(pos int64) {
	r.position = pos
	r.current = r.byteAt(pos)
	r.previous = r.byteAt(pos - 1)
}

func (r *Reader) byteAt(off int64) int {
	if off < 0 || off >= r.length {
		return noByte
	}
	if zc, ok := r.src.(zeroCopy); ok {
		return int(zc.Bytes()[off])
	}
	if off < r.windowStart || off >= r.windowStart+int64(len(r.window)) {
		if !r.fill(off) {
			return noByte
		}
	}
	return int(r.window[off-r.windowStart])
}

// fill loads the window around off, keeping a quarter of it behind off so that short backward steps stay cached.
func (r *Reader) fill(off int64) bool {
	if r.windowBuf == nil {
		r.windowBuf = make([]byte, windowSize)
	}
	start := max(0, off-windowSize/4)
	buf := r.windowBuf[:min(windowSize, r.length-start)]
	if err := r.readExactly(start, buf); err != nil {
		r.window = nil
		r.fail(err)
		return false
	}
	r.window, r.windowStart = buf, start
	return true
}

func (r *Reader) readExactly(start int64, buf []byte) error {
	n, err := r.src.Stream().ReadAt(buf, start)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("reading %s at %d: %w", r.src.Name(), start, err)
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
		log.Errorf("%s", err)
	}
}

// invalidate drops every cached view of the content after a mutation.
func (r *Reader) invalidate() {
	r.window = nil
	r.lines.invalidate()
}
