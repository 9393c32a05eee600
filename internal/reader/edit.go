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
	"fmt"
	"slices"
)

// ReplaceCurrent overwrites the byte at the current position.
func (r *Reader) ReplaceCurrent(b byte) error {
	return r.replaceByteAt(r.position, b)
}

// ReplacePrevious overwrites the byte right before the current position.
func (r *Reader) ReplacePrevious(b byte) error {
	return r.replaceByteAt(r.position-1, b)
}

func (r *Reader) replaceByteAt(off int64, b byte) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if off < 0 || off >= r.length {
		return fmt.Errorf("byte %d of %s: %w", off, r.Name(), ErrOutOfRange)
	}
	defer r.restore(r.Mark())
	r.invalidate()
	if _, err := r.src.Stream().WriteAt([]byte{b}, off); err != nil {
		return fmt.Errorf("writing %s at %d: %w", r.Name(), off, err)
	}
	return nil
}

// ReplaceRange replaces the bytes in [start, end) with content. When the length of content differs from the length
// of the range, the tail of the document is moved and the backing store resized, which requires a resizable document.
// The reader position is restored once the operation completes; it is clamped to the new length if the document
// shrank below it.
func (r *Reader) ReplaceRange(start, end int64, content []byte) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := r.checkRange(start, end); err != nil {
		return err
	}
	delta := int64(len(content)) - (end - start)
	if delta != 0 && !r.doc.Resizable() {
		return fmt.Errorf("%s: %w", r.Name(), ErrNotResizable)
	}
	return r.splice(start, end, content)
}

// RemoveRange deletes the bytes in [start, end), shifting the tail of the document left. It requires a resizable
// document.
func (r *Reader) RemoveRange(start, end int64) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if !r.doc.Resizable() {
		return fmt.Errorf("%s: %w", r.Name(), ErrNotResizable)
	}
	if err := r.checkRange(start, end); err != nil {
		return err
	}
	return r.splice(start, end, nil)
}

// splice rewrites the document from start on. The bytes from start to the end are read before anything is written, so
// a failing read leaves the document untouched and a failing write or resize puts them back.
func (r *Reader) splice(start, end int64, content []byte) error {
	defer r.restore(r.Mark())

	delta := int64(len(content)) - (end - start)
	stream := r.src.Stream()
	if delta == 0 {
		if _, err := stream.WriteAt(content, start); err != nil {
			r.invalidate()
			return fmt.Errorf("writing %s at %d: %w", r.Name(), start, err)
		}
		r.invalidate()
		return nil
	}

	original := make([]byte, r.length-start)
	if err := r.readExactly(start, original); err != nil {
		return err
	}
	tail := original[end-start:]
	newLength := r.length + delta
	if _, err := stream.WriteAt(slices.Concat(content, tail), start); err != nil {
		r.rollback(start, original)
		return fmt.Errorf("writing %s at %d: %w", r.Name(), start, err)
	}
	if delta < 0 {
		if err := r.src.Truncate(newLength); err != nil {
			r.rollback(start, original)
			return fmt.Errorf("resizing %s to %d: %w", r.Name(), newLength, err)
		}
	}
	r.length = newLength
	r.invalidate()
	log.Debugf("%s: replaced [%d, %d) with %d bytes", r.Name(), start, end, len(content))
	return nil
}

// rollback writes back the bytes a failed splice may have overwritten. A store that grew is shrunk to the old length
// when it allows that.
func (r *Reader) rollback(start int64, original []byte) {
	if _, err := r.src.Stream().WriteAt(original, start); err != nil {
		log.Errorf("%s: restoring [%d, %d) after a failed edit: %v", r.Name(), start, r.length, err)
	}
	if length, err := r.src.Length(); err == nil && length > r.length {
		if err := r.src.Truncate(r.length); err != nil {
			log.Errorf("%s: restoring length %d after a failed edit: %v", r.Name(), r.length, err)
		}
	}
	r.invalidate()
}

// restore returns to the position saved in m after a mutation, re-reading the bytes around it since they may have
// changed. The position is clamped to the new length if the document shrank below it.
func (r *Reader) restore(m Mark) {
	pos := min(m.position, r.length)
	r.position = pos
	r.current = r.byteAt(pos)
	if m.previous == noByte && pos == m.position {
		r.previous = noByte
	} else {
		r.previous = r.byteAt(pos - 1)
	}
}

func (r *Reader) checkWritable() error {
	switch {
	case r.closed:
		return ErrClosed
	case !r.doc.Writable():
		return fmt.Errorf("%s: %w", r.Name(), ErrNotWritable)
	}
	return nil
}

func (r *Reader) checkRange(start, end int64) error {
	if start < 0 || start > end || end > r.length {
		return fmt.Errorf("range [%d, %d) of %s with length %d: %w", start, end, r.Name(), r.length, ErrOutOfRange)
	}
	return nil
}
