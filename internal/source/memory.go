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

package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

var errNegativePosition = errors.New("negative position")

// MemoryStream is a growable in-memory Stream. Unlike bytes.Reader it supports writes past the end and truncation.
type MemoryStream struct {
	data []byte
	pos  int64
}

var _ Stream = (*MemoryStream)(nil)

func (m *MemoryStream) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemoryStream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativePosition
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemoryStream) Write(p []byte) (int, error) {
	n, err := m.WriteAt(p, m.pos)
	m.pos += int64(n)
	return n, err
}

func (m *MemoryStream) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativePosition
	}
	if end := off + int64(len(p)); end > int64(len(m.data)) {
		m.resize(end)
	}
	return copy(m.data[off:], p), nil
}

func (m *MemoryStream) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = m.pos + offset
	case io.SeekEnd:
		pos = int64(len(m.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, errNegativePosition
	}
	m.pos = pos
	return pos, nil
}

func (m *MemoryStream) resize(size int64) {
	if size <= int64(cap(m.data)) {
		old := len(m.data)
		m.data = m.data[:size]
		// Bytes exposed again by growing within capacity must read as zero.
		if int(size) > old {
			clear(m.data[old:])
		}
		return
	}
	grown := make([]byte, size, max(size, 2*int64(cap(m.data))))
	copy(grown, m.data)
	m.data = grown
}

// Memory is a virtual Source holding its content in memory. It is always writable and resizable.
type Memory struct {
	name   string
	stream *MemoryStream
	closed bool
}

var _ Source = (*Memory)(nil)

// Wrap creates a Memory source named name over data. The slice is owned by the source afterwards.
func Wrap(name string, data []byte) *Memory {
	return &Memory{name: name, stream: &MemoryStream{data: data}}
}

// WrapString creates a Memory source holding a copy of text.
func WrapString(name, text string) *Memory {
	return Wrap(name, []byte(text))
}

// OpenXZ decompresses the xz file at path into a Memory source named after the file without its ".xz" suffix.
// Edits apply to the decompressed copy only.
func OpenXZ(path string) (*Memory, error) {
	var data []byte
	err := withFile(path, func(f *os.File) error {
		xzr, err := xz.NewReader(f)
		if err != nil {
			return err
		}
		data, err = io.ReadAll(xzr)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext == ".xz" {
		name = name[:len(name)-len(ext)]
	}
	return Wrap(name, data), nil
}

func withFile(path string, fn func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

// Bytes returns the current content without copying. The slice is invalidated by any later write or truncation.
func (m *Memory) Bytes() []byte { return m.stream.data }

func (m *Memory) Name() string    { return m.name }
func (m *Memory) IsVirtual() bool { return true }
func (m *Memory) CanWrite() bool  { return !m.closed }
func (m *Memory) CanResize() bool { return !m.closed }
func (m *Memory) Stream() Stream  { return m.stream }

func (m *Memory) Position() (int64, error) {
	if m.closed {
		return 0, ErrClosed
	}
	return m.stream.pos, nil
}

func (m *Memory) SetPosition(pos int64) error {
	if m.closed {
		return ErrClosed
	}
	_, err := m.stream.Seek(pos, io.SeekStart)
	return err
}

func (m *Memory) Length() (int64, error) {
	if m.closed {
		return 0, ErrClosed
	}
	return int64(len(m.stream.data)), nil
}

func (m *Memory) Truncate(size int64) error {
	switch {
	case m.closed:
		return ErrClosed
	case size < 0:
		return errNegativePosition
	}
	m.stream.resize(size)
	return nil
}

func (m *Memory) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.stream.data = nil
	m.stream.pos = 0
	return nil
}
