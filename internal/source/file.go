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
)

// Mode determines how a file is opened, mirroring the usual create/open/truncate/append semantics.
type Mode int

const (
	// Open an existing file.
	ModeOpen Mode = iota
	// Create a new file, truncating an existing one.
	ModeCreate
	// Create a new file, failing if it already exists.
	ModeCreateNew
	// Open an existing file and truncate it to zero length.
	ModeTruncate
	// Open a file, creating it if it does not exist.
	ModeOpenOrCreate
	// Open or create a file for appending. Sources opened this way are never resizable.
	ModeAppend
)

// Access determines whether a file is opened for reading, writing or both.
type Access int

const (
	AccessRead Access = iota
	AccessWrite
	AccessReadWrite
)

func (m Mode) String() string {
	switch m {
	case ModeOpen:
		return "open"
	case ModeCreate:
		return "create"
	case ModeCreateNew:
		return "create-new"
	case ModeTruncate:
		return "truncate"
	case ModeOpenOrCreate:
		return "open-or-create"
	case ModeAppend:
		return "append"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("Access(%d)", int(a))
	}
}

func openFlags(mode Mode, access Access) (int, error) {
	var flags int
	switch access {
	case AccessRead:
		flags = os.O_RDONLY
	case AccessWrite:
		flags = os.O_WRONLY
	case AccessReadWrite:
		flags = os.O_RDWR
	default:
		return 0, fmt.Errorf("unsupported access %v", access)
	}

	switch mode {
	case ModeOpen:
	case ModeCreate:
		flags |= os.O_CREATE | os.O_TRUNC
	case ModeCreateNew:
		flags |= os.O_CREATE | os.O_EXCL
	case ModeTruncate:
		flags |= os.O_TRUNC
	case ModeOpenOrCreate:
		flags |= os.O_CREATE
	case ModeAppend:
		flags |= os.O_CREATE | os.O_APPEND
	default:
		return 0, fmt.Errorf("unsupported mode %v", mode)
	}

	if access == AccessRead && mode != ModeOpen && mode != ModeOpenOrCreate {
		return 0, fmt.Errorf("mode %v requires write access", mode)
	}
	return flags, nil
}

// File is a Source backed by a file on disk.
type File struct {
	path      string
	file      *os.File
	mode      Mode
	access    Access
	expanding bool
	closed    bool
}

var _ Source = (*File)(nil)

// Open opens the file at path. The returned error wraps the *os.PathError reported by the operating system when the
// path is invalid or permissions deny the requested access.
func Open(path string, mode Mode, access Access) (*File, error) {
	flags, err := openFlags(mode, access)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	readOnly := info.Mode().Perm()&0o200 == 0
	return &File{
		path:      path,
		file:      f,
		mode:      mode,
		access:    access,
		expanding: mode != ModeAppend && access != AccessRead && !readOnly,
	}, nil
}

// Path returns the path the file was opened with.
func (f *File) Path() string { return f.path }

func (f *File) Name() string    { return filepath.Base(f.path) }
func (f *File) IsVirtual() bool { return false }
func (f *File) CanWrite() bool  { return !f.closed && f.access != AccessRead }
func (f *File) CanResize() bool { return !f.closed && f.expanding }
func (f *File) Stream() Stream  { return f.file }

func (f *File) Position() (int64, error) {
	if f.closed {
		return 0, ErrClosed
	}
	return f.file.Seek(0, io.SeekCurrent)
}

func (f *File) SetPosition(pos int64) error {
	if f.closed {
		return ErrClosed
	}
	_, err := f.file.Seek(pos, io.SeekStart)
	return err
}

func (f *File) Length() (int64, error) {
	if f.closed {
		return 0, ErrClosed
	}
	info, err := f.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (f *File) Truncate(size int64) error {
	switch {
	case f.closed:
		return ErrClosed
	case !f.expanding:
		return fmt.Errorf("%s: %w", f.Name(), ErrNotResizable)
	}
	return f.file.Truncate(size)
}

func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}
