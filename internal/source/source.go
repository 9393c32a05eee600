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

// Package source provides byte-addressable, seekable backing stores for documents. A Source is either file-backed
// (File) or held in memory (Memory). Both expose the same capabilities so that readers and lexers can operate on them
// uniformly.
package source

import (
	"errors"
	"io"
)

var (
	ErrClosed       = errors.New("source is closed")
	ErrNotWritable  = errors.New("source is not writable")
	ErrNotResizable = errors.New("source is not resizable")
)

type (
	// Stream is the raw backing store of a Source. Both *os.File and *MemoryStream satisfy it.
	Stream interface {
		io.ReadWriteSeeker
		io.ReaderAt
		io.WriterAt
	}

	// Source is a seekable backing store owned exclusively by at most one Document at a time. Interleaving direct
	// Source access with reader access is unsafe because both drive the same stream position.
	Source interface {
		// Name identifies the source, a file name for file-backed sources.
		Name() string
		// IsVirtual reports whether the source lives in memory rather than on disk.
		IsVirtual() bool
		CanWrite() bool
		// CanResize reports whether Truncate may be used. It implies CanWrite.
		CanResize() bool
		Stream() Stream
		Position() (int64, error)
		// SetPosition seeks absolutely from the beginning of the stream.
		SetPosition(pos int64) error
		Length() (int64, error)
		// Truncate changes the length of the store, growing it with zero bytes or shrinking it.
		Truncate(size int64) error
		// Close releases the stream. Calling it more than once is a no-op.
		Close() error
	}
)
