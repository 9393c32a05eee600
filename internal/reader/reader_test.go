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
	"bytes"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngFlow/lexcore/internal/document"
	"github.com/EngFlow/lexcore/internal/source"
)

func newMemoryReader(t *testing.T, content string) *Reader {
	t.Helper()
	doc := document.NewRegistry().Of(source.WrapString("test", content), nil, nil)
	r, err := New(doc, false)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func newFileReader(t *testing.T, content []byte, access source.Access) *Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	src, err := source.Open(path, source.ModeOpen, access)
	require.NoError(t, err)
	r, err := New(document.NewRegistry().Of(src, nil, nil), false)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func content(t *testing.T, r *Reader) string {
	t.Helper()
	data, err := r.Bytes()
	require.NoError(t, err)
	return string(data)
}

type state struct {
	position int64
	current  int
	previous int
}

func snapshot(r *Reader) state {
	return state{position: r.position, current: r.current, previous: r.previous}
}

func assertConsistent(t *testing.T, r *Reader, data []byte) {
	t.Helper()
	require.GreaterOrEqual(t, r.Position(), int64(0))
	require.LessOrEqual(t, r.Position(), r.Length())
	b, ok := r.Current()
	if r.Position() < int64(len(data)) {
		require.True(t, ok, "position %d", r.Position())
		require.Equal(t, data[r.Position()], b, "position %d", r.Position())
	} else {
		require.False(t, ok)
	}
	if p, ok := r.Previous(); ok {
		require.Equal(t, data[r.Position()-1], p, "position %d", r.Position())
	}
}

func TestNewStartsAtBeginning(t *testing.T) {
	r := newMemoryReader(t, "abc")
	assert.Equal(t, int64(0), r.Position())
	assert.Equal(t, int64(3), r.Length())
	b, ok := r.Current()
	assert.True(t, ok)
	assert.Equal(t, byte('a'), b)
	_, ok = r.Previous()
	assert.False(t, ok)
}

func TestJumpTo(t *testing.T) {
	r := newMemoryReader(t, "abcdef")

	testCases := []struct {
		position      int64
		expected      byte
		expectedOk    bool
		finalPosition int64
	}{
		{position: 2, expected: 'c', expectedOk: true, finalPosition: 2},
		{position: 0, expected: 'a', expectedOk: true, finalPosition: 0},
		{position: 6, expectedOk: false, finalPosition: 6},
		{position: 7, expectedOk: false, finalPosition: 6},
		{position: -1, expectedOk: false, finalPosition: 6},
	}
	for _, tc := range testCases {
		b, ok := r.JumpTo(tc.position)
		assert.Equal(t, tc.expectedOk, ok, "JumpTo(%d)", tc.position)
		assert.Equal(t, tc.expected, b, "JumpTo(%d)", tc.position)
		assert.Equal(t, tc.finalPosition, r.Position(), "JumpTo(%d)", tc.position)
		_, ok = r.Previous()
		assert.False(t, ok, "JumpTo(%d) must clear the previous byte", tc.position)
	}
}

func TestMoveForwardAndBackward(t *testing.T) {
	r := newMemoryReader(t, "abcdef")

	b, ok := r.MoveForward(1)
	assert.True(t, ok)
	assert.Equal(t, byte('b'), b)
	prev, ok := r.Previous()
	assert.True(t, ok)
	assert.Equal(t, byte('a'), prev)

	b, ok = r.MoveForward(3)
	assert.True(t, ok)
	assert.Equal(t, byte('e'), b)
	prev, _ = r.Previous()
	assert.Equal(t, byte('d'), prev)

	_, ok = r.MoveForward(10)
	assert.False(t, ok)
	assert.Equal(t, int64(4), r.Position(), "failed move must not change the position")

	_, ok = r.MoveForward(2)
	assert.False(t, ok, "end of document has no current byte")
	assert.Equal(t, int64(6), r.Position())

	b, ok = r.MoveBackward(2)
	assert.True(t, ok)
	assert.Equal(t, byte('e'), b)
	prev, _ = r.Previous()
	assert.Equal(t, byte('d'), prev)

	_, ok = r.MoveBackward(5)
	assert.False(t, ok)
	assert.Equal(t, int64(4), r.Position())

	b, ok = r.MoveBackward(4)
	assert.True(t, ok)
	assert.Equal(t, byte('a'), b)
	_, ok = r.Previous()
	assert.False(t, ok)
}

func TestPositionInvariantRandomWalk(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789\n"), 900)
	rng := rand.New(rand.NewSource(1))

	for _, r := range []*Reader{newMemoryReader(t, string(data)), newFileReader(t, data, source.AccessRead)} {
		for range 2000 {
			switch rng.Intn(3) {
			case 0:
				r.JumpTo(rng.Int63n(int64(len(data)) + 3))
			case 1:
				r.MoveForward(rng.Intn(5000))
			default:
				r.MoveBackward(rng.Intn(5000))
			}
			assertConsistent(t, r, data)
		}
		require.NoError(t, r.Err())
	}
}

func TestPeekIsNonDestructive(t *testing.T) {
	for _, r := range []*Reader{newMemoryReader(t, "abcdef"), newFileReader(t, []byte("abcdef"), source.AccessRead)} {
		r.MoveForward(2)
		before := snapshot(r)

		next, ok := r.PeekNext()
		assert.True(t, ok)
		assert.Equal(t, byte('d'), next)
		assert.Equal(t, before, snapshot(r))

		assert.Equal(t, []byte("bcd"), r.PeekAt(1, 3))
		assert.Equal(t, before, snapshot(r))

		assert.Empty(t, r.PeekAt(4, 3))
		assert.Empty(t, r.PeekAt(-1, 1))
		assert.Equal(t, before, snapshot(r))

		r.JumpTo(5)
		_, ok = r.PeekNext()
		assert.False(t, ok)
	}
}

func TestReplaceRangeScenario(t *testing.T) {
	r := newMemoryReader(t, "abcdef")
	r.MoveForward(4)

	require.NoError(t, r.ReplaceRange(1, 3, []byte("XYZ")))
	assert.Equal(t, "aXYZdef", content(t, r))
	assert.Equal(t, int64(7), r.Length())
	assert.Equal(t, int64(4), r.Position())
	b, _ := r.Current()
	assert.Equal(t, byte('d'), b, "the byte under the restored position is re-read")
}

func TestReplaceRangeRoundTrip(t *testing.T) {
	const original = "the quick brown fox"
	testCases := []struct {
		start, end  int64
		replacement string
	}{
		{start: 4, end: 9, replacement: "slow"},
		{start: 0, end: 0, replacement: ">> "},
		{start: 10, end: 19, replacement: ""},
		{start: 4, end: 9, replacement: "QUICK"},
		{start: 19, end: 19, replacement: " jumps"},
	}

	for _, tc := range testCases {
		for _, r := range []*Reader{
			newMemoryReader(t, original),
			newFileReader(t, []byte(original), source.AccessReadWrite),
		} {
			removed := original[tc.start:tc.end]
			require.NoError(t, r.ReplaceRange(tc.start, tc.end, []byte(tc.replacement)))
			require.NoError(t, r.ReplaceRange(tc.start, tc.start+int64(len(tc.replacement)), []byte(removed)))
			assert.Equal(t, original, content(t, r), "Replacement: %+v", tc)
		}
	}
}

func TestRemoveRangeShortens(t *testing.T) {
	for _, r := range []*Reader{
		newMemoryReader(t, "0123456789"),
		newFileReader(t, []byte("0123456789"), source.AccessReadWrite),
	} {
		r.JumpTo(8)
		require.NoError(t, r.RemoveRange(2, 5))
		assert.Equal(t, "0156789", content(t, r))
		assert.Equal(t, int64(7), r.Length())
		assert.Equal(t, int64(7), r.Position(), "position is clamped to the new length")
		_, ok := r.Current()
		assert.False(t, ok)
	}
}

func TestReplaceSingleBytes(t *testing.T) {
	r := newMemoryReader(t, "abc")
	r.MoveForward(1)

	require.NoError(t, r.ReplaceCurrent('B'))
	require.NoError(t, r.ReplacePrevious('A'))
	assert.Equal(t, "ABc", content(t, r))
	assert.Equal(t, int64(1), r.Position())
	b, _ := r.Current()
	assert.Equal(t, byte('B'), b)
	p, _ := r.Previous()
	assert.Equal(t, byte('A'), p)

	r.Reset()
	assert.ErrorIs(t, r.ReplacePrevious('x'), ErrOutOfRange)
	r.JumpTo(3)
	assert.ErrorIs(t, r.ReplaceCurrent('x'), ErrOutOfRange)
}

func TestMutationsOnReadOnlyFile(t *testing.T) {
	r := newFileReader(t, []byte("abcdef"), source.AccessRead)
	r.MoveForward(2)
	before := snapshot(r)

	assert.False(t, r.Writable())
	assert.ErrorIs(t, r.ReplaceCurrent('x'), ErrInvalidOperation)
	assert.ErrorIs(t, r.ReplaceCurrent('x'), ErrNotWritable)
	assert.ErrorIs(t, r.ReplacePrevious('x'), ErrNotWritable)
	assert.ErrorIs(t, r.ReplaceRange(0, 1, []byte("x")), ErrNotWritable)
	assert.ErrorIs(t, r.RemoveRange(0, 1), ErrNotWritable)
	assert.Equal(t, before, snapshot(r))
	assert.Equal(t, "abcdef", content(t, r))
}

func TestReplaceRangeOnNonResizableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("abcdef"), 0o644))
	src, err := source.Open(path, source.ModeAppend, source.AccessReadWrite)
	require.NoError(t, err)
	r, err := New(document.NewRegistry().Of(src, nil, nil), false)
	require.NoError(t, err)
	defer r.Close()

	assert.ErrorIs(t, r.ReplaceRange(0, 1, []byte("xy")), ErrNotResizable)
	assert.ErrorIs(t, r.RemoveRange(0, 0), ErrNotResizable)
}

var errTruncate = errors.New("truncate failed")

// truncateFails is a memory source whose store cannot shrink.
type truncateFails struct {
	*source.Memory
}

func (truncateFails) Truncate(int64) error { return errTruncate }

func TestShrinkingEditRollsBackWhenResizeFails(t *testing.T) {
	testCases := []struct {
		start, end int64
		content    string
	}{
		{start: 1, end: 3, content: ""},
		{start: 0, end: 4, content: "x"},
		{start: 2, end: 6, content: "yz"},
	}
	for _, tc := range testCases {
		doc := document.NewRegistry().Of(truncateFails{source.WrapString("test", "abcdef")}, nil, nil)
		r, err := New(doc, false)
		require.NoError(t, err)
		r.MoveForward(2)

		err = r.ReplaceRange(tc.start, tc.end, []byte(tc.content))
		assert.ErrorIs(t, err, errTruncate, "Input: %+v", tc)
		assert.Equal(t, "abcdef", content(t, r), "Input: %+v", tc)
		assert.Equal(t, int64(6), r.Length(), "Input: %+v", tc)
		assert.Equal(t, int64(2), r.Position(), "Input: %+v", tc)
		cur, ok := r.Current()
		assert.True(t, ok)
		assert.Equal(t, byte('c'), cur, "Input: %+v", tc)
		r.Close()
	}
}

func TestRangeValidation(t *testing.T) {
	r := newMemoryReader(t, "abc")
	for _, rng := range [][2]int64{{-1, 1}, {2, 1}, {0, 4}} {
		assert.ErrorIs(t, r.ReplaceRange(rng[0], rng[1], nil), ErrOutOfRange, "%v", rng)
		assert.ErrorIs(t, r.RemoveRange(rng[0], rng[1]), ErrOutOfRange, "%v", rng)
	}
	assert.Equal(t, "abc", content(t, r))
}

func TestFileWindowAcrossEdits(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 2*windowSize/8)
	r := newFileReader(t, data, source.AccessReadWrite)

	r.JumpTo(int64(len(data)) - 1)
	b, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, byte('h'), b)

	require.NoError(t, r.RemoveRange(0, 8))
	assert.Equal(t, int64(len(data)-8), r.Length())
	assert.Equal(t, int64(len(data)-8), r.Position())

	r.JumpTo(0)
	assertConsistent(t, r, data[8:])
	r.MoveForward(windowSize + 3)
	assertConsistent(t, r, data[8:])
}

func TestAsStreamAndBytes(t *testing.T) {
	r := newMemoryReader(t, "hello world")
	r.MoveForward(3)

	all, err := io.ReadAll(r.AsStream())
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(all))
	assert.Equal(t, int64(3), r.Position())

	data, err := r.Bytes()
	require.NoError(t, err)
	src := r.Document().Source().(*source.Memory)
	assert.Same(t, &src.Bytes()[0], &data[0], "memory documents are exposed without copying")
}

func TestCloseOwnership(t *testing.T) {
	reg := document.NewRegistry()

	owned := reg.Of(source.WrapString("owned", "x"), nil, nil)
	r, err := New(owned, false)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.True(t, owned.Closed())

	shared := reg.Of(source.WrapString("shared", "x"), nil, nil)
	r, err = New(shared, true)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.False(t, shared.Closed())
	assert.ErrorIs(t, r.ReplaceCurrent('y'), ErrClosed)
	_, ok := r.JumpTo(0)
	assert.False(t, ok)
}

func TestCoordinates(t *testing.T) {
	r := newMemoryReader(t, "ab\ncdé\n\nx")

	testCases := []struct {
		offset   int64
		expected Cursor
	}{
		{offset: 0, expected: Cursor{Line: 1, Column: 1}},
		{offset: 2, expected: Cursor{Line: 1, Column: 3}},
		{offset: 3, expected: Cursor{Line: 2, Column: 1}},
		{offset: 7, expected: Cursor{Line: 2, Column: 4}},
		{offset: 8, expected: Cursor{Line: 3, Column: 1}},
		{offset: 9, expected: Cursor{Line: 4, Column: 1}},
		{offset: 10, expected: Cursor{Line: 4, Column: 2}},
	}
	for _, tc := range testCases {
		cursor, err := r.Coordinates(tc.offset)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, cursor, "Offset: %d", tc.offset)
	}

	_, err := r.Coordinates(11)
	assert.ErrorIs(t, err, ErrOutOfRange)

	count, err := r.LineCount()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	start, end, err := r.Line(2)
	require.NoError(t, err)
	assert.Equal(t, "cdé", string(r.PeekAt(start, end-start)))

	// The index follows edits.
	require.NoError(t, r.RemoveRange(2, 3))
	cursor, err := r.Coordinates(3)
	require.NoError(t, err)
	assert.Equal(t, Cursor{Line: 1, Column: 4}, cursor)
}

func TestCursorAdvancedBy(t *testing.T) {
	testCases := []struct {
		lookAhead string
		expected  Cursor
	}{
		{lookAhead: "", expected: Cursor{Line: 1, Column: 1}},
		{lookAhead: "abc", expected: Cursor{Line: 1, Column: 4}},
		{lookAhead: "a\nbc", expected: Cursor{Line: 2, Column: 3}},
		{lookAhead: "\n\n", expected: Cursor{Line: 3, Column: 1}},
		{lookAhead: "żółw", expected: Cursor{Line: 1, Column: 5}},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, CursorInit.AdvancedBy([]byte(tc.lookAhead)), "LookAhead: %q", tc.lookAhead)
	}
	assert.Equal(t, "?", CursorNone.String())
	assert.Equal(t, "2:3", Cursor{Line: 2, Column: 3}.String())
}

func TestRuneReader(t *testing.T) {
	r := newFileReader(t, []byte("añb"), source.AccessRead)
	rr := r.RuneReader(1)
	ch, size, err := rr.ReadRune()
	require.NoError(t, err)
	assert.Equal(t, 'ñ', ch)
	assert.Equal(t, 2, size)
}
