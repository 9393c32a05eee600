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

package document

import (
	"sync"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/EngFlow/lexcore/internal/source"
)

func TestOfReturnsCachedDocument(t *testing.T) {
	reg := NewRegistry()
	src := source.WrapString("a", "1 + 2")

	first := reg.Of(src, nil, nil)
	second := reg.Of(src, Binary, charmap.ISO8859_1)

	assert.Same(t, first, second)
	assert.Equal(t, PlainText, second.Language())
	assert.Equal(t, unicode.UTF8, second.Encoding())
	assert.Equal(t, 1, reg.Len())
}

func TestOfDistinctSources(t *testing.T) {
	reg := NewRegistry()
	a := reg.Of(source.WrapString("same", "x"), nil, nil)
	b := reg.Of(source.WrapString("same", "x"), nil, nil)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, reg.Len())
}

func TestOfExplicitEncoding(t *testing.T) {
	doc := NewRegistry().Of(source.WrapString("latin", "x"), nil, charmap.ISO8859_1)
	assert.Equal(t, charmap.ISO8859_1, doc.Encoding())

	bin := NewRegistry().Of(source.WrapString("bin", "x"), Binary, nil)
	assert.Equal(t, Binary.Encoding, bin.Encoding())
}

func TestCloseDeregistersAndClosesSource(t *testing.T) {
	reg := NewRegistry()
	src := source.WrapString("a", "abc")
	doc := reg.Of(src, nil, nil)
	assert.True(t, doc.Writable())

	require.NoError(t, doc.Close())
	require.NoError(t, doc.Close())

	_, ok := reg.Lookup(src)
	assert.False(t, ok)
	assert.True(t, doc.Closed())
	assert.False(t, doc.Writable())
	_, err := src.Length()
	assert.ErrorIs(t, err, source.ErrClosed)
}

func TestConcurrentOfFirstWins(t *testing.T) {
	reg := NewRegistry()
	src := source.WrapString("shared", "x")

	const workers = 16
	docs := make([]*Document, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			docs[i] = reg.Of(src, nil, nil)
		}()
	}
	wg.Wait()

	for _, doc := range docs {
		assert.Same(t, docs[0], doc)
	}
}

func TestLanguageLookup(t *testing.T) {
	reg := NewLanguageRegistry()
	v1 := reg.Register(&Language{Name: "Calc", Abbreviation: "calc", Version: semver.MustParse("1.0.0")})
	v12 := reg.Register(&Language{Name: "Calc", Abbreviation: "calc", Version: semver.MustParse("1.2.0")})
	v2 := reg.Register(&Language{Name: "Calc", Abbreviation: "calc", Version: semver.MustParse("2.0.0")})

	testCases := []struct {
		constraint string
		expected   *Language
	}{
		{constraint: "", expected: v2},
		{constraint: "^1.0", expected: v12},
		{constraint: "~1.0.0", expected: v1},
		{constraint: ">=2", expected: v2},
	}
	for _, tc := range testCases {
		lang, err := reg.Lookup("calc", tc.constraint)
		require.NoError(t, err, "Constraint: %q", tc.constraint)
		assert.Same(t, tc.expected, lang, "Constraint: %q", tc.constraint)
	}

	_, err := reg.Lookup("calc", ">=3")
	assert.ErrorIs(t, err, ErrLanguageNotFound)
	_, err = reg.Lookup("missing", "")
	assert.ErrorIs(t, err, ErrLanguageNotFound)
	_, err = reg.Lookup("calc", "not a constraint")
	assert.Error(t, err)
}

func TestRegisterDuplicateKeepsFirst(t *testing.T) {
	reg := NewLanguageRegistry()
	first := reg.Register(&Language{Name: "A", Abbreviation: "a", Version: semver.MustParse("1.0.0")})
	second := reg.Register(&Language{Name: "B", Abbreviation: "a", Version: semver.MustParse("1.0.0")})
	assert.Same(t, first, second)
}

func TestDefaultLanguages(t *testing.T) {
	lang, err := Languages.Lookup("txt", "")
	require.NoError(t, err)
	assert.Same(t, PlainText, lang)
	assert.Equal(t, "txt@1.0.0", PlainText.String())
	assert.Equal(t, unicode.UTF8, PlainText.DefaultEncoding())
}

func TestEncodingByName(t *testing.T) {
	enc, err := EncodingByName("ISO-8859-1")
	require.NoError(t, err)
	decoded, err := enc.NewDecoder().Bytes([]byte{0xe9})
	require.NoError(t, err)
	assert.Equal(t, "é", string(decoded))

	_, err = EncodingByName("no-such-encoding")
	assert.Error(t, err)
}
