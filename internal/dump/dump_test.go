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

package dump

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/EngFlow/lexcore/internal/document"
	"github.com/EngFlow/lexcore/internal/lexer"
	"github.com/EngFlow/lexcore/internal/source"
)

var (
	word  = lexer.NewTokenType("Word", lexer.Pattern(`[a-z]+`))
	space = lexer.NewTokenType("Space", lexer.ByteClass(func(b byte) bool { return b == ' ' || b == '\n' }))
	words = lexer.NewSet("words", func(add func(*lexer.TokenType)) {
		add(word)
		add(space)
	})
)

func sampleDump() Dump {
	return Dump{
		Name:     "sample.txt",
		Language: "txt@1.0.0",
		Records: []Record{
			{Type: "Word", Text: []byte("ab"), Start: 0, End: 2, Line: 1, Column: 1},
			{Type: "Space", Text: []byte("\n"), Start: 2, End: 3, Line: 1, Column: 3},
			{Type: "Word", Text: []byte("c"), Start: 3, End: 4, Line: 2, Column: 1},
		},
	}
}

func TestLex(t *testing.T) {
	doc := document.NewRegistry().Of(source.WrapString("sample.txt", "ab\nc"), nil, nil)
	l, err := lexer.NewForSets(doc, false, words)
	require.NoError(t, err)
	defer l.Close()

	result, err := Lex(l)
	require.NoError(t, err)
	assert.Equal(t, sampleDump(), result)
}

func TestLexInvalidBytes(t *testing.T) {
	doc := document.NewRegistry().Of(source.WrapString("bad", "a1"), nil, nil)
	l, err := lexer.NewForSets(doc, false, words)
	require.NoError(t, err)
	defer l.Close()

	result, err := Lex(l)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, lexer.Invalid.Name(), result.Records[1].Type)
}

func TestMarshalJSON(t *testing.T) {
	expected := `{
	"name": "sample.txt",
	"language": "txt@1.0.0",
	"tokens": [
		{
			"type": "Word",
			"text": "ab",
			"start": 0,
			"end": 2,
			"line": 1,
			"column": 1
		},
		{
			"type": "Space",
			"text": "\n",
			"start": 2,
			"end": 3,
			"line": 1,
			"column": 3
		},
		{
			"type": "Word",
			"text": "c",
			"start": 3,
			"end": 4,
			"line": 2,
			"column": 1
		}
	]
}`
	result, err := json.MarshalIndent(sampleDump(), "", "\t")
	assert.NoError(t, err)
	assert.Equal(t, expected, string(result))
}

func TestUnmarshalJSON(t *testing.T) {
	data, err := json.Marshal(sampleDump())
	require.NoError(t, err)

	var result Dump
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, sampleDump(), result)

	assert.Error(t, json.Unmarshal([]byte(`{"tokens": 3}`), &result))
}

func TestProtoRoundTrip(t *testing.T) {
	input := sampleDump()
	input.Records = append(input.Records, Record{Type: "Binary", Text: []byte{0xff, 0x00, 0xfe}, Start: 4, End: 7})

	result, err := UnmarshalProto(input.MarshalProto())
	require.NoError(t, err)
	assert.Equal(t, input, result)
}

func TestUnmarshalProtoSkipsUnknownFields(t *testing.T) {
	data := sampleDump().MarshalProto()
	data = protowire.AppendTag(data, 15, protowire.VarintType)
	data = protowire.AppendVarint(data, 42)

	result, err := UnmarshalProto(data)
	require.NoError(t, err)
	assert.Equal(t, sampleDump(), result)
}

func TestUnmarshalProtoErrors(t *testing.T) {
	data := sampleDump().MarshalProto()
	_, err := UnmarshalProto(data[:len(data)-1])
	assert.Error(t, err)

	record := protowire.AppendTag(nil, recordStart, protowire.BytesType)
	record = protowire.AppendString(record, "x")
	bad := protowire.AppendTag(nil, dumpRecords, protowire.BytesType)
	bad = protowire.AppendBytes(bad, record)
	_, err = UnmarshalProto(bad)
	assert.ErrorIs(t, err, errWireType)
}

func TestUnmarshalProtoWireTypes(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{
			name: "dump name as varint",
			data: protowire.AppendVarint(protowire.AppendTag(nil, dumpName, protowire.VarintType), 7),
		},
		{
			name: "dump records as fixed32",
			data: protowire.AppendFixed32(protowire.AppendTag(nil, dumpRecords, protowire.Fixed32Type), 7),
		},
		{
			name: "record type as varint",
			data: protowire.AppendBytes(protowire.AppendTag(nil, dumpRecords, protowire.BytesType),
				protowire.AppendVarint(protowire.AppendTag(nil, recordType, protowire.VarintType), 1)),
		},
	}
	for _, tc := range testCases {
		_, err := UnmarshalProto(tc.data)
		assert.ErrorIs(t, err, errWireType, "Input: %v", tc.name)
	}
}

func TestSummary(t *testing.T) {
	d := sampleDump()
	d.Records = append(d.Records, Record{Type: "Number", Text: []byte("42"), Start: 4, End: 6})

	expected := "sample.txt: 4 tokens of 3 types\n" +
		"  Word                      2 tokens        3 bytes\n" +
		"  Number                    1 tokens        2 bytes\n"
	assert.Equal(t, expected, d.Summary(2))
	assert.Contains(t, d.Summary(10), "  Space                     1 tokens        1 bytes\n")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleDump().WriteText(&buf))

	expected := "# sample.txt (txt@1.0.0)\n" +
		"1:1\tWord         \"ab\"\n" +
		"1:3\tSpace        \"\\n\"\n" +
		"2:1\tWord         \"c\"\n"
	assert.Equal(t, expected, buf.String())
}

func TestDecode(t *testing.T) {
	d := Dump{Name: "latin1", Records: []Record{{Type: "Word", Text: []byte{'n', 0xe9}, Start: 0, End: 2}}}

	decoded, err := d.Decode(charmap.ISO8859_1)
	require.NoError(t, err)
	assert.Equal(t, []byte("né"), decoded.Records[0].Text)
	assert.Equal(t, []byte{'n', 0xe9}, d.Records[0].Text, "the original is left untouched")
}
