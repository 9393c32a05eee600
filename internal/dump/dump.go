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

// Package dump defines serializable snapshots of the tokens of a document. They are the output format of lexdump:
// plain text for humans, JSON for tools and the protobuf wire format for compact storage.
package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/EngFlow/lexcore/internal/collections"
	"github.com/EngFlow/lexcore/internal/lexer"
)

type (
	// Record is a snapshot of one token match.
	Record struct {
		Type   string
		Text   []byte
		Start  int64
		End    int64
		Line   int
		Column int
	}

	// Dump is the token stream of one document.
	Dump struct {
		Name     string
		Language string
		Records  []Record
	}

	recordJSON struct {
		Type   string `json:"type"`
		Text   string `json:"text"`
		Start  int64  `json:"start"`
		End    int64  `json:"end"`
		Line   int    `json:"line,omitempty"`
		Column int    `json:"column,omitempty"`
	}

	dumpJSON struct {
		Name     string       `json:"name"`
		Language string       `json:"language,omitempty"`
		Tokens   []recordJSON `json:"tokens"`
	}
)

var (
	_ json.Marshaler   = Dump{}
	_ json.Unmarshaler = (*Dump)(nil)
)

// FromMatch snapshots m. The location is left empty when it cannot be computed.
func FromMatch(m *lexer.TokenMatch) Record {
	rec := Record{
		Type:  m.Type.Name(),
		Text:  m.Text(),
		Start: m.Start(),
		End:   m.End(),
	}
	if loc, err := m.Location(); err == nil {
		rec.Line, rec.Column = loc.Line, loc.Column
	}
	return rec
}

// Lex lexes the remainder of the document of l and snapshots every token except the final EndOfInput.
func Lex(l *lexer.Lexer) (Dump, error) {
	d := Dump{Name: l.Name()}
	if lang := l.Document().Language(); lang != nil {
		d.Language = lang.String()
	}
	for m, err := range l.All() {
		if err != nil {
			return d, fmt.Errorf("lexing %s: %w", l.Name(), err)
		}
		if m.Type != lexer.EndOfInput {
			d.Records = append(d.Records, FromMatch(m))
		}
	}
	return d, nil
}

func (rec Record) Len() int64 { return rec.End - rec.Start }

func (rec Record) String() string {
	return fmt.Sprintf("%d:%d\t%-12s %q", rec.Line, rec.Column, rec.Type, rec.Text)
}

// WriteText writes one line per record.
func (d Dump) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# %s (%s)\n", d.Name, d.Language); err != nil {
		return err
	}
	for _, rec := range d.Records {
		if _, err := fmt.Fprintln(w, rec); err != nil {
			return err
		}
	}
	return nil
}

// Decode returns a copy of d with every token text transcoded from enc to UTF-8.
func (d Dump) Decode(enc encoding.Encoding) (Dump, error) {
	decoder := enc.NewDecoder()
	records := make([]Record, len(d.Records))
	for i, rec := range d.Records {
		text, err := decoder.Bytes(rec.Text)
		if err != nil {
			return d, fmt.Errorf("decoding token at %d of %s: %w", rec.Start, d.Name, err)
		}
		rec.Text = text
		records[i] = rec
	}
	d.Records = records
	return d, nil
}

// MarshalJSON encodes the dump with token texts as JSON strings. Texts that are not valid UTF-8 are not preserved
// exactly; use the protobuf encoding for binary documents.
func (d Dump) MarshalJSON() ([]byte, error) {
	return json.Marshal(dumpJSON{
		Name:     d.Name,
		Language: d.Language,
		Tokens: collections.MapSlice(d.Records, func(rec Record) recordJSON {
			return recordJSON{
				Type:   rec.Type,
				Text:   string(rec.Text),
				Start:  rec.Start,
				End:    rec.End,
				Line:   rec.Line,
				Column: rec.Column,
			}
		}),
	})
}

func (d *Dump) UnmarshalJSON(data []byte) error {
	var decoded dumpJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*d = Dump{
		Name:     decoded.Name,
		Language: decoded.Language,
		Records: collections.MapSlice(decoded.Tokens, func(rec recordJSON) Record {
			return Record{
				Type:   rec.Type,
				Text:   []byte(rec.Text),
				Start:  rec.Start,
				End:    rec.End,
				Line:   rec.Line,
				Column: rec.Column,
			}
		}),
	}
	return nil
}

type typeCount struct {
	name  string
	count int
	bytes int64
}

// Most frequent first, ties broken by name.
func (a *typeCount) before(b *typeCount) bool {
	if a.count != b.count {
		return a.count > b.count
	}
	return a.name < b.name
}

// Summary returns a short report of the dump listing the top most frequent token types.
func (d Dump) Summary(top int) string {
	counts := make(map[string]*typeCount)
	for _, rec := range d.Records {
		tc, ok := counts[rec.Type]
		if !ok {
			tc = &typeCount{name: rec.Type}
			counts[rec.Type] = tc
		}
		tc.count++
		tc.bytes += rec.Len()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d tokens of %d types\n", d.Name, len(d.Records), len(counts))
	for _, tc := range collections.Smallest(maps.Values(counts), top, (*typeCount).before) {
		fmt.Fprintf(&sb, "  %-20s %6d tokens %8d bytes\n", tc.name, tc.count, tc.bytes)
	}
	return sb.String()
}
