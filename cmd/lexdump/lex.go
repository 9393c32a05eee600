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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/EngFlow/lexcore/internal/document"
	"github.com/EngFlow/lexcore/internal/dump"
	"github.com/EngFlow/lexcore/internal/lexer"
	"github.com/EngFlow/lexcore/internal/source"
	"github.com/EngFlow/lexcore/language/calc"
	"github.com/EngFlow/lexcore/language/cc"
)

type newLexerFunc func(doc *document.Document, leaveOpen bool) (*lexer.Lexer, error)

// Grammars by language abbreviation.
var grammars = map[string]newLexerFunc{
	calc.Language.Abbreviation: calc.NewLexer,
	cc.Language.Abbreviation:   cc.NewLexer,
}

type dumper struct {
	documents *document.Registry
	language  *document.Language
	encoding  encoding.Encoding
	newLexer  newLexerFunc
}

// newDumper resolves a language given as "abbreviation" or "abbreviation@constraint" and an optional IANA encoding
// name.
func newDumper(languageSpec, encodingName string) (*dumper, error) {
	abbrev, constraint, _ := strings.Cut(languageSpec, "@")
	lang, err := document.Languages.Lookup(abbrev, constraint)
	if err != nil {
		return nil, err
	}
	newLexer, ok := grammars[lang.Abbreviation]
	if !ok {
		return nil, fmt.Errorf("no grammar for language %v", lang)
	}
	d := &dumper{
		documents: document.NewRegistry(),
		language:  lang,
		newLexer:  newLexer,
	}
	if encodingName != "" {
		if d.encoding, err = document.EncodingByName(encodingName); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *dumper) dumpFile(path string) (dump.Dump, error) {
	src, err := openSource(path)
	if err != nil {
		return dump.Dump{}, err
	}
	doc := d.documents.Of(src, d.language, d.encoding)
	l, err := d.newLexer(doc, false)
	if err != nil {
		doc.Close()
		return dump.Dump{}, err
	}
	defer l.Close()

	result, err := dump.Lex(l)
	if err != nil {
		return dump.Dump{}, err
	}
	result.Name = path
	if d.encoding != nil {
		return result.Decode(d.encoding)
	}
	return result, nil
}

// openSource opens path read-only. Files compressed with xz are decompressed into memory.
func openSource(path string) (source.Source, error) {
	if strings.HasSuffix(path, ".xz") {
		return source.OpenXZ(path)
	}
	return source.Open(path, source.ModeOpen, source.AccessRead)
}

// writeDumps writes dumps in the given format. The proto format is a sequence of length-prefixed messages.
func writeDumps(w io.Writer, format string, dumps []dump.Dump) error {
	switch format {
	case "text":
		for _, d := range dumps {
			if err := d.WriteText(w); err != nil {
				return err
			}
		}
		return nil
	case "json":
		data, err := json.MarshalIndent(dumps, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "proto":
		var data []byte
		for _, d := range dumps {
			data = protowire.AppendBytes(data, d.MarshalProto())
		}
		_, err := w.Write(data)
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}
