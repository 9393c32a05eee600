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

package lsp

import (
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/EngFlow/lexcore/internal/lexer"
	"github.com/EngFlow/lexcore/language/calc"
)

// encodeSemanticTokens lexes the whole document of l and encodes its highlighted tokens in the relative format of the
// protocol: five integers per token holding the line delta, the start character delta, the length, the type and the
// modifiers. Characters are counted in UTF-16 code units.
func encodeSemanticTokens(l *lexer.Lexer) ([]protocol.UInteger, error) {
	content, err := l.Bytes()
	if err != nil {
		return nil, err
	}

	data := []protocol.UInteger{}
	var line, prevLine, prevChar protocol.UInteger
	var lineStart, scanned int64
	for m, err := range l.All() {
		if err != nil {
			return nil, err
		}
		semanticType, ok := calc.SemanticType(m.Type)
		if !ok {
			continue
		}
		for ; scanned < m.Start(); scanned++ {
			if content[scanned] == '\n' {
				line++
				lineStart = scanned + 1
			}
		}
		char := utf16Len(content[lineStart:m.Start()])
		deltaChar := char
		if line == prevLine {
			deltaChar = char - prevChar
		}
		data = append(data, line-prevLine, deltaChar, utf16Len(m.Text()), protocol.UInteger(semanticType), 0)
		prevLine, prevChar = line, char
	}
	return data, nil
}

func utf16Len(text []byte) protocol.UInteger {
	var n protocol.UInteger
	for len(text) > 0 {
		r, size := utf8.DecodeRune(text)
		text = text[size:]
		n += protocol.UInteger(max(1, utf16.RuneLen(r)))
	}
	return n
}
