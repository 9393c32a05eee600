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

package cc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/EngFlow/lexcore/internal/lexer"
)

var ErrMalformedInclude = errors.New("malformed include directive")

// Include is an #include or #include_next directive. System is set when the path is in angle brackets.
type Include struct {
	Path   string
	System bool
	Next   bool
	Line   int
}

func (inc Include) String() string {
	name := "#include"
	if inc.Next {
		name = "#include_next"
	}
	if inc.System {
		return fmt.Sprintf("%s <%s>", name, inc.Path)
	}
	return fmt.Sprintf("%s \"%s\"", name, inc.Path)
}

// Includes lexes the rest of the document of l and returns its include directives in order. Includes built from
// macros, such as #include HEADER, are reported as malformed.
func Includes(l *lexer.Lexer) ([]Include, error) {
	stream := lexer.NewStream(l, Whitespace, ContinueLine, LineComment, BlockComment)
	var result []Include
	for {
		m, ok := stream.Next()
		if !ok {
			return result, stream.Err()
		}
		if !m.Is(DirectiveInclude) && !m.Is(DirectiveIncludeNext) {
			continue
		}
		inc, err := parseInclude(stream, m)
		if err != nil {
			return result, err
		}
		result = append(result, inc)
	}
}

func parseInclude(stream *lexer.Stream, directive *lexer.TokenMatch) (Include, error) {
	inc := Include{Next: directive.Is(DirectiveIncludeNext)}
	if loc, err := directive.Location(); err == nil {
		inc.Line = loc.Line
	}

	path, ok := stream.Next()
	if !ok {
		if err := stream.Err(); err != nil {
			return inc, err
		}
		return inc, fmt.Errorf("line %d: missing path: %w", inc.Line, ErrMalformedInclude)
	}
	text := string(path.Text())
	switch {
	case path.Is(SystemPath):
		inc.Path, inc.System = strings.TrimSuffix(strings.TrimPrefix(text, "<"), ">"), true
	case path.Is(String):
		unquoted := strings.TrimSuffix(strings.TrimPrefix(text, `"`), `"`)
		if strings.Contains(unquoted, `"`) {
			return inc, fmt.Errorf("line %d: quotes inside path %s: %w", inc.Line, text, ErrMalformedInclude)
		}
		inc.Path = unquoted
	default:
		return inc, fmt.Errorf("line %d: unexpected %v: %w", inc.Line, path, ErrMalformedInclude)
	}
	return inc, nil
}
