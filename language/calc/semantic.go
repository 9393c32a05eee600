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

package calc

import "github.com/EngFlow/lexcore/internal/lexer"

// Semantic token types understood by editors, in the order of the legend announced to them.
var SemanticTypes = []string{"keyword", "variable", "number", "string", "comment", "operator"}

var semanticIndex = map[*lexer.TokenType]int{
	Keyword:    0,
	Identifier: 1,
	Number:     2,
	String:     3,
	Comment:    4,
	Power:      5,
	Plus:       5,
	Minus:      5,
	Star:       5,
	Slash:      5,
	Assign:     5,
}

// SemanticType returns the index in SemanticTypes of the highlighting class of t. Types that are not highlighted, such
// as whitespace and punctuation, report false.
func SemanticType(t *lexer.TokenType) (int, bool) {
	i, ok := semanticIndex[t]
	return i, ok
}
