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
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

var ErrLanguageNotFound = errors.New("language not found")

// Language describes the kind of text a Document holds.
type Language struct {
	Name         string
	Abbreviation string
	Version      *semver.Version
	// Encoding used by documents of this language unless another one is requested. Nil means UTF-8.
	Encoding encoding.Encoding
}

var (
	PlainText = &Language{Name: "PlainText", Abbreviation: "txt", Version: semver.MustParse("1.0.0")}
	Binary    = &Language{Name: "Binary", Abbreviation: "bin", Version: semver.MustParse("1.0.0"), Encoding: encoding.Nop}

	// Languages is the process-wide language registry, pre-populated with PlainText and Binary.
	Languages = NewLanguageRegistry(PlainText, Binary)
)

func (l *Language) String() string {
	if l.Version == nil {
		return l.Abbreviation
	}
	return l.Abbreviation + "@" + l.Version.String()
}

// DefaultEncoding returns the language encoding, falling back to UTF-8.
func (l *Language) DefaultEncoding() encoding.Encoding {
	if l.Encoding == nil {
		return unicode.UTF8
	}
	return l.Encoding
}

// LanguageRegistry holds the languages known to the process, possibly several versions per abbreviation.
type LanguageRegistry struct {
	mu        sync.RWMutex
	languages map[string][]*Language
}

func NewLanguageRegistry(langs ...*Language) *LanguageRegistry {
	r := &LanguageRegistry{languages: make(map[string][]*Language)}
	for _, lang := range langs {
		r.Register(lang)
	}
	return r
}

// Register adds lang to the registry. Registering the same abbreviation and version twice keeps the first one.
func (r *LanguageRegistry) Register(lang *Language) *Language {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions := r.languages[lang.Abbreviation]
	for _, existing := range versions {
		if sameVersion(existing.Version, lang.Version) {
			return existing
		}
	}
	r.languages[lang.Abbreviation] = append(versions, lang)
	return lang
}

func sameVersion(a, b *semver.Version) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

// Lookup returns the highest registered version of the language abbreviated abbrev that satisfies constraint. An
// empty constraint accepts any version.
func (r *LanguageRegistry) Lookup(abbrev, constraint string) (*Language, error) {
	var c *semver.Constraints
	if constraint != "" {
		var err error
		if c, err = semver.NewConstraint(constraint); err != nil {
			return nil, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
		}
	}

	r.mu.RLock()
	candidates := slices.Clone(r.languages[abbrev])
	r.mu.RUnlock()

	var best *Language
	for _, lang := range candidates {
		if c != nil && (lang.Version == nil || !c.Check(lang.Version)) {
			continue
		}
		if best == nil || (lang.Version != nil && (best.Version == nil || lang.Version.GreaterThan(best.Version))) {
			best = lang
		}
	}
	if best == nil {
		if constraint == "" {
			return nil, fmt.Errorf("%q: %w", abbrev, ErrLanguageNotFound)
		}
		return nil, fmt.Errorf("%q matching %q: %w", abbrev, constraint, ErrLanguageNotFound)
	}
	return best, nil
}

// EncodingByName resolves an IANA encoding name such as "UTF-8" or "ISO-8859-1".
func EncodingByName(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	return enc, nil
}
