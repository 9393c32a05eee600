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
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// patternList is a repeated flag. The first value given on the command line replaces the defaults.
type patternList struct {
	values    []string
	isDefault bool
}

func (p *patternList) String() string {
	return strings.Join(p.values, ",")
}

func (p *patternList) Set(value string) error {
	if p.isDefault {
		p.values, p.isDefault = nil, false
	}
	p.values = append(p.values, value)
	return nil
}

// selection picks the files to lex with doublestar patterns matched against slash separated paths relative to a root.
type selection struct {
	include, exclude []string
}

func newSelection(include, exclude []string) (*selection, error) {
	if len(include) == 0 {
		return nil, errors.New("no include patterns")
	}
	for _, pattern := range slices.Concat(include, exclude) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
	}
	return &selection{include: include, exclude: exclude}, nil
}

func (s *selection) matches(relativePath string) bool {
	path := filepath.ToSlash(relativePath)
	matchesPath := func(pattern string) bool { return doublestar.MatchUnvalidated(pattern, path) }
	return slices.ContainsFunc(s.include, matchesPath) && !slices.ContainsFunc(s.exclude, matchesPath)
}

// files returns the selected files under root in lexical order. A root naming a regular file is returned as is.
func (s *selection) files(root string) ([]string, error) {
	matched := []string{}
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root && !entry.IsDir() {
			matched = append(matched, path)
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if s.matches(rel) {
			matched = append(matched, path)
		}
		return nil
	})
	return matched, err
}

// owns reports whether path lies under root and is selected.
func (s *selection) owns(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return s.matches(rel)
}
