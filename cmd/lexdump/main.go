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

// lexdump lexes source files and prints their tokens.
//
// Usage:
//
//	lexdump [flags] [path ...]
//
// Every path is a file or a directory searched recursively for files selected by -include and -exclude. The current
// directory is used when no path is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/EngFlow/lexcore/internal/dump"
)

var log = commonlog.GetLogger("lexdump")

func main() {
	include := patternList{values: []string{"**/*.calc", "**/*.calc.xz"}, isDefault: true}
	var exclude patternList

	verbose := flag.Bool("verbose", false, "Log every file and token edit")
	output := flag.String("output", "", "Write the dump to this file instead of standard output")
	format := flag.String("format", "text", "Output format: text, json or proto")
	language := flag.String("lang", "calc", "Language of the inputs as abbreviation[@version-constraint]")
	encodingName := flag.String("encoding", "", "IANA name of the input encoding, defaults to the language encoding")
	summary := flag.Int("summary", 0, "Print the N most frequent token types of every file to standard error")
	watchMode := flag.Bool("watch", false, "Keep running and dump files again whenever they change")
	flag.Var(&include, "include", "Glob of files to lex, relative to each path; can be repeated, e.g. **/*.h for -lang cc")
	flag.Var(&exclude, "exclude", "Glob of files to skip, relative to each path; can be repeated")
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	sel, err := newSelection(include.values, exclude.values)
	if err != nil {
		log.Criticalf("%v", err)
		os.Exit(2)
	}
	d, err := newDumper(*language, *encodingName)
	if err != nil {
		log.Criticalf("%v", err)
		os.Exit(2)
	}

	var out io.Writer = os.Stdout
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			log.Criticalf("%v", err)
			os.Exit(1)
		}
		defer file.Close()
		out = file
	}

	roots := flag.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}

	run := func(paths []string) error {
		dumps := make([]dump.Dump, 0, len(paths))
		for _, path := range paths {
			log.Infof("lexing %s", path)
			result, err := d.dumpFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if *summary > 0 {
				fmt.Fprint(os.Stderr, result.Summary(*summary))
			}
			dumps = append(dumps, result)
		}
		return writeDumps(out, *format, dumps)
	}

	var paths []string
	for _, root := range roots {
		files, err := sel.files(root)
		if err != nil {
			log.Criticalf("%v", err)
			os.Exit(1)
		}
		paths = append(paths, files...)
	}
	if err := run(paths); err != nil {
		log.Criticalf("%v", err)
		os.Exit(1)
	}
	if !*watchMode {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = watch(ctx, roots, sel, func(path string) {
		if err := run([]string{path}); err != nil {
			log.Errorf("%v", err)
		}
	})
	if err != nil {
		log.Criticalf("%v", err)
		os.Exit(1)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
