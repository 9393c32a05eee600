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

// lexserver is a language server for calc documents speaking LSP over standard input and output. It keeps open
// documents in sync with the editor and answers semantic token requests.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/EngFlow/lexcore/internal/lsp"
)

var version = "dev"

var log = commonlog.GetLogger("lexserver")

func main() {
	verbosity := flag.Int("verbosity", 0, "Log verbosity: -4 logs nothing, 0 logs notices, 1 adds info and 2 adds debug")
	logPath := flag.String("log", "", "Write logs to this file instead of standard error")
	versionFlag := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version)
		return
	}

	var path *string
	if *logPath != "" {
		path = logPath
	}
	commonlog.Configure(*verbosity, path)

	log.Noticef("lexserver %s starting", version)
	if err := lsp.NewServer(version).RunStdio(); err != nil {
		log.Criticalf("%v", err)
		os.Exit(1)
	}
}
