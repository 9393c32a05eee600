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

// Package lsp serves the tokens of calc documents to editors over the Language Server Protocol. Open documents are
// kept as in-memory sources, edited in place as the editor reports changes, and re-lexed to answer semantic token
// requests.
package lsp

import (
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/EngFlow/lexcore/internal/document"
	"github.com/EngFlow/lexcore/internal/reader"
	"github.com/EngFlow/lexcore/internal/source"
	"github.com/EngFlow/lexcore/language/calc"
)

const serverName = "lexserver"

var log = commonlog.GetLogger("lexcore.lsp")

// Server is a language server holding the documents opened by the editor.
type Server struct {
	version   string
	handler   protocol.Handler
	documents *document.Registry

	mu   sync.Mutex
	open map[protocol.DocumentUri]*document.Document
}

func NewServer(version string) *Server {
	s := &Server{
		version:   version,
		documents: document.NewRegistry(),
		open:      make(map[protocol.DocumentUri]*document.Document),
	}
	s.handler = protocol.Handler{
		Initialize:                     s.initialize,
		Initialized:                    s.initialized,
		Shutdown:                       s.shutdown,
		SetTrace:                       s.setTrace,
		TextDocumentDidOpen:            s.textDocumentDidOpen,
		TextDocumentDidChange:          s.textDocumentDidChange,
		TextDocumentDidClose:           s.textDocumentDidClose,
		TextDocumentSemanticTokensFull: s.textDocumentSemanticTokensFull,
	}
	return s
}

// RunStdio serves a single client over standard input and output until it disconnects.
func (s *Server) RunStdio() error {
	return server.NewServer(&s.handler, serverName, false).RunStdio()
}

func (s *Server) initialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()
	capabilities.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: protocol.SemanticTokensLegend{
			TokenTypes:     calc.SemanticTypes,
			TokenModifiers: []string{},
		},
		Full: true,
	}
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("client initialized")
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.mu.Lock()
	defer s.mu.Unlock()
	for uri, doc := range s.open {
		doc.Close()
		delete(s.open, uri)
	}
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.open[uri]; ok {
		old.Close()
	}
	s.open[uri] = s.documents.Of(source.WrapString(uri, params.TextDocument.Text), calc.Language, nil)
	log.Debugf("opened %s", uri)
	return nil
}

func (s *Server) textDocumentDidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.open[uri]
	if !ok {
		return fmt.Errorf("document %s is not open", uri)
	}

	r, err := reader.New(doc, true)
	if err != nil {
		return err
	}
	defer r.Close()
	for _, change := range params.ContentChanges {
		if err := applyChange(r, change); err != nil {
			return fmt.Errorf("applying change to %s: %w", uri, err)
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.open[uri]; ok {
		delete(s.open, uri)
		return doc.Close()
	}
	return nil
}

func (s *Server) textDocumentSemanticTokensFull(context *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	uri := params.TextDocument.URI
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.open[uri]
	if !ok {
		return nil, fmt.Errorf("document %s is not open", uri)
	}

	l, err := calc.NewLexer(doc, true)
	if err != nil {
		return nil, err
	}
	defer l.Close()
	data, err := encodeSemanticTokens(l)
	if err != nil {
		return nil, err
	}
	return &protocol.SemanticTokens{Data: data}, nil
}

// applyChange edits the document under r. Ranges are converted from the UTF-16 positions of the protocol to byte
// offsets.
func applyChange(r *reader.Reader, change any) error {
	switch change := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return r.ReplaceRange(0, r.Length(), []byte(change.Text))
	case protocol.TextDocumentContentChangeEvent:
		if change.Range == nil {
			return r.ReplaceRange(0, r.Length(), []byte(change.Text))
		}
		start, err := offsetOf(r, change.Range.Start)
		if err != nil {
			return err
		}
		end, err := offsetOf(r, change.Range.End)
		if err != nil {
			return err
		}
		return r.ReplaceRange(start, max(start, end), []byte(change.Text))
	}
	return fmt.Errorf("unsupported content change %T", change)
}

// offsetOf converts a protocol position into a byte offset. Positions past the end of a line or of the document are
// clamped.
func offsetOf(r *reader.Reader, pos protocol.Position) (int64, error) {
	lines, err := r.LineCount()
	if err != nil {
		return 0, err
	}
	if int(pos.Line) >= lines {
		return r.Length(), nil
	}
	start, end, err := r.Line(int(pos.Line) + 1)
	if err != nil {
		return 0, err
	}
	// IndexIn clamps at a newline but not at the end of its input.
	line := string(r.PeekAt(start, end-start)) + "\n"
	return start + int64(protocol.Position{Character: pos.Character}.IndexIn(line)), nil
}
