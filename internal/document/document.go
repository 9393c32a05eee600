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

// Package document pairs a source.Source with a text encoding and a language. Documents are cached by source
// identity in a Registry, so wrapping the same source twice yields the same Document.
package document

import (
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/text/encoding"

	"github.com/EngFlow/lexcore/internal/source"
)

var log = commonlog.GetLogger("lexcore.document")

// Document is a Source plus the metadata needed to interpret its bytes. It owns the Source: closing the Document
// closes the Source.
type Document struct {
	src      source.Source
	encoding encoding.Encoding
	language *Language
	registry *Registry
	closed   bool
}

func (d *Document) Source() source.Source       { return d.src }
func (d *Document) Encoding() encoding.Encoding { return d.encoding }
func (d *Document) Language() *Language         { return d.language }

// Writable reports whether the underlying source accepts writes.
func (d *Document) Writable() bool { return !d.closed && d.src.CanWrite() }

// Resizable reports whether the underlying source may change length.
func (d *Document) Resizable() bool { return !d.closed && d.src.CanResize() }

func (d *Document) Closed() bool { return d.closed }

// Close removes the Document from its registry and closes the Source. Calling it more than once is a no-op.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.registry != nil {
		d.registry.remove(d)
	}
	log.Debugf("closing document %s", d.src.Name())
	return d.src.Close()
}

// Registry caches at most one Document per Source. It is safe for concurrent use; when several goroutines request
// a Document for the same Source, the first one to register wins and the others receive its Document.
type Registry struct {
	mu        sync.Mutex
	documents map[source.Source]*Document
}

// DefaultRegistry is the process-wide registry used by Of.
var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{documents: make(map[source.Source]*Document)}
}

// Of returns the cached Document for src, creating and registering it if needed. A nil lang selects PlainText; a
// nil enc selects the language default encoding. Both are ignored when the Document already exists.
func (r *Registry) Of(src source.Source, lang *Language, enc encoding.Encoding) *Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc, ok := r.documents[src]; ok {
		return doc
	}

	if lang == nil {
		lang = PlainText
	}
	if enc == nil {
		enc = lang.DefaultEncoding()
	}
	doc := &Document{src: src, encoding: enc, language: lang, registry: r}
	r.documents[src] = doc
	log.Debugf("registered document %s (%s)", src.Name(), lang)
	return doc
}

// Lookup returns the Document registered for src, if any.
func (r *Registry) Lookup(src source.Source) (*Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[src]
	return doc, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.documents)
}

func (r *Registry) remove(doc *Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.documents[doc.src] == doc {
		delete(r.documents, doc.src)
	}
}

// Of returns the Document for src from DefaultRegistry.
func Of(src source.Source, lang *Language, enc encoding.Encoding) *Document {
	return DefaultRegistry.Of(src, lang, enc)
}
