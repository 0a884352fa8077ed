// SPDX-License-Identifier: MIT
package rules

import "sync/atomic"

// Store publishes the active mapping-rules document to the processing loop
// while allowing an external writer (a rule-update agent, a reload signal)
// to replace it at any time. Readers get a pointer to an immutable document;
// a swap installs a whole new document in one atomic step, so a reader can
// never observe half-updated rules. No ordering between versions is
// enforced; last writer wins.
type Store struct {
	current atomic.Pointer[Document]
}

// NewStore creates a store holding doc, or the defaults when doc is nil.
func NewStore(doc *Document) *Store {
	if doc == nil {
		doc = Default()
	}
	s := &Store{}
	s.current.Store(doc)
	return s
}

// Current returns the active document. The returned document must be
// treated as read-only.
func (s *Store) Current() *Document {
	return s.current.Load()
}

// Replace installs doc as the active document. A nil doc is ignored.
func (s *Store) Replace(doc *Document) {
	if doc == nil {
		return
	}
	s.current.Store(doc)
}
