// Package bookmark keeps the records a user saved during one interactive
// session. Nothing is persisted.
package bookmark

import (
	"sync"

	"github.com/henrybloomingdale/medlit/internal/article"
)

// List is an append-only, ordered list of saved records. Adding the same
// record twice keeps both entries. The zero value is ready to use.
type List struct {
	mu    sync.Mutex
	items []article.Record
}

// Add appends rec.
func (l *List) Add(rec article.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, rec)
}

// Len returns the number of saved entries.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items returns a copy of the saved records in insertion order.
func (l *List) Items() []article.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]article.Record, len(l.items))
	copy(out, l.items)
	return out
}

// Contains reports whether a record with id has been saved.
func (l *List) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.items {
		if r.ID == id {
			return true
		}
	}
	return false
}
