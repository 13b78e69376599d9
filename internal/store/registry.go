package store

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps document ids to open documents.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func NewRegistry() *Registry {
	return &Registry{docs: map[string]*Document{}}
}

func (r *Registry) Add(d *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[d.ID]; ok {
		return fmt.Errorf("document already open: %s", d.ID)
	}
	r.docs[d.ID] = d
	return nil
}

func (r *Registry) Get(id string) (*Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[id]
	return d, ok
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.docs))
	for id := range r.docs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
