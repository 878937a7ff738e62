package transport

import (
	"sort"
	"sync"

	"github.com/backkem/mediasoupclient/pkg/mediaerr"
)

type identified interface {
	ID() string
}

// registry is an identity-keyed set of flows.
type registry[T identified] struct {
	mu    sync.Mutex
	items map[string]T
}

func newRegistry[T identified]() *registry[T] {
	return &registry[T]{items: make(map[string]T)}
}

func (r *registry[T]) add(item T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[item.ID()]; exists {
		return mediaerr.InvalidState("id %q already in use", item.ID())
	}
	r.items[item.ID()] = item
	return nil
}

func (r *registry[T]) get(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	return item, ok
}

func (r *registry[T]) has(id string) bool {
	_, ok := r.get(id)
	return ok
}

func (r *registry[T]) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

func (r *registry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// list returns the items sorted by id.
func (r *registry[T]) list() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// drain empties the registry and returns what it held.
func (r *registry[T]) drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	r.items = make(map[string]T)
	return out
}
