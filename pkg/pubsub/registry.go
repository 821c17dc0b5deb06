package pubsub

import (
	"sort"
	"sync/atomic"
)

// registration is one listener registered on one key. live flips to false when
// the registration is removed so dispatches holding an older snapshot skip it.
type registration struct {
	id   ListenerID
	fn   Listener
	live atomic.Bool
}

// registry maps channel keys to their listeners in registration order.
// It is not safe for concurrent use; the Manager serializes access.
type registry struct {
	sets map[string][]*registration
}

func newRegistry() *registry {
	return &registry{sets: make(map[string][]*registration)}
}

// add registers fn under id for key. Adding an id already present for key
// returns the existing registration and added=false.
func (r *registry) add(key string, id ListenerID, fn Listener) (reg *registration, added bool) {
	for _, reg := range r.sets[key] {
		if reg.id == id {
			return reg, false
		}
	}
	reg = &registration{id: id, fn: fn}
	reg.live.Store(true)
	r.sets[key] = append(r.sets[key], reg)
	return reg, true
}

// remove drops target and reports whether the set for key is now empty.
// Removing a registration that is not present is a no-op.
func (r *registry) remove(key string, target *registration) (removed, empty bool) {
	set := r.sets[key]
	for i, reg := range set {
		if reg != target {
			continue
		}
		reg.live.Store(false)
		if len(set) == 1 {
			delete(r.sets, key)
			return true, true
		}
		r.sets[key] = append(set[:i:i], set[i+1:]...)
		return true, false
	}
	return false, false
}

// removeAll drops every listener of every key.
func (r *registry) removeAll() {
	for key, set := range r.sets {
		for _, reg := range set {
			reg.live.Store(false)
		}
		delete(r.sets, key)
	}
}

// snapshot copies the registrations of key in registration order. Later
// mutations of the registry do not affect the copy.
func (r *registry) snapshot(key string) []*registration {
	set := r.sets[key]
	out := make([]*registration, len(set))
	copy(out, set)
	return out
}

func (r *registry) contains(key string, id ListenerID) bool {
	for _, reg := range r.sets[key] {
		if reg.id == id {
			return true
		}
	}
	return false
}

func (r *registry) count(key string) int {
	return len(r.sets[key])
}

// keys returns every key with at least one listener, sorted.
func (r *registry) keys() []string {
	keys := make([]string, 0, len(r.sets))
	for key := range r.sets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
