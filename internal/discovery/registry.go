package discovery

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry is the in-memory mapping from serverUri to RegisteredServer.
//
// Grounded on internal/federation/manager.go's map+sync.RWMutex register/
// unregister pattern, with the insertion-order bookkeeping borrowed from
// wudi-gateway's internal/registry/memory/memory.go so FindServers can walk
// peers in registration order without re-sorting on every call.
type Registry struct {
	mu      sync.RWMutex
	byURI   map[string]RegisteredServer
	order   []string // serverUri in insertion order
	logger  *zap.Logger
}

// RegisterCallback is invoked exactly once per insert or remove (never on a
// plain replace of an already-registered serverUri), per SPEC_FULL §4.5 step 7.
type RegisterCallback func(server RegisteredServer, isRegister bool)

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		byURI:  make(map[string]RegisteredServer),
		logger: logger,
	}
}

// Lookup returns a copy of the record for uri, if any.
func (r *Registry) Lookup(uri string) (RegisteredServer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byURI[uri]
	if !ok {
		return RegisteredServer{}, false
	}
	return rec.Clone(), true
}

// InsertOrReplace stores record, replacing any existing entry with the same
// ServerURI. Returns true if this was a new key (an insert, not a replace).
func (r *Registry) InsertOrReplace(record RegisteredServer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.byURI[record.ServerURI]
	r.byURI[record.ServerURI] = record.Clone()
	if !existed {
		r.order = append(r.order, record.ServerURI)
	}
	return !existed
}

// Remove deletes uri and returns the record that was removed, if any.
func (r *Registry) Remove(uri string) (RegisteredServer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byURI[uri]
	if !ok {
		return RegisteredServer{}, false
	}
	delete(r.byURI, uri)
	for i, u := range r.order {
		if u == uri {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return rec, true
}

// Iterate walks the registry in insertion order, calling fn with a copy of
// each record. Stops early if fn returns false.
func (r *Registry) Iterate(fn func(RegisteredServer) bool) {
	r.mu.RLock()
	order := append([]string(nil), r.order...)
	snapshot := make([]RegisteredServer, 0, len(order))
	for _, uri := range order {
		snapshot = append(snapshot, r.byURI[uri].Clone())
	}
	r.mu.RUnlock()

	for _, rec := range snapshot {
		if !fn(rec) {
			return
		}
	}
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// StatFunc abstracts the filesystem check for semaphore files; overridable in
// tests.
type StatFunc func(path string) error

// DefaultStatFunc delegates to os.Stat.
func DefaultStatFunc(path string) error {
	_, err := os.Stat(path)
	return err
}

// Sweep removes stale entries in a single pass, per SPEC_FULL §4.1:
//  1. If semaphoreEnabled and the record has a SemaphoreFilePath, remove it
//     when the file is absent.
//  2. Else, if timeout != 0 and now-LastSeen exceeds it, remove it.
//
// Removal never happens mid-walk: the set of doomed keys is collected under
// a read snapshot first, then removed under the write lock, so no iterator
// ever observes a half-deleted registry.
func (r *Registry) Sweep(now time.Time, timeout time.Duration, semaphoreEnabled bool, stat StatFunc) {
	if stat == nil {
		stat = DefaultStatFunc
	}

	type doomed struct {
		uri    string
		reason string
	}
	var toRemove []doomed

	r.mu.RLock()
	for _, uri := range r.order {
		rec := r.byURI[uri]
		switch {
		case semaphoreEnabled && rec.SemaphoreFilePath != "":
			if err := stat(rec.SemaphoreFilePath); err != nil {
				toRemove = append(toRemove, doomed{uri, "semaphore file missing"})
			}
		case timeout != 0 && now.Sub(rec.LastSeen) > timeout:
			toRemove = append(toRemove, doomed{uri, "registration timed out"})
		}
	}
	r.mu.RUnlock()

	if len(toRemove) == 0 {
		return
	}

	r.mu.Lock()
	for _, d := range toRemove {
		delete(r.byURI, d.uri)
		for i, u := range r.order {
			if u == d.uri {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if r.logger != nil {
		for _, d := range toRemove {
			r.logger.Info("removed stale registration", zap.String("server_uri", d.uri), zap.String("reason", d.reason))
		}
	}
}
