package server

import (
	"fmt"
	"sort"
	"sync"
)

// runners holds the graphs a server can run, by name.
// It is read on every request and written only while the server is built.
type runners struct {
	mu      sync.RWMutex
	entries map[string]Runner
	order   []string
}

func newRunners() *runners {
	return &runners{entries: make(map[string]Runner)}
}

// register adds r under its name. The first runner registered is the
// default one.
func (rs *runners) register(r Runner) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	name := r.Name()
	if name == "" {
		return fmt.Errorf("server: runner without a name")
	}
	if _, ok := rs.entries[name]; ok {
		return fmt.Errorf("server: graph %q registered twice", name)
	}
	rs.entries[name] = r
	rs.order = append(rs.order, name)
	return nil
}

func (rs *runners) get(name string) (Runner, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	r, ok := rs.entries[name]
	return r, ok
}

// defaultRunner returns the first registered runner.
func (rs *runners) defaultRunner() Runner {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if len(rs.order) == 0 {
		return nil
	}
	return rs.entries[rs.order[0]]
}

// names returns the registered graph names, sorted.
func (rs *runners) names() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := append([]string(nil), rs.order...)
	sort.Strings(out)
	return out
}
