// ABOUTME: Driver registry for enumeration and selection
// ABOUTME: Holds driver factories by name and tracks the currently loaded driver
package asio

import (
	"fmt"
	"log"
	"sync"
)

// Factory constructs a driver instance when it is selected
type Factory func() (Driver, error)

// Registry enumerates available drivers and holds at most one loaded driver
type Registry struct {
	mu        sync.Mutex
	names     []string
	factories map[string]Factory

	current     Driver
	currentName string
}

// NewRegistry creates an empty driver registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a driver under name. Registering an existing name
// replaces its factory but keeps its position.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		r.names = append(r.names, name)
	}
	r.factories[name] = factory
}

// Names returns registered driver names in registration order, each cut
// to fit a MaxDriverNameLength slot. max limits the count when > 0.
func (r *Registry) Names(max int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.names)
	if max > 0 && max < n {
		n = max
	}

	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = TruncateName(r.names[i], MaxDriverNameLength-1)
	}
	return names
}

// Load selects the named driver. A name cut by Names is accepted as long
// as it is unambiguous. Loading the name that is already current reuses
// the existing instance; loading another removes the current one first.
func (r *Registry) Load(name string) (Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	full, ok := r.resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}

	if r.current != nil {
		if r.currentName == full {
			return r.current, nil
		}
		log.Printf("Replacing loaded driver %s with %s", r.currentName, full)
		r.current = nil
		r.currentName = ""
	}

	drv, err := r.factories[full]()
	if err != nil {
		return nil, fmt.Errorf("failed to load driver %s: %w", full, err)
	}

	r.current = drv
	r.currentName = full
	log.Printf("Driver loaded: %s", full)
	return drv, nil
}

// Current returns the loaded driver, if any
func (r *Registry) Current() (Driver, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.currentName, r.current != nil
}

// RemoveCurrent forgets the loaded driver
func (r *Registry) RemoveCurrent() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		log.Printf("Driver removed: %s", r.currentName)
	}
	r.current = nil
	r.currentName = ""
}

// resolve must be called with r.mu held
func (r *Registry) resolve(name string) (string, bool) {
	if _, ok := r.factories[name]; ok {
		return name, true
	}

	match := ""
	for _, n := range r.names {
		if TruncateName(n, MaxDriverNameLength-1) == name {
			if match != "" {
				return "", false
			}
			match = n
		}
	}
	return match, match != ""
}

// TruncateName cuts s to at most max bytes without splitting a rune.
// Driver and channel names are cut to fit their fixed slots.
func TruncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
