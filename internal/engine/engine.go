// Package engine defines the machine-translation collaborator and a
// startup-time registry of named implementations.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Result is one per-item outcome of a batch call. A non-empty Err means
// the item failed; Retryable distinguishes transient engine trouble from
// permanent rejections.
type Result struct {
	Text      string
	Err       string
	Retryable bool
}

func (r Result) OK() bool { return r.Err == "" }

// TranslationEngine translates a batch of texts for one language pair.
// Implementations MUST return exactly one result per input text, in input
// order; callers treat any other shape as a contract violation and abort
// the batch.
type TranslationEngine interface {
	TranslateBatch(ctx context.Context, texts []string, targetLang, sourceLang string) ([]Result, error)
	Name() string
	Version() string
}

// Registry maps configured engine names to implementations. Registration
// happens during wiring; lookups after that are read-only.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]TranslationEngine
}

func NewRegistry() *Registry {
	return &Registry{engines: map[string]TranslationEngine{}}
}

func (r *Registry) Register(e TranslationEngine) error {
	if e == nil || e.Name() == "" {
		return fmt.Errorf("engine with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engines[e.Name()]; exists {
		return fmt.Errorf("engine %q already registered", e.Name())
	}
	r.engines[e.Name()] = e
	return nil
}

func (r *Registry) Get(name string) (TranslationEngine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	return e, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
