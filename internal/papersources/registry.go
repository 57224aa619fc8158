package papersources

import (
	"fmt"
	"sort"
	"sync"

	"github.com/helixir/literature-retrieval-service/internal/domain"
)

// Registry holds the available retrieval strategies by name.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	retrievers map[string]Retriever
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		retrievers: make(map[string]Retriever),
	}
}

// Register adds a retriever under its Name.
// A retriever with the same name is replaced.
func (r *Registry) Register(retriever Retriever) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retrievers[retriever.Name()] = retriever
}

// Get returns the retriever registered under name, or nil.
func (r *Registry) Get(name string) Retriever {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.retrievers[name]
}

// Select returns the retriever registered under name, or an error wrapping
// domain.ErrUnknownStrategy.
func (r *Registry) Select(name string) (Retriever, error) {
	if retriever := r.Get(name); retriever != nil {
		return retriever, nil
	}
	return nil, fmt.Errorf("%w: %q (registered: %v)", domain.ErrUnknownStrategy, name, r.Names())
}

// Names returns the registered strategy names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.retrievers))
	for name := range r.retrievers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
