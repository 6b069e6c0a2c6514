package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/groundworklabs/groundwork/internal/logger"
	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

// Registry maps step types to their plugin implementations.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	logger  *logger.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		logger:  log,
	}
}

// Register adds a plugin. Registering two plugins for the same step type is
// a programming error and fails loudly.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return gwerrors.NewPluginError("", fmt.Errorf("plugin is nil"))
	}

	meta := p.Metadata()
	if meta.Type == "" {
		return gwerrors.NewPluginError(meta.Name, fmt.Errorf("plugin metadata missing step type"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[meta.Type]; exists {
		return gwerrors.NewPluginError(meta.Type, fmt.Errorf("plugin for step type %q already registered", meta.Type))
	}

	r.plugins[meta.Type] = p
	if r.logger != nil {
		r.logger.Debug(fmt.Sprintf("registered plugin %s for step type %s", meta.Name, meta.Type))
	}
	return nil
}

// Get retrieves the plugin serving the given step type.
func (r *Registry) Get(stepType string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[stepType]
	if !ok {
		return nil, gwerrors.NewPluginError(stepType, fmt.Errorf("no plugin registered for step type %q", stepType))
	}
	return p, nil
}

// List returns the registered step types in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.plugins))
	for t := range r.plugins {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
