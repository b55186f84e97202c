package filter

import (
	"fmt"
	"slices"
	"sync"
)

// Manager keeps named filters, typically the presets from the configuration file
type Manager struct {
	compiler *Compiler
	filters  map[string]*Filter
	mu       sync.RWMutex
}

// NewManager creates a new filter manager sharing one caching compiler
func NewManager() *Manager {
	return &Manager{
		compiler: NewCompiler(WithCache(100)),
		filters:  make(map[string]*Filter),
	}
}

// Compile compiles an ad-hoc expression with the manager's compiler
func (m *Manager) Compile(expression string) (*Filter, error) {
	return m.compiler.Compile(expression)
}

// RegisterFilter registers a new filter or updates an existing one
func (m *Manager) RegisterFilter(name, expression string) error {
	filter, err := m.compiler.Compile(expression)
	if err != nil {
		return fmt.Errorf("failed to compile filter '%s': %w", name, err)
	}

	m.mu.Lock()
	m.filters[name] = filter
	m.mu.Unlock()

	return nil
}

// RegisterFilters registers multiple filters, stopping at the first invalid one
func (m *Manager) RegisterFilters(filters map[string]string) error {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := m.RegisterFilter(name, filters[name]); err != nil {
			return err
		}
	}
	return nil
}

// GetFilter retrieves a registered filter
func (m *Manager) GetFilter(name string) (*Filter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filter, ok := m.filters[name]
	return filter, ok
}

// ListFilters returns the registered filter names, sorted
func (m *Manager) ListFilters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.filters))
	for name := range m.filters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve picks the filter for a command: an explicit expression wins over a
// preset name, and neither yields a nil filter.
func (m *Manager) Resolve(expression, preset string) (*Filter, error) {
	if expression != "" {
		return m.Compile(expression)
	}
	if preset != "" {
		filter, ok := m.GetFilter(preset)
		if !ok {
			return nil, fmt.Errorf("%w: preset '%s' not found in config", ErrUnknownPreset, preset)
		}
		return filter, nil
	}
	return nil, nil
}
