package adapter

import (
	"context"
	"sort"
	"sync"
)

// Registry manages the registration and retrieval of database adapters,
// keyed by driver name.
type Registry struct {
	adapters map[string]DatabaseAdapter
	mu       sync.RWMutex
}

// NewRegistry creates a new adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]DatabaseAdapter),
	}
}

// Register registers a database adapter.
// If an adapter with the same name is already registered, it will be replaced.
func (r *Registry) Register(adapter DatabaseAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters[adapter.Name()] = adapter
}

// Get retrieves a registered adapter by driver name.
// Returns a DriverImportError if the adapter is not registered.
func (r *Registry) Get(driver string) (DatabaseAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[driver]
	if !exists {
		return nil, NewDriverImportError("", driver)
	}

	return adapter, nil
}

// IsRegistered checks if an adapter is registered for the given driver name.
func (r *Registry) IsRegistered(driver string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.adapters[driver]
	return exists
}

// ListRegistered returns the sorted names of all registered drivers.
func (r *Registry) ListRegistered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Unregister removes an adapter from the registry.
func (r *Registry) Unregister(driver string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.adapters, driver)
}

// Clear removes all adapters from the registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters = make(map[string]DatabaseAdapter)
}

// Connect creates a new database connection using the adapter registered
// for config.Driver. Native failures are returned as ConnectionError.
func (r *Registry) Connect(ctx context.Context, config ConnectionConfig) (Connection, error) {
	adapter, err := r.Get(config.Driver)
	if err != nil {
		return nil, NewDriverImportError(config.DatabaseID, config.Driver)
	}

	conn, err := adapter.Connect(ctx, config)
	if err != nil {
		if IsConnectionError(err) || IsConfigurationError(err) {
			return nil, err
		}
		return nil, NewConnectionError(config.DatabaseType, config.Host, config.Port, err)
	}

	return conn, nil
}

// globalRegistry is the default global adapter registry.
var globalRegistry = NewRegistry()

// Register registers an adapter in the global registry.
func Register(adapter DatabaseAdapter) {
	globalRegistry.Register(adapter)
}

// Get retrieves an adapter from the global registry.
func Get(driver string) (DatabaseAdapter, error) {
	return globalRegistry.Get(driver)
}

// IsRegistered checks if an adapter is registered in the global registry.
func IsRegistered(driver string) bool {
	return globalRegistry.IsRegistered(driver)
}

// ListRegistered returns all registered driver names from the global registry.
func ListRegistered() []string {
	return globalRegistry.ListRegistered()
}

// GlobalRegistry returns the global adapter registry.
func GlobalRegistry() *Registry {
	return globalRegistry
}
