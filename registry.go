package vkcapture

import (
	"sync"
)

// DriverNative is the name under which the vkdriver subpackage registers
// the production Vulkan driver.
const DriverNative = "native"

// registry holds registered drivers.
var (
	registryMu sync.RWMutex
	drivers    = make(map[string]Driver)
	// Priority order for driver selection (first available wins).
	driverPriority = []string{DriverNative}
)

// RegisterDriver registers a driver under the given name.
// This is typically called from init() functions in driver packages.
// If a driver with the same name is already registered, it is replaced.
func RegisterDriver(name string, d Driver) {
	registryMu.Lock()
	defer registryMu.Unlock()
	drivers[name] = d
}

// UnregisterDriver removes a driver from the registry.
// This is useful for testing.
func UnregisterDriver(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(drivers, name)
}

// AvailableDrivers returns a list of registered driver names.
func AvailableDrivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}

// DefaultDriver returns the best available driver based on priority.
// Returns nil if no drivers are registered.
func DefaultDriver() Driver {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range driverPriority {
		if d, ok := drivers[name]; ok && d != nil {
			return d
		}
	}

	// Fallback: return first available
	for _, d := range drivers {
		if d != nil {
			return d
		}
	}

	return nil
}
