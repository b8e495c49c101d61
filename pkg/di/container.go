package di

import (
	"sync"
)

// Container holds configuration values registered at bootstrap time and
// resolved back out through a request context, so handlers read config via
// contextx.DI(ctx) instead of taking a *config.Config argument directly.
type Container struct {
	mu      sync.RWMutex
	configs map[string]interface{}
}

// New creates a new DI container.
func New() *Container {
	return &Container{
		configs: make(map[string]interface{}),
	}
}

// RegisterConfig registers a configuration value.
func (c *Container) RegisterConfig(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs[key] = value
}

// GetConfig retrieves a configuration value.
func (c *Container) GetConfig(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.configs[key]
	return value, ok
}

// GetString retrieves the configuration value as a string.
func (c *Container) GetString(key string) (string, bool) {
	v, ok := c.GetConfig(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt retrieves the configuration value as an int.
func (c *Container) GetInt(key string) (int, bool) {
	v, ok := c.GetConfig(key)
	if !ok {
		return 0, false
	}
	i, ok := v.(int)
	return i, ok
}

// GetBool retrieves the configuration value as a bool.
func (c *Container) GetBool(key string) (bool, bool) {
	v, ok := c.GetConfig(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
