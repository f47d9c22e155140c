package state

import (
	"sync"
	"time"
)

// Noisy system_status fields that change on every frame and would
// churn the merged view for no benefit.
var systemSkipKeys = map[string]bool{
	"message":   true,
	"metrics":   true,
	"timestamp": true,
}

// Connection tracks whether the push channel is open, the effective
// poll interval, and the last merged system status.
type Connection struct {
	mu           sync.RWMutex
	connected    bool
	pollInterval time.Duration
	system       map[string]any
}

func NewConnection(pollInterval time.Duration) *Connection {
	return &Connection{
		pollInterval: pollInterval,
		system:       make(map[string]any),
	}
}

func (c *Connection) SetConnected(connected bool) {
	c.mu.Lock()
	c.connected = connected
	c.mu.Unlock()
}

func (c *Connection) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SetPollInterval updates the effective interval. Non-positive values
// are ignored so a bad config can never stall the scheduler.
func (c *Connection) SetPollInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.pollInterval = d
	c.mu.Unlock()
}

func (c *Connection) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pollInterval
}

// MergeSystem shallow-merges system status fields into the stored
// view, skipping free-text and per-frame noise keys.
func (c *Connection) MergeSystem(fields map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range fields {
		if systemSkipKeys[k] {
			continue
		}
		c.system[k] = v
	}
}

// System returns a copy of the merged system status.
func (c *Connection) System() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := make(map[string]any, len(c.system))
	for k, v := range c.system {
		cp[k] = v
	}
	return cp
}
