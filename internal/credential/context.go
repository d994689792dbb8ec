package credential

import (
	"sync"

	"github.com/n1/credkit/internal/secretstore"
)

// Context carries settings shared by every query that does not override
// them. It is safe for concurrent use.
type Context struct {
	mu            sync.RWMutex
	accessibility secretstore.Accessibility
}

// NewContext returns a Context whose default accessibility is token.
func NewContext(token secretstore.Accessibility) *Context {
	return &Context{accessibility: token}
}

// DefaultContext is used by the package-level functions and by queries
// created without an explicit Context.
var DefaultContext = NewContext("")

// Accessibility returns the default accessibility token. Empty means the
// store's own default.
func (c *Context) Accessibility() secretstore.Accessibility {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessibility
}

// SetAccessibility changes the default for queries saved from now on.
func (c *Context) SetAccessibility(token secretstore.Accessibility) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessibility = token
}
