package sagakit

import (
	"github.com/tidwall/btree"
)

// Context is the mutable key/value state threaded through a saga execution.
// Steps accumulate their outputs here: keys are only added or overwritten
// during forward execution, never deleted.
//
// A Context belongs to exactly one execution at a time. Two concurrent
// executions must never share an instance; the orchestrator mutates it
// without locking because access is strictly sequential.
type Context struct {
	values *btree.Map[string, any]
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{values: btree.NewMap[string, any](8)}
}

// NewContextFrom creates a Context seeded with the given values.
func NewContextFrom(values map[string]any) *Context {
	c := NewContext()
	c.Merge(values)
	return c
}

// Set stores a single value.
func (c *Context) Set(key string, value any) {
	c.values.Set(key, value)
}

// Get returns the value for key, if present.
func (c *Context) Get(key string) (any, bool) {
	return c.values.Get(key)
}

// Has reports whether key is present.
func (c *Context) Has(key string) bool {
	_, ok := c.values.Get(key)
	return ok
}

// Merge shallowly assigns every entry of values into the context.
// Existing keys are overwritten, new keys are added.
func (c *Context) Merge(values map[string]any) {
	for k, v := range values {
		c.values.Set(k, v)
	}
}

// Snapshot returns an independent copy of the context as it is right now.
// The copy is cheap (copy-on-write) and is what compensation entries record
// so that each undo sees the state its step completed under.
func (c *Context) Snapshot() *Context {
	return &Context{values: c.values.Copy()}
}

// Len returns the number of keys.
func (c *Context) Len() int {
	return c.values.Len()
}

// Keys returns all keys in sorted order.
func (c *Context) Keys() []string {
	return c.values.Keys()
}

// AsMap copies the context into a plain map.
func (c *Context) AsMap() map[string]any {
	out := make(map[string]any, c.values.Len())
	c.values.Scan(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}

// ValueAs retrieves a context value with a type assertion.
// Returns the zero value and false if the key is absent or of another type.
func ValueAs[T any](c *Context, key string) (T, bool) {
	var zero T
	value, ok := c.values.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
