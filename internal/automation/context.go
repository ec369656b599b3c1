package automation

// ExecutionContext holds the variables bound by Compute steps during one
// triggered run. It is created fresh per trigger, owned by the automation's
// goroutine and discarded when the pipeline ends, so it carries no lock.
type ExecutionContext struct {
	names  []string
	values map[string]any
}

// NewExecutionContext creates an empty context.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{values: make(map[string]any)}
}

// Set binds name to v. Rebinding keeps the original position.
func (c *ExecutionContext) Set(name string, v any) {
	if _, ok := c.values[name]; !ok {
		c.names = append(c.names, name)
	}
	c.values[name] = v
}

// Get returns the value bound to name.
func (c *ExecutionContext) Get(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Names returns bound names in first-binding order.
func (c *ExecutionContext) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of bound names.
func (c *ExecutionContext) Len() int {
	return len(c.names)
}

// vars exposes the bindings to an evaluation scope without copying.
func (c *ExecutionContext) vars() map[string]any {
	return c.values
}
