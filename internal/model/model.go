package model

// Model is the parsed description of a home: its entities, the REST
// sources polled for outside data, and the automations that act on both.
//
// The same types are read from YAML (LoadFile) and stored as JSON in the
// SQLite repository, so every field carries both tags.
type Model struct {
	Entities    []Entity     `yaml:"entities" json:"entities"`
	RESTSources []RESTSource `yaml:"rest_sources" json:"rest_sources"`
	Automations []Automation `yaml:"automations" json:"automations"`
}

// Entity declares a device and its attributes with their initial values.
type Entity struct {
	Name  string `yaml:"name" json:"name"`
	Topic string `yaml:"topic,omitempty" json:"topic,omitempty"`
	// Attributes maps attribute name to initial value.
	Attributes map[string]any `yaml:"attributes" json:"attributes"`
}

// RESTSource declares a polled REST endpoint and the fields taken from it.
type RESTSource struct {
	Name    string            `yaml:"name" json:"name"`
	URL     string            `yaml:"url" json:"url"`
	Method  string            `yaml:"method,omitempty" json:"method,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Params  map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
	Body    any               `yaml:"body,omitempty" json:"body,omitempty"`
	Auth    *Auth             `yaml:"auth,omitempty" json:"auth,omitempty"`

	// Timeout and Interval are in seconds. Zero uses the configured default.
	Timeout  float64 `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Interval float64 `yaml:"interval,omitempty" json:"interval,omitempty"`

	Mappings []Mapping `yaml:"mappings" json:"mappings"`
}

// Auth holds REST credentials. Type is none, apikey, bearer or basic.
type Auth struct {
	Type     string `yaml:"type" json:"type"`
	Header   string `yaml:"header,omitempty" json:"header,omitempty"`
	Key      string `yaml:"key,omitempty" json:"key,omitempty"`
	Token    string `yaml:"token,omitempty" json:"token,omitempty"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Mapping names one field extracted from a REST response.
type Mapping struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// Automation declares one rule.
type Automation struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Condition   Condition `yaml:"condition" json:"condition"`

	// Frequency in Hz. Zero means 1 Hz.
	Frequency float64 `yaml:"freq,omitempty" json:"freq,omitempty"`
	// Enabled and Continuous default to true when omitted.
	Enabled    *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Continuous *bool `yaml:"continuous,omitempty" json:"continuous,omitempty"`
	CheckOnce  bool  `yaml:"check_once,omitempty" json:"check_once,omitempty"`
	// Delay is slept once, in seconds, before the first evaluation.
	Delay float64 `yaml:"delay,omitempty" json:"delay,omitempty"`

	After  []string `yaml:"after,omitempty" json:"after,omitempty"`
	Starts []string `yaml:"starts,omitempty" json:"starts,omitempty"`
	Stops  []string `yaml:"stops,omitempty" json:"stops,omitempty"`

	// Steps takes precedence over Actions when both are set.
	Steps   []Step   `yaml:"steps,omitempty" json:"steps,omitempty"`
	Actions []Action `yaml:"actions,omitempty" json:"actions,omitempty"`
}

// Condition is one node of a condition tree. Exactly one shape is used:
//
//   - comparison: Left Op Right
//   - group: Op is a boolean combinator and Of holds two sub-conditions
//   - range: InRange is set
type Condition struct {
	Left    *Operand    `yaml:"left,omitempty" json:"left,omitempty"`
	Op      string      `yaml:"op,omitempty" json:"op,omitempty"`
	Right   *Operand    `yaml:"right,omitempty" json:"right,omitempty"`
	Of      []Condition `yaml:"of,omitempty" json:"of,omitempty"`
	InRange *InRange    `yaml:"in_range,omitempty" json:"in_range,omitempty"`
}

// InRange holds when Min < Value < Max.
type InRange struct {
	Value Operand `yaml:"value" json:"value"`
	Min   Operand `yaml:"min" json:"min"`
	Max   Operand `yaml:"max" json:"max"`
}

// Operand is a literal, a reference, an aggregate or a helper call.
// Exactly one field is set.
type Operand struct {
	// Value is a literal. It is a pointer so that false, 0 and "" survive
	// the JSON round trip.
	Value *any `yaml:"value,omitempty" json:"value,omitempty"`
	// Ref is "entity.attribute", "$Source.field" or a context variable name.
	Ref       string     `yaml:"ref,omitempty" json:"ref,omitempty"`
	Aggregate *Aggregate `yaml:"aggregate,omitempty" json:"aggregate,omitempty"`
	Call      *Call      `yaml:"call,omitempty" json:"call,omitempty"`
}

// Aggregate reduces the last Size samples of an attribute.
type Aggregate struct {
	Func      string `yaml:"func" json:"func"`
	Entity    string `yaml:"entity" json:"entity"`
	Attribute string `yaml:"attribute" json:"attribute"`
	Size      int    `yaml:"size" json:"size"`
}

// Call applies a helper (min, max) to its arguments.
type Call struct {
	Func string    `yaml:"func" json:"func"`
	Args []Operand `yaml:"args" json:"args"`
}

// Action sets one attribute. Expr, when set, is evaluated at run time and
// replaces Value.
type Action struct {
	Entity    string `yaml:"entity" json:"entity"`
	Attribute string `yaml:"attribute" json:"attribute"`
	Value     any    `yaml:"value" json:"value"`
	Expr      string `yaml:"expr,omitempty" json:"expr,omitempty"`
}

// Step is one pipeline instruction. Exactly one field is set.
type Step struct {
	Delay   *Delay   `yaml:"delay,omitempty" json:"delay,omitempty"`
	Compute *Compute `yaml:"compute,omitempty" json:"compute,omitempty"`
	Action  *Action  `yaml:"action,omitempty" json:"action,omitempty"`
	Switch  *Switch  `yaml:"switch,omitempty" json:"switch,omitempty"`
}

// Delay pauses the pipeline. Millis wins over Seconds when set.
type Delay struct {
	Seconds float64 `yaml:"seconds,omitempty" json:"seconds,omitempty"`
	Millis  float64 `yaml:"ms,omitempty" json:"ms,omitempty"`
}

// Compute binds Name to the value of the math expression Expr.
type Compute struct {
	Name string `yaml:"name" json:"name"`
	Expr string `yaml:"expr" json:"expr"`
}

// Switch runs the first case whose condition holds, else Default.
type Switch struct {
	Cases   []Case `yaml:"cases" json:"cases"`
	Default []Step `yaml:"default,omitempty" json:"default,omitempty"`
}

// Case is one guarded branch of a Switch.
type Case struct {
	When  Condition `yaml:"when" json:"when"`
	Steps []Step    `yaml:"steps" json:"steps"`
}
