package automation

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-rules/internal/condition"
	"github.com/nerrad567/gray-logic-rules/internal/mathexpr"
	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// newRunner builds a runner over fan/ac/sensor entities with a recorded
// sleep and a metrics counter.
func newRunner(t *testing.T) (*runner, *mockPublisher, *mockMetrics, *[]time.Duration) {
	t.Helper()
	pub := newMockPublisher()
	ents := newEntities(t, pub, map[string]map[string]any{
		"sensor": {"temp": 29.0, "on": true},
		"fan":    {"speed": 0},
		"ac":     {"power": false},
	})
	m := newMockMetrics()
	var slept []time.Duration
	r := &runner{
		automation: "test",
		runID:      "run-1",
		entities:   ents,
		scope:      scope.Scope{Entities: ents, Rest: mockValues{"Weather.temp": 31.0}},
		vars:       NewExecutionContext(),
		logger:     noopLogger{},
		metrics:    m,
		sleep:      func(d time.Duration) { slept = append(slept, d) },
	}
	return r, pub, m, &slept
}

func varRef(name string) condition.Operand {
	return condition.Ref{Ref: scope.VarRef{Name: name}}
}

func setFan(speed int) Action {
	return Action{Entity: "fan", Attribute: "speed", Value: speed}
}

func TestRunner_Delay(t *testing.T) {
	r, _, _, slept := newRunner(t)

	err := r.run(context.Background(), []Step{
		Delay{Duration: 2 * time.Second},
		Delay{Duration: 0},
		Delay{Duration: 150 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []time.Duration{2 * time.Second, 150 * time.Millisecond}
	if !reflect.DeepEqual(*slept, want) {
		t.Errorf("slept = %v, want %v", *slept, want)
	}
	if r.executed != 3 {
		t.Errorf("executed = %d, want 3", r.executed)
	}
}

func TestRunner_Compute(t *testing.T) {
	r, _, m, _ := newRunner(t)

	err := r.run(context.Background(), []Step{
		Compute{Name: "avg", Expr: mathexpr.MustParse("(sensor.temp + $Weather.temp) / 2")},
		Compute{Name: "double", Expr: mathexpr.MustParse("avg * 2")},
		Compute{Name: "broken", Expr: mathexpr.MustParse("sensor.missing + 1")},
		Compute{Name: "divzero", Expr: mathexpr.MustParse("avg / 0")},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if v, _ := r.vars.Get("avg"); v != 30.0 {
		t.Errorf("avg = %v, want 30", v)
	}
	if v, _ := r.vars.Get("double"); v != 60.0 {
		t.Errorf("double = %v, want 60", v)
	}
	if _, ok := r.vars.Get("broken"); ok {
		t.Error("broken is bound after a failed compute")
	}
	if _, ok := r.vars.Get("divzero"); ok {
		t.Error("divzero is bound after division by zero")
	}
	if got := m.get(m.compErrs, "test"); got != 2 {
		t.Errorf("compute error metric = %d, want 2", got)
	}
	if names := r.vars.Names(); !reflect.DeepEqual(names, []string{"avg", "double"}) {
		t.Errorf("Names() = %v, want [avg double]", names)
	}
}

func TestRunner_ActionsPublishIndividually(t *testing.T) {
	r, pub, _, _ := newRunner(t)

	err := r.run(context.Background(), []Step{
		setFan(1),
		Action{Entity: "ac", Attribute: "power", Value: true},
		setFan(2),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	msgs := pub.getMessages()
	if len(msgs) != 3 {
		t.Fatalf("got %d publishes, want 3 (one per action)", len(msgs))
	}
	want := []published{
		{Entity: "fan", Msg: map[string]any{"speed": 1}},
		{Entity: "ac", Msg: map[string]any{"power": true}},
		{Entity: "fan", Msg: map[string]any{"speed": 2}},
	}
	if !reflect.DeepEqual(msgs, want) {
		t.Errorf("publishes = %+v, want %+v", msgs, want)
	}
	if r.published != 3 {
		t.Errorf("published = %d, want 3", r.published)
	}
}

func TestRunner_ActionExpression(t *testing.T) {
	r, pub, m, _ := newRunner(t)

	err := r.run(context.Background(), []Step{
		Compute{Name: "target", Expr: mathexpr.MustParse("sensor.temp - 4")},
		Action{Entity: "fan", Attribute: "speed", Expr: mathexpr.MustParse("target / 5")},
		Action{Entity: "fan", Attribute: "speed", Expr: mathexpr.MustParse("unbound + 1")},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	msgs := pub.getMessages()
	if len(msgs) != 1 {
		t.Fatalf("got %d publishes, want 1 (failed expression skips publish)", len(msgs))
	}
	if msgs[0].Msg["speed"] != 5.0 {
		t.Errorf("speed = %v, want 5", msgs[0].Msg["speed"])
	}
	if got := m.get(m.compErrs, "test"); got != 1 {
		t.Errorf("compute error metric = %d, want 1", got)
	}
}

func TestRunner_ActionUnknownEntity(t *testing.T) {
	r, _, _, _ := newRunner(t)

	err := r.run(context.Background(), []Step{
		Action{Entity: "heater", Attribute: "on", Value: true},
		setFan(3),
	})
	if !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("run error = %v, want ErrUnknownEntity", err)
	}
}

func TestRunner_ActionPublishFailure(t *testing.T) {
	r, pub, _, _ := newRunner(t)
	pub.failOn = "fan"

	err := r.run(context.Background(), []Step{setFan(3), Action{Entity: "ac", Attribute: "power", Value: true}})
	if err == nil {
		t.Fatal("run succeeded despite publish failure")
	}
	if n := pub.count("ac"); n != 0 {
		t.Errorf("steps after the failure ran: ac publishes = %d", n)
	}
}

func TestRunner_Switch(t *testing.T) {
	ge := func(name string, v float64) *condition.Condition {
		return compile(t, condition.Compare{Left: varRef(name), Op: condition.OpGte, Right: lit(v)}, nil)
	}

	tests := []struct {
		name  string
		value float64
		want  []any // fan speeds published, in order
	}{
		{"first case wins over a later match", 35, []any{3}},
		{"second case", 28.5, []any{2}},
		{"default once", 10, []any{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, pub, _, _ := newRunner(t)
			r.vars.Set("x", tt.value)

			err := r.run(context.Background(), []Step{Switch{
				Cases: []Case{
					{When: ge("x", 30), Steps: []Step{setFan(3)}},
					{When: ge("x", 20), Steps: []Step{setFan(2)}},
				},
				Default: []Step{setFan(1)},
			}})
			if err != nil {
				t.Fatalf("run: %v", err)
			}

			var got []any
			for _, p := range pub.getMessages() {
				got = append(got, p.Msg["speed"])
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("published speeds = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunner_SwitchGuardErrorIsFalse(t *testing.T) {
	r, pub, _, _ := newRunner(t)

	err := r.run(context.Background(), []Step{Switch{
		Cases: []Case{
			{
				When:  compile(t, condition.Compare{Left: varRef("missing"), Op: condition.OpGt, Right: lit(0)}, nil),
				Steps: []Step{setFan(3)},
			},
			{
				When:  compile(t, condition.Compare{Left: attr("sensor", "on"), Op: condition.OpEq, Right: lit(true)}, nil),
				Steps: []Step{setFan(2)},
			},
		},
		Default: []Step{setFan(1)},
	}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	msgs := pub.getMessages()
	if len(msgs) != 1 || msgs[0].Msg["speed"] != 2 {
		t.Errorf("publishes = %+v, want only fan{speed:2}", msgs)
	}
}

func TestRunner_SwitchSeesComputedValues(t *testing.T) {
	r, pub, _, _ := newRunner(t)

	err := r.run(context.Background(), []Step{
		Compute{Name: "level", Expr: mathexpr.MustParse("4 * 2")},
		Switch{
			Cases: []Case{{
				When:  compile(t, condition.Compare{Left: varRef("level"), Op: condition.OpEq, Right: lit(8)}, nil),
				Steps: []Step{setFan(8)},
			}},
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := pub.count("fan"); n != 1 {
		t.Errorf("fan publishes = %d, want 1", n)
	}
}

func TestRunner_EmptyDefault(t *testing.T) {
	r, pub, _, _ := newRunner(t)

	err := r.run(context.Background(), []Step{Switch{
		Cases: []Case{{
			When:  compile(t, condition.Compare{Left: attr("sensor", "on"), Op: condition.OpEq, Right: lit(false)}, nil),
			Steps: []Step{setFan(3)},
		}},
	}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(pub.getMessages()); n != 0 {
		t.Errorf("got %d publishes, want 0", n)
	}
}

func TestRunner_Idempotent(t *testing.T) {
	steps := []Step{
		Compute{Name: "avg", Expr: mathexpr.MustParse("(sensor.temp + $Weather.temp) / 2")},
		Compute{Name: "scaled", Expr: mathexpr.MustParse("avg * 1.5 - 3")},
		Action{Entity: "fan", Attribute: "speed", Expr: mathexpr.MustParse("scaled / 10")},
	}

	snapshot := func() (map[string]any, []published) {
		r, pub, _, _ := newRunner(t)
		if err := r.run(context.Background(), steps); err != nil {
			t.Fatalf("run: %v", err)
		}
		out := make(map[string]any)
		for _, n := range r.vars.Names() {
			out[n], _ = r.vars.Get(n)
		}
		return out, pub.getMessages()
	}

	vars1, msgs1 := snapshot()
	vars2, msgs2 := snapshot()
	if !reflect.DeepEqual(vars1, vars2) {
		t.Errorf("context differs between runs: %v vs %v", vars1, vars2)
	}
	if !reflect.DeepEqual(msgs1, msgs2) {
		t.Errorf("publishes differ between runs: %v vs %v", msgs1, msgs2)
	}
}

func TestExecutionContext(t *testing.T) {
	c := NewExecutionContext()
	c.Set("a", 1.0)
	c.Set("b", 2.0)
	c.Set("a", 3.0)

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if v, _ := c.Get("a"); v != 3.0 {
		t.Errorf("Get(a) = %v, want 3", v)
	}
	if names := c.Names(); !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Errorf("Names() = %v, want [a b]", names)
	}
	if _, ok := c.Get("c"); ok {
		t.Error("Get(c) reported an unbound name")
	}
}

func TestStep_Kind(t *testing.T) {
	tests := []struct {
		step Step
		want string
	}{
		{Delay{}, KindDelay},
		{Compute{}, KindCompute},
		{Action{}, KindAction},
		{Switch{}, KindSwitch},
	}
	for _, tt := range tests {
		if got := tt.step.Kind(); got != tt.want {
			t.Errorf("%T.Kind() = %q, want %q", tt.step, got, tt.want)
		}
	}
}
