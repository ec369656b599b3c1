package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-rules/internal/automation"
	"github.com/nerrad567/gray-logic-rules/internal/condition"
	"github.com/nerrad567/gray-logic-rules/internal/entity"
	"github.com/nerrad567/gray-logic-rules/internal/mathexpr"
	"github.com/nerrad567/gray-logic-rules/internal/rest"
	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// Runtime is a model compiled into live objects.
type Runtime struct {
	Entities    *entity.Registry
	Sources     []rest.Source
	Automations []*automation.Automation
}

// Build compiles m. Any unsupported condition operator, operand or step
// kind fails the whole build.
//
// Defaults applied:
//   - automation frequency 0 → 1 Hz
//   - enabled and continuous → true when omitted
//   - REST method → GET
func Build(m *Model) (*Runtime, error) {
	b := &builder{
		entities: entity.NewRegistry(),
		declared: make(map[string]map[string]bool, len(m.Entities)),
	}

	for _, e := range m.Entities {
		if err := b.entity(e); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(m.RESTSources))
	sources := make([]rest.Source, 0, len(m.RESTSources))
	for _, s := range m.RESTSources {
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: REST source %s", ErrDuplicateName, s.Name)
		}
		seen[s.Name] = true

		src, err := restSource(s)
		if err != nil {
			return nil, fmt.Errorf("REST source %s: %w", s.Name, err)
		}
		sources = append(sources, src)
	}

	names := make(map[string]bool, len(m.Automations))
	automations := make([]*automation.Automation, 0, len(m.Automations))
	for _, a := range m.Automations {
		if names[a.Name] {
			return nil, fmt.Errorf("%w: automation %s", ErrDuplicateName, a.Name)
		}
		names[a.Name] = true

		built, err := b.automation(a)
		if err != nil {
			return nil, fmt.Errorf("automation %s: %w", a.Name, err)
		}
		automations = append(automations, built)
	}

	return &Runtime{
		Entities:    b.entities,
		Sources:     sources,
		Automations: automations,
	}, nil
}

type builder struct {
	entities *entity.Registry
	declared map[string]map[string]bool // entity → attribute names
}

func (b *builder) entity(e Entity) error {
	if e.Name == "" {
		return fmt.Errorf("%w: entity without a name", ErrInvalidModel)
	}
	if err := b.entities.Add(entity.New(e.Name, e.Topic, e.Attributes)); err != nil {
		if errors.Is(err, entity.ErrDuplicateEntity) {
			return fmt.Errorf("%w: entity %s", ErrDuplicateName, e.Name)
		}
		return err
	}

	attrs := make(map[string]bool, len(e.Attributes))
	for name := range e.Attributes {
		attrs[name] = true
	}
	b.declared[e.Name] = attrs
	return nil
}

func (b *builder) automation(a Automation) (*automation.Automation, error) {
	cond, err := b.condition(a.Condition)
	if err != nil {
		return nil, fmt.Errorf("condition: %w", err)
	}

	steps, err := b.steps(a.Steps, 0)
	if err != nil {
		return nil, err
	}

	actions := make([]automation.LegacyAction, 0, len(a.Actions))
	for _, act := range a.Actions {
		if err := b.checkTarget(act.Entity, act.Attribute); err != nil {
			return nil, err
		}
		actions = append(actions, automation.LegacyAction{
			Entity:    act.Entity,
			Attribute: act.Attribute,
			Value:     act.Value,
		})
	}

	return automation.New(automation.Definition{
		Name:        a.Name,
		Description: a.Description,
		Condition:   cond,
		Steps:       steps,
		Actions:     actions,
		Frequency:   a.Frequency,
		StartDelay:  seconds(a.Delay),
		Enabled:     boolOr(a.Enabled, true),
		Continuous:  boolOr(a.Continuous, true),
		CheckOnce:   a.CheckOnce,
		After:       a.After,
		Starts:      a.Starts,
		Stops:       a.Stops,
	})
}

// checkTarget verifies an action's entity and attribute are declared.
func (b *builder) checkTarget(ent, attr string) error {
	attrs, ok := b.declared[ent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, ent)
	}
	if !attrs[attr] {
		return fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, ent, attr)
	}
	return nil
}

// ─── Conditions ─────────────────────────────────────────────────────────────

func (b *builder) condition(c Condition) (*condition.Condition, error) {
	n, err := conditionNode(c)
	if err != nil {
		return nil, err
	}
	return condition.Compile(n, b.entities)
}

func conditionNode(c Condition) (condition.Node, error) {
	switch {
	case c.InRange != nil:
		v, err := operand(c.InRange.Value)
		if err != nil {
			return nil, err
		}
		lo, err := operand(c.InRange.Min)
		if err != nil {
			return nil, err
		}
		hi, err := operand(c.InRange.Max)
		if err != nil {
			return nil, err
		}
		return condition.InRange{Value: v, Min: lo, Max: hi}, nil

	case len(c.Of) > 0:
		if len(c.Of) != 2 {
			return nil, fmt.Errorf("%w: %s group needs exactly 2 conditions, got %d", ErrInvalidModel, c.Op, len(c.Of))
		}
		left, err := conditionNode(c.Of[0])
		if err != nil {
			return nil, err
		}
		right, err := conditionNode(c.Of[1])
		if err != nil {
			return nil, err
		}
		return condition.Group{Left: left, Op: condition.Logic(strings.ToUpper(c.Op)), Right: right}, nil

	case c.Left != nil && c.Right != nil:
		left, err := operand(*c.Left)
		if err != nil {
			return nil, err
		}
		right, err := operand(*c.Right)
		if err != nil {
			return nil, err
		}
		return condition.Compare{Left: left, Op: condition.Operator(c.Op), Right: right}, nil

	default:
		return nil, &condition.UnsupportedConstructError{Construct: "condition", Value: describeCondition(c)}
	}
}

func operand(o Operand) (condition.Operand, error) {
	set := 0
	for _, ok := range []bool{o.Value != nil, o.Ref != "", o.Aggregate != nil, o.Call != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, &condition.UnsupportedConstructError{Construct: "operand", Value: fmt.Sprintf("%d kinds set", set)}
	}

	switch {
	case o.Value != nil:
		return condition.Literal{Value: *o.Value}, nil
	case o.Ref != "":
		ref, err := scope.ParseRef(o.Ref)
		if err != nil {
			return nil, err
		}
		return condition.Ref{Ref: ref}, nil
	case o.Aggregate != nil:
		a := o.Aggregate
		return condition.Aggregate{Func: a.Func, Entity: a.Entity, Attribute: a.Attribute, Size: a.Size}, nil
	default:
		args := make([]condition.Operand, 0, len(o.Call.Args))
		for _, arg := range o.Call.Args {
			op, err := operand(arg)
			if err != nil {
				return nil, err
			}
			args = append(args, op)
		}
		return condition.Call{Func: o.Call.Func, Args: args}, nil
	}
}

func describeCondition(c Condition) string {
	switch {
	case c.Left != nil:
		return "comparison without right operand"
	case c.Right != nil:
		return "comparison without left operand"
	case c.Op != "":
		return "operator " + c.Op + " without operands"
	default:
		return "empty condition"
	}
}

// ─── Steps ──────────────────────────────────────────────────────────────────

// maxSwitchDepth bounds nested switches in a descriptor.
const maxSwitchDepth = 16

func (b *builder) steps(steps []Step, depth int) ([]automation.Step, error) {
	if depth > maxSwitchDepth {
		return nil, fmt.Errorf("%w: switch nesting exceeds %d levels", ErrInvalidModel, maxSwitchDepth)
	}
	out := make([]automation.Step, 0, len(steps))
	for i, s := range steps {
		st, err := b.step(s, depth)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		out = append(out, st)
	}
	return out, nil
}

func (b *builder) step(s Step, depth int) (automation.Step, error) {
	var kinds []string
	if s.Delay != nil {
		kinds = append(kinds, automation.KindDelay)
	}
	if s.Compute != nil {
		kinds = append(kinds, automation.KindCompute)
	}
	if s.Action != nil {
		kinds = append(kinds, automation.KindAction)
	}
	if s.Switch != nil {
		kinds = append(kinds, automation.KindSwitch)
	}
	if len(kinds) != 1 {
		value := "empty step"
		if len(kinds) > 1 {
			value = strings.Join(kinds, "+")
		}
		return nil, &automation.UnsupportedConstructError{Construct: "step", Value: value}
	}

	switch kinds[0] {
	case automation.KindDelay:
		d := seconds(s.Delay.Seconds)
		if s.Delay.Millis != 0 {
			d = time.Duration(s.Delay.Millis * float64(time.Millisecond))
		}
		return automation.Delay{Duration: d}, nil

	case automation.KindCompute:
		expr, err := mathexpr.Parse(s.Compute.Expr)
		if err != nil {
			return nil, fmt.Errorf("compute %s: %w", s.Compute.Name, err)
		}
		return automation.Compute{Name: s.Compute.Name, Expr: expr}, nil

	case automation.KindAction:
		a := s.Action
		if err := b.checkTarget(a.Entity, a.Attribute); err != nil {
			return nil, err
		}
		act := automation.Action{Entity: a.Entity, Attribute: a.Attribute, Value: a.Value}
		if a.Expr != "" {
			expr, err := mathexpr.Parse(a.Expr)
			if err != nil {
				return nil, fmt.Errorf("action %s.%s: %w", a.Entity, a.Attribute, err)
			}
			act.Expr = expr
		}
		return act, nil

	default:
		sw := automation.Switch{Cases: make([]automation.Case, 0, len(s.Switch.Cases))}
		for i, c := range s.Switch.Cases {
			when, err := b.condition(c.When)
			if err != nil {
				return nil, fmt.Errorf("switch case %d: %w", i, err)
			}
			steps, err := b.steps(c.Steps, depth+1)
			if err != nil {
				return nil, fmt.Errorf("switch case %d: %w", i, err)
			}
			sw.Cases = append(sw.Cases, automation.Case{When: when, Steps: steps})
		}
		def, err := b.steps(s.Switch.Default, depth+1)
		if err != nil {
			return nil, fmt.Errorf("switch default: %w", err)
		}
		sw.Default = def
		return sw, nil
	}
}

// ─── REST Sources ───────────────────────────────────────────────────────────

var validMappingTypes = map[string]bool{
	"":              true,
	rest.TypeNumber: true,
	rest.TypeString: true,
	rest.TypeBool:   true,
	rest.TypeList:   true,
	rest.TypeDict:   true,
}

func restSource(s RESTSource) (rest.Source, error) {
	if s.Name == "" {
		return rest.Source{}, fmt.Errorf("%w: source without a name", ErrInvalidModel)
	}
	if s.URL == "" {
		return rest.Source{}, fmt.Errorf("%w: url is required", ErrInvalidModel)
	}

	auth, err := restAuth(s.Auth)
	if err != nil {
		return rest.Source{}, err
	}

	method := strings.ToUpper(s.Method)
	if method == "" {
		method = http.MethodGet
	}

	mappings := make([]rest.Mapping, 0, len(s.Mappings))
	for _, m := range s.Mappings {
		if m.Name == "" {
			return rest.Source{}, fmt.Errorf("%w: mapping without a name", ErrInvalidModel)
		}
		typ := strings.ToLower(m.Type)
		if !validMappingTypes[typ] {
			return rest.Source{}, fmt.Errorf("%w: mapping %s: unknown type %q", ErrInvalidModel, m.Name, m.Type)
		}
		mappings = append(mappings, rest.Mapping{Name: m.Name, Path: m.Path, Type: typ})
	}

	return rest.Source{
		Name: s.Name,
		Request: rest.Request{
			URL:     s.URL,
			Method:  method,
			Headers: s.Headers,
			Params:  s.Params,
			Body:    s.Body,
			Auth:    auth,
			Timeout: seconds(s.Timeout),
		},
		Mappings: mappings,
		Interval: seconds(s.Interval),
	}, nil
}

func restAuth(a *Auth) (rest.Auth, error) {
	if a == nil {
		return rest.Auth{Kind: rest.AuthNone}, nil
	}
	switch strings.ToLower(a.Type) {
	case "", string(rest.AuthNone):
		return rest.Auth{Kind: rest.AuthNone}, nil
	case string(rest.AuthAPIKey), "api_key":
		if a.Header == "" {
			return rest.Auth{}, fmt.Errorf("%w: apikey auth needs a header", ErrInvalidModel)
		}
		return rest.Auth{Kind: rest.AuthAPIKey, Header: a.Header, Value: a.Key}, nil
	case string(rest.AuthBearer):
		return rest.Auth{Kind: rest.AuthBearer, Token: a.Token}, nil
	case string(rest.AuthBasic):
		return rest.Auth{Kind: rest.AuthBasic, Username: a.Username, Password: a.Password}, nil
	default:
		return rest.Auth{}, fmt.Errorf("%w: unknown auth type %q", ErrInvalidModel, a.Type)
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
