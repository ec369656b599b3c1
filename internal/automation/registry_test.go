package automation

import (
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-rules/internal/condition"
)

func newTestAutomation(t *testing.T, name string, after, starts, stops []string) *Automation {
	t.Helper()
	cond := condition.MustCompile(condition.Compare{
		Left:  condition.Literal{Value: 1},
		Op:    condition.OpEq,
		Right: condition.Literal{Value: 1},
	}, nil)
	return mustNew(t, Definition{Name: name, Condition: cond, After: after, Starts: starts, Stops: stops})
}

func TestRegistry_AddGetList(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		if err := r.Add(newTestAutomation(t, n, nil, nil, nil)); err != nil {
			t.Fatalf("Add(%s): %v", n, err)
		}
	}

	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}

	list := r.List()
	got := []string{list[0].Name(), list[1].Name(), list[2].Name()}
	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List() order = %v, want %v", got, want)
			break
		}
	}

	a, err := r.Get("alpha")
	if err != nil || a.Name() != "alpha" {
		t.Errorf("Get(alpha) = %v, %v", a, err)
	}
	if _, err := r.Get("nope"); !errors.Is(err, ErrAutomationNotFound) {
		t.Errorf("Get(nope) error = %v, want ErrAutomationNotFound", err)
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(newTestAutomation(t, "dup", nil, nil, nil)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add(newTestAutomation(t, "dup", nil, nil, nil)); !errors.Is(err, ErrDuplicateAutomation) {
		t.Errorf("second Add error = %v, want ErrDuplicateAutomation", err)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	a := newTestAutomation(t, "a", nil, []string{"b"}, []string{"c"})
	b := newTestAutomation(t, "b", []string{"a"}, nil, nil)
	c := newTestAutomation(t, "c", []string{"a", "b"}, nil, nil)
	for _, x := range []*Automation{a, b, c} {
		if err := r.Add(x); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(a.starts) != 1 || a.starts[0] != b {
		t.Errorf("a.starts = %v, want [b]", a.starts)
	}
	if len(a.stops) != 1 || a.stops[0] != c {
		t.Errorf("a.stops = %v, want [c]", a.stops)
	}
	if len(c.after) != 2 || c.after[0] != a || c.after[1] != b {
		t.Errorf("c.after not resolved in order")
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	tests := []struct {
		name                string
		after, starts, stop []string
	}{
		{"after", []string{"ghost"}, nil, nil},
		{"starts", nil, []string{"ghost"}, nil},
		{"stops", nil, nil, []string{"ghost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if err := r.Add(newTestAutomation(t, "x", tt.after, tt.starts, tt.stop)); err != nil {
				t.Fatalf("Add: %v", err)
			}
			if err := r.Resolve(); !errors.Is(err, ErrUnknownDependency) {
				t.Errorf("Resolve() error = %v, want ErrUnknownDependency", err)
			}
		})
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"a", "b", "c"} {
		if err := r.Add(newTestAutomation(t, n, nil, nil, nil)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Get("b"); err != nil {
				t.Errorf("Get: %v", err)
			}
			_ = r.List()
			if i%5 == 0 {
				if a, err := r.Get("a"); err == nil {
					a.Disable()
					a.Enable()
				}
			}
		}()
	}
	wg.Wait()
}
