package rest

import (
	"sync"
	"testing"
	"time"
)

func TestStore_GetAbsent(t *testing.T) {
	s := NewStore()

	if _, ok := s.Get("Weather", "temp"); ok {
		t.Error("Get() on empty store reported present")
	}
	if _, ok := s.Age("Weather", "temp"); ok {
		t.Error("Age() on empty store reported present")
	}
}

func TestStore_SetGetAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return now }

	s.Set("Weather", "temp", 21.5)

	v, ok := s.Get("Weather", "temp")
	if !ok || v != 21.5 {
		t.Fatalf("Get() = %v, %v; want 21.5, true", v, ok)
	}

	now = now.Add(90 * time.Second)
	age, ok := s.Age("Weather", "temp")
	if !ok || age != 90*time.Second {
		t.Errorf("Age() = %v, %v; want 90s, true", age, ok)
	}
}

func TestStore_NilValueIsPresent(t *testing.T) {
	s := NewStore()
	s.Set("Weather", "wind", nil)

	v, ok := s.Get("Weather", "wind")
	if !ok || v != nil {
		t.Errorf("Get() = %v, %v; want nil, true", v, ok)
	}
}

func TestStore_SetAllAndSnapshot(t *testing.T) {
	s := NewStore()
	s.SetAll("Weather", map[string]any{"temp": 20.0, "wind": 3.4})
	s.Set("Grid", "price", 0.21)
	s.Set("Weather", "temp", 22.0)

	snap := s.Snapshot()
	if snap["Weather"]["temp"] != 22.0 {
		t.Errorf("Weather.temp = %v, want 22 (overwritten)", snap["Weather"]["temp"])
	}
	if snap["Weather"]["wind"] != 3.4 {
		t.Errorf("Weather.wind = %v, want 3.4", snap["Weather"]["wind"])
	}
	if snap["Grid"]["price"] != 0.21 {
		t.Errorf("Grid.price = %v, want 0.21", snap["Grid"]["price"])
	}

	// Snapshot is a copy.
	snap["Weather"]["temp"] = -1.0
	if v, _ := s.Get("Weather", "temp"); v != 22.0 {
		t.Errorf("store mutated through snapshot: %v", v)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Set("Weather", "temp", float64(n*j))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Get("Weather", "temp")
				s.Age("Weather", "temp")
				s.Snapshot()
			}
		}()
	}
	wg.Wait()

	if _, ok := s.Get("Weather", "temp"); !ok {
		t.Error("expected value after concurrent writes")
	}
}
