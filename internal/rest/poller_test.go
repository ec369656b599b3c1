package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ─── Test Helpers ──────────────────────────────────────────────────

type recordingObserver struct {
	mu        sync.Mutex
	successes map[string]int
	failures  map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{successes: map[string]int{}, failures: map[string]int{}}
}

func (o *recordingObserver) PollSucceeded(source string, _ map[string]any, _ time.Duration) {
	o.mu.Lock()
	o.successes[source]++
	o.mu.Unlock()
}

func (o *recordingObserver) PollFailed(source string, _ error, _ time.Duration) {
	o.mu.Lock()
	o.failures[source]++
	o.mu.Unlock()
}

func (o *recordingObserver) counts(source string) (int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.successes[source], o.failures[source]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func weatherSource(url string, interval time.Duration) Source {
	return Source{
		Name:     "Weather",
		Request:  Request{URL: url},
		Interval: interval,
		Mappings: []Mapping{
			{Name: "temp", Path: "$.t", Type: TypeNumber},
			{Name: "wind", Path: "$.w", Type: TypeNumber},
		},
	}
}

// ─── Tests ─────────────────────────────────────────────────────────

func TestPoller_WarmUpBeforeStartReturns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"t": 29.5, "w": 3.4}`)) //nolint:errcheck
	}))
	defer srv.Close()

	store := NewStore()
	// A long interval means only the warm-up can have populated the store.
	p, err := NewPoller(NewClient(DefaultClientOptions()), store, []Source{weatherSource(srv.URL, time.Hour)}, 0)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	if v, ok := store.Get("Weather", "temp"); !ok || v != 29.5 {
		t.Errorf("temp = %v, %v; want 29.5 right after Start", v, ok)
	}
	if v, ok := store.Get("Weather", "wind"); !ok || v != 3.4 {
		t.Errorf("wind = %v, %v; want 3.4 right after Start", v, ok)
	}
}

func TestPoller_PeriodicUpdates(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"t": %d}`, n.Add(1))
	}))
	defer srv.Close()

	store := NewStore()
	p, err := NewPoller(NewClient(DefaultClientOptions()), store, []Source{weatherSource(srv.URL, 20*time.Millisecond)}, 0)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	waitFor(t, 2*time.Second, func() bool {
		v, _ := store.Get("Weather", "temp")
		f, _ := v.(float64)
		return f >= 3
	})
}

func TestPoller_FailuresKeepLastValue(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			w.Write([]byte(`{"t": 21}`)) //nolint:errcheck
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{MaxRetries: 0})
	store := NewStore()
	obs := newRecordingObserver()

	p, err := NewPoller(client, store, []Source{weatherSource(srv.URL, 10*time.Millisecond)}, 0)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	p.AddObserver(obs)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	waitFor(t, 2*time.Second, func() bool {
		_, failures := obs.counts("Weather")
		return failures >= 2
	})

	if v, _ := store.Get("Weather", "temp"); v != 21.0 {
		t.Errorf("temp = %v, want last good value 21", v)
	}
	if successes, _ := obs.counts("Weather"); successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
}

func TestPoller_WarmUpFailureDoesNotBlockOthers(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price": 0.21}`)) //nolint:errcheck
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	sources := []Source{
		{Name: "Grid", Request: Request{URL: good.URL}, Interval: time.Hour,
			Mappings: []Mapping{{Name: "price", Path: "$.price", Type: TypeNumber}}},
		weatherSource(bad.URL, time.Hour),
	}

	store := NewStore()
	p, err := NewPoller(NewClient(ClientOptions{MaxRetries: 0}), store, sources, 0)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	if v, ok := store.Get("Grid", "price"); !ok || v != 0.21 {
		t.Errorf("Grid.price = %v, %v; want 0.21", v, ok)
	}
	if _, ok := store.Get("Weather", "temp"); ok {
		t.Error("Weather.temp should be absent after failed warm-up")
	}
}

func TestPoller_StartTwice(t *testing.T) {
	p, err := NewPoller(NewClient(DefaultClientOptions()), NewStore(), nil, 0)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	if err := p.Start(context.Background()); !errors.Is(err, ErrPollerRunning) {
		t.Errorf("second Start() error = %v, want ErrPollerRunning", err)
	}
}

// countingTransport counts the requests the client sends.
type countingTransport struct {
	n atomic.Int32
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.n.Add(1)
	return http.DefaultTransport.RoundTrip(r)
}

func TestPoller_StopEndsLoops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"t": 1}`)) //nolint:errcheck
	}))
	defer srv.Close()

	// Counted on the client side: a request cancelled by Stop may still
	// reach the server handler after Stop has returned.
	transport := &countingTransport{}
	opts := DefaultClientOptions()
	opts.HTTPClient = &http.Client{Transport: transport}

	p, err := NewPoller(NewClient(opts), NewStore(), []Source{weatherSource(srv.URL, 10*time.Millisecond)}, 0)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return transport.n.Load() >= 2 })

	p.Stop()
	after := transport.n.Load()
	time.Sleep(100 * time.Millisecond)
	if got := transport.n.Load(); got != after {
		t.Errorf("requests sent after Stop: %d -> %d", after, got)
	}
}

func TestNewPoller_DuplicateSource(t *testing.T) {
	sources := []Source{{Name: "Weather"}, {Name: "Weather"}}
	if _, err := NewPoller(NewClient(DefaultClientOptions()), NewStore(), sources, 0); !errors.Is(err, ErrDuplicateSource) {
		t.Errorf("NewPoller() error = %v, want ErrDuplicateSource", err)
	}
}
