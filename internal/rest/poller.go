package rest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is used for sources without their own interval.
const DefaultPollInterval = 300 * time.Second

// Logger is the logging interface used by the REST package.
// It is satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer is notified after every poll of a source. Implementations must
// not block; they run on the source's polling goroutine.
type Observer interface {
	PollSucceeded(source string, fields map[string]any, elapsed time.Duration)
	PollFailed(source string, err error, elapsed time.Duration)
}

// Poller fetches every REST source on its own goroutine and writes the
// mapped fields into a Store.
//
// Start performs one warm-up poll of every source before any periodic loop
// begins, so values are available as soon as Start returns. Poll failures
// are logged and swallowed: the store keeps the last good values.
type Poller struct {
	client          *Client
	store           *Store
	sources         []Source
	defaultInterval time.Duration
	logger          Logger
	observers       []Observer

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewPoller creates a poller for sources. Source names must be unique.
func NewPoller(client *Client, store *Store, sources []Source, defaultInterval time.Duration) (*Poller, error) {
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, s.Name)
		}
		seen[s.Name] = true
	}
	if defaultInterval <= 0 {
		defaultInterval = DefaultPollInterval
	}
	return &Poller{
		client:          client,
		store:           store,
		sources:         sources,
		defaultInterval: defaultInterval,
		logger:          noopLogger{},
	}, nil
}

// SetLogger sets the logger for poll outcomes.
func (p *Poller) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	p.logger = logger
}

// AddObserver registers o for poll notifications. Call before Start.
func (p *Poller) AddObserver(o Observer) {
	p.observers = append(p.observers, o)
}

// Start warms up every source concurrently, then launches one polling
// goroutine per source. It returns once the warm-up has finished.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrPollerRunning
	}
	p.running = true
	p.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range p.sources {
		g.Go(func() error {
			p.PollOnce(gctx, src) //nolint:errcheck // failures are logged and the loop retries later
			return nil
		})
	}
	_ = g.Wait()

	loopCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	for _, src := range p.sources {
		p.wg.Add(1)
		go p.run(loopCtx, src)
	}

	p.logger.Info("rest poller started", "sources", len(p.sources))
	return nil
}

// Stop signals every polling loop and waits for them to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.running = false
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	p.logger.Info("rest poller stopped")
}

// PollOnce fetches src, maps the payload and stores every mapped field.
func (p *Poller) PollOnce(ctx context.Context, src Source) error {
	start := time.Now()

	payload, err := p.client.Fetch(ctx, src)
	if err != nil {
		elapsed := time.Since(start)
		p.logger.Warn("rest poll failed", "source", src.Name, "error", err)
		for _, o := range p.observers {
			o.PollFailed(src.Name, err, elapsed)
		}
		return err
	}

	fields := MapFields(src, payload)
	p.store.SetAll(src.Name, fields)

	elapsed := time.Since(start)
	p.logger.Debug("rest poll succeeded", "source", src.Name, "fields", len(fields), "elapsed", elapsed)
	for _, o := range p.observers {
		o.PollSucceeded(src.Name, fields, elapsed)
	}
	return nil
}

func (p *Poller) run(ctx context.Context, src Source) {
	defer p.wg.Done()

	interval := src.Interval
	if interval <= 0 {
		interval = p.defaultInterval
	}

	for {
		if err := sleepContext(ctx, interval); err != nil {
			return
		}
		p.PollOnce(ctx, src) //nolint:errcheck // failures are logged in PollOnce
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
