package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/infrastructure/logger"
	"github.com/soberano/soberano/internal/port"
)

// ProgressListener receives engine progress as a whole percent in [0,100].
type ProgressListener func(percent int)

// EngineLifecycle owns the video engine handle. The engine is loaded at
// most once per process; a failed load stays failed until RetryLoad.
type EngineLifecycle struct {
	engine      port.VideoEngine
	fetcher     port.ArtifactFetcher
	events      EventPublisher
	base        context.Context
	loadTimeout time.Duration

	flight singleflight.Group

	mu        sync.RWMutex
	state     domain.EngineState
	loadErr   error
	attempt   int
	listeners map[int]ProgressListener
	nextID    int
}

// NewEngineLifecycle registers the progress forwarder on engine. Loads run
// under ctx, bounded by loadTimeout when it is positive, and are never
// cancelled by a single waiter going away.
func NewEngineLifecycle(ctx context.Context, engine port.VideoEngine, fetcher port.ArtifactFetcher, events EventPublisher, loadTimeout time.Duration) *EngineLifecycle {
	l := &EngineLifecycle{
		engine:      engine,
		fetcher:     fetcher,
		events:      events,
		base:        ctx,
		loadTimeout: loadTimeout,
		state:       domain.EngineStateUnloaded,
		listeners:   make(map[int]ProgressListener),
	}
	engine.OnProgress(l.dispatch)
	return l
}

func (l *EngineLifecycle) State() domain.EngineState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *EngineLifecycle) Status() domain.EngineStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st := domain.EngineStatus{State: l.state}
	if l.loadErr != nil {
		st.Error = l.loadErr.Error()
	}
	return st
}

// EnsureReady returns once the engine is ready. Concurrent callers share
// one load attempt and all receive its error. After a failure it returns
// domain.ErrEngineLoadFailed without retrying.
func (l *EngineLifecycle) EnsureReady(ctx context.Context) error {
	l.mu.Lock()
	switch l.state {
	case domain.EngineStateReady:
		l.mu.Unlock()
		return nil
	case domain.EngineStateLoadFailed:
		err := l.loadErr
		l.mu.Unlock()
		return fmt.Errorf("%w: %w", domain.ErrEngineLoadFailed, err)
	case domain.EngineStateLoading:
		attempt := l.attempt
		l.mu.Unlock()
		return l.await(ctx, attempt)
	}
	if err := l.transition(domain.EngineStateLoading, nil); err != nil {
		l.mu.Unlock()
		return err
	}
	attempt := l.attempt
	l.mu.Unlock()

	l.publishState()
	return l.await(ctx, attempt)
}

// RetryLoad starts a new load attempt. It is only valid after a failure.
func (l *EngineLifecycle) RetryLoad(ctx context.Context) error {
	l.mu.Lock()
	if l.state != domain.EngineStateLoadFailed {
		state := l.state
		l.mu.Unlock()
		return fmt.Errorf("%w: retry from %s", domain.ErrInvalidTransition, state)
	}
	if err := l.transition(domain.EngineStateLoading, nil); err != nil {
		l.mu.Unlock()
		return err
	}
	attempt := l.attempt
	l.mu.Unlock()

	logger.Info.Println("retrying video engine load")
	l.publishState()
	return l.await(ctx, attempt)
}

// OnProgress adds a listener and returns a func that removes it.
func (l *EngineLifecycle) OnProgress(listener ProgressListener) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = listener
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

// await joins the flight of the given attempt. Each entry into loading
// starts a new attempt, so a retry never joins a flight that has already
// settled.
func (l *EngineLifecycle) await(ctx context.Context, attempt int) error {
	ch := l.flight.DoChan("load-"+strconv.Itoa(attempt), func() (any, error) {
		return nil, l.load(attempt)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// load runs one attempt. A caller that joins after its attempt settled
// gets the settled outcome, or follows the newer attempt, instead of
// loading twice.
func (l *EngineLifecycle) load(attempt int) error {
	l.mu.RLock()
	state, prevErr, current := l.state, l.loadErr, l.attempt
	l.mu.RUnlock()
	switch {
	case state == domain.EngineStateReady:
		return nil
	case current != attempt && state == domain.EngineStateLoading:
		return l.await(l.base, current)
	case state == domain.EngineStateLoadFailed:
		return fmt.Errorf("%w: %w", domain.ErrEngineLoadFailed, prevErr)
	}

	ctx := l.base
	if l.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.loadTimeout)
		defer cancel()
	}

	started := time.Now()
	err := l.fetchAndInit(ctx)

	l.mu.Lock()
	if err != nil {
		_ = l.transition(domain.EngineStateLoadFailed, err)
	} else {
		_ = l.transition(domain.EngineStateReady, nil)
	}
	l.mu.Unlock()
	l.publishState()

	if err != nil {
		logger.Error.Printf("video engine load failed after %s: %v", time.Since(started).Round(time.Millisecond), err)
		return fmt.Errorf("%w: %w", domain.ErrEngineLoadFailed, err)
	}
	logger.Info.Printf("video engine ready in %s", time.Since(started).Round(time.Millisecond))
	return nil
}

func (l *EngineLifecycle) fetchAndInit(ctx context.Context) error {
	var artifacts domain.Artifacts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := l.fetcher.Fetch(gctx, domain.ArtifactRuntime)
		if err != nil {
			return fmt.Errorf("fetch runtime module: %w", err)
		}
		artifacts.RuntimeModule = p
		return nil
	})
	g.Go(func() error {
		p, err := l.fetcher.Fetch(gctx, domain.ArtifactPayload)
		if err != nil {
			return fmt.Errorf("fetch binary payload: %w", err)
		}
		artifacts.BinaryPayload = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := l.engine.Load(ctx, artifacts); err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	return nil
}

// transition moves to the given state. Callers hold l.mu.
func (l *EngineLifecycle) transition(to domain.EngineState, cause error) error {
	next, err := l.state.Next(to)
	if err != nil {
		return err
	}
	if next == domain.EngineStateLoading {
		l.attempt++
	}
	l.state = next
	l.loadErr = cause
	return nil
}

// dispatch forwards raw engine ticks as a rounded, clamped percent.
func (l *EngineLifecycle) dispatch(fraction float64, _ time.Duration) {
	if math.IsNaN(fraction) {
		return
	}
	percent := domain.ClampPercent(int(math.Round(math.Max(-1, math.Min(2, fraction)) * 100)))

	l.mu.RLock()
	listeners := make([]ProgressListener, 0, len(l.listeners))
	for _, fn := range l.listeners {
		listeners = append(listeners, fn)
	}
	l.mu.RUnlock()

	for _, fn := range listeners {
		fn(percent)
	}
}

func (l *EngineLifecycle) publishState() {
	if l.events == nil {
		return
	}
	st := l.Status()
	l.events.Publish(TopicEngine, Event{
		Type:    EventEngine,
		Status:  string(st.State),
		Message: st.Error,
	})
}
