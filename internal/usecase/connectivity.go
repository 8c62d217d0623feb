package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/totegamma/carelog/internal/domain"
)

// ConnectivityEvent is delivered on every change of reachability.
type ConnectivityEvent struct {
	From domain.ConnectivityState
	To   domain.ConnectivityState
	At   time.Time
}

// ConnectivityMonitor tracks reachability of the remote store. It starts Unknown and
// becomes known after the first probe; callers that need a decision use WaitKnown.
type ConnectivityMonitor struct {
	probe    ConnectivityProbe
	interval time.Duration

	mu     sync.RWMutex
	state  domain.ConnectivityState
	known  chan struct{}
	subs   map[int]chan ConnectivityEvent
	nextID int
}

func NewConnectivityMonitor(probe ConnectivityProbe, interval time.Duration) *ConnectivityMonitor {
	return &ConnectivityMonitor{
		probe:    probe,
		interval: interval,
		state:    domain.ConnectivityUnknown,
		known:    make(chan struct{}),
		subs:     make(map[int]chan ConnectivityEvent),
	}
}

// Start probes immediately and then every interval until ctx is done.
func (m *ConnectivityMonitor) Start(ctx context.Context) {
	go func() {
		m.Check(ctx)
		if m.interval <= 0 {
			return
		}
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}

// Check runs one probe and records the result.
func (m *ConnectivityMonitor) Check(ctx context.Context) domain.ConnectivityState {
	online := m.probe.Reachable(ctx)
	m.Set(online)
	return m.State()
}

// Set records an observed reachability and notifies subscribers on change.
func (m *ConnectivityMonitor) Set(online bool) {
	next := domain.ConnectivityOffline
	if online {
		next = domain.ConnectivityOnline
	}

	m.mu.Lock()
	prev := m.state
	m.state = next
	if prev == domain.ConnectivityUnknown {
		close(m.known)
	}
	if prev == next {
		m.mu.Unlock()
		return
	}
	event := ConnectivityEvent{From: prev, To: next, At: time.Now()}
	dropped := 0
	for _, ch := range m.subs {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	m.mu.Unlock()

	slog.Info(
		"connectivity changed",
		slog.String("module", "connectivity"),
		slog.String("from", prev.String()),
		slog.String("to", next.String()),
		slog.Int("dropped", dropped),
	)
}

func (m *ConnectivityMonitor) State() domain.ConnectivityState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// WaitKnown blocks until the first probe resolved or timeout passed and returns the
// state at that moment, which is Unknown when the probe did not answer in time.
func (m *ConnectivityMonitor) WaitKnown(ctx context.Context, timeout time.Duration) domain.ConnectivityState {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-m.known:
	case <-timer.C:
	case <-ctx.Done():
	}
	return m.State()
}

// Subscribe returns a channel of transitions and a function that ends the subscription.
func (m *ConnectivityMonitor) Subscribe() (<-chan ConnectivityEvent, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan ConnectivityEvent, 8)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
}
