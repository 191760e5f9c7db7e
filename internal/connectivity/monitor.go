// Package connectivity tracks reachability of the upstream station store and
// notifies subscribers on online/offline transitions.
package connectivity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Signal exposes the current connectivity state and edge-triggered
// transition notifications. Subscribers are called from the monitor's
// goroutine and must not block.
type Signal interface {
	Online() bool
	Subscribe(fn func(online bool)) (cancel func())
}

// Pinger is the probe target, satisfied by *sql.DB via PingerFunc.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

const (
	defaultProbeInterval = 15 * time.Second
	defaultProbeTimeout  = 5 * time.Second
)

// Monitor probes a Pinger on an interval and reports transitions.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	logger   *zap.Logger

	mu          sync.RWMutex
	online      bool
	subscribers map[int]func(online bool)
	nextID      int
}

// NewMonitor builds a monitor. The initial state is online so a healthy
// start does not emit a spurious transition.
func NewMonitor(pinger Pinger, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	return &Monitor{
		pinger:      pinger,
		interval:    interval,
		logger:      logger,
		online:      true,
		subscribers: make(map[int]func(online bool)),
	}
}

// Online implements Signal.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Subscribe implements Signal.
func (m *Monitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// Run probes until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
	err := m.pinger.Ping(probeCtx)
	cancel()

	m.setOnline(err == nil)
}

// setOnline records the probe result and fans out on a state change.
func (m *Monitor) setOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	var fns []func(bool)
	if changed {
		fns = make([]func(bool), 0, len(m.subscribers))
		for _, fn := range m.subscribers {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	if m.logger != nil {
		m.logger.Info("connectivity changed", zap.Bool("online", online))
	}
	for _, fn := range fns {
		fn(online)
	}
}
