// Package netwatch observes backend reachability and reports online/offline
// transitions to whoever registered for them.
package netwatch

import (
	"context"
	"sync"
	"time"

	"github.com/avolkovs/focuskeeper/internal/logging"
)

// Pinger is the liveness probe, usually the remote backend facade.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher polls the backend on a fixed interval and keeps the last observed
// connectivity state. The client starts offline; the first successful probe
// counts as an offline-to-online transition.
type Watcher struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	mu       sync.Mutex
	online   bool
	onOnline []func(ctx context.Context)
	onChange []func(online bool)
}

// NewWatcher builds a Watcher probing through pinger every interval, with a
// per-probe timeout.
func NewWatcher(pinger Pinger, interval, timeout time.Duration, log logging.Logger) *Watcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Watcher{pinger: pinger, interval: interval, timeout: timeout, log: log}
}

// OnOnline registers fn to run on every offline-to-online transition.
// Callbacks run on the watcher's goroutine; long work should move off it.
func (w *Watcher) OnOnline(fn func(ctx context.Context)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onOnline = append(w.onOnline, fn)
}

// OnChange registers fn to run on every transition, in either direction.
func (w *Watcher) OnChange(fn func(online bool)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Online reports the last observed connectivity state.
func (w *Watcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}

// Run blocks, probing until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Probe performs one reachability check and fires transition callbacks.
func (w *Watcher) Probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(probeCtx)
	cancel()

	w.setOnline(ctx, err == nil)
}

func (w *Watcher) setOnline(ctx context.Context, online bool) {
	w.mu.Lock()
	if w.online == online {
		w.mu.Unlock()
		return
	}
	w.online = online
	onOnline := append([]func(ctx context.Context){}, w.onOnline...)
	onChange := append([]func(online bool){}, w.onChange...)
	w.mu.Unlock()

	if online {
		w.log.Info(ctx, "backend reachable, switching to online mode")
	} else {
		w.log.Info(ctx, "backend unreachable, switching to offline mode")
	}

	for _, fn := range onChange {
		fn(online)
	}
	if online {
		for _, fn := range onOnline {
			fn(ctx)
		}
	}
}
