package infrastructure

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Reaper terminates connections that stop answering liveness probes. Each
// tick removes every connection still marked not-alive from the previous
// tick, then marks the survivors not-alive and probes them; a pong flips
// the mark back before the next tick. Going silent therefore guarantees
// termination within two intervals.
type Reaper struct {
	hub      *Hub
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewReaper builds a reaper over the given registry.
func NewReaper(hub *Hub, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reaper{hub: hub, interval: interval, stop: make(chan struct{})}
}

// Run blocks until the context is cancelled or Stop is called.
func (r *Reaper) Run(ctx context.Context) {
	slog.Info("heartbeat reaper started", slog.Duration("interval", r.interval))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

// Stop halts the reaper; safe to call more than once.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Reaper) tick() {
	for _, c := range r.hub.Clients() {
		if !c.Alive() {
			slog.Info("terminating unresponsive connection", slog.String("connectionId", c.ID()))
			r.hub.Detach(c)
			continue
		}
		c.alive.Store(false)
		c.probe()
	}
}
