// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package ingest runs the background pollers that keep upstream data
// warm. Each worker is a suture service that refreshes one dataset on
// its own cadence and announces successful refreshes on the events bus.
package ingest

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/borninthedark/starbase/internal/events"
	"github.com/borninthedark/starbase/internal/logging"
)

// Refresher fetches one dataset from its upstream and persists it.
type Refresher func(ctx context.Context) error

// refreshTimeout bounds a single refresh attempt so a stalled upstream
// cannot block the poll loop past its next tick.
const refreshTimeout = 5 * time.Minute

// Worker polls one Refresher on a fixed interval.
type Worker struct {
	name     string
	source   string
	interval time.Duration
	refresh  Refresher
	bus      *events.Bus

	// jitter delays the first run. Swapped out in tests.
	jitter func() time.Duration
}

// NewWorker creates a poller. source names the dataset in refresh
// events; bus may be nil when nothing listens for them.
func NewWorker(name, source string, interval time.Duration, refresh Refresher, bus *events.Bus) *Worker {
	w := &Worker{
		name:     name,
		source:   source,
		interval: interval,
		refresh:  refresh,
		bus:      bus,
	}
	w.jitter = w.initialJitter
	return w
}

// String identifies the worker in supervisor logs.
func (w *Worker) String() string {
	return "ingest-" + w.name
}

// Serve implements suture.Service. The first run is delayed by a small
// random jitter so all workers do not hammer their upstreams at once on
// startup. Serve returns only when the context is canceled, so a failed
// refresh waits for the next tick instead of crashing the service.
func (w *Worker) Serve(ctx context.Context) error {
	log := logging.WithComponent("ingest")
	log.Info().
		Str("worker", w.name).
		Dur("interval", w.interval).
		Msg("ingest worker starting")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(w.jitter()):
	}

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("worker", w.name).Msg("ingest worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	log := logging.WithComponent("ingest")

	runCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	start := time.Now()
	if err := w.refresh(runCtx); err != nil {
		log.Warn().
			Str("worker", w.name).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("refresh failed")
		return
	}

	log.Info().
		Str("worker", w.name).
		Dur("elapsed", time.Since(start)).
		Msg("refresh completed")

	if w.bus != nil {
		if err := w.bus.PublishRefresh(w.source, time.Now().UTC()); err != nil {
			log.Warn().Str("worker", w.name).Err(err).Msg("failed to publish refresh event")
		}
	}
}

// initialJitter spreads worker start times over up to a tenth of the
// interval, capped at 30 seconds.
func (w *Worker) initialJitter() time.Duration {
	max := w.interval / 10
	if max > 30*time.Second {
		max = 30 * time.Second
	}
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}
