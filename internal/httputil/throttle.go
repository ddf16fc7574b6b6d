// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Doer abstracts https://pkg.go.dev/net/http#Client.Do.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// NCBI request pacing: 3 requests per second without an API key, 10 with one.
const (
	NCBIInterval        = 350 * time.Millisecond
	NCBIIntervalWithKey = 110 * time.Millisecond
)

// Throttle spaces requests sent through an underlying Doer so that no two
// start closer together than Interval. It never retries. A Throttle is safe
// for concurrent use; concurrent callers queue in arrival order.
type Throttle struct {
	Client   Doer
	Interval time.Duration

	mu   sync.Mutex
	next time.Time

	// now and sleep are replaced in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewThrottle wraps client with a minimum spacing of interval.
func NewThrottle(client Doer, interval time.Duration) *Throttle {
	return &Throttle{Client: client, Interval: interval}
}

// Do waits for the request's turn, then sends it. If the request context is
// cancelled while waiting, Do returns the context error without sending.
func (t *Throttle) Do(req *http.Request) (*http.Response, error) {
	if err := t.wait(req.Context()); err != nil {
		return nil, err
	}
	return t.Client.Do(req)
}

// wait reserves the next slot and sleeps until it arrives.
func (t *Throttle) wait(ctx context.Context) error {
	if t.Interval <= 0 {
		return ctx.Err()
	}
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	sleep := sleepCtx
	if t.sleep != nil {
		sleep = t.sleep
	}

	t.mu.Lock()
	current := now()
	slot := t.next
	if slot.Before(current) {
		slot = current
	}
	t.next = slot.Add(t.Interval)
	t.mu.Unlock()

	if d := slot.Sub(current); d > 0 {
		return sleep(ctx, d)
	}
	return ctx.Err()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
