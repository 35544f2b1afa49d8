// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRouter struct {
	runErr  error
	exitNow bool
	closed  atomic.Bool
	running chan struct{}
}

func (r *fakeRouter) Run(ctx context.Context) error {
	if r.runErr != nil {
		return r.runErr
	}
	if r.exitNow {
		return nil
	}
	close(r.running)
	<-ctx.Done()
	return nil
}

func (r *fakeRouter) Close() error {
	r.closed.Store(true)
	return nil
}

func TestEventRouterService_Serve(t *testing.T) {
	t.Parallel()

	var builds atomic.Int32
	router := &fakeRouter{running: make(chan struct{})}
	svc := NewEventRouterService(func() (EventRouter, error) {
		builds.Add(1)
		return router, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	select {
	case <-router.running:
	case <-time.After(5 * time.Second):
		t.Fatal("router never ran")
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if builds.Load() != 1 {
		t.Errorf("builds = %d, want 1", builds.Load())
	}
}

func TestEventRouterService_Failures(t *testing.T) {
	t.Parallel()

	buildErr := errors.New("nats unreachable")
	runErr := errors.New("handler setup failed")

	tests := []struct {
		name      string
		build     func() (EventRouter, error)
		wantErr   error
		wantClose bool
	}{
		{
			name:    "build error",
			build:   func() (EventRouter, error) { return nil, buildErr },
			wantErr: buildErr,
		},
		{
			name:      "run error closes router",
			build:     func() (EventRouter, error) { return &fakeRouter{runErr: runErr}, nil },
			wantErr:   runErr,
			wantClose: true,
		},
		{
			name:  "unexpected exit",
			build: func() (EventRouter, error) { return &fakeRouter{exitNow: true}, nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var built EventRouter
			svc := NewEventRouterService(func() (EventRouter, error) {
				r, err := tt.build()
				built = r
				return r, err
			})

			err := svc.Serve(context.Background())
			if err == nil {
				t.Fatal("Serve() = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Serve() = %v, want %v", err, tt.wantErr)
			}
			if tt.wantClose && !built.(*fakeRouter).closed.Load() {
				t.Error("router not closed after Run error")
			}
		})
	}

	if got := NewEventRouterService(nil).String(); got != "event-router" {
		t.Errorf("String() = %q", got)
	}
}
