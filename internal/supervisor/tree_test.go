// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitRunning(t *testing.T, m *mockService) {
	t.Helper()
	select {
	case <-m.running:
	case <-time.After(5 * time.Second):
		t.Fatalf("%s did not start", m.name)
	}
}

func TestNewTree_Defaults(t *testing.T) {
	t.Parallel()

	tree := NewTree(quietLogger(), TreeConfig{})
	got := tree.Config()
	want := DefaultTreeConfig()
	if got != want {
		t.Errorf("Config() = %+v, want %+v", got, want)
	}

	custom := NewTree(quietLogger(), TreeConfig{FailureBackoff: time.Second})
	if custom.Config().FailureBackoff != time.Second {
		t.Errorf("FailureBackoff = %v, want 1s", custom.Config().FailureBackoff)
	}
	if custom.Config().FailureThreshold != 5 {
		t.Errorf("FailureThreshold = %v, want default 5", custom.Config().FailureThreshold)
	}
}

func TestTree_RunsAllLayers(t *testing.T) {
	t.Parallel()

	tree := NewTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	data := newMockService("data", 0)
	messaging := newMockService("messaging", 0)
	api := newMockService("api", 0)
	tree.AddDataService(data)
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitRunning(t, data)
	waitRunning(t, messaging)
	waitRunning(t, api)

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree stopped with %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop")
	}

	for _, m := range []*mockService{data, messaging, api} {
		if m.stops.Load() != m.starts.Load() {
			t.Errorf("%s: starts=%d stops=%d", m.name, m.starts.Load(), m.stops.Load())
		}
	}
	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport() error = %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}

func TestTree_RestartIsolatedToLayer(t *testing.T) {
	t.Parallel()

	tree := NewTree(quietLogger(), TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	flaky := newMockService("flaky-router", 2)
	api := newMockService("api", 0)
	tree.AddMessagingService(flaky)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitRunning(t, api)
	waitRunning(t, flaky)

	if got := flaky.starts.Load(); got != 3 {
		t.Errorf("flaky starts = %d, want 3", got)
	}
	if got := api.starts.Load(); got != 1 {
		t.Errorf("api starts = %d, want 1 (not restarted)", got)
	}

	cancel()
	<-errCh
}
