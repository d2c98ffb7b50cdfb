// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockHTTPServer is a test double for HTTPServer.
type mockHTTPServer struct {
	listenErr     error
	block         bool
	shutdownErr   error
	listenCount   atomic.Int32
	shutdownCount atomic.Int32
	started       chan struct{}
	stopCh        chan struct{}
	stopOnce      sync.Once
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{
		started: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.listenCount.Add(1)
	select {
	case m.started <- struct{}{}:
	default:
	}

	if m.listenErr != nil {
		return m.listenErr
	}
	if m.block {
		<-m.stopCh
		return http.ErrServerClosed
	}
	return nil
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdownCount.Add(1)
	m.stopOnce.Do(func() { close(m.stopCh) })
	return m.shutdownErr
}

func TestHTTPServerService_Interface(t *testing.T) {
	var _ suture.Service = (*HTTPServerService)(nil)
	var _ HTTPServer = (*http.Server)(nil)
}

func TestNewHTTPServerService_DefaultTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{0, -5 * time.Second} {
		svc := NewHTTPServerService(newMockHTTPServer(), ":8080", timeout)
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("NewHTTPServerService(%v).shutdownTimeout = %v, want 10s", timeout, svc.shutdownTimeout)
		}
	}
	if got := NewHTTPServerService(newMockHTTPServer(), ":8080", time.Second).String(); got != "http-server" {
		t.Errorf("String() = %q, want http-server", got)
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		server := newMockHTTPServer()
		server.block = true
		svc := NewHTTPServerService(server, ":0", time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		select {
		case <-server.started:
		case <-time.After(time.Second):
			t.Fatal("server did not start")
		}
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancel")
		}
		if got := server.shutdownCount.Load(); got != 1 {
			t.Errorf("Shutdown calls = %d, want 1", got)
		}
	})

	t.Run("startup failure", func(t *testing.T) {
		bindErr := errors.New("bind: address already in use")
		server := newMockHTTPServer()
		server.listenErr = bindErr
		svc := NewHTTPServerService(server, ":0", time.Second)

		if err := svc.Serve(context.Background()); !errors.Is(err, bindErr) {
			t.Errorf("Serve() = %v, want wrapped bind error", err)
		}
	})

	t.Run("shutdown failure", func(t *testing.T) {
		shutdownErr := errors.New("shutdown timeout")
		server := newMockHTTPServer()
		server.block = true
		server.shutdownErr = shutdownErr
		svc := NewHTTPServerService(server, ":0", time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()
		<-server.started
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, shutdownErr) {
				t.Errorf("Serve() = %v, want shutdown error", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
	})
}

func TestHTTPServerService_WithSupervisor(t *testing.T) {
	server := newMockHTTPServer()
	server.block = true
	svc := NewHTTPServerService(server, ":0", time.Second)

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          2 * time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	select {
	case <-server.started:
	case <-time.After(time.Second):
		t.Fatal("server did not start")
	}
	cancel()
	<-errCh

	if server.shutdownCount.Load() < 1 {
		t.Error("Shutdown was not called")
	}
}
