// Package app implements the collector's HTTP API and websocket feed.
package app

import (
	"LoraReport/internal/schema"
	"LoraReport/internal/store"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type App struct {
	Store  *store.Store
	Schema *schema.Registry
	Hub    *Hub
	Mux    *http.ServeMux
	Server *http.Server

	mu      sync.Mutex // guards Server, ln and stopped
	ln      net.Listener
	stopped bool
}

// NewApp wires the API routes over the given archive and schema.
func NewApp(st *store.Store, reg *schema.Registry, hub *Hub) *App {
	a := &App{
		Store:  st,
		Schema: reg,
		Hub:    hub,
		Mux:    http.NewServeMux(),
	}
	a.registerRoutes()
	return a
}

// Start launches the web server and blocks until stopped. Start after Stop
// returns immediately.
func (a *App) Start(addr string) error {
	if addr == "" {
		zap.L().Info("app server not started (empty address)")
		return nil
	}
	addr = strings.TrimPrefix(addr, "http://")
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		a.mu.Unlock()
		return fmt.Errorf("[app] listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           logRequests(a.Mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.Server, a.ln = srv, ln
	a.mu.Unlock()

	zap.L().Info("web server listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("[app] HTTP server error: %w", err)
	}
	return nil
}

// Addr returns the address the server listens on, or "" before Start.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln == nil {
		return ""
	}
	return a.ln.Addr().String()
}

// Stop gracefully stops the web server and disconnects subscribers.
func (a *App) Stop() {
	a.mu.Lock()
	a.stopped = true
	srv := a.Server
	a.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			zap.L().Warn("HTTP server shutdown error", zap.Error(err))
		}
	}
	if a.Hub != nil {
		a.Hub.Close()
	}
}
