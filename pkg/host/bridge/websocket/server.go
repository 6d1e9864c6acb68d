// Package websocket pushes controller telemetry to browser dashboards.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/ikarus-fc/ikarus.go/pkg/framework"
	"github.com/ikarus-fc/ikarus.go/pkg/wire"
)

// Server broadcasts telemetry samples to connected websocket clients.
type Server struct {
	Addr string

	lock  sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewServer creates a Server listening on addr.
func NewServer(addr string) *Server {
	return &Server{
		Addr:  addr,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the http.Handler accepting dashboard connections.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serve)
}

func (s *Server) serve(conn *websocket.Conn) {
	s.lock.Lock()
	s.conns[conn] = struct{}{}
	s.lock.Unlock()
	glog.V(1).Infof("dashboard connected: %s", conn.Request().RemoteAddr)

	// dashboards only listen; drain until the peer goes away
	for {
		var discard []byte
		if err := websocket.Message.Receive(conn, &discard); err != nil {
			break
		}
	}

	s.lock.Lock()
	delete(s.conns, conn)
	s.lock.Unlock()
}

// Broadcast sends one sample to every connected client. Dead
// connections are dropped.
func (s *Server) Broadcast(sample wire.Sample) {
	payload, err := json.Marshal(sample)
	if err != nil {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for conn := range s.conns {
		if err := websocket.Message.Send(conn, string(payload)); err != nil {
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

// RunFeed drains a sample stream into connected clients.
func (s *Server) RunFeed(ctx context.Context, samples <-chan wire.Sample) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample := <-samples:
			s.Broadcast(sample)
		}
	}
}

// Run implements Runnable: it serves the websocket endpoint on Addr.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/telemetry", s.Handler())
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	err := fx.RunWithContextCloser(ctx, srv, func() error {
		return srv.ListenAndServe()
	})
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
