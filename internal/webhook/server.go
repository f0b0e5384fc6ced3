package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"pixwatch/kit/observability"
)

var ErrAlreadyStarted = errors.New("webhook server already started")

type Server struct {
	receiver *Receiver
	logger   *observability.Logger

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

func NewServer(receiver *Receiver, logger *observability.Logger) *Server {
	return &Server{receiver: receiver, logger: logger}
}

// Start binds the port synchronously so bind errors reach the caller, then
// serves in the background.
func (s *Server) Start(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		s.logger.Error("webhook error", "layer", "server", "component", "webhook", "method", "Start", "port", port, "error", err.Error())
		return err
	}
	srv := &http.Server{
		Handler:           s.receiver.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.srv, s.ln = srv, ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("webhook error", "layer", "server", "component", "webhook", "method", "Serve", "error", err.Error())
		}
	}()
	s.logger.Info("webhook server listening", "addr", ln.Addr().String())
	return nil
}

// Addr is the bound address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv, s.ln = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
