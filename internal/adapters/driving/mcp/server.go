package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
	"github.com/custodia-labs/guru-cli/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server is the MCP server for guru. It keeps the chat sessions its
// clients open until they are ended, evicted or the server closes.
type Server struct {
	ports  *Ports
	server *mcp.Server

	mu       sync.Mutex
	sessions map[string]driving.Session
	lastUsed map[string]uint64
	clock    uint64
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "guru",
		Version: Version,
	}

	s := &Server{
		ports:    ports,
		server:   mcp.NewServer(impl, nil),
		sessions: make(map[string]driving.Session),
		lastUsed: make(map[string]uint64),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close(context.WithoutCancel(ctx))
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	defer s.Close(context.WithoutCancel(ctx))

	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close ends every open session.
func (s *Server) Close(ctx context.Context) {
	s.mu.Lock()
	open := s.sessions
	s.sessions = make(map[string]driving.Session)
	s.lastUsed = make(map[string]uint64)
	s.mu.Unlock()

	for id, sess := range open {
		if err := sess.End(ctx); err != nil {
			logger.Warn("end session %s: %v", id, err)
		}
	}
}

// session returns an open session by ID.
func (s *Server) session(id string) (driving.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	s.touch(id)
	return sess, nil
}

// startSession builds a new session and registers it. When the cap is
// reached the least recently used session is ended first.
func (s *Server) startSession(ctx context.Context) (driving.Session, error) {
	sess, err := s.ports.Sessions.StartSession(ctx, s.ports.CorpusDirectory)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	var evicted []driving.Session
	for len(s.sessions) >= s.maxSessions() {
		evicted = append(evicted, s.evictOldest())
	}
	s.sessions[sess.ID()] = sess
	s.touch(sess.ID())
	s.mu.Unlock()

	for _, old := range evicted {
		logger.Info("MCP session %s ended to make room for %s", old.ID(), sess.ID())
		if err := old.End(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("end session %s: %v", old.ID(), err)
		}
	}
	logger.Info("MCP session %s started", sess.ID())
	return sess, nil
}

func (s *Server) maxSessions() int {
	if s.ports.MaxSessions > 0 {
		return s.ports.MaxSessions
	}
	return DefaultMaxSessions
}

// touch marks a session as used. Callers hold s.mu.
func (s *Server) touch(id string) {
	s.clock++
	s.lastUsed[id] = s.clock
}

// evictOldest unregisters the least recently used session. Callers hold
// s.mu and ensure at least one session is open.
func (s *Server) evictOldest() driving.Session {
	var oldest string
	for id, used := range s.lastUsed {
		if oldest == "" || used < s.lastUsed[oldest] {
			oldest = id
		}
	}
	sess := s.sessions[oldest]
	delete(s.sessions, oldest)
	delete(s.lastUsed, oldest)
	return sess
}

// removeSession unregisters a session and returns it.
func (s *Server) removeSession(id string) (driving.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	delete(s.lastUsed, id)
	return sess, ok
}

// OpenSessions returns the number of sessions that have not been ended.
func (s *Server) OpenSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
