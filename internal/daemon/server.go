// Package daemon runs the change-event hub: clients publish events over a
// unix socket, the daemon broadcasts them to subscribers and hands them
// to sinks such as the webhook dispatcher.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
)

// Sink consumes every change event the daemon receives
type Sink interface {
	Handle(ctx context.Context, event events.Event) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, event events.Event) error

// Handle calls f
func (f SinkFunc) Handle(ctx context.Context, event events.Event) error { return f(ctx, event) }

// Option configures a Server
type Option func(*Server)

// WithSink adds a sink. Sinks run one event at a time on their own
// goroutine so slow ones never hold up the broadcast.
func WithSink(sink Sink) Option {
	return func(s *Server) { s.sinks = append(s.sinks, sink) }
}

// WithLogger sets the logger, slog.Default() otherwise
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetricsAddr serves /metrics on addr (e.g. "127.0.0.1:9464")
func WithMetricsAddr(addr string) Option {
	return func(s *Server) { s.metricsAddr = addr }
}

// client represents a connected client to the daemon
type client struct {
	conn         net.Conn
	send         chan events.Message
	subscription events.SubscribeMessage
	lastPong     time.Time
	mu           sync.Mutex // Protects subscription and lastPong
	closeOnce    sync.Once  // Ensures send channel is closed only once
}

// Server represents the op event daemon
type Server struct {
	socketPath       string
	listener         net.Listener
	clients          map[*client]bool
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	broadcast        chan events.Event
	sinkQueue        chan events.Event
	sinks            []Sink
	metrics          *Metrics
	metricsAddr      string
	metricsListener  net.Listener
	metricsServer    *http.Server
	logger           *slog.Logger
	sequenceCounter  atomic.Int64
	clientBufferSize int
	shutdownOnce     sync.Once
	wg               sync.WaitGroup
}

// getEnvInt reads an integer from an environment variable, returning defaultVal if not set or invalid
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

// NewServer creates a new daemon server listening on socketPath
func NewServer(socketPath string, opts ...Option) (*Server, error) {
	if dir := filepath.Dir(socketPath); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create socket directory: %w", err)
		}
	}

	// Remove stale socket file if it exists
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket listener: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Buffer sizes are tunable for load testing
	broadcastBuffer := getEnvInt("OP_DAEMON_BROADCAST_BUFFER", 100)
	clientBuffer := getEnvInt("OP_DAEMON_CLIENT_BUFFER", 10)
	sinkBuffer := getEnvInt("OP_DAEMON_SINK_BUFFER", 1000)

	s := &Server{
		socketPath:       socketPath,
		listener:         listener,
		clients:          make(map[*client]bool),
		ctx:              ctx,
		cancel:           cancel,
		broadcast:        make(chan events.Event, broadcastBuffer),
		sinkQueue:        make(chan events.Event, sinkBuffer),
		metrics:          NewMetrics(),
		logger:           slog.Default(),
		clientBufferSize: clientBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metricsAddr != "" {
		ln, err := net.Listen("tcp", s.metricsAddr)
		if err != nil {
			cancel()
			_ = listener.Close()
			_ = os.Remove(socketPath)
			return nil, fmt.Errorf("failed to listen for metrics on %s: %w", s.metricsAddr, err)
		}
		s.metricsListener = ln
	}
	return s, nil
}

// MetricsAddr returns the bound metrics address, empty when disabled
func (s *Server) MetricsAddr() string {
	if s.metricsListener == nil {
		return ""
	}
	return s.metricsListener.Addr().String()
}

// Metrics exposes the daemon's collectors
func (s *Server) Metrics() *Metrics { return s.metrics }

// Start runs the daemon until ctx is cancelled or Shutdown is called
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("daemon starting", "socket", s.socketPath, "sinks", len(s.sinks))

	combinedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-s.ctx.Done()
		cancel()
	}()

	acceptErr := make(chan error, 1)
	go func() {
		acceptErr <- s.acceptLoop(combinedCtx)
	}()

	go s.broadcastLoop(combinedCtx)
	go s.monitorHealth(combinedCtx)

	if len(s.sinks) > 0 {
		s.wg.Add(1)
		go s.sinkLoop(combinedCtx)
	}

	if s.metricsListener != nil {
		s.serveMetrics()
	}

	select {
	case <-combinedCtx.Done():
		s.logger.Info("daemon context cancelled, shutting down")
	case err := <-acceptErr:
		if err != nil {
			s.logger.Error("accept loop failed", "error", err)
		}
	}

	return s.Shutdown()
}

// serveMetrics starts the prometheus endpoint
func (s *Server) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	s.mu.Lock()
	s.metricsServer = srv
	s.mu.Unlock()
	s.logger.Info("serving metrics", "addr", s.MetricsAddr())

	go func() {
		if err := srv.Serve(s.metricsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", "error", err)
		}
	}()
}

// acceptLoop accepts incoming client connections
func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		// A deadline lets the loop notice cancellation
		if err := s.listener.(*net.UnixListener).SetDeadline(time.Now().Add(1 * time.Second)); err != nil {
			s.logger.Warn("failed to set listener deadline", "error", err)
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return fmt.Errorf("accept error: %w", err)
		}

		c := &client{
			conn:     conn,
			send:     make(chan events.Message, s.clientBufferSize),
			lastPong: time.Now(),
		}

		s.mu.Lock()
		s.clients[c] = true
		s.mu.Unlock()
		s.updateClientCount()

		s.logger.Debug("client connected", "clients", s.getClientCount())

		go s.handleClient(c)
		go s.clientWriter(c)
	}
}

// broadcastLoop distributes events to subscribed clients and queues them
// for the sinks
func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-s.broadcast:
			if !ok {
				return
			}
			event.SequenceID = s.sequenceCounter.Add(1)
			s.metrics.IncBroadcasts()

			s.mu.RLock()
			for c := range s.clients {
				c.mu.Lock()
				// Unscoped events and unscoped subscriptions match everything
				subscribed := event.ProjectID == 0 || c.subscription.ProjectID == 0 || c.subscription.ProjectID == event.ProjectID
				c.mu.Unlock()

				if subscribed {
					msg := events.Message{
						Version: events.ProtocolVersion,
						Type:    events.MessageEvent,
						Event:   &event,
					}
					if !s.sendToClient(c, msg) {
						s.metrics.IncEventsDropped()
						s.logger.Warn("client send queue full, event dropped", "sequence", event.SequenceID)
					}
				}
			}
			s.mu.RUnlock()

			if len(s.sinks) > 0 && event.Action != "" {
				select {
				case s.sinkQueue <- event:
				default:
					s.metrics.IncEventsDropped()
					s.logger.Warn("sink queue full, event dropped", "action", event.Action, "sequence", event.SequenceID)
				}
			}
		}
	}
}

// sinkLoop hands queued events to every sink in order
func (s *Server) sinkLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-s.sinkQueue:
			for _, sink := range s.sinks {
				if err := sink.Handle(ctx, event); err != nil {
					s.metrics.IncSinkErrors()
					s.logger.Warn("sink failed", "action", event.Action, "resource", event.ResourceID, "error", err)
				}
			}
		}
	}
}

// handleClient reads messages from a connected client
func (s *Server) handleClient(c *client) {
	defer func() {
		s.removeClient(c)
		s.logger.Debug("client disconnected", "clients", s.getClientCount())
	}()

	decoder := json.NewDecoder(c.conn)

	for {
		var msg events.Message
		if err := decoder.Decode(&msg); err != nil {
			return
		}

		if msg.Version != 0 && msg.Version != events.ProtocolVersion {
			s.logger.Warn("protocol version mismatch", "got", msg.Version, "want", events.ProtocolVersion)
		}

		switch msg.Type {
		case events.MessageEvent:
			if msg.Event != nil {
				s.metrics.IncEventsReceived()
				if err := s.Broadcast(*msg.Event); err != nil {
					s.metrics.IncEventsDropped()
					s.logger.Warn("event dropped", "action", msg.Event.Action, "error", err)
				}
			}

		case events.MessageSubscribe:
			if msg.Subscribe != nil {
				c.mu.Lock()
				c.subscription = *msg.Subscribe
				c.mu.Unlock()
				s.logger.Debug("client subscribed", "project", msg.Subscribe.ProjectID)
			}

		case events.MessagePong:
			c.mu.Lock()
			c.lastPong = time.Now()
			c.mu.Unlock()
		}
	}
}

// clientWriter sends messages to a client
func (s *Server) clientWriter(c *client) {
	encoder := json.NewEncoder(c.conn)
	for msg := range c.send {
		if err := encoder.Encode(msg); err != nil {
			return
		}
	}
}

// monitorHealth sends ping messages and removes stale clients
func (s *Server) monitorHealth(ctx context.Context) {
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	healthTicker := time.NewTicker(60 * time.Second)
	defer healthTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-pingTicker.C:
			s.mu.RLock()
			clients := make([]*client, 0, len(s.clients))
			for c := range s.clients {
				clients = append(clients, c)
			}
			s.mu.RUnlock()

			ping := events.Message{
				Version: events.ProtocolVersion,
				Type:    events.MessagePing,
				Event:   &events.Event{Type: events.EventPing},
			}
			for _, c := range clients {
				if !s.sendToClient(c, ping) {
					s.logger.Debug("failed to send ping, queue full")
				}
			}

		case <-healthTicker.C:
			// Collect under the read lock, remove outside it
			s.mu.RLock()
			var stale []*client
			now := time.Now()
			for c := range s.clients {
				c.mu.Lock()
				lastPong := c.lastPong
				c.mu.Unlock()
				if now.Sub(lastPong) > 90*time.Second {
					stale = append(stale, c)
				}
			}
			s.mu.RUnlock()

			for _, c := range stale {
				s.logger.Info("removing stale client")
				s.removeClient(c)
			}
		}
	}
}

// Broadcast queues an event for subscribers and sinks (non-blocking)
func (s *Server) Broadcast(event events.Event) error {
	select {
	case <-s.ctx.Done():
		return errors.New("daemon is shutting down")
	default:
	}
	select {
	case s.broadcast <- event:
		return nil
	default:
		return errors.New("broadcast channel full")
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info("shutting down daemon")
		s.cancel()

		s.mu.RLock()
		metricsServer := s.metricsServer
		s.mu.RUnlock()
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if closeErr := metricsServer.Shutdown(shutdownCtx); closeErr != nil {
				err = fmt.Errorf("failed to stop metrics server: %w", closeErr)
			}
			cancel()
		} else if s.metricsListener != nil {
			_ = s.metricsListener.Close()
		}

		if s.listener != nil {
			if closeErr := s.listener.Close(); closeErr != nil {
				s.logger.Debug("failed to close listener", "error", closeErr)
			}
		}

		s.mu.Lock()
		for c := range s.clients {
			_ = c.conn.Close()
			c.closeOnce.Do(func() {
				close(c.send)
			})
		}
		s.clients = make(map[*client]bool)
		s.mu.Unlock()

		if removeErr := os.Remove(s.socketPath); removeErr != nil && !os.IsNotExist(removeErr) {
			s.logger.Warn("failed to remove socket file", "error", removeErr)
		}

		// Let an in-flight sink call finish before returning
		s.wg.Wait()
	})
	return err
}

func (s *Server) getClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) updateClientCount() {
	s.metrics.SetConnectedClients(s.getClientCount())
}

// removeClient safely removes a client from the server
func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()

	_ = c.conn.Close()
	c.closeOnce.Do(func() {
		close(c.send)
	})

	s.updateClientCount()
}

// sendToClient attempts to send a message to a client (non-blocking)
// Returns true if successful, false if the queue is full
func (s *Server) sendToClient(c *client, msg events.Message) bool {
	select {
	case c.send <- msg:
		s.metrics.IncEventsSent()
		return true
	default:
		return false
	}
}
