package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrNotConnected is returned when the client has no daemon connection
var ErrNotConnected = errors.New("not connected to daemon")

// ErrQueueFull is returned by SendEvent when the outgoing queue is full
var ErrQueueFull = errors.New("event queue full")

// Client represents a connection to the op daemon. It sends change events
// in debounced batches, receives broadcasts, and reconnects on failure.
type Client struct {
	socketPath string
	conn       net.Conn
	encoder    *json.Encoder
	decoder    *json.Decoder
	mu         sync.Mutex

	// Batching configuration
	eventQueue chan Event
	debounce   time.Duration
	closed     bool
	started    bool

	// Reconnection configuration
	maxRetries int
	baseDelay  time.Duration

	currentProjectID int
	lastSequence     int64

	ctx    context.Context
	cancel context.CancelFunc

	batcherDone chan struct{}
}

// NewClient creates a new event client but does not connect.
// The debounce window defaults to 100ms and can be set with
// OP_EVENT_DEBOUNCE_MS.
func NewClient(socketPath string) (*Client, error) {
	debounceMs := 100
	if envVal := os.Getenv("OP_EVENT_DEBOUNCE_MS"); envVal != "" {
		if parsed, err := strconv.Atoi(envVal); err == nil && parsed > 0 {
			debounceMs = parsed
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		socketPath:  socketPath,
		eventQueue:  make(chan Event, 100),
		debounce:    time.Duration(debounceMs) * time.Millisecond,
		maxRetries:  5,
		baseDelay:   1 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
		batcherDone: make(chan struct{}),
	}, nil
}

// Connect dials the daemon socket and subscribes to the current project
// (all projects until Subscribe is called).
func (c *Client) Connect(ctx context.Context) error {
	if c == nil {
		return ErrNotConnected
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to dial daemon socket: %w", err)
	}

	c.conn = conn
	c.encoder = json.NewEncoder(conn)
	c.decoder = json.NewDecoder(conn)
	// A restarted daemon numbers events from 1 again
	c.lastSequence = 0

	msg := Message{
		Version:   ProtocolVersion,
		Type:      MessageSubscribe,
		Subscribe: &SubscribeMessage{ProjectID: c.currentProjectID},
	}
	if err := c.encoder.Encode(msg); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			slog.Warn("failed to close daemon connection", "error", closeErr)
		}
		c.conn = nil
		return fmt.Errorf("failed to send subscription: %w", err)
	}

	// Reconnects reuse the running batcher
	if !c.started && !c.closed {
		c.started = true
		go c.startBatcher()
	}

	return nil
}

// SendEvent queues an event to be sent to the daemon. Events are flushed
// once per debounce window. Returns ErrQueueFull instead of blocking.
func (c *Client) SendEvent(event Event) error {
	if c == nil {
		return ErrNotConnected
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrNotConnected
	}
	select {
	case c.eventQueue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// startBatcher collects queued events and flushes them every debounce
// tick. Within one window, repeated events about the same resource and
// action collapse into the latest one; order of first appearance is kept.
func (c *Client) startBatcher() {
	defer close(c.batcherDone)

	ticker := time.NewTicker(c.debounce)
	defer ticker.Stop()

	var pending []Event
	index := make(map[string]int)

	add := func(event Event) {
		if event.ResourceID != 0 {
			if i, ok := index[event.key()]; ok {
				pending[i] = event
				return
			}
			index[event.key()] = len(pending)
		}
		pending = append(pending, event)
	}

	flush := func() {
		for _, event := range pending {
			if err := c.sendToSocket(MessageEvent, &event); err != nil {
				if !isConnectionError(err) {
					slog.Warn("failed to send event", "action", event.Action, "error", err)
				}
			}
		}
		pending = pending[:0]
		clear(index)
	}

	for {
		select {
		case <-c.ctx.Done():
			flush()
			return

		case event, ok := <-c.eventQueue:
			if !ok {
				flush()
				return
			}
			add(event)

		case <-ticker.C:
			flush()
		}
	}
}

// sendToSocket writes a single message to the daemon
func (c *Client) sendToSocket(msgType string, event *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	defer func() { _ = c.conn.SetWriteDeadline(time.Time{}) }()

	return c.encoder.Encode(Message{
		Version: ProtocolVersion,
		Type:    msgType,
		Event:   event,
	})
}

// Listen starts listening for events from the daemon. The returned
// channel is closed when ctx is done or reconnection gives up.
func (c *Client) Listen(ctx context.Context) (<-chan Event, error) {
	eventChan := make(chan Event, 10)
	if c == nil {
		close(eventChan)
		return eventChan, ErrNotConnected
	}
	go c.listenLoop(ctx, eventChan)
	return eventChan, nil
}

func (c *Client) listenLoop(ctx context.Context, eventChan chan Event) {
	defer close(eventChan)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := c.readEvents(ctx, eventChan)
		if err == nil || ctx.Err() != nil || c.ctx.Err() != nil {
			return
		}
		slog.Info("daemon connection lost, reconnecting", "error", err)

		if !c.reconnect(ctx) {
			slog.Warn("giving up on daemon connection", "attempts", c.maxRetries)
			return
		}
		slog.Info("reconnected to daemon")
	}
}

// readEvents decodes messages until the connection fails
func (c *Client) readEvents(ctx context.Context, eventChan chan Event) error {
	for {
		var msg Message

		c.mu.Lock()
		if c.conn == nil {
			c.mu.Unlock()
			return fmt.Errorf("connection closed")
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("failed to set read deadline: %w", err)
		}
		decoder := c.decoder
		c.mu.Unlock()

		if err := decoder.Decode(&msg); err != nil {
			return fmt.Errorf("failed to decode message: %w", err)
		}

		switch msg.Type {
		case MessageEvent:
			if msg.Event == nil {
				continue
			}
			// Sequence IDs only grow; anything older is a duplicate
			if msg.Event.SequenceID > c.lastSequence {
				c.lastSequence = msg.Event.SequenceID
				select {
				case eventChan <- *msg.Event:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

		case MessagePing:
			if err := c.sendToSocket(MessagePong, nil); err != nil && !isConnectionError(err) {
				slog.Warn("failed to send pong", "error", err)
			}
		}
	}
}

// isConnectionError checks if an error is a network connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConnected) || errors.Is(err, net.ErrClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset")
}

// reconnect retries Connect with exponential backoff
func (c *Client) reconnect(ctx context.Context) bool {
	delay := c.baseDelay

	for i := 0; i < c.maxRetries; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
			c.mu.Lock()
			if c.conn != nil {
				if err := c.conn.Close(); err != nil && !isConnectionError(err) {
					slog.Warn("failed to close connection during reconnect", "error", err)
				}
				c.conn = nil
			}
			c.mu.Unlock()

			if err := c.Connect(ctx); err == nil {
				return true
			}

			slog.Debug("reconnection attempt failed", "attempt", i+1, "max_retries", c.maxRetries, "retry_in", delay)
			delay *= 2
		}
	}

	return false
}

// Subscribe changes the subscription to a specific project.
// ProjectID 0 means subscribe to all projects.
func (c *Client) Subscribe(projectID int) error {
	if c == nil {
		return ErrNotConnected
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentProjectID = projectID

	if c.conn == nil {
		return ErrNotConnected
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	defer func() { _ = c.conn.SetWriteDeadline(time.Time{}) }()

	return c.encoder.Encode(Message{
		Version:   ProtocolVersion,
		Type:      MessageSubscribe,
		Subscribe: &SubscribeMessage{ProjectID: projectID},
	})
}

// Close flushes queued events, closes the connection and stops all
// goroutines. It is safe to call more than once.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.eventQueue)
	started := c.started
	c.mu.Unlock()

	if started {
		<-c.batcherDone
	}
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
