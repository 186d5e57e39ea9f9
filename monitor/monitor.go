// Package monitor serves live dataset updates to WebSocket clients.
//
// A Monitor subscribes to the broadcast subjects the dataset store publishes
// on and fans each update out to every connected client. Plotting front ends
// connect to watch a run in progress; slow clients are rate limited and
// dropped updates are not retransmitted, since every update carries the full
// current value for its key.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/c360/resultflow/dataset"
	"github.com/c360/resultflow/errors"
	"github.com/c360/resultflow/metric"
)

// Config holds the monitor server configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8090"
	Addr string `json:"addr" yaml:"addr"`
	// Path is the WebSocket endpoint path
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Subject is the NATS subject filter for dataset updates
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
	// ClientRate caps updates per second sent to each client; updates over
	// the cap are dropped for that client, not queued
	ClientRate float64 `json:"client_rate,omitempty" yaml:"client_rate,omitempty"`
	// ClientBurst is the rate limiter burst size
	ClientBurst int `json:"client_burst,omitempty" yaml:"client_burst,omitempty"`
	// WriteTimeout bounds each WebSocket write
	WriteTimeout time.Duration `json:"-" yaml:"-"`
	// PingInterval is the keepalive ping period
	PingInterval time.Duration `json:"-" yaml:"-"`
}

// DefaultConfig returns the default monitor configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8090",
		Path:         "/ws",
		Subject:      dataset.DefaultBroadcastPrefix + ".>",
		ClientRate:   100,
		ClientBurst:  200,
		WriteTimeout: 5 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.WrapConfig(
			fmt.Errorf("addr required: %w", errors.ErrMissingConfig),
			"Config", "Validate", "addr check")
	}
	if c.Path == "" {
		return errors.WrapConfig(
			fmt.Errorf("path required: %w", errors.ErrMissingConfig),
			"Config", "Validate", "path check")
	}
	if c.Subject == "" {
		return errors.WrapConfig(
			fmt.Errorf("subject required: %w", errors.ErrMissingConfig),
			"Config", "Validate", "subject check")
	}
	if c.ClientRate <= 0 {
		return errors.WrapConfig(
			fmt.Errorf("client rate must be positive: %w", errors.ErrInvalidConfig),
			"Config", "Validate", "rate check")
	}
	if c.ClientBurst <= 0 {
		return errors.WrapConfig(
			fmt.Errorf("client burst must be positive: %w", errors.ErrInvalidConfig),
			"Config", "Validate", "burst check")
	}
	return nil
}

// Event is the message sent to WebSocket clients, wrapping a dataset update
// with the subject it arrived on.
type Event struct {
	Subject string         `json:"subject"`
	Update  dataset.Update `json:"update"`
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(m *Monitor) {
		m.metrics = metrics
	}
}

// Monitor is a WebSocket server broadcasting live dataset updates.
type Monitor struct {
	cfg     Config
	conn    *nats.Conn
	logger  *slog.Logger
	metrics *metric.Metrics

	upgrader websocket.Upgrader
	server   *http.Server

	clientsMu sync.Mutex
	clients   map[*client]struct{}

	clientWG sync.WaitGroup
	shutdown chan struct{}
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter

	closeOnce sync.Once
}

// close signals the pumps to exit and closes the connection. The send
// channel is never closed; broadcasters may still hold a reference to it.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// New creates a monitor serving updates from the given NATS connection.
func New(conn *nats.Conn, cfg Config, opts ...Option) (*Monitor, error) {
	if conn == nil {
		return nil, errors.WrapUsage(errors.ErrNilValue, "Monitor", "New", "connection check")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}

	m := &Monitor{
		cfg:    cfg,
		conn:   conn,
		logger: slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		shutdown: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Path, m.handleWebSocket)
	m.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	return m, nil
}

// Run subscribes to dataset updates and serves WebSocket clients until the
// context is cancelled. It blocks; the usual pattern is one errgroup
// goroutine per monitor.
func (m *Monitor) Run(ctx context.Context) error {
	sub, err := m.conn.Subscribe(m.cfg.Subject, m.handleUpdate)
	if err != nil {
		return errors.WrapStorage(err, "Monitor", "Run",
			fmt.Sprintf("subscribe to %s", m.cfg.Subject))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := m.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			return errors.WrapStorage(err, "Monitor", "Run", "http serve")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		close(m.shutdown)

		if err := sub.Drain(); err != nil {
			m.logger.Error("broadcast subscription drain failed", "error", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.server.Shutdown(shutdownCtx); err != nil {
			m.logger.Error("monitor server shutdown failed", "error", err)
		}

		m.closeAllClients()
		m.clientWG.Wait()
		return nil
	})

	m.logger.Info("monitor started",
		"addr", m.cfg.Addr, "path", m.cfg.Path, "subject", m.cfg.Subject)
	return g.Wait()
}

// handleUpdate validates one NATS update message and fans it out.
func (m *Monitor) handleUpdate(msg *nats.Msg) {
	select {
	case <-m.shutdown:
		return
	default:
	}

	var update dataset.Update
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		m.logger.Warn("dropping malformed dataset update",
			"subject", msg.Subject, "error", err)
		return
	}

	data, err := json.Marshal(Event{Subject: msg.Subject, Update: update})
	if err != nil {
		m.logger.Error("event encode failed", "subject", msg.Subject, "error", err)
		return
	}

	m.broadcast(data)
}

// broadcast sends one event to every connected client, subject to each
// client's rate limiter. A client whose send queue is full loses the update;
// the next one supersedes it anyway.
func (m *Monitor) broadcast(data []byte) {
	m.clientsMu.Lock()
	clients := make([]*client, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.clientsMu.Unlock()

	for _, c := range clients {
		if !c.limiter.Allow() {
			continue
		}
		select {
		case <-c.done:
		case c.send <- data:
			if m.metrics != nil {
				m.metrics.RecordBroadcastMessage()
			}
		default:
		}
	}
}

// handleWebSocket upgrades an HTTP request and registers the client.
func (m *Monitor) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("connection upgrade failed",
			"remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		conn:    conn,
		send:    make(chan []byte, 64),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(m.cfg.ClientRate), m.cfg.ClientBurst),
	}

	m.clientsMu.Lock()
	m.clients[c] = struct{}{}
	count := len(m.clients)
	m.clientsMu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordBroadcastClients(count)
	}
	m.logger.Debug("client connected", "remote", r.RemoteAddr, "clients", count)

	m.clientWG.Add(2)
	go m.writePump(c)
	go m.readPump(c)
}

// writePump drains the client's send queue onto the connection and keeps the
// connection alive with periodic pings.
func (m *Monitor) writePump(c *client) {
	defer m.clientWG.Done()

	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(m.cfg.WriteTimeout))
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				m.removeClient(c, "write_error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				m.removeClient(c, "ping_failed")
				return
			}
		}
	}
}

// readPump discards client input; it exists to detect disconnects and serve
// the close handshake.
func (m *Monitor) readPump(c *client) {
	defer m.clientWG.Done()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			m.removeClient(c, "closed")
			return
		}
	}
}

func (m *Monitor) removeClient(c *client, reason string) {
	m.clientsMu.Lock()
	_, present := m.clients[c]
	delete(m.clients, c)
	count := len(m.clients)
	m.clientsMu.Unlock()

	if !present {
		return
	}

	c.close()
	if m.metrics != nil {
		m.metrics.RecordBroadcastClients(count)
	}
	m.logger.Debug("client disconnected", "reason", reason, "clients", count)
}

func (m *Monitor) closeAllClients() {
	m.clientsMu.Lock()
	clients := make([]*client, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.clients = make(map[*client]struct{})
	m.clientsMu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// ClientCount returns the number of currently connected clients.
func (m *Monitor) ClientCount() int {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	return len(m.clients)
}
