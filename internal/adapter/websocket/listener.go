package websocket

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/nndrao/stomp-server/internal/adapter/metrics"
	"github.com/nndrao/stomp-server/internal/session"
)

const maxMessageSize = 1 << 20

// Listener upgrades HTTP requests to WebSocket connections and runs one
// STOMP session per connection. It owns the registry of live connections.
type Listener struct {
	upgrader websocket.Upgrader
	deps     session.Deps
	limits   *ConnectionLimits
	metrics  *metrics.WebSocketMetrics
	clock    clockwork.Clock

	mu    sync.Mutex
	conns map[string]*connection
	wg    sync.WaitGroup
}

type connection struct {
	id      string
	ip      string
	session *session.Session
	writer  *clientWriter
}

// NewListener creates a Listener. checkOrigin may be nil to accept any origin;
// limits may be nil to accept any number of connections.
func NewListener(deps session.Deps, checkOrigin func(*http.Request) bool, limits *ConnectionLimits, m *metrics.WebSocketMetrics, clock clockwork.Clock) *Listener {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	if deps.Clock == nil {
		deps.Clock = clock
	}
	return &Listener{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		deps:    deps,
		limits:  limits,
		metrics: m,
		clock:   clock,
		conns:   make(map[string]*connection),
	}
}

// ServeHTTP upgrades the request and blocks until the connection ends.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	if l.limits != nil {
		if ok, reason := l.limits.Acquire(ip); !ok {
			l.metrics.ConnectionsRejected.WithLabelValues(string(reason)).Inc()
			slog.Warn("WebSocket connection rejected", "reason", reason, "remote_ip", ip)
			status := http.StatusTooManyRequests
			if reason == LimitReasonGlobal {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, http.StatusText(status), status)
			return
		}
		defer l.limits.Release(ip)
	}

	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.metrics.ConnectionsRejected.WithLabelValues("upgrade_failed").Inc()
		slog.Debug("WebSocket upgrade failed", "error", err, "remote_ip", ip)
		return
	}
	ws.SetReadLimit(maxMessageSize)

	conn := &connection{id: uuid.NewString(), ip: ip}
	conn.writer = newClientWriter(ws, l.clock, l.metrics)
	conn.session = session.New(conn.id, conn.writer, l.deps)

	l.register(conn)
	defer l.unregister(conn)

	slog.Info("WebSocket connection established", "connection_id", conn.id, "remote_ip", ip)
	l.readLoop(ws, conn)
	slog.Info("WebSocket connection closed", "connection_id", conn.id)
}

func (l *Listener) readLoop(ws *websocket.Conn, conn *connection) {
	defer func() {
		conn.session.Close()
		conn.writer.stop()
	}()

	for {
		msgType, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				slog.Debug("WebSocket read failed", "connection_id", conn.id, "error", err)
			}
			return
		}
		conn.writer.updateReadDeadline()

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		if err := conn.session.Deliver(payload); err != nil {
			return
		}
	}
}

func (l *Listener) register(conn *connection) {
	l.mu.Lock()
	l.conns[conn.id] = conn
	l.wg.Add(1)
	l.mu.Unlock()

	l.metrics.ActiveConnections.Inc()
	l.metrics.ConnectionsAccepted.Inc()
}

func (l *Listener) unregister(conn *connection) {
	l.mu.Lock()
	delete(l.conns, conn.id)
	l.mu.Unlock()

	l.metrics.ActiveConnections.Dec()
	l.wg.Done()
}

// ActiveConnections returns the number of open connections.
func (l *Listener) ActiveConnections() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

// Shutdown closes every connection with a close frame and waits for their
// handlers to return or ctx to expire.
func (l *Listener) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	conns := make([]*connection, 0, len(l.conns))
	for _, c := range l.conns {
		conns = append(conns, c)
	}
	l.mu.Unlock()

	for _, c := range conns {
		c.session.Close()
		c.writer.stopGraceful("server shutting down")
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
