package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/nndrao/stomp-server/internal/adapter/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 1024
)

var (
	ErrConnectionClosed = errors.New("websocket connection closed")
	ErrSlowClient       = errors.New("websocket send buffer full")
)

// clientWriter owns all writes to one connection. Frames are queued on a
// bounded channel; a client that cannot keep up is disconnected.
type clientWriter struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	metrics     *metrics.WebSocketMetrics
	sendChannel chan []byte
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func newClientWriter(connection *websocket.Conn, clock clockwork.Clock, m *metrics.WebSocketMetrics) *clientWriter {
	cw := &clientWriter{
		connection:  connection,
		clock:       clock,
		metrics:     m,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
	}
	cw.configurePongHandler()
	cw.wg.Add(1)
	go cw.run()
	return cw
}

// Send queues one encoded STOMP payload as a text message.
func (cw *clientWriter) Send(payload []byte) error {
	select {
	case <-cw.doneChannel:
		return ErrConnectionClosed
	default:
	}

	select {
	case cw.sendChannel <- payload:
		return nil
	default:
		cw.metrics.SlowClientsDropped.Inc()
		go cw.stopGraceful("send buffer full")
		return ErrSlowClient
	}
}

// Close flushes queued frames and closes the connection with a normal close frame.
func (cw *clientWriter) Close() error {
	cw.stopGraceful("disconnect")
	return nil
}

func (cw *clientWriter) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cw.wg.Done()

	for {
		select {
		case msg := <-cw.sendChannel:
			if err := cw.write(msg); err != nil {
				cw.metrics.WriteErrors.Inc()
				slog.Debug("WebSocket write failed", "error", err)
				_ = cw.connection.Close()
				return
			}
		case <-ticker.Chan():
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = cw.connection.Close()
				return
			}
		case <-cw.doneChannel:
			return
		}
	}
}

func (cw *clientWriter) write(msg []byte) error {
	cw.updateWriteDeadline()
	return cw.connection.WriteMessage(websocket.TextMessage, msg)
}

// stop closes the connection without flushing.
func (cw *clientWriter) stop() {
	cw.stopOnce.Do(func() {
		close(cw.doneChannel)
		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}

// stopGraceful drains queued frames, sends a close frame with reason and closes.
func (cw *clientWriter) stopGraceful(reason string) {
	cw.stopOnce.Do(func() {
		close(cw.doneChannel)

		// The run goroutine must exit before we touch the connection.
		cw.wg.Wait()

		cw.flush()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		cw.updateWriteDeadline()
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)

		_ = cw.connection.Close()
	})
}

func (cw *clientWriter) flush() {
	for {
		select {
		case msg := <-cw.sendChannel:
			if err := cw.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (cw *clientWriter) configurePongHandler() {
	cw.updateReadDeadline()
	cw.connection.SetPongHandler(func(string) error {
		cw.updateReadDeadline()
		return nil
	})
}

func (cw *clientWriter) updateWriteDeadline() {
	_ = cw.connection.SetWriteDeadline(cw.clock.Now().Add(writeDeadline))
}

// updateReadDeadline extends the read deadline; any inbound message or pong counts as liveness.
func (cw *clientWriter) updateReadDeadline() {
	_ = cw.connection.SetReadDeadline(cw.clock.Now().Add(pongDeadline))
}
