package broadcast

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Worldwidebro/iza-os-project-management-analytics-bot/internal/domain"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16
)

// ClientWriter owns the write side of one WebSocket connection. Frames are
// queued on a buffered channel and written by a dedicated goroutine with a
// bounded write deadline, so one unresponsive client can never stall a
// broadcast cycle.
type ClientWriter struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	deadChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewClientWriter(connection *websocket.Conn, clock clockwork.Clock) *ClientWriter {
	cw := &ClientWriter{
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
		deadChannel: make(chan struct{}),
	}
	cw.configurePongHandler()
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *ClientWriter) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cw.wg.Done()
	defer close(cw.deadChannel)

	for {
		select {
		case msg, ok := <-cw.sendChannel:
			if !ok {
				return
			}
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.Chan():
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-cw.doneChannel:
			return
		}
	}
}

// Send queues one frame for delivery. It never blocks: a full buffer or a
// dead writer reports ErrSessionClosed, which callers treat as an implicit
// disconnect.
func (cw *ClientWriter) Send(data []byte) error {
	select {
	case <-cw.deadChannel:
		return domain.ErrSessionClosed
	default:
	}

	select {
	case cw.sendChannel <- data:
		return nil
	default:
		return fmt.Errorf("send buffer full: %w", domain.ErrSessionClosed)
	}
}

// Close sends a close frame and tears down the connection. Safe to call
// more than once and from any goroutine.
func (cw *ClientWriter) Close() {
	cw.stopOnce.Do(func() {
		// Signal the run goroutine to exit and wait for it, so the close
		// frame below is never a concurrent write.
		close(cw.doneChannel)
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down")
		cw.updateWriteDeadline()
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = cw.connection.Close()
	})
}

func (cw *ClientWriter) configurePongHandler() {
	cw.updateReadDeadline()
	cw.connection.SetPongHandler(func(string) error {
		cw.updateReadDeadline()
		return nil
	})
}

func (cw *ClientWriter) updateWriteDeadline() {
	deadline := cw.clock.Now().Add(writeDeadline)
	_ = cw.connection.SetWriteDeadline(deadline)
}

func (cw *ClientWriter) updateReadDeadline() {
	deadline := cw.clock.Now().Add(pongDeadline)
	_ = cw.connection.SetReadDeadline(deadline)
}
