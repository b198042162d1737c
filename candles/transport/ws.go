package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// Dial opens a websocket session against rawURL. Connection establishment is
// bounded by Options.WSDialTimeout; reads have no timeout and rely on venue
// heartbeats to surface dead connections as I/O errors.
func (c *Client) Dial(ctx context.Context, rawURL string) (common.Session, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.WSDialTimeout}
	conn, _, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, common.TransportError{Retryable: true, Err: fmt.Errorf("ws dial %v: %w", rawURL, err)}
	}

	s := &wsSession{
		conn: conn,
		msgs: make(chan []byte),
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// wsSession wraps one gorilla connection. Frames are handed over an unbuffered
// channel so a slow consumer blocks the network layer rather than queueing.
type wsSession struct {
	conn *websocket.Conn
	msgs chan []byte
	done chan struct{}

	closeOnce sync.Once
	closeErr  error

	// err is written by readLoop before closing msgs; readers observe it only
	// after the channel closes.
	err error
}

func (s *wsSession) readLoop() {
	defer close(s.msgs)
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// Deliberate Close; not an error.
			default:
				s.err = common.TransportError{Retryable: true, Err: err}
			}
			return
		}
		select {
		case s.msgs <- msg:
		case <-s.done:
			return
		}
	}
}

// Send writes one text frame.
func (s *wsSession) Send(frame []byte) error {
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return common.TransportError{Retryable: true, Err: err}
	}
	return nil
}

// Messages returns the incoming frame channel; closed on session end.
func (s *wsSession) Messages() <-chan []byte { return s.msgs }

// Err reports why Messages closed, or nil after a clean Close.
func (s *wsSession) Err() error { return s.err }

// Close tears the session down, best-effort sending a close frame first.
func (s *wsSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
