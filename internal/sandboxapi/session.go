package sandboxapi

import (
	"context"
	"errors"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingInterval = 20 * time.Second
	writeWait    = 5 * time.Second
)

// Session is the WebSocket that keeps a sandbox attached. The service
// reclaims the sandbox when the session drops.
type Session struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
	err     error

	closeOnce sync.Once
	closeErr  error
}

// OpenSession dials the session WebSocket of sandbox id.
func (c *Client) OpenSession(ctx context.Context, id string) (*Session, error) {
	wsURL, err := c.websocketURL("/sandboxes/" + url.PathEscape(id) + "/session")
	if err != nil {
		return nil, err
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, c.authHeader())
	if err != nil {
		if resp != nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: err.Error()}
		}
		return nil, &ConnectionError{URL: wsURL, Err: err}
	}

	s := &Session{
		conn: conn,
		done: make(chan struct{}),
	}
	go s.readLoop()
	go s.pingLoop()
	return s, nil
}

// readLoop drains server frames so control messages are processed.
func (s *Session) readLoop() {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			s.finish(err)
			return
		}
	}
}

func (s *Session) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.writeMu.Unlock()
			if err != nil {
				s.finish(err)
				return
			}
		}
	}
}

func (s *Session) finish(err error) {
	s.once.Do(func() {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			err = nil
		}
		s.err = err
		close(s.done)
	})
}

// Done is closed when the session ends for any reason.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns why the session ended, or nil while it is open or after a clean close.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close sends a close frame and releases the connection. Safe to call twice.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		select {
		case <-s.done:
			// Peer already went away; nothing to negotiate.
			_ = s.conn.Close()
			return
		default:
		}

		s.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "workspace teardown")
		writeErr := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		s.writeMu.Unlock()

		s.finish(nil)
		closeErr := s.conn.Close()

		switch {
		case writeErr != nil && !errors.Is(writeErr, websocket.ErrCloseSent) && !errors.Is(writeErr, net.ErrClosed):
			s.closeErr = writeErr
		case closeErr != nil && !errors.Is(closeErr, net.ErrClosed):
			s.closeErr = closeErr
		}
	})
	return s.closeErr
}
