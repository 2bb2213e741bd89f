package ws

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"partyquiz-client/internal/protocol"
)

// ErrClosed is reported by operations on a connection that has reached
// its terminal state.
var ErrClosed = errors.New("connection closed")

const subscriptionBuffer = 32

// Conn wraps one websocket session. A single read pump decodes inbound
// frames and fans them out to every live subscription; writes are
// serialized internally so any goroutine may call Send. Dial failure after
// open, read errors and explicit Close all funnel into the same terminal
// state: Done() is closed exactly once and every holder must treat the
// connection as gone.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[*Subscription]struct{}
	err  error

	done     chan struct{}
	doneOnce sync.Once
}

// Dial opens a websocket to the quiz backend and starts the read pump.
func Dial(ctx context.Context, endpoint string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		ws:   ws,
		subs: map[*Subscription]struct{}{},
		done: make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

func (c *Conn) readPump() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.shutdown(err)
			return
		}

		env, err := protocol.ParseEnvelope(data)
		if err != nil {
			log.Printf("ws: dropping undecodable frame: %v", err)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Conn) dispatch(env protocol.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.subs {
		select {
		case sub.C <- env:
		default:
			// A stalled subscriber loses its oldest message rather than
			// stalling the pump for everyone else.
			select {
			case <-sub.C:
			default:
			}
			sub.C <- env
		}
	}
}

// Subscription delivers every inbound message to its channel until
// cancelled. Cancel is idempotent and must be called on teardown.
type Subscription struct {
	C    chan protocol.Envelope
	conn *Conn
	once sync.Once
}

// Cancel deregisters the subscription.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.conn.mu.Lock()
		delete(s.conn.subs, s)
		s.conn.mu.Unlock()
	})
}

// Subscribe registers a new inbound-message subscription. Subscribing on
// a closed connection is allowed; the channel simply never delivers.
func (c *Conn) Subscribe() *Subscription {
	sub := &Subscription{
		C:    make(chan protocol.Envelope, subscriptionBuffer),
		conn: c,
	}
	c.mu.Lock()
	c.subs[sub] = struct{}{}
	c.mu.Unlock()
	return sub
}

// Send writes one command frame. It fails with ErrClosed once the
// connection has terminated.
func (c *Conn) Send(cmd protocol.Command) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	err := c.ws.WriteJSON(cmd)
	c.writeMu.Unlock()
	if err != nil {
		c.shutdown(err)
		return err
	}
	return nil
}

// Done is closed when the connection reaches its terminal state.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err returns the terminal error, or nil while the connection is live.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close tears the connection down. Safe to call more than once and after
// a read failure already ended the session.
func (c *Conn) Close() error {
	c.shutdown(ErrClosed)
	return nil
}

func (c *Conn) shutdown(err error) {
	c.doneOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()

		c.writeMu.Lock()
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		_ = c.ws.Close()

		close(c.done)
	})
}
