package ws

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Manager owns the single logical connection to the backend. GetOrCreate
// hands out the current live connection, dialing a fresh one when there is
// none. Overlapping calls collapse into one dial via singleflight, and a
// dial that loses the race to an already-current connection is closed
// rather than leaked, so at most one connection is ever current.
//
// The manager never reconnects by itself; reconnect policy lives in the
// session, which calls GetOrCreate again once a disconnect has been
// acknowledged.
type Manager struct {
	endpoint string

	sf singleflight.Group

	mu      sync.Mutex
	current *Conn
}

// NewManager returns a manager dialing the given websocket endpoint.
func NewManager(endpoint string) *Manager {
	return &Manager{endpoint: endpoint}
}

// GetOrCreate returns the current live connection, dialing if needed.
func (m *Manager) GetOrCreate(ctx context.Context) (*Conn, error) {
	if conn := m.live(); conn != nil {
		return conn, nil
	}

	v, err, _ := m.sf.Do("dial", func() (any, error) {
		if conn := m.live(); conn != nil {
			return conn, nil
		}

		conn, err := Dial(ctx, m.endpoint)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		if m.current != nil && !closed(m.current) {
			// Another dial became current first; this one is surplus.
			m.mu.Unlock()
			_ = conn.Close()
			return m.current, nil
		}
		m.current = conn
		m.mu.Unlock()
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Conn), nil
}

// Current returns the live connection without dialing, or nil.
func (m *Manager) Current() *Conn { return m.live() }

// Close tears down the current connection, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	conn := m.current
	m.current = nil
	m.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (m *Manager) live() *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || closed(m.current) {
		return nil
	}
	return m.current
}

func closed(c *Conn) bool {
	select {
	case <-c.Done():
		return true
	default:
		return false
	}
}
