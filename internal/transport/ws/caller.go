package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"partyquiz-client/internal/protocol"
)

// ErrTimeout is reported when a correlated command receives no response
// within the caller's deadline.
var ErrTimeout = errors.New("timed out waiting for response")

// DefaultCallTimeout bounds a correlated command when no other timeout is
// configured.
const DefaultCallTimeout = 10 * time.Second

// Caller issues correlated commands: each Call expects exactly one
// response-kind reply. The protocol carries no request identifier of its
// own, so a response is matched to the most recent command; Caller
// therefore allows only one command in flight at a time, which removes the
// cross-talk risk of matching "the next response" under concurrent sends.
// A request id is still attached on the way out and honored when the
// backend echoes it back, making the match exact on servers that do.
type Caller struct {
	timeout time.Duration
	mu      sync.Mutex
}

// NewCaller returns a caller with the given per-command timeout;
// non-positive means DefaultCallTimeout.
func NewCaller(timeout time.Duration) *Caller {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Caller{timeout: timeout}
}

// Call sends cmd and waits for its response. The subscription is
// registered before the frame is written, so a reply that arrives
// immediately is never missed. A response with a non-ok result is returned
// together with a *protocol.CommandError; transport loss and timeout
// return a nil response.
func (c *Caller) Call(ctx context.Context, conn *Conn, cmd protocol.Command) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cmd.RequestID == "" {
		cmd.RequestID = uuid.NewString()
	}

	sub := conn.Subscribe()
	defer sub.Cancel()

	if err := conn.Send(cmd); err != nil {
		return nil, fmt.Errorf("send %s: %w", cmd.Action, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	for {
		select {
		case env := <-sub.C:
			resp, ok := env.Response()
			if !ok {
				continue // pushed event, not ours
			}
			if resp.RequestID != "" && resp.RequestID != cmd.RequestID {
				continue
			}
			return resp, resp.Err()

		case <-timer.C:
			return nil, fmt.Errorf("%s: %w", cmd.Action, ErrTimeout)

		case <-conn.Done():
			return nil, fmt.Errorf("%s: %w", cmd.Action, ErrClosed)

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
