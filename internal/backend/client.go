package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"p2p-social/internal/message"
)

// ErrClosed is returned for calls made on, or interrupted by, a closed connection.
var ErrClosed = errors.New("backend connection closed")

// RemoteError is an error reported by the backend in a response frame.
type RemoteError struct {
	Command string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// Options tune a Client.
type Options struct {
	EventBuffer int
	Diagnostics func(format string, args ...any)
}

// Client speaks the command/event protocol over one websocket connection.
// Responses are matched to requests by id; pushes are decoded once and
// delivered on Events.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan message.Frame

	events    chan message.Event
	done      chan struct{}
	closeOnce sync.Once
	diag      func(format string, args ...any)
}

// Dial opens the websocket at wsURL, authenticating with token.
func Dial(ctx context.Context, wsURL, token string, opts Options) (*Client, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial backend: %w", err)
	}
	return NewClient(conn, opts), nil
}

// NewClient wraps an established connection and starts its read loop.
func NewClient(conn *websocket.Conn, opts Options) *Client {
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = 64
	}
	diag := opts.Diagnostics
	if diag == nil {
		diag = log.Printf
	}
	c := &Client{
		conn:    conn,
		pending: make(map[string]chan message.Frame),
		events:  make(chan message.Event, buffer),
		done:    make(chan struct{}),
		diag:    diag,
	}
	go c.readLoop()
	return c
}

// Events delivers backend pushes. It is closed when the connection ends.
func (c *Client) Events() <-chan message.Event { return c.events }

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Close() error {
	c.shutdown()
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Client) readLoop() {
	defer close(c.events)
	defer c.shutdown()
	for {
		var frame message.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !isClosedConn(err) {
				c.diag("backend read: %v", err)
			}
			return
		}
		if frame.IsEvent() {
			ev, err := message.DecodeEvent(frame)
			if err != nil {
				c.diag("backend event: %v", err)
				continue
			}
			select {
			case c.events <- ev:
			case <-c.done:
				return
			}
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[frame.ID]
		delete(c.pending, frame.ID)
		c.mu.Unlock()
		if !ok {
			c.diag("backend response for unknown request %q", frame.ID)
			continue
		}
		ch <- frame
	}
}

func isClosedConn(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

// call sends a request and waits for the matching response. result may be
// nil for commands that only acknowledge.
func (c *Client) call(ctx context.Context, command string, params, result any) error {
	frame := message.Frame{ID: uuid.NewString(), Command: command}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode %s params: %w", command, err)
		}
		frame.Params = raw
	}
	ch := make(chan message.Frame, 1)
	c.mu.Lock()
	c.pending[frame.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, frame.ID)
		c.mu.Unlock()
	}()

	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	err := c.conn.WriteJSON(frame)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("send %s: %w", command, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	case resp := <-ch:
		if resp.Error != "" {
			return &RemoteError{Command: command, Message: resp.Error}
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("decode %s result: %w", command, err)
			}
		}
		return nil
	}
}
