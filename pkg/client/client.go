// Package client is a small Go client for the room relay, used by tools and
// by the end-to-end tests.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("client closed")

const writeWait = 5 * time.Second

type Client struct {
	conn    *websocket.Conn
	events  chan Envelope
	done    chan struct{}
	closing chan struct{}

	writeMu sync.Mutex

	mu     sync.RWMutex
	roomID RoomID

	closeOnce sync.Once
}

// Dial opens a connection to the relay websocket endpoint, e.g.
// ws://localhost:5000/api/ws.
func Dial(ctx context.Context, url string, header http.Header) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		conn:   conn,
		events:  make(chan Envelope, 256),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Events yields every envelope the server sends, in order. The channel is
// closed when the connection ends.
func (c *Client) Events() <-chan Envelope {
	return c.events
}

// Next waits for the next envelope.
func (c *Client) Next(ctx context.Context) (Envelope, error) {
	select {
	case env, ok := <-c.events:
		if !ok {
			return Envelope{}, ErrClosed
		}
		return env, nil
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

// WaitFor skips envelopes until one of type typ arrives.
func (c *Client) WaitFor(ctx context.Context, typ EventType) (Envelope, error) {
	for {
		env, err := c.Next(ctx)
		if err != nil {
			return env, err
		}
		if env.Type == typ {
			return env, nil
		}
	}
}

// Done is closed once the read side of the connection has stopped.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) RoomID() RoomID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *Client) Join(roomID RoomID, displayName string) error {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
	return c.Send(EventJoinRoom, roomID, JoinPayload{RoomID: roomID, DisplayName: displayName})
}

func (c *Client) Leave() error {
	return c.Send(EventLeaveRoom, c.RoomID(), nil)
}

func (c *Client) UpdateCode(code string) error {
	return c.Send(EventCodeUpdate, c.RoomID(), CodePayload{Code: &code})
}

func (c *Client) ChangeLanguage(lang Language) error {
	return c.Send(EventLanguageChanged, c.RoomID(), LanguagePayload{Language: lang})
}

func (c *Client) MoveCursor(name string, pos Position) error {
	return c.Send(EventCursorChange, c.RoomID(), CursorPayload{Name: name, Position: pos})
}

func (c *Client) Typing(name string) error {
	return c.Send(EventUserTyping, c.RoomID(), NamePayload{Name: name})
}

func (c *Client) StopTyping(name string) error {
	return c.Send(EventStopTyping, c.RoomID(), NamePayload{Name: name})
}

func (c *Client) Run(code string, lang Language, requestID string) error {
	return c.Send(EventRunCode, c.RoomID(), RunPayload{Code: code, Language: lang, RequestID: requestID})
}

// SendMessage posts a chat line to the joined room; the server fills in
// the sender name.
func (c *Client) SendMessage(text string) error {
	return c.Send(EventSendMessage, c.RoomID(), ChatPayload{Text: text})
}

func (c *Client) Ping() error {
	return c.Send(EventPing, "", nil)
}

// Send writes one envelope. payload may be nil.
func (c *Client) Send(typ EventType, roomID RoomID, payload any) error {
	env := Envelope{Type: typ, RoomID: roomID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s: %w", typ, err)
		}
		env.Payload = raw
	}
	return c.SendRaw(env)
}

// SendRaw writes env as is, malformed or not.
func (c *Client) SendRaw(v any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) readLoop() {
	defer func() {
		close(c.done)
		close(c.events)
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		select {
		case c.events <- env:
		case <-c.closing:
			return
		}
	}
}
