package eventchannel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// WebsocketChannel subscribes to the server's per-session event stream
// over a websocket connection, one connection per Subscribe call.
type WebsocketChannel struct {
	baseURL string // e.g. ws://host:port or wss://host:port
	dialer  *websocket.Dialer
}

// NewWebsocketChannel creates a channel against baseURL, which must use
// the ws:// or wss:// scheme.
func NewWebsocketChannel(baseURL string) *WebsocketChannel {
	return &WebsocketChannel{baseURL: baseURL, dialer: websocket.DefaultDialer}
}

func (c *WebsocketChannel) Subscribe(ctx context.Context, sessionID string) (<-chan Event, error) {
	u, err := url.Parse(strings.TrimRight(c.baseURL, "/") + "/ws/sessions/" + sessionID)
	if err != nil {
		return nil, fmt.Errorf("eventchannel: invalid url: %w", err)
	}

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("eventchannel: dial %s: %w", u.String(), err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer conn.Close()

		go func() {
			<-ctx.Done()
			conn.Close()
		}()

		for {
			typ, payload, err := readFrame(conn)
			if err != nil {
				if ctx.Err() == nil {
					slog.Debug("eventchannel: stream ended", "sessionId", sessionID, "error", err)
				}
				return
			}
			select {
			case out <- Event{Type: typ, Payload: payload}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func readFrame(conn *websocket.Conn) (string, []byte, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return "", nil, err
	}
	typ, err := eventType(data)
	if err != nil {
		return "", nil, err
	}
	return typ, data, nil
}

func eventType(data []byte) (string, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", err
	}
	return envelope.Type, nil
}
