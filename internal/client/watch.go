package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Event is a message from the server's event stream
type Event struct {
	Type         string    `json:"type"`
	ID           string    `json:"id,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
	SidekickName string    `json:"sidekick_name,omitempty"`
	Error        string    `json:"error,omitempty"`
	Time         time.Time `json:"time"`
}

// WatchOptions tunes the reconnect loop
type WatchOptions struct {
	ReconnectDelay time.Duration
	MaxReconnect   time.Duration
}

// EventsURL turns an http(s) base URL into the websocket events URL
func EventsURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/events"
	return u.String(), nil
}

// Watch streams events to handle until ctx is done, reconnecting with
// exponential backoff
func (c *Client) Watch(ctx context.Context, opts WatchOptions, handle func(Event)) error {
	wsURL, err := EventsURL(c.baseURL)
	if err != nil {
		return err
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.MaxReconnect < opts.ReconnectDelay {
		opts.MaxReconnect = opts.ReconnectDelay
	}

	delay := opts.ReconnectDelay
	for {
		err := watchOnce(ctx, wsURL, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			// Clean close; start over with the short delay
			delay = opts.ReconnectDelay
		} else {
			log.Printf("Event stream failed: %v. Reconnecting in %v...", err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = delay * 2
		if delay > opts.MaxReconnect {
			delay = opts.MaxReconnect
		}
	}
}

// watchOnce runs a single connection until it closes
func watchOnce(ctx context.Context, wsURL string, handle func(Event)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller gives up
	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var ev Event
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Printf("Failed to parse event: %v", err)
			continue
		}
		if ev.Type == "ping" {
			continue
		}
		handle(ev)
	}
}
