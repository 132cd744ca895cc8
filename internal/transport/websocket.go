package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"
)

// streamQuery is the first frame sent on a streaming connection.
type streamQuery struct {
	ClientQueryID string     `json:"clientQueryId"`
	Query         string     `json:"query"`
	ResultMode    ResultMode `json:"resultMode"`
}

// executeWebSocket opens a connection, sends the query frame, and pushes
// every inbound frame until the server closes the connection.
func (c *Client) executeWebSocket(ctx context.Context, env Envelope, s *Stream) error {
	frame, err := json.Marshal(streamQuery{
		ClientQueryID: env.ClientQueryID,
		Query:         env.Statement,
		ResultMode:    c.resultMode,
	})
	if err != nil {
		return fmt.Errorf("encode query frame: %w", err)
	}

	conn, _, err := websocket.Dial(ctx, c.wsURL, &websocket.DialOptions{
		HTTPClient: c.wsClient,
	})
	if err != nil {
		return &ConnectionError{Op: "dial", URL: c.wsURL, Err: err}
	}
	defer conn.CloseNow()
	conn.SetReadLimit(c.readLimit)

	s.advance(StateStreaming)

	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		return &ConnectionError{Op: "write", URL: c.wsURL, Err: err}
	}
	c.logger.Debug("query sent over websocket",
		"query_id", env.ClientQueryID,
		"url", c.wsURL,
	)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return &ConnectionError{Op: "read", URL: c.wsURL, Err: err}
		}

		c.metrics.received(string(bindingWebSocket))
		c.logger.Debug("query received a message",
			"query_id", env.ClientQueryID,
			"bytes", len(data),
		)
		if !s.push(data) {
			// Closed by the consumer or overflowed; the deferred CloseNow
			// releases the connection.
			return nil
		}
	}
}
