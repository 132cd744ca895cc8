package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// executeHTTP posts the statement and pushes the response body as the
// single payload.
func (c *Client) executeHTTP(ctx context.Context, env Envelope, s *Stream) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.httpURL, strings.NewReader(env.Statement))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", ContentTypeTaxiQL)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return &ConnectionError{Op: "post", URL: c.httpURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &QueryFailedError{
			StatusCode: resp.StatusCode,
			Message:    failureMessage(resp.StatusCode, body),
			QueryID:    env.ClientQueryID,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.readLimit+1))
	if err != nil {
		return &ConnectionError{Op: "read", URL: c.httpURL, Err: err}
	}
	if int64(len(body)) > c.readLimit {
		return &ConnectionError{
			Op:  "read",
			URL: c.httpURL,
			Err: fmt.Errorf("response exceeds read limit of %d bytes", c.readLimit),
		}
	}

	c.metrics.received(string(bindingHTTP))
	s.push(body)
	return nil
}

func failureMessage(status int, body []byte) string {
	msg := http.StatusText(status)
	if detail := string(bytes.TrimSpace(body)); detail != "" {
		if msg == "" {
			return detail
		}
		return msg + ": " + detail
	}
	return msg
}
