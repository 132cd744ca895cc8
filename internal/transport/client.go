package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/orbital/internal/statement"
)

const (
	// QueryPath is the request/response endpoint, relative to the address.
	QueryPath = "/api/taxiql"

	// StreamPath is the WebSocket endpoint, relative to the address.
	StreamPath = "/api/query/taxiql"

	// ContentTypeTaxiQL is the media type of a posted statement.
	ContentTypeTaxiQL = "application/taxiql"

	// DefaultReadLimit caps a single payload in bytes.
	DefaultReadLimit int64 = 16 << 20
)

// Mode is the delivery preference for Find queries. Stream queries always
// use the streaming binding.
type Mode int

const (
	// ModeRequestResponse sends Find queries as a single HTTP call.
	ModeRequestResponse Mode = iota
	// ModeStreaming sends Find queries over a WebSocket.
	ModeStreaming
)

// String returns the mode name used in configuration.
func (m Mode) String() string {
	switch m {
	case ModeRequestResponse:
		return "request-response"
	case ModeStreaming:
		return "streaming"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "request-response" (or "http") and "streaming"
// (or "websocket").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "request-response", "http", "":
		return ModeRequestResponse, nil
	case "streaming", "websocket":
		return ModeStreaming, nil
	default:
		return 0, fmt.Errorf("unknown transport mode %q", s)
	}
}

// Doer abstracts *http.Client so callers can wrap it with retries, tracing
// or fakes. It has the same signature as http.Client.Do.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Client created with NewClient.
type Option func(*Client)

// WithMode sets the delivery preference for Find queries.
func WithMode(m Mode) Option {
	return func(c *Client) {
		c.mode = m
	}
}

// WithHTTPClient sets the client used for request/response calls. If d is
// an *http.Client it is also used for the WebSocket handshake.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.doer = d
		if hc, ok := d.(*http.Client); ok {
			c.wsClient = hc
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithBufferSize sets how many undelivered payloads a stream may hold.
// Defaults to DefaultBufferSize.
func WithBufferSize(n int) Option {
	return func(c *Client) {
		c.bufferSize = n
	}
}

// WithReadLimit caps the size of a single payload. Defaults to
// DefaultReadLimit.
func WithReadLimit(n int64) Option {
	return func(c *Client) {
		c.readLimit = n
	}
}

// WithResultMode sets the result mode sent with streaming queries.
func WithResultMode(m ResultMode) Option {
	return func(c *Client) {
		c.resultMode = m
	}
}

// WithMetrics records dispatch metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client dispatches envelopes to a query server over HTTP or WebSocket.
//
// Thread-safety: a Client is immutable after construction and safe for
// concurrent use. Each Execute call owns its own request or connection.
type Client struct {
	httpURL string
	wsURL   string

	mode       Mode
	doer       Doer
	wsClient   *http.Client
	logger     *slog.Logger
	bufferSize int
	readLimit  int64
	resultMode ResultMode
	metrics    *Metrics
}

// NewClient creates a Client for the server at address, which must be an
// http(s) or ws(s) URL. Any path on the address is kept as a prefix.
func NewClient(address string, opts ...Option) (*Client, error) {
	httpURL, wsURL, err := endpoints(address)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpURL:    httpURL,
		wsURL:      wsURL,
		mode:       ModeRequestResponse,
		doer:       http.DefaultClient,
		wsClient:   http.DefaultClient,
		logger:     slog.Default(),
		bufferSize: DefaultBufferSize,
		readLimit:  DefaultReadLimit,
		resultMode: DefaultResultMode,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.resultMode.Deprecated() {
		c.logger.Warn("deprecated result mode, sending TYPED instead",
			"result_mode", c.resultMode,
		)
		c.resultMode = ResultModeTyped
	}
	if _, err := c.resultMode.MarshalText(); err != nil {
		return nil, err
	}
	if c.bufferSize <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %d", c.bufferSize)
	}
	if c.readLimit <= 0 {
		return nil, fmt.Errorf("read limit must be positive, got %d", c.readLimit)
	}
	return c, nil
}

// HTTP creates a Client that sends Find queries as single HTTP calls.
func HTTP(address string, opts ...Option) (*Client, error) {
	return NewClient(address, append([]Option{WithMode(ModeRequestResponse)}, opts...)...)
}

// HTTPStream creates a Client that sends every query over a WebSocket.
func HTTPStream(address string, opts ...Option) (*Client, error) {
	return NewClient(address, append([]Option{WithMode(ModeStreaming)}, opts...)...)
}

// QueryURL returns the request/response endpoint.
func (c *Client) QueryURL() string { return c.httpURL }

// StreamURL returns the WebSocket endpoint.
func (c *Client) StreamURL() string { return c.wsURL }

// Mode returns the Find delivery preference.
func (c *Client) Mode() Mode { return c.mode }

type binding string

const (
	bindingHTTP      binding = "http"
	bindingWebSocket binding = "websocket"
)

func (c *Client) bindingFor(verb statement.Verb) binding {
	if verb == statement.Find && c.mode == ModeRequestResponse {
		return bindingHTTP
	}
	return bindingWebSocket
}

// Execute dispatches env and returns its result stream. The request runs
// on its own goroutine; closing the stream or cancelling ctx releases it.
func (c *Client) Execute(ctx context.Context, env Envelope) *Stream {
	if !env.Verb.Valid() {
		return Failed(fmt.Errorf("%w: %q", statement.ErrInvalidVerb, string(env.Verb)))
	}

	ctx, cancel := context.WithCancel(ctx)
	s := newStream(c.bufferSize, cancel)
	b := c.bindingFor(env.Verb)

	s.advance(StateDispatching)
	c.metrics.dispatched(env.Verb.String(), string(b))
	c.logger.Debug("dispatching query",
		"query_id", env.ClientQueryID,
		"verb", env.Verb,
		"binding", b,
	)

	go func() {
		start := time.Now()

		var err error
		switch b {
		case bindingHTTP:
			err = c.executeHTTP(ctx, env, s)
		default:
			err = c.executeWebSocket(ctx, env, s)
		}
		s.finish(err)

		c.metrics.finished(env.Verb.String(), string(b), s.State(), s.Err(), time.Since(start))
		c.logger.Debug("query terminated",
			"query_id", env.ClientQueryID,
			"state", s.State(),
			"error", s.Err(),
		)
	}()

	return s
}

// endpoints derives the HTTP and WebSocket endpoint URLs from address.
func endpoints(address string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		return "", "", fmt.Errorf("parse address %q: %w", address, err)
	}

	var httpScheme, wsScheme string
	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		httpScheme, wsScheme = "http", "ws"
	case "https", "wss":
		httpScheme, wsScheme = "https", "wss"
	default:
		return "", "", fmt.Errorf("%w %q in %q: expected http or https", ErrUnsupportedScheme, u.Scheme, address)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("address %q has no host", address)
	}

	base := strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""

	h := *u
	h.Scheme = httpScheme
	h.Path = base + QueryPath

	w := *u
	w.Scheme = wsScheme
	w.Path = base + StreamPath

	return h.String(), w.String(), nil
}
