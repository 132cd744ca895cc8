package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/coder/websocket"
)

// Script scripts how a QueryServer answers.
type Script struct {
	// Status is the HTTP status for posted queries. Zero means 200.
	Status int

	// Body is the response body for posted queries.
	Body []byte

	// Frames are sent, in order, on every streaming connection.
	Frames [][]byte

	// CloseCode ends a streaming connection after Frames. Zero means
	// websocket.StatusNormalClosure.
	CloseCode websocket.StatusCode

	// CloseReason accompanies CloseCode.
	CloseReason string

	// Abort drops the connection after Frames without a close frame.
	Abort bool

	// Hold keeps the connection open after Frames until the client
	// disconnects.
	Hold bool
}

// Post is one recorded request/response query.
type Post struct {
	ContentType string
	Accept      string
	Statement   string
}

// StreamQuery is one recorded first frame, decoded.
type StreamQuery struct {
	ClientQueryID string `json:"clientQueryId"`
	Query         string `json:"query"`
	ResultMode    string `json:"resultMode"`

	// Raw is the frame as sent.
	Raw []byte `json:"-"`
}

// QueryServer fakes a TaxiQL query server: it answers POST /api/taxiql
// and streams over /api/query/taxiql, recording everything it receives.
//
// Thread-safety: all methods are safe for concurrent use.
type QueryServer struct {
	*httptest.Server

	mu       sync.Mutex
	script   Script
	posts    []Post
	queries  []StreamQuery
	released chan struct{}
}

// NewQueryServer starts a QueryServer and closes it when the test ends.
func NewQueryServer(t testing.TB, script Script) *QueryServer {
	t.Helper()

	s := &QueryServer{
		script:   script,
		released: make(chan struct{}, 16),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/taxiql", s.handlePost)
	mux.HandleFunc("GET /api/query/taxiql", s.handleStream)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// SetScript replaces the script for subsequent queries.
func (s *QueryServer) SetScript(script Script) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = script
}

// Posts returns the recorded request/response queries.
func (s *QueryServer) Posts() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Post(nil), s.posts...)
}

// StreamQueries returns the recorded streaming first frames.
func (s *QueryServer) StreamQueries() []StreamQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StreamQuery(nil), s.queries...)
}

// Released receives once per held connection the client has dropped.
func (s *QueryServer) Released() <-chan struct{} {
	return s.released
}

func (s *QueryServer) currentScript() Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.script
}

func (s *QueryServer) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.posts = append(s.posts, Post{
		ContentType: r.Header.Get("Content-Type"),
		Accept:      r.Header.Get("Accept"),
		Statement:   string(body),
	})
	s.mu.Unlock()

	script := s.currentScript()
	status := script.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(script.Body)
}

func (s *QueryServer) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	_, first, err := conn.Read(ctx)
	if err != nil {
		return
	}

	q := StreamQuery{Raw: first}
	_ = json.Unmarshal(first, &q)
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()

	script := s.currentScript()
	for _, f := range script.Frames {
		if err := conn.Write(ctx, websocket.MessageText, f); err != nil {
			return
		}
	}

	switch {
	case script.Hold:
		s.awaitRelease(ctx, conn)
	case script.Abort:
		return
	default:
		code := script.CloseCode
		if code == 0 {
			code = websocket.StatusNormalClosure
		}
		_ = conn.Close(code, script.CloseReason)
	}
}

// awaitRelease blocks until the client drops the connection.
func (s *QueryServer) awaitRelease(ctx context.Context, conn *websocket.Conn) {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			select {
			case s.released <- struct{}{}:
			default:
			}
			return
		}
	}
}
