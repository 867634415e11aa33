// Package client drives one research session at a time: it posts the query,
// pulls the streamed body through the frame decoder and event parser, and
// folds every event into the session state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mikeboe/research-stream/pkg/events"
	"github.com/mikeboe/research-stream/pkg/session"
	"github.com/mikeboe/research-stream/pkg/sse"
)

// TransportFailureMessage is the message of the error event synthesized when
// the service cannot be reached or answers with a failure status.
const TransportFailureMessage = "Failed to complete research. Please try again."

const readChunkSize = 4096

// Client talks to a research service. Starting a new run abandons the one
// before it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	source     string

	// token identifies the current session. Callbacks are delivered under
	// deliverMu and only while the run's token is still current.
	token     atomic.Uint64
	deliverMu sync.Mutex
	current   *Run
}

type Option func(*Client)

// WithHTTPClient sets the client used for requests. It should not have an
// overall Timeout, since the response body streams for as long as the
// research takes.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSource asks the service to search the named source instead of its
// default.
func WithSource(source string) Option {
	return func(c *Client) { c.source = source }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type researchRequest struct {
	Query  string `json:"query"`
	Source string `json:"source,omitempty"`
}

// Run starts a session for query and returns immediately. onChange, which may
// be nil, is called after every reduced event with a snapshot of the new
// state. Callbacks are serialized and must not call Run or Cancel on the same
// Client; cancel ctx instead to stop a run from inside a callback.
func (c *Client) Run(ctx context.Context, query string, onChange func(session.Snapshot)) *Run {
	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		client:   c,
		ctx:      ctx,
		cancel:   cancel,
		onChange: onChange,
		state:    session.New(query),
		done:     make(chan struct{}),
	}

	c.deliverMu.Lock()
	r.token = c.token.Add(1)
	prev := c.current
	c.current = r
	c.deliverMu.Unlock()

	if prev != nil {
		prev.cancel()
	}

	go r.loop(ctx)
	return r
}

// Ask runs query to completion and returns the final state.
func (c *Client) Ask(ctx context.Context, query string, onChange func(session.Snapshot)) session.State {
	return c.Run(ctx, query, onChange).Wait()
}

// Run is the handle of one session.
type Run struct {
	client   *Client
	token    uint64
	ctx      context.Context
	cancel   context.CancelFunc
	onChange func(session.Snapshot)

	cancelled atomic.Bool
	state     session.State
	done      chan struct{}
}

// Token is the session identity assigned when the run started.
func (r *Run) Token() uint64 { return r.token }

// Cancel stops the run. No callbacks fire after Cancel returns and the final
// state is inactive.
func (r *Run) Cancel() {
	r.client.deliverMu.Lock()
	r.cancelled.Store(true)
	r.client.deliverMu.Unlock()
	r.cancel()
}

// Done is closed once the run has quiesced.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run ends and returns its final state.
func (r *Run) Wait() session.State {
	<-r.done
	return r.state
}

// live reports whether the run may still touch observable state.
func (r *Run) live() bool {
	return !r.cancelled.Load() && r.ctx.Err() == nil && r.client.token.Load() == r.token
}

func (r *Run) loop(ctx context.Context) {
	defer close(r.done)
	defer r.cancel()
	defer func() { r.state = session.End(r.state) }()

	logger := r.client.logger.With("session", r.token)

	resp, err := r.client.open(ctx, r.state.Query)
	if !r.live() {
		if resp != nil {
			resp.Body.Close()
		}
		logger.Debug("Session abandoned before response")
		return
	}
	if err != nil {
		logger.Error("Research request failed", "error", err)
		r.apply(events.Error(TransportFailureMessage))
		return
	}
	defer resp.Body.Close()

	var dec sse.Decoder
	buf := make([]byte, readChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if !r.live() {
			logger.Debug("Session abandoned mid-stream")
			return
		}
		if n > 0 {
			r.feed(logger, dec.Feed(buf[:n]))
		}
		if readErr == nil {
			continue
		}

		r.feed(logger, dec.Flush())
		switch {
		case errors.Is(readErr, io.EOF):
			logger.Info("Research stream closed", "events", len(r.state.RawEvents), "terminated", r.state.Terminated())
		case errors.Is(readErr, io.ErrUnexpectedEOF):
			logger.Warn("Research stream severed", "events", len(r.state.RawEvents))
		case r.state.Terminated():
			logger.Warn("Read failed after terminal event", "error", readErr)
		default:
			logger.Error("Research stream unreadable", "error", readErr)
			r.apply(events.Error(TransportFailureMessage))
		}
		return
	}
}

func (r *Run) feed(logger *slog.Logger, payloads []string) {
	for _, p := range payloads {
		e, err := events.Parse(p)
		if err != nil {
			logger.Warn("Skipping malformed frame", "error", err, "payload_len", len(p))
			continue
		}
		if !e.Known() {
			logger.Debug("Unknown event kind", "type", e.Kind)
		}
		r.apply(e)
	}
}

// apply reduces e and notifies the observer, unless the run was abandoned.
func (r *Run) apply(e events.Event) {
	r.client.deliverMu.Lock()
	defer r.client.deliverMu.Unlock()
	if !r.live() {
		return
	}
	r.state = session.Reduce(r.state, e)
	if r.onChange != nil {
		r.onChange(r.state.Snapshot())
	}
}

func (c *Client) open(ctx context.Context, query string) (*http.Response, error) {
	body, err := json.Marshal(researchRequest{Query: query, Source: c.source})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/research", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach research service: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("research service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}
