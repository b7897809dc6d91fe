// Package bluesky publishes compliant posts to a Bluesky PDS over XRPC.
package bluesky

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"

	"github.com/newghostisfun/dailypost/post"
)

// DefaultPDS is the public Bluesky PDS.
const DefaultPDS = "https://bsky.social"

// DefaultTimeout bounds each XRPC call.
const DefaultTimeout = 30 * time.Second

// PostCollection is the record collection for feed posts.
const PostCollection = "app.bsky.feed.post"

const maxErrorBody = 200

// createdAtLayout is RFC 3339 in UTC with millisecond precision.
const createdAtLayout = "2006-01-02T15:04:05.000Z"

var userAgent = "dailypost"

// Session is an authenticated XRPC session.
type Session struct {
	AccessJwt string `json:"accessJwt"`
	Did       string `json:"did"`
	Handle    string `json:"handle"`
}

// RecordRef identifies a created record.
type RecordRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// APIError is an error answer from the PDS.
type APIError struct {
	Op     string
	Status int
	// Body is the XRPC error name and message.
	Body string
	Err  error
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return fmt.Sprintf("bluesky %s failed (status %d): %s", e.Op, e.Status, body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAPIError returns true if err is or wraps an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

// Client talks to one PDS.
type Client struct {
	host       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the PDS at baseURL (DefaultPDS when empty).
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultPDS
	}
	c := &Client{
		host:       strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// xrpcClient returns an XRPC client for one call, authenticated when auth
// is set.
func (c *Client) xrpcClient(auth *xrpc.AuthInfo) *xrpc.Client {
	return &xrpc.Client{
		Client:    c.httpClient,
		Host:      c.host,
		Auth:      auth,
		UserAgent: &userAgent,
	}
}

// CreateSession authenticates with a handle and app password.
func (c *Client) CreateSession(ctx context.Context, identifier, password string) (*Session, error) {
	if identifier == "" || password == "" {
		return nil, errors.New("identifier and password are required")
	}

	out, err := atproto.ServerCreateSession(ctx, c.xrpcClient(nil), &atproto.ServerCreateSession_Input{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return nil, apiError("createSession", err)
	}
	if out.AccessJwt == "" || out.Did == "" {
		return nil, fmt.Errorf("bluesky createSession: response missing accessJwt or did")
	}

	c.logger.Debug("Bluesky session created", "handle", out.Handle, "did", out.Did)
	return &Session{AccessJwt: out.AccessJwt, Did: out.Did, Handle: out.Handle}, nil
}

// NewRecord builds the feed post record for p at now.
func NewRecord(p post.Post, now time.Time) *bsky.FeedPost {
	return &bsky.FeedPost{
		LexiconTypeID: PostCollection,
		Text:          p.Text(),
		CreatedAt:     now.UTC().Format(createdAtLayout),
	}
}

// CreatePost publishes p under the session's repository.
// Only a normalized post.Post is accepted.
func (c *Client) CreatePost(ctx context.Context, session *Session, p post.Post, now time.Time) (*RecordRef, error) {
	if session == nil || session.AccessJwt == "" {
		return nil, errors.New("an authenticated session is required")
	}
	if p.IsZero() {
		return nil, errors.New("refusing to publish an empty post")
	}

	auth := &xrpc.AuthInfo{AccessJwt: session.AccessJwt, Did: session.Did, Handle: session.Handle}
	out, err := atproto.RepoCreateRecord(ctx, c.xrpcClient(auth), &atproto.RepoCreateRecord_Input{
		Repo:       session.Did,
		Collection: PostCollection,
		Record:     &lexutil.LexiconTypeDecoder{Val: NewRecord(p, now)},
	})
	if err != nil {
		return nil, apiError("createRecord", err)
	}

	ref := &RecordRef{URI: out.Uri, CID: out.Cid}
	c.logger.Info("Post published", "uri", ref.URI, "cid", ref.CID, "chars", len([]rune(p.Text())))
	return ref, nil
}

// apiError maps an XRPC status error to *APIError. Transport failures are
// wrapped as they are.
func apiError(op string, err error) error {
	var xe *xrpc.Error
	if !errors.As(err, &xe) {
		return fmt.Errorf("bluesky %s request failed: %w", op, err)
	}
	body := ""
	if xe.Wrapped != nil {
		body = xe.Wrapped.Error()
	}
	return &APIError{Op: op, Status: xe.StatusCode, Body: body, Err: xe}
}
