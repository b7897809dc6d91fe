// Package notify announces published posts on NATS for downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject announcements are published on.
const DefaultSubject = "dailypost.published"

const flushTimeout = 5 * time.Second

// Announcement describes one published post.
type Announcement struct {
	URI         string    `json:"uri"`
	CID         string    `json:"cid"`
	Text        string    `json:"text"`
	Mode        string    `json:"mode"`
	PublishedAt time.Time `json:"published_at"`
}

// Announcer sends announcements.
type Announcer interface {
	Announce(ctx context.Context, a Announcement) error
	Close() error
}

// Conn is the subset of *nats.Conn the announcer uses.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Noop discards announcements. Used when no NATS URL is configured.
type Noop struct{}

// Announce does nothing.
func (Noop) Announce(context.Context, Announcement) error { return nil }

// Close does nothing.
func (Noop) Close() error { return nil }

// NATSAnnouncer publishes announcements as JSON on a core NATS subject.
type NATSAnnouncer struct {
	conn    Conn
	subject string
	logger  *slog.Logger
}

// Connect dials url and returns an announcer for subject.
func Connect(url, subject string, logger *slog.Logger) (*NATSAnnouncer, error) {
	if url == "" {
		return nil, errors.New("NATS URL is required")
	}
	conn, err := nats.Connect(url,
		nats.Name("dailypost"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(2),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return NewNATSAnnouncer(conn, subject, logger), nil
}

// NewNATSAnnouncer wraps an existing connection.
func NewNATSAnnouncer(conn Conn, subject string, logger *slog.Logger) *NATSAnnouncer {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSAnnouncer{conn: conn, subject: subject, logger: logger}
}

// Announce publishes a and flushes so the message leaves before the process
// exits.
func (n *NATSAnnouncer) Announce(ctx context.Context, a Announcement) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal announcement: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}

	timeout := flushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if err := n.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("flush %s: %w", n.subject, err)
	}

	n.logger.Debug("Announcement published", "subject", n.subject, "uri", a.URI)
	return nil
}

// Close closes the underlying connection.
func (n *NATSAnnouncer) Close() error {
	n.conn.Close()
	return nil
}
