package bluesky

import (
	"context"
	"fmt"
	"time"

	"github.com/newghostisfun/dailypost/post"
)

// Publisher logs in and posts in one step, once per call.
type Publisher struct {
	Client     *Client
	Identifier string
	Password   string
}

// NewPublisher creates a Publisher for the given account.
func NewPublisher(client *Client, identifier, password string) *Publisher {
	return &Publisher{Client: client, Identifier: identifier, Password: password}
}

// Publish creates a session and submits p. A failure at either step is
// returned as is; nothing is retried.
func (p *Publisher) Publish(ctx context.Context, pst post.Post, now time.Time) (*RecordRef, error) {
	session, err := p.Client.CreateSession(ctx, p.Identifier, p.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	ref, err := p.Client.CreatePost(ctx, session, pst, now)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return ref, nil
}
