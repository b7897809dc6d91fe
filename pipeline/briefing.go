package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/newghostisfun/dailypost/llm"
	"github.com/newghostisfun/dailypost/metrics"
	"github.com/newghostisfun/dailypost/post"
	"github.com/newghostisfun/dailypost/prompts"
	"github.com/newghostisfun/dailypost/publish/feed"
)

// BriefingRunner generates the daily briefing and overwrites the feed file.
type BriefingRunner struct {
	Generator       llm.Generator
	Channel         feed.Channel
	GUIDPrefix      string
	Path            string
	Metrics         *metrics.Recorder
	Logger          *slog.Logger
	Now             func() time.Time
	MaxOutputTokens int
}

// BriefingResult describes a written feed.
type BriefingResult struct {
	Item      feed.Item
	Path      string
	RequestID string
}

const commandBriefing = "briefing"

// Run executes one briefing run.
func (r *BriefingRunner) Run(ctx context.Context) (*BriefingResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	if r.Generator == nil {
		return nil, errors.New("briefing runner has no generator")
	}
	path := r.Path
	if path == "" {
		path = feed.DefaultPath
	}

	fail := func(outcome string, err error) (*BriefingResult, error) {
		r.Metrics.RunFinished(commandBriefing, outcome, now)
		return nil, err
	}

	startedAt := time.Now()
	resp, err := r.Generator.Generate(ctx, llm.Request{Prompt: prompts.Briefing(), MaxOutputTokens: r.MaxOutputTokens})
	r.Metrics.ObserveGeneration(time.Since(startedAt))
	if err != nil {
		return fail(metrics.OutcomeFailed, fmt.Errorf("generate briefing: %w", err))
	}

	text, err := post.SanitizeBriefing(resp.Content)
	if err != nil {
		if kind := post.RejectionKind(err); kind != "" {
			r.Metrics.Rejected(string(kind))
		}
		return fail(metrics.OutcomeRejected, fmt.Errorf("sanitize briefing: %w", err))
	}

	item := feed.NewItem(text, now, r.GUIDPrefix)
	data, err := feed.Render(r.Channel, item)
	if err != nil {
		return fail(metrics.OutcomeFailed, fmt.Errorf("render feed: %w", err))
	}
	if err := feed.WriteFile(path, data); err != nil {
		return fail(metrics.OutcomeFailed, fmt.Errorf("write feed: %w", err))
	}

	r.Metrics.RunFinished(commandBriefing, metrics.OutcomePublished, now)
	logger.Info("Briefing written",
		"request_id", resp.RequestID,
		"path", path,
		"guid", item.GUID,
		"chars", len(text))

	return &BriefingResult{Item: item, Path: path, RequestID: resp.RequestID}, nil
}
