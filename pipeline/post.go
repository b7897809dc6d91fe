// Package pipeline wires one run: signal, prompt, generation, normalization
// and at most one publish.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/newghostisfun/dailypost/llm"
	"github.com/newghostisfun/dailypost/metrics"
	"github.com/newghostisfun/dailypost/notify"
	"github.com/newghostisfun/dailypost/post"
	"github.com/newghostisfun/dailypost/prompts"
	"github.com/newghostisfun/dailypost/publish/bluesky"
	"github.com/newghostisfun/dailypost/signals"
)

// SignalSource provides today's signal. It never fails.
type SignalSource interface {
	Read() signals.Signal
}

// Publisher submits a compliant post.
type Publisher interface {
	Publish(ctx context.Context, p post.Post, now time.Time) (*bluesky.RecordRef, error)
}

// RunOptions controls one post run.
type RunOptions struct {
	// DryRun stops after normalization.
	DryRun bool
}

// Result describes a finished post run.
type Result struct {
	Signal    signals.Signal
	Mode      post.Mode
	Post      post.Post
	Record    *bluesky.RecordRef
	RequestID string
	Model     string
	DryRun    bool
}

// PostRunner performs a single post run. Signals, Generator and Normalizer
// are required; Publisher is required unless the run is a dry run.
type PostRunner struct {
	Signals         SignalSource
	Generator       llm.Generator
	Normalizer      *post.Normalizer
	Publisher       Publisher
	Announcer       notify.Announcer
	Metrics         *metrics.Recorder
	Logger          *slog.Logger
	Now             func() time.Time
	MaxOutputTokens int
}

const commandPost = "post"

// Run executes the run. Every failure is returned; announcement failures
// after a successful publish are only logged.
func (r *PostRunner) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	logger := r.logger()

	if r.Signals == nil || r.Generator == nil || r.Normalizer == nil {
		return nil, errors.New("post runner is missing signals, generator or normalizer")
	}
	if !opts.DryRun && r.Publisher == nil {
		return nil, errors.New("post runner has no publisher")
	}

	sig := r.Signals.Read()
	mode := post.ModeNormal
	if sig.Flagged {
		mode = post.ModeSpecial
	}
	result := &Result{Signal: sig, Mode: mode, DryRun: opts.DryRun}

	profile := r.Normalizer.Profile()
	logger.Info("Starting post run",
		"mode", mode.String(),
		"profile", profile.Name,
		"has_summary", sig.HasSummary(),
		"dry_run", opts.DryRun)

	prompt := prompts.Build(prompts.Request{Mode: mode, Context: sig.Summary}, profile)

	startedAt := time.Now()
	resp, err := r.Generator.Generate(ctx, llm.Request{Prompt: prompt, MaxOutputTokens: r.MaxOutputTokens})
	r.Metrics.ObserveGeneration(time.Since(startedAt))
	if err != nil {
		r.finish(metrics.OutcomeFailed)
		return result, fmt.Errorf("generate post: %w", err)
	}
	result.RequestID = resp.RequestID
	result.Model = resp.Model

	p, err := r.Normalizer.Normalize(post.Draft{Text: resp.Content, Mode: mode, Summary: sig.Summary})
	if err != nil {
		if kind := post.RejectionKind(err); kind != "" {
			r.Metrics.Rejected(string(kind))
			r.finish(metrics.OutcomeRejected)
			logger.Warn("Generated post rejected",
				"request_id", resp.RequestID,
				"kind", string(kind),
				"error", err)
		} else {
			r.finish(metrics.OutcomeFailed)
		}
		return result, fmt.Errorf("normalize post: %w", err)
	}
	result.Post = p

	logger.Info("Post normalized",
		"request_id", resp.RequestID,
		"chars", len([]rune(p.Text())),
		"truncated", p.Truncated(),
		"text", p.Text(),
		"summary", sig.Summary)

	if opts.DryRun {
		r.finish(metrics.OutcomeDryRun)
		return result, nil
	}

	now := r.now()
	ref, err := r.Publisher.Publish(ctx, p, now)
	if err != nil {
		r.finish(metrics.OutcomeFailed)
		return result, fmt.Errorf("publish post: %w", err)
	}
	result.Record = ref
	r.finish(metrics.OutcomePublished)

	if r.Announcer != nil {
		err := r.Announcer.Announce(ctx, notify.Announcement{
			URI:         ref.URI,
			CID:         ref.CID,
			Text:        p.Text(),
			Mode:        mode.String(),
			PublishedAt: now.UTC(),
		})
		if err != nil {
			logger.Warn("Announcement failed", "uri", ref.URI, "error", err)
		}
	}

	return result, nil
}

func (r *PostRunner) finish(outcome string) {
	r.Metrics.RunFinished(commandPost, outcome, r.now())
}

func (r *PostRunner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *PostRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
