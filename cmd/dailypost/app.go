package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/newghostisfun/dailypost/config"
	"github.com/newghostisfun/dailypost/llm"
	"github.com/newghostisfun/dailypost/llm/providers"
	"github.com/newghostisfun/dailypost/metrics"
	"github.com/newghostisfun/dailypost/notify"
	"github.com/newghostisfun/dailypost/pipeline"
	"github.com/newghostisfun/dailypost/post"
	"github.com/newghostisfun/dailypost/publish/bluesky"
	"github.com/newghostisfun/dailypost/signals"
)

// app holds what every command needs after configuration is loaded.
type app struct {
	cfg     *config.Config
	secrets config.Secrets
	logger  *slog.Logger
}

func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newApp(flags *globalFlags, stderr io.Writer) (*app, error) {
	logger := newLogger(flags.logLevel, stderr)
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &app{cfg: cfg, secrets: config.EnvSecrets(), logger: logger}, nil
}

func (a *app) normalizer(profileName string) (*post.Normalizer, error) {
	if profileName == "" {
		profileName = a.cfg.Profile
	}
	profile, err := a.cfg.LookupProfile(profileName)
	if err != nil {
		return nil, err
	}
	return post.NewNormalizer(profile)
}

func (a *app) generator(ctx context.Context) (llm.Generator, error) {
	gen := a.cfg.Generation
	apiKey, err := a.secrets.APIKey(gen.Provider)
	if err != nil {
		return nil, err
	}
	return providers.NewGenerator(ctx, llm.Endpoint{
		Provider: gen.Provider,
		URL:      gen.Endpoint,
		Model:    gen.Model,
		APIKey:   apiKey,
	}, gen.Timeout, a.logger.With("component", "llm"))
}

func (a *app) announcer(dryRun bool) notify.Announcer {
	if dryRun || a.cfg.NATS.URL == "" {
		return notify.Noop{}
	}
	ann, err := notify.Connect(a.cfg.NATS.URL, a.cfg.NATS.Subject, a.logger.With("component", "notify"))
	if err != nil {
		a.logger.Warn("Announcements disabled", "url", a.cfg.NATS.URL, "error", err)
		return notify.Noop{}
	}
	return ann
}

func (a *app) flushMetrics(rec *metrics.Recorder) {
	if err := rec.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
		a.logger.Warn("Failed to write metrics", "path", a.cfg.Metrics.TextfilePath, "error", err)
	}
}

func (a *app) runPost(ctx context.Context, out io.Writer, profileName string, dryRun bool) error {
	normalizer, err := a.normalizer(profileName)
	if err != nil {
		return err
	}

	// Every required secret is checked before any network call.
	var publisher pipeline.Publisher
	if !dryRun {
		handle, password, err := a.secrets.BlueskyCredentials()
		if err != nil {
			return err
		}
		client := bluesky.NewClient(a.cfg.Bluesky.PDS,
			bluesky.WithHTTPClient(&http.Client{Timeout: a.cfg.Bluesky.Timeout}),
			bluesky.WithLogger(a.logger.With("component", "bluesky")))
		publisher = bluesky.NewPublisher(client, handle, password)
	}

	gen, err := a.generator(ctx)
	if err != nil {
		return err
	}

	announcer := a.announcer(dryRun)
	defer announcer.Close()

	rec := metrics.NewRecorder()
	defer a.flushMetrics(rec)

	runner := &pipeline.PostRunner{
		Signals:         signals.NewReader(a.cfg.Signals.Path, a.logger.With("component", "signals")),
		Generator:       gen,
		Normalizer:      normalizer,
		Publisher:       publisher,
		Announcer:       announcer,
		Metrics:         rec,
		Logger:          a.logger.With("component", "pipeline"),
		MaxOutputTokens: a.cfg.Generation.MaxOutputTokens,
	}

	res, err := runner.Run(ctx, pipeline.RunOptions{DryRun: dryRun})
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Fprintln(out, res.Post.Text())
		return nil
	}
	fmt.Fprintln(out, res.Record.URI)
	return nil
}

func (a *app) runBriefing(ctx context.Context, out io.Writer, path string) error {
	gen, err := a.generator(ctx)
	if err != nil {
		return err
	}

	rec := metrics.NewRecorder()
	defer a.flushMetrics(rec)

	if path == "" {
		path = a.cfg.Feed.Path
	}

	runner := &pipeline.BriefingRunner{
		Generator:       gen,
		Channel:         a.cfg.Feed.Channel,
		GUIDPrefix:      a.cfg.Feed.GUIDPrefix,
		Path:            path,
		Metrics:         rec,
		Logger:          a.logger.With("component", "pipeline"),
		MaxOutputTokens: a.cfg.Generation.BriefingMaxOutputTokens,
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Path)
	return nil
}

func (a *app) runCheck(out io.Writer, text, profileName string, special bool) error {
	normalizer, err := a.normalizer(profileName)
	if err != nil {
		return err
	}

	mode := post.ModeNormal
	if special {
		mode = post.ModeSpecial
	}

	p, err := normalizer.Normalize(post.Draft{Text: text, Mode: mode})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, p.Text())
	if p.Truncated() {
		a.logger.Info("Text was truncated", "profile", p.Profile(), "chars", len([]rune(p.Text())))
	}
	return nil
}

func (a *app) showConfig(out io.Writer) error {
	data, err := yaml.Marshal(a.cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = out.Write(data)
	return err
}
