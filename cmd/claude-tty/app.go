package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/namikmesic/claude-tty/internal/anthropic"
	"github.com/namikmesic/claude-tty/internal/capture"
	"github.com/namikmesic/claude-tty/internal/chat"
	"github.com/namikmesic/claude-tty/internal/config"
	"github.com/namikmesic/claude-tty/internal/jetstream"
	"github.com/namikmesic/claude-tty/internal/pricing"
	"github.com/namikmesic/claude-tty/internal/processor"
	"github.com/namikmesic/claude-tty/internal/storage"
)

// app holds the collaborators a command may need. Optional parts stay nil
// when their configuration is empty.
type app struct {
	cfg      *config.Config
	registry *pricing.Registry
	session  uuid.UUID

	pool   *pgxpool.Pool
	writer *storage.BatchWriter
	proc   *processor.Processor

	nats  *jetstream.Server
	store *capture.Store
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, registry: pricing.DefaultRegistry(), session: uuid.New()}

	if cfg.LedgerEnabled() {
		if err := a.openLedger(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	if cfg.CaptureEnabled() {
		if err := a.openCapture(); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) openLedger(ctx context.Context) error {
	pool, err := storage.NewPool(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("usage ledger: %w", err)
	}
	a.pool = pool

	if err := storage.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("usage ledger: %w", err)
	}

	a.writer = storage.NewBatchWriter(pool, a.cfg.WriterBufferSize, a.cfg.WriterBatchSize, a.cfg.WriterFlushInterval())
	a.proc = processor.New(a.writer, a.session, true)
	log.Debug().Str("session_id", a.session.String()).Msg("usage ledger enabled")
	return nil
}

func (a *app) openCapture() error {
	srv, err := jetstream.Start(a.cfg.CaptureDir)
	if err != nil {
		return fmt.Errorf("stream capture: %w", err)
	}
	a.nats = srv

	if err := jetstream.EnsureStream(srv.JetStream(), a.cfg.CaptureMaxAge); err != nil {
		return fmt.Errorf("stream capture: %w", err)
	}
	a.store = capture.NewStore(srv.JetStream())
	return nil
}

// model resolves the model from the flag, then the environment.
func (a *app) model(f *flags) (pricing.Model, error) {
	id := a.cfg.Model
	if f != nil && f.model != "" {
		id = f.model
	}
	return a.registry.Get(id)
}

func (a *app) sessionOptions(f *flags) (chat.Options, error) {
	m, err := a.model(f)
	if err != nil {
		return chat.Options{}, err
	}
	opts := chat.Options{
		Model:         m,
		MaxTokens:     a.cfg.MaxTokens,
		System:        a.cfg.SystemPrompt,
		TokenTracking: a.cfg.TokenTracking,
		Processor:     a.proc,
	}
	if f.maxTokens > 0 {
		opts.MaxTokens = f.maxTokens
	}
	if f.system != "" {
		opts.System = f.system
	}
	if a.store != nil {
		opts.Recorder = captureRecorder{a.store}
	}
	return opts, nil
}

func (a *app) client() *anthropic.Client {
	return anthropic.NewClient(a.cfg.AnthropicBaseURL, a.cfg.AnthropicAPIKey, anthropic.WithVersion(a.cfg.AnthropicVersion))
}

// Close flushes the ledger and stops the capture server.
func (a *app) Close() {
	if a.writer != nil {
		a.writer.Shutdown()
		if n := a.writer.Dropped(); n > 0 {
			log.Warn().Int64("dropped", n).Msg("ledger writes dropped")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.nats != nil {
		a.nats.Shutdown()
	}
}

type captureRecorder struct{ store *capture.Store }

func (c captureRecorder) Record(id, model string, body io.ReadCloser) io.ReadCloser {
	return c.store.Record(id, model, body)
}
