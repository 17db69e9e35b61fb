package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/namikmesic/claude-tty/internal/anthropic"
	"github.com/namikmesic/claude-tty/internal/exchange"
	"github.com/namikmesic/claude-tty/internal/pricing"
	"github.com/namikmesic/claude-tty/internal/processor"
	"github.com/namikmesic/claude-tty/internal/render"
)

// Streamer opens a streaming reply. *anthropic.Client implements it.
type Streamer interface {
	Stream(ctx context.Context, req anthropic.MessagesRequest) (io.ReadCloser, error)
}

// Recorder wraps a response body to capture it. *capture.Store implements
// it through an adapter in main.
type Recorder interface {
	Record(id, model string, body io.ReadCloser) io.ReadCloser
}

// Display is the terminal the session renders to.
type Display interface {
	render.Renderer
	SetTitle(title string)
	Errorf(format string, args ...any)
}

type Options struct {
	Model         pricing.Model
	MaxTokens     int // 0 uses the model default
	System        string
	TokenTracking bool
	Processor     *processor.Processor
	Recorder      Recorder
}

// Session is one interactive conversation with a single active model.
type Session struct {
	client   Streamer
	registry *pricing.Registry
	display  Display
	out      io.Writer
	opts     Options

	conv   Conversation
	totals Totals
}

func NewSession(client Streamer, registry *pricing.Registry, display Display, out io.Writer, opts Options) *Session {
	display.SetTitle(opts.Model.DisplayName)
	return &Session{
		client:   client,
		registry: registry,
		display:  display,
		out:      out,
		opts:     opts,
	}
}

func (s *Session) Model() pricing.Model { return s.opts.Model }
func (s *Session) Totals() Totals       { return s.totals }

// SetModel switches the model used for the following exchanges.
func (s *Session) SetModel(id string) error {
	m, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	s.opts.Model = m
	s.display.SetTitle(m.DisplayName)
	return nil
}

func (s *Session) maxTokens() int {
	if s.opts.MaxTokens > 0 {
		return s.opts.MaxTokens
	}
	if s.opts.Model.DefaultMaxTokens > 0 {
		return s.opts.Model.DefaultMaxTokens
	}
	return 1024
}

// Send runs one exchange for text. The reply joins the history only when
// it completed; on any error the user turn is dropped again.
func (s *Session) Send(ctx context.Context, text string) (exchange.Result, error) {
	req := anthropic.MessagesRequest{
		Model:     s.opts.Model.ID,
		Messages:  s.conv.Ask(text),
		System:    s.opts.System,
		MaxTokens: s.maxTokens(),
	}
	id := uuid.New()
	started := time.Now()

	res, err := s.exchange(ctx, id, req)

	s.opts.Processor.Record(processor.Exchange{
		ID:      id,
		Started: started,
		Request: req,
		Result:  res,
		Err:     err,
	})

	if err != nil {
		s.conv.Rollback()
		s.totals.Fail()
		return res, err
	}
	s.conv.Commit(res.Response.Text)
	s.totals.Add(res.Stats)
	return res, nil
}

func (s *Session) exchange(ctx context.Context, id uuid.UUID, req anthropic.MessagesRequest) (exchange.Result, error) {
	var r render.Renderer = s.display
	if !s.opts.TokenTracking {
		r = untracked{r}
	}
	d := render.NewDriver(r, s.opts.Model)
	d.Start()

	body, err := s.client.Stream(ctx, req)
	if err != nil {
		d.Abort()
		return exchange.Result{}, err
	}
	if s.opts.Recorder != nil {
		body = s.opts.Recorder.Record(id.String(), req.Model, body)
	}
	defer body.Close()

	opts := []exchange.Option{exchange.WithID(id.String())}
	if s.opts.Processor.StoresEvents() {
		opts = append(opts, exchange.WithEvents())
	}
	res, err := exchange.Run(ctx, body, d, opts...)
	if res.DroppedLines > 0 {
		log.Warn().Str("exchange_id", id.String()).Int("dropped", res.DroppedLines).Msg("malformed stream lines dropped")
	}
	return res, err
}

// Report prints err the way the REPL shows failures.
func (s *Session) Report(err error) {
	var apiErr *anthropic.APIError
	var inc *exchange.IncompleteError
	switch {
	case errors.Is(err, context.Canceled):
		s.display.Errorf("request cancelled")
	case errors.As(err, &apiErr):
		s.display.Errorf("%s", apiErr.Message)
	case errors.As(err, &inc):
		s.display.Errorf("reply cut off after %d characters, not added to the conversation", len([]rune(inc.Partial.Text)))
	default:
		s.display.Errorf("%v", err)
	}
}

// untracked hides usage from the final frame.
type untracked struct{ render.Renderer }

func (u untracked) Final(text string, _ *render.Stats) { u.Renderer.Final(text, nil) }

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
