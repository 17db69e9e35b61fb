package exchange

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namikmesic/claude-tty/internal/pricing"
	"github.com/namikmesic/claude-tty/internal/render"
	"github.com/namikmesic/claude-tty/internal/stream"
)

type recorder struct {
	hooks   []string
	updates []string
	final   string
	stats   *render.Stats
}

func (r *recorder) Thinking()      { r.hooks = append(r.hooks, "thinking") }
func (r *recorder) ClearThinking() { r.hooks = append(r.hooks, "clear") }
func (r *recorder) Update(text string) {
	r.hooks = append(r.hooks, "update")
	r.updates = append(r.updates, text)
}
func (r *recorder) Final(text string, s *render.Stats) {
	r.hooks = append(r.hooks, "final")
	r.final = text
	r.stats = s
}

var model = pricing.Model{ID: "claude-3-5-haiku-latest", DisplayName: "Claude 3.5 Haiku", InputCostPerMillion: 1, OutputCostPerMillion: 5}

const complete = "event: message_start\n" +
	`data: {"type":"message_start","message":{"usage":{}}}` + "\n\n" +
	"event: content_block_delta\n" +
	`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}` + "\n\n" +
	`data: {"type":"ping"}` + "\n\n" +
	`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" there"}}` + "\n\n" +
	`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"input_tokens":10,"output_tokens":5}}` + "\n\n" +
	`data: {"type":"message_stop"}` + "\n\n"

func start(rec *recorder) *render.Driver {
	d := render.NewDriver(rec, model)
	d.Start()
	return d
}

func TestRun_Complete(t *testing.T) {
	readers := map[string]func() io.Reader{
		"whole":    func() io.Reader { return strings.NewReader(complete) },
		"one byte": func() io.Reader { return iotest.OneByteReader(strings.NewReader(complete)) },
		"half":     func() io.Reader { return iotest.HalfReader(strings.NewReader(complete)) },
	}

	for name, mk := range readers {
		t.Run(name, func(t *testing.T) {
			rec := &recorder{}
			res, err := Run(context.Background(), mk(), start(rec), WithEvents())
			require.NoError(t, err)

			assert.Equal(t, []string{"thinking", "clear", "update", "update", "update", "final"}, rec.hooks)
			assert.Equal(t, []string{"Hi", "Hi there", "Hi there"}, rec.updates)
			assert.Equal(t, "Hi there", rec.final)
			require.NotNil(t, rec.stats)
			assert.InDelta(t, 0.000035, rec.stats.Cost, 1e-12)
			assert.Equal(t, rec.stats, res.Stats)

			assert.True(t, res.Response.Finished)
			assert.Equal(t, "end_turn", res.Response.StopReason)
			assert.Zero(t, res.DroppedLines)
			require.Len(t, res.Events, 6)
			assert.Equal(t, "message_start", res.Events[0].Type)
			assert.Equal(t, `{"type":"message_stop"}`, res.Events[5].Data)
			assert.Positive(t, res.FirstUpdate)
		})
	}
}

func TestRun_StopsReadingAtMessageStop(t *testing.T) {
	src := io.MultiReader(strings.NewReader(complete), iotest.ErrReader(errors.New("should not be read")))

	_, err := Run(context.Background(), iotest.OneByteReader(src), start(&recorder{}))
	assert.NoError(t, err)
}

func TestRun_Incomplete(t *testing.T) {
	truncated := complete[:strings.Index(complete, `data: {"type":"message_delta"`)]
	rec := &recorder{}

	res, err := Run(context.Background(), strings.NewReader(truncated), start(rec))

	assert.ErrorIs(t, err, ErrIncompleteResponse)
	var inc *IncompleteError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, "Hi there", inc.Partial.Text)
	assert.False(t, inc.Partial.Finished)
	assert.False(t, res.Response.Finished)
	assert.Nil(t, res.Stats)
	assert.Equal(t, []string{"thinking", "clear", "update", "update"}, rec.hooks)
}

func TestRun_EmptyStream(t *testing.T) {
	rec := &recorder{}
	_, err := Run(context.Background(), strings.NewReader(""), start(rec))

	assert.ErrorIs(t, err, ErrIncompleteResponse)
	assert.Equal(t, []string{"thinking", "clear"}, rec.hooks)
}

func TestRun_TransportError(t *testing.T) {
	boom := errors.New("connection reset by peer")
	src := io.MultiReader(strings.NewReader(complete[:200]), iotest.ErrReader(boom))
	rec := &recorder{}

	_, err := Run(context.Background(), src, start(rec))

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrIncompleteResponse)
	assert.NotContains(t, rec.hooks, "final")
}

func TestRun_InBandError(t *testing.T) {
	src := `data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"par"}}` + "\n" +
		`data: {"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}` + "\n"
	rec := &recorder{}

	res, err := Run(context.Background(), strings.NewReader(src), start(rec))

	var se *stream.StreamError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "overloaded_error", se.ErrorType)
	assert.Equal(t, "par", res.Response.Text)
	assert.NotContains(t, rec.hooks, "final")
}

func TestRun_DropsMalformedLines(t *testing.T) {
	src := `data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"a"}}` + "\n" +
		`data: {"type":"content_block_delta"` + "\n" +
		`data: {"index":3}` + "\n" +
		": comment\n" +
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"b"}}` + "\n" +
		`data: {"type":"message_stop"}`
	rec := &recorder{}

	res, err := Run(context.Background(), strings.NewReader(src), start(rec))

	require.NoError(t, err)
	assert.Equal(t, 2, res.DroppedLines)
	assert.Equal(t, 6, res.Lines)
	assert.Equal(t, "ab", rec.final)
	assert.Nil(t, rec.stats)
}

func TestRun_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}

	_, err := Run(ctx, strings.NewReader(complete), start(rec))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"thinking", "clear"}, rec.hooks)
}
