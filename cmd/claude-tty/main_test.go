package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namikmesic/claude-tty/internal/capture"
	"github.com/namikmesic/claude-tty/internal/config"
	"github.com/namikmesic/claude-tty/internal/exchange"
	"github.com/namikmesic/claude-tty/internal/jetstream"
	"github.com/namikmesic/claude-tty/internal/pricing"
)

func TestReadPrompt(t *testing.T) {
	p, err := readPrompt([]string{"what", "is", "SSE?"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "what is SSE?", p)

	p, err = readPrompt(nil, strings.NewReader("  from stdin\n"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", p)

	p, err = readPrompt([]string{"-"}, strings.NewReader("dash"))
	require.NoError(t, err)
	assert.Equal(t, "dash", p)

	_, err = readPrompt(nil, strings.NewReader("   "))
	assert.ErrorContains(t, err, "empty prompt")
}

func TestPrintModels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printModels(&buf, pricing.DefaultRegistry(), pricing.DefaultModelID))

	out := buf.String()
	assert.Contains(t, out, "claude-3-opus-latest")
	assert.Contains(t, out, "15.00")
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, pricing.DefaultModelID) {
			assert.True(t, strings.HasPrefix(line, "*"), line)
		}
	}
}

func TestRootCommand(t *testing.T) {
	cfg := &config.Config{Model: pricing.DefaultModelID}
	root := newRootCommand(cfg)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, n := range []string{"chat", "ask", "models", "replay"} {
		assert.True(t, names[n], n)
	}

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"models"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Claude 3.5 Haiku")
}

func TestChatRequiresAPIKey(t *testing.T) {
	root := newRootCommand(&config.Config{Model: pricing.DefaultModelID})
	root.SetArgs([]string{"ask", "hi"})
	assert.ErrorIs(t, root.Execute(), config.ErrMissingAPIKey)
}

func TestReplayRequiresCaptureDir(t *testing.T) {
	root := newRootCommand(&config.Config{})
	root.SetArgs([]string{"replay", "--list"})
	assert.ErrorContains(t, root.Execute(), "CAPTURE_DIR")
}

func TestListCaptures_Empty(t *testing.T) {
	cfg := &config.Config{CaptureDir: t.TempDir(), CaptureMaxAge: time.Hour}
	a, err := newApp(t.Context(), cfg)
	require.NoError(t, err)
	defer a.Close()

	var buf bytes.Buffer
	require.NoError(t, listCaptures(&buf, a))
	assert.Contains(t, buf.String(), "CHUNKS")
}

func TestReplay_IncompleteCaptureFails(t *testing.T) {
	srv, err := jetstream.Start(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)
	require.NoError(t, jetstream.EnsureStream(srv.JetStream(), time.Hour))

	a := &app{registry: pricing.DefaultRegistry(), store: capture.NewStore(srv.JetStream())}

	cut := `data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"half a"}}` + "\n\n"
	rec := a.store.Record("cut", pricing.DefaultModelID, io.NopCloser(strings.NewReader(cut)))
	_, err = io.ReadAll(rec)
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	var out bytes.Buffer
	err = replay(context.Background(), &out, a, "cut")
	assert.ErrorIs(t, err, exchange.ErrIncompleteResponse)
	assert.Contains(t, out.String(), "half a")
}
