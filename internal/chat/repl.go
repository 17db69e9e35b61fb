package chat

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
)

// LineReader supplies user input. *Input implements it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// Input is a line editor with persistent history.
type Input struct {
	line        *liner.State
	historyFile string
}

func NewInput(historyFile string) *Input {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	in := &Input{line: line, historyFile: historyFile}
	in.loadHistory()
	return in
}

func (in *Input) loadHistory() {
	if in.historyFile == "" {
		return
	}
	if f, err := os.Open(in.historyFile); err == nil {
		_, _ = in.line.ReadHistory(f)
		f.Close()
	}
}

func (in *Input) Prompt(prompt string) (string, error) {
	text, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		in.line.AppendHistory(text)
	}
	return text, nil
}

// Close saves the history and restores the terminal.
func (in *Input) Close() error {
	if in.historyFile != "" {
		f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			log.Warn().Err(err).Str("file", in.historyFile).Msg("save history")
		} else {
			_, _ = in.line.WriteHistory(f)
			f.Close()
		}
	}
	return in.line.Close()
}

const prompt = "You: "

// Run reads input until /quit, Ctrl-C at the prompt or end of input. Ctrl-C
// while a reply streams cancels that reply only.
func Run(ctx context.Context, s *Session, in LineReader) error {
	s.printf("Chatting with %s. Type /help for commands.\n", s.opts.Model.DisplayName)

	for {
		text, err := in.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				s.farewell()
				return nil
			}
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			more, err := s.Command(text)
			if err != nil {
				s.display.Errorf("%v", err)
			}
			if !more {
				s.farewell()
				return nil
			}
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		s.turn(ctx, text)
	}
}

func (s *Session) turn(ctx context.Context, text string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if _, err := s.Send(ctx, text); err != nil {
		s.Report(err)
	}
}

func (s *Session) farewell() {
	if s.opts.TokenTracking && s.totals.Exchanges > 0 {
		s.printf("Session: %s\n", s.totals)
	}
	s.printf("Goodbye!\n")
}
