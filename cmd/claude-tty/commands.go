package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/namikmesic/claude-tty/internal/chat"
	"github.com/namikmesic/claude-tty/internal/config"
	"github.com/namikmesic/claude-tty/internal/exchange"
	"github.com/namikmesic/claude-tty/internal/pricing"
	"github.com/namikmesic/claude-tty/internal/render"
)

func chatCommand(cfg *config.Config, f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cfg, f)
		},
	}
}

func runChat(ctx context.Context, cfg *config.Config, f *flags) error {
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := a.sessionOptions(f)
	if err != nil {
		return err
	}

	display := render.NewTerminal(os.Stdout, opts.Model.DisplayName)
	s := chat.NewSession(a.client(), a.registry, display, os.Stdout, opts)

	in := chat.NewInput(cfg.HistoryFile)
	defer in.Close()

	return chat.Run(ctx, s, in)
}

func askCommand(cfg *config.Config, f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Send one prompt and print the reply",
		Long: `Send one prompt and print the reply. With no arguments the prompt is read
from standard input. When standard output is not a terminal only the reply
text is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runAsk(cmd.Context(), cfg, f, prompt)
		},
	}
}

func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("no prompt given")
	}
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(raw))
	if prompt == "" {
		return "", errors.New("empty prompt")
	}
	return prompt, nil
}

func runAsk(ctx context.Context, cfg *config.Config, f *flags, prompt string) error {
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := a.sessionOptions(f)
	if err != nil {
		return err
	}

	display := render.NewTerminal(os.Stdout, opts.Model.DisplayName)
	s := chat.NewSession(a.client(), a.registry, display, os.Stdout, opts)
	_, err = s.Send(ctx, prompt)
	return err
}

func modelsCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known models and their prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printModels(cmd.OutOrStdout(), pricing.DefaultRegistry(), cfg.Model)
		},
	}
}

func printModels(w io.Writer, reg *pricing.Registry, current string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tINPUT $/MTOK\tOUTPUT $/MTOK\tMAX TOKENS")
	for _, m := range reg.List() {
		mark := ""
		if m.ID == current {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%d\n",
			mark, m.ID, m.DisplayName, m.InputCostPerMillion, m.OutputCostPerMillion, m.DefaultMaxTokens)
	}
	return tw.Flush()
}

func replayCommand(cfg *config.Config) *cobra.Command {
	var list, del bool
	cmd := &cobra.Command{
		Use:   "replay [exchange-id]",
		Short: "Re-render a captured exchange (requires CAPTURE_DIR)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.CaptureEnabled() {
				return errors.New("stream capture is disabled; set CAPTURE_DIR")
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			switch {
			case list:
				return listCaptures(cmd.OutOrStdout(), a)
			case len(args) == 0:
				return errors.New("exchange id required (see --list)")
			case del:
				return a.store.Delete(args[0])
			default:
				return replay(cmd.Context(), cmd.OutOrStdout(), a, args[0])
			}
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list captured exchanges")
	cmd.Flags().BoolVar(&del, "delete", false, "delete the captured exchange")
	return cmd
}

func listCaptures(w io.Writer, a *app) error {
	markers, err := a.store.List()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tMODEL\tCHUNKS\tBYTES\tSTATUS")
	for _, m := range markers {
		status := "complete"
		if !m.Complete {
			status = "partial"
		}
		if m.Error != "" {
			status = m.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			m.ID, m.Started.Local().Format(time.DateTime), m.Model, m.Chunks, m.Bytes, status)
	}
	return tw.Flush()
}

// replay re-renders a capture. A capture that ends before message_stop
// prints what it holds and still fails.
func replay(ctx context.Context, w io.Writer, a *app, id string) error {
	body, marker, err := a.store.Open(id)
	if err != nil {
		return err
	}

	m, ok := a.registry.Lookup(marker.Model)
	if !ok {
		m = pricing.Model{ID: marker.Model, DisplayName: marker.Model}
	}

	display := render.NewTerminal(w, m.DisplayName)
	d := render.NewDriver(display, m)
	d.Start()

	_, err = exchange.Run(ctx, body, d, exchange.WithID(id))
	var inc *exchange.IncompleteError
	if errors.As(err, &inc) {
		display.Errorf("capture ends before message_stop; partial reply follows")
		fmt.Fprintln(w, inc.Partial.Text)
		return fmt.Errorf("replay %s: %w", id, err)
	}
	return err
}
