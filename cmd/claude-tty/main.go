package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/namikmesic/claude-tty/internal/config"
)

type flags struct {
	model     string
	maxTokens int
	system    string
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "claude-tty",
		Short: "Chat with Claude in the terminal",
		Long: `claude-tty streams replies from the Anthropic Messages API into a box that
is redrawn as text arrives, and reports token usage and cost per reply.

Configuration is read from the environment (ANTHROPIC_API_KEY, CLAUDE_MODEL,
DATABASE_URL, CAPTURE_DIR, ...). Flags override the model settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cfg, f)
		},
	}

	root.PersistentFlags().StringVarP(&f.model, "model", "m", "", "model id (default $CLAUDE_MODEL)")
	root.PersistentFlags().IntVar(&f.maxTokens, "max-tokens", 0, "max tokens per reply (default: model default)")
	root.PersistentFlags().StringVar(&f.system, "system", "", "system prompt")

	root.AddCommand(chatCommand(cfg, f))
	root.AddCommand(askCommand(cfg, f))
	root.AddCommand(modelsCommand(cfg))
	root.AddCommand(replayCommand(cfg))
	return root
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	if err := newRootCommand(cfg).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
