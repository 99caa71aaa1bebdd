package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tennisrag/internal/config"
)

// defaultQuestion is answered when tennisrag runs without a subcommand.
const defaultQuestion = "Who won the Buenos Aires game between Thomaz Koch and Fred Stolle?"

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	cfgPath  string
	logLevel string

	cfg    *config.AppConfig
	logger *slog.Logger
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "tennisrag",
		Short: "Answer questions about 1968 ATP matches",
		Long: `tennisrag indexes the 1968 ATP match records, rewrites your question
into retrieval queries with a language model and reports the closest match.

Without a subcommand it answers:
  ` + defaultQuestion,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd, defaultQuestion)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Path to YAML config file (default ./config.yaml or ~/.config/tennisrag/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newAskCmd(a),
		newFetchCmd(a),
		newTUICmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

func (a *app) load() error {
	var err error
	if a.cfgPath == "" {
		a.cfg, _, err = config.LoadDefault()
	} else {
		a.cfg, err = config.Load(a.cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	a.logger, err = newLogger(a.cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(a.logger)
	return nil
}
