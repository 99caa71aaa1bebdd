package main

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"tennisrag/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Build the index once and ask questions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// log lines would corrupt the terminal UI
			quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
			svc, closeStore, err := buildService(a.cfg, quiet)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := cmd.Context()
			fmt.Fprintln(cmd.OutOrStdout(), "Building index...")
			if err := svc.Prepare(ctx); err != nil {
				return err
			}

			summary := fmt.Sprintf("%s  embedder=%s  llm=%s  store=%s",
				a.cfg.Dataset.Path, a.cfg.Embedder.Type, a.cfg.LLM.Type, a.cfg.VectorStore.Type)
			_, err = tea.NewProgram(tui.New(ctx, svc, summary), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}
