package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tennisrag/internal/config"
	"tennisrag/internal/dataset"
	"tennisrag/internal/httpclient"
)

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the match dataset if it is not already on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := httpclient.New(config.Timeout(a.cfg.Dataset.TimeoutSecs))
			if err := dataset.Ensure(cmd.Context(), client, a.cfg.Dataset.Path, a.cfg.Dataset.URL); err != nil {
				return err
			}
			records, err := dataset.LoadRecords(a.cfg.Dataset.Path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d matches\n", a.cfg.Dataset.Path, len(records))
			return nil
		},
	}
}
