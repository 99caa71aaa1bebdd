package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question against a freshly built index",
		Long: `Download the dataset if missing, index every match, expand the question
into retrieval queries and print the closest match.

Examples:
  tennisrag ask
  tennisrag ask "Who beat Rod Laver in 1968?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.TrimSpace(strings.Join(args, " "))
			if q == "" {
				q = defaultQuestion
			}
			return a.runAsk(cmd, q)
		},
	}
}

func (a *app) runAsk(cmd *cobra.Command, question string) error {
	svc, closeStore, err := buildService(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ans, err := svc.Answer(cmd.Context(), question)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ans.Best == nil {
		fmt.Fprintln(out, "No relevant documents found.")
		return nil
	}
	fmt.Fprintf(out, "Question: %s\n", ans.Query)
	fmt.Fprintf(out, "Queries:  %s\n", strings.Join(ans.Variants, " | "))
	fmt.Fprintf(out, "Related documents: %d\n\n", len(ans.Matches))
	fmt.Fprintf(out, "Best match (row %d, distance %.4f):\n%s\n", ans.Best.Record.Row, ans.Best.Distance, ans.Best.Record.Text)
	return nil
}
