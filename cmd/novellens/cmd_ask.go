package main

import (
	"strings"

	"github.com/spf13/cobra"

	"novellens/internal/render"
)

func newAskCmd(st *cliState) *cobra.Command {
	var flags struct {
		novel int
		noRAG bool
	}
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a free-text question about a novel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ans, err := st.qa.Ask(cmd.Context(), flags.novel, strings.Join(args, " "), !flags.noRAG)
			if err != nil {
				return fail(err)
			}
			return render.Answer(cmd.OutOrStdout(), ans, st.format)
		},
	}
	f := cmd.Flags()
	f.IntVar(&flags.novel, "novel", 0, "Novel ID (required)")
	f.BoolVar(&flags.noRAG, "no-rag", false, "Answer without retrieving supporting passages")
	_ = cmd.MarkFlagRequired("novel")
	return cmd
}
