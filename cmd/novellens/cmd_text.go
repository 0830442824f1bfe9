package main

import (
	"strings"

	"github.com/spf13/cobra"

	"novellens/internal/artifact"
	"novellens/internal/render"
)

type textFlags struct {
	novel int
}

func (f *textFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.novel, "novel", 0, "Novel the passage comes from; checked to exist when set")
}

func (f *textFlags) novelID() *int {
	if f.novel <= 0 {
		return nil
	}
	return artifact.Int(f.novel)
}

func newExtractCmd(st *cliState) *cobra.Command {
	var flags textFlags
	cmd := &cobra.Command{
		Use:   "extract <text>",
		Short: "Extract the entities named in a passage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ents, err := st.qa.ExtractEntities(cmd.Context(), strings.Join(args, " "), flags.novelID())
			if err != nil {
				return fail(err)
			}
			return render.Entities(cmd.OutOrStdout(), ents, st.format)
		},
	}
	flags.register(cmd)
	return cmd
}

func newAnalyzeCmd(st *cliState) *cobra.Command {
	var flags textFlags
	cmd := &cobra.Command{
		Use:   "analyze <text>",
		Short: "Analyze the theme and foreshadowing of a passage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ta, err := st.qa.AnalyzeText(cmd.Context(), strings.Join(args, " "), flags.novelID())
			if err != nil {
				return fail(err)
			}
			return render.TextAnalysis(cmd.OutOrStdout(), ta, st.format)
		},
	}
	flags.register(cmd)
	return cmd
}
