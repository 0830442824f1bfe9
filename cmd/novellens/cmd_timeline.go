package main

import (
	"github.com/spf13/cobra"

	"novellens/internal/artifact"
	"novellens/internal/render"
)

func newTimelineCmd(st *cliState) *cobra.Command {
	var flags struct {
		novel     int
		character int
		start     int
		end       int
	}
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show the event timeline, optionally for one character or chapter range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tl, err := st.store.Timeline(cmd.Context(), artifact.Query{
				NovelID:      flags.novel,
				CharacterID:  optionalID(cmd, "character", flags.character),
				StartChapter: optionalID(cmd, "start", flags.start),
				EndChapter:   optionalID(cmd, "end", flags.end),
			})
			if err != nil {
				return fail(err)
			}
			return render.Artifact(cmd.OutOrStdout(), tl, st.format)
		},
	}
	f := cmd.Flags()
	f.IntVar(&flags.novel, "novel", 0, "Novel ID (required)")
	f.IntVar(&flags.character, "character", 0, "Only events with this character")
	f.IntVar(&flags.start, "start", 0, "First chapter, inclusive")
	f.IntVar(&flags.end, "end", 0, "Last chapter, inclusive")
	_ = cmd.MarkFlagRequired("novel")
	return cmd
}
