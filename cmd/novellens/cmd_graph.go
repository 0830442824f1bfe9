package main

import (
	"github.com/spf13/cobra"

	"novellens/internal/artifact"
	"novellens/internal/render"
)

func newGraphCmd(st *cliState) *cobra.Command {
	var flags struct {
		novel     int
		character int
		depth     int
		force     bool
	}
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the character relationship graph",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := st.store.RelationshipGraph(cmd.Context(), artifact.Query{
				NovelID:      flags.novel,
				CharacterID:  optionalID(cmd, "character", flags.character),
				Depth:        flags.depth,
				ForceRefresh: flags.force,
			})
			if err != nil {
				return fail(err)
			}
			return render.Artifact(cmd.OutOrStdout(), g, st.format)
		},
	}
	f := cmd.Flags()
	f.IntVar(&flags.novel, "novel", 0, "Novel ID (required)")
	f.IntVar(&flags.character, "character", 0, "Center the graph on this character")
	f.IntVar(&flags.depth, "depth", 1, "Neighborhood depth")
	f.BoolVar(&flags.force, "force", false, "Bypass the cache and ask the backend to recompute")
	_ = cmd.MarkFlagRequired("novel")
	return cmd
}
