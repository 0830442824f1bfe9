package main

import (
	"context"

	"github.com/spf13/cobra"

	"novellens/internal/analysis"
	"novellens/internal/artifact"
	"novellens/internal/render"
)

// entityCmd describes a command that fetches one artifact about a single
// character, item or location.
type entityCmd struct {
	use, short string
	idFlag     string
	idUsage    string
	query      func(novel, id int) artifact.Query
	fetch      func(ctx context.Context, s *analysis.Store, q artifact.Query) (artifact.Artifact, error)
}

func newJourneyCmd(st *cliState) *cobra.Command {
	return newEntityCmd(st, entityCmd{
		use:     "journey",
		short:   "Show the journey of one character",
		idFlag:  "character",
		idUsage: "Character ID (required)",
		query: func(novel, id int) artifact.Query {
			return artifact.Query{NovelID: novel, CharacterID: artifact.Int(id)}
		},
		fetch: func(ctx context.Context, s *analysis.Store, q artifact.Query) (artifact.Artifact, error) {
			return s.CharacterJourney(ctx, q)
		},
	})
}

func newLineageCmd(st *cliState) *cobra.Command {
	return newEntityCmd(st, entityCmd{
		use:     "lineage",
		short:   "Show the ownership history of an item",
		idFlag:  "item",
		idUsage: "Item ID (required)",
		query: func(novel, id int) artifact.Query {
			return artifact.Query{NovelID: novel, ItemID: artifact.Int(id)}
		},
		fetch: func(ctx context.Context, s *analysis.Store, q artifact.Query) (artifact.Artifact, error) {
			return s.ItemLineage(ctx, q)
		},
	})
}

func newLocationCmd(st *cliState) *cobra.Command {
	return newEntityCmd(st, entityCmd{
		use:     "location",
		short:   "Show the events at a location",
		idFlag:  "location",
		idUsage: "Location ID (required)",
		query: func(novel, id int) artifact.Query {
			return artifact.Query{NovelID: novel, LocationID: artifact.Int(id)}
		},
		fetch: func(ctx context.Context, s *analysis.Store, q artifact.Query) (artifact.Artifact, error) {
			return s.LocationEvents(ctx, q)
		},
	})
}

func newEntityCmd(st *cliState, e entityCmd) *cobra.Command {
	var flags struct {
		novel int
		id    int
		force bool
	}
	cmd := &cobra.Command{
		Use:   e.use,
		Short: e.short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := e.query(flags.novel, flags.id)
			q.ForceRefresh = flags.force
			a, err := e.fetch(cmd.Context(), st.store, q)
			if err != nil {
				return fail(err)
			}
			return render.Artifact(cmd.OutOrStdout(), a, st.format)
		},
	}
	f := cmd.Flags()
	f.IntVar(&flags.novel, "novel", 0, "Novel ID (required)")
	f.IntVar(&flags.id, e.idFlag, 0, e.idUsage)
	f.BoolVar(&flags.force, "force", false, "Bypass the cache")
	_ = cmd.MarkFlagRequired("novel")
	_ = cmd.MarkFlagRequired(e.idFlag)
	return cmd
}
