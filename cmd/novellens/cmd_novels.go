package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"novellens/internal/render"
)

func newNovelsCmd(st *cliState) *cobra.Command {
	var flags struct {
		skip  int
		limit int
	}
	cmd := &cobra.Command{
		Use:   "novels [novel-id]",
		Short: "List novels, or show one novel with its counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				id, err := strconv.Atoi(args[0])
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid novel id %q", args[0])
				}
				n, err := st.client.GetNovel(cmd.Context(), id)
				if err != nil {
					return fail(err)
				}
				return render.Novel(cmd.OutOrStdout(), n, st.format)
			}
			novels, err := st.client.ListNovels(cmd.Context(), flags.skip, flags.limit)
			if err != nil {
				return fail(err)
			}
			return render.Novels(cmd.OutOrStdout(), novels, st.format)
		},
	}
	f := cmd.Flags()
	f.IntVar(&flags.skip, "skip", 0, "Number of novels to skip")
	f.IntVar(&flags.limit, "limit", 0, "Maximum number of novels (backend default when 0)")
	return cmd
}
