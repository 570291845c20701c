package cli

import (
	"fmt"
	"sort"

	"github.com/dfryer1193/alttext/internal/auth"
	"github.com/dfryer1193/alttext/media/domain"
	"github.com/spf13/cobra"
)

func newBackfillCommand() *cobra.Command {
	var (
		batch  int
		cursor int64
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fill in alt text for images that have none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if all {
				outcome, err := a.Sync.BackfillAll(ctx, auth.SystemActor, batch)
				printOutcome(cmd, outcome)
				if err != nil {
					return fmt.Errorf("backfill stopped: %w", err)
				}
				_, err = fmt.Fprintf(out, "Backfilled %d image(s).\n", outcome.Updated)
				return err
			}

			result, err := a.Hooks.OnBackfill(ctx, auth.SystemActor, cursor, batch)
			if err != nil {
				return fmt.Errorf("backfill failed: %w", err)
			}
			printOutcome(cmd, result.Outcome)
			_, err = fmt.Fprintf(out, "Backfilled %d image(s). next cursor: %d, done: %t\n",
				result.Outcome.Updated, result.NextCursor, result.Done)
			return err
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 0, "records per batch (default BACKFILL_BATCH_SIZE)")
	cmd.Flags().Int64Var(&cursor, "cursor", 0, "resume after this image id")
	cmd.Flags().BoolVar(&all, "all", false, "keep running batches until every image has been visited")

	return cmd
}

func printOutcome(cmd *cobra.Command, outcome domain.SyncOutcome) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "attempted: %d, updated: %d, skipped: %d\n", outcome.Attempted, outcome.Updated, outcome.SkippedTotal())

	reasons := make([]string, 0, len(outcome.Skipped))
	for reason, n := range outcome.Skipped {
		if n > 0 {
			reasons = append(reasons, string(reason))
		}
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(out, "  %s: %d\n", reason, outcome.Skipped[domain.SkipReason(reason)])
	}
}
