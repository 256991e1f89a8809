package root

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cleanstreak/internal/ui"
)

func newSetCmd() *cobra.Command {
	var startStr string

	cmd := &cobra.Command{
		Use:   "set <days>",
		Short: "Manually set the streak count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parse days: %w", err)
			}

			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var start *time.Time
			if startStr != "" {
				d, err := parseDateFlag(startStr)
				if err != nil {
					return err
				}
				start = &d
			}

			if err := svc.UpdateStreak(ctx, n, cfg.UserID, start); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconFlame, "Streak updated"))
			fmt.Fprintln(out, ui.LabelValue("Streak", ui.StreakText(n)))
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "Start date override (YYYY-MM-DD)")
	return cmd
}
