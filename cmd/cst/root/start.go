package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cleanstreak/internal/ui"
)

func newStartCmd() *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Set when the current streak began (backfills the calendar)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			date := time.Now()
			if dateStr != "" {
				if date, err = parseDateFlag(dateStr); err != nil {
					return err
				}
			}

			n, err := svc.History().RecordStart(ctx, date)
			if err != nil {
				return err
			}
			if err := svc.UpdateStreak(ctx, n, cfg.UserID, &date); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconFlame, "Streak start recorded"))
			fmt.Fprintln(out, ui.LabelValue("Streak", ui.StreakText(n)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Start date (YYYY-MM-DD, defaults to today)")
	return cmd
}
