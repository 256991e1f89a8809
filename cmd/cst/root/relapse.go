package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cleanstreak/internal/ui"
)

func parseDateFlag(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func newRelapseCmd() *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "relapse",
		Short: "Record a relapse (today by default)",
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

			if err := svc.RecordRelapse(ctx, cfg.UserID, date); err != nil {
				return err
			}

			rec, _ := svc.LoadStreak(ctx, cfg.UserID)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconBroken, "Relapse recorded"))
			fmt.Fprintln(out, ui.LabelValue("Streak", ui.StreakText(rec.Count)))
			fmt.Fprintln(out, ui.Muted.Render("Tomorrow is day one. You've got this."))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Relapse date (YYYY-MM-DD, defaults to today)")
	return cmd
}
