package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cleanstreak/internal/calendar"
	"cleanstreak/internal/ui"
)

func newCheckinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Check in for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			before, _ := svc.LoadStreak(ctx, cfg.UserID)
			rec, err := svc.PerformCheckIn(ctx, cfg.UserID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !before.LastCheckIn.IsZero() && calendar.SameDay(before.LastCheckIn, rec.LastCheckIn) && before.Count == rec.Count {
				fmt.Fprintln(out, ui.Muted.Render("Already checked in today."))
				fmt.Fprintln(out, ui.LabelValue("Streak", ui.StreakText(rec.Count)))
				return nil
			}

			fmt.Fprintln(out, ui.Heading(ui.IconDone, "Checked in"))
			fmt.Fprintln(out, ui.LabelValue("Streak", ui.StreakText(rec.Count)))
			if rec.Count == 1 && before.Count > 1 {
				fmt.Fprintln(out, ui.Warn.Render(ui.IconWarn+" Missed days broke the previous streak; starting over at day 1."))
			}
			return nil
		},
	}
	return cmd
}
