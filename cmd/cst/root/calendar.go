package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cleanstreak/internal/tui"
	"cleanstreak/internal/ui"
)

func newCalendarCmd() *cobra.Command {
	var (
		monthStr    string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the clean/relapse calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if interactive {
				return tui.RunCalendar(ctx, svc, cfg.UserID, cmd.OutOrStdout())
			}

			now := time.Now()
			month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
			if monthStr != "" {
				m, err := time.Parse("2006-01", monthStr)
				if err != nil {
					return fmt.Errorf("parse month %q (want YYYY-MM): %w", monthStr, err)
				}
				month = m
			}

			hist := svc.History().History(ctx)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconCal, month.Format("January 2006")))
			fmt.Fprintln(out, tui.MonthGrid(month, hist, now))
			fmt.Fprintln(out, ui.Muted.Render("green = clean, red = relapse"))
			return nil
		},
	}

	cmd.Flags().StringVar(&monthStr, "month", "", "Month to show (YYYY-MM, defaults to current)")
	cmd.Flags().BoolVar(&interactive, "tui", false, "Browse months interactively")
	return cmd
}
