package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cleanstreak/internal/calendar"
	"cleanstreak/internal/engine"
	"cleanstreak/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current streak and where it was resolved from",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, src := svc.LoadStreak(ctx, cfg.UserID)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconFlame, "Clean Streak"))
			fmt.Fprintln(out, ui.LabelValue("Streak", ui.StreakText(rec.Count)))
			if !rec.StartDate.IsZero() {
				fmt.Fprintln(out, ui.LabelValue("Started", rec.StartDate.Format("2006-01-02")))
			}
			if !rec.LastCheckIn.IsZero() {
				fmt.Fprintln(out, ui.LabelValue("Last check-in", rec.LastCheckIn.Format("2006-01-02")))
			}
			fmt.Fprintln(out, ui.LabelValue("Source", sourceStr(src)))
			fmt.Fprintln(out, "")

			hist := svc.History().History(ctx)
			clean, relapses := 0, 0
			for _, st := range hist {
				switch st {
				case calendar.StatusClean:
					clean++
				case calendar.StatusRelapse:
					relapses++
				}
			}
			fmt.Fprintln(out, ui.H2.Render(ui.IconCal+" Calendar"))
			fmt.Fprintf(out, "- %s %d\n", ui.Key.Render("Clean days recorded:"), clean)
			fmt.Fprintf(out, "- %s %d\n", ui.Key.Render("Relapses recorded:"), relapses)
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render("⚙️ Setup"))
			fmt.Fprintf(out, "- %s %s\n", ui.Key.Render("Backend:"), cfg.Backend)
			fmt.Fprintf(out, "- %s %s\n", ui.Key.Render("Data dir:"), cfg.DataDir)
			if cfg.Remote.Enabled {
				fmt.Fprintf(out, "- %s %s\n", ui.Key.Render("Sync:"), ui.Good.Render("enabled")+" "+ui.Muted.Render("("+cfg.Remote.BaseURL+")"))
			} else {
				fmt.Fprintf(out, "- %s %s\n", ui.Key.Render("Sync:"), ui.Muted.Render("disabled"))
			}
			return nil
		},
	}
	return cmd
}

func sourceStr(src engine.Source) string {
	switch src {
	case engine.SourceFailsafe:
		return ui.IconShield + " failsafe"
	case engine.SourceDurable:
		return "durable store"
	case engine.SourceCalendar:
		return ui.IconCal + " calendar"
	case engine.SourceRemote:
		return ui.IconSync + " remote"
	default:
		return ui.Muted.Render("no data yet")
	}
}
