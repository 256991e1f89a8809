package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cleanstreak/internal/ui"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the local streak with the remote replica now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if !cfg.Remote.Enabled {
				return errors.New("sync is disabled; set remote.enabled in the config")
			}

			if err := svc.SyncNow(ctx, cfg.UserID); err != nil {
				return fmt.Errorf("sync: %w", err)
			}

			rec, src := svc.LoadStreak(ctx, cfg.UserID)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconSync, "Synced"))
			fmt.Fprintln(out, ui.LabelValue("Streak", ui.StreakText(rec.Count)))
			fmt.Fprintln(out, ui.LabelValue("Source", sourceStr(src)))
			return nil
		},
	}
	return cmd
}
