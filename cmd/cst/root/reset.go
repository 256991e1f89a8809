package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cleanstreak/internal/ui"
)

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all streak data and start over",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("this deletes all local streak data; re-run with --yes to confirm")
			}

			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.Reset(ctx, cfg.UserID); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconDone, "Fresh start"))
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("All streak data cleared. Day one begins now."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the wipe")
	return cmd
}
