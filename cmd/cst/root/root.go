package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cleanstreak/internal/ui"
)

const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "cst",
	Short:         "Cleanstreak — local-first habit streak tracker",
	Long:          "Cleanstreak tracks a daily clean streak with redundant local storage,\na relapse calendar, and optional cross-device sync.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.AddCommand(
		newCheckinCmd(),
		newRelapseCmd(),
		newStartCmd(),
		newSetCmd(),
		newStatusCmd(),
		newCalendarCmd(),
		newSyncCmd(),
		newServeCmd(),
		newResetCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
