package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dividr/rendernode/internal/logging"
	"github.com/dividr/rendernode/internal/updater"
	"github.com/dividr/rendernode/internal/version"
)

// CreateUpdateCmd creates the update command.
func CreateUpdateCmd() *cobra.Command {
	var repository string
	var prerelease bool
	var apply bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for and apply binary updates",
		Long: `Checks GitHub releases for a newer rendernode binary. With --apply the ` +
			`update is downloaded and installed in place, and the process restarts.`,
		Run: func(_ *cobra.Command, _ []string) {
			initCommandLogging(false)
			logger := logging.GetLogger("updater")

			service, err := updater.NewService(&updater.Options{
				Repository: repository,
				Prerelease: prerelease,
			})
			if err != nil {
				logger.Error("Failed to create update service", "error", err)
				os.Exit(1)
			}
			if !service.IsEnabled() {
				logger.Error("Updates unavailable", "reason", service.DisabledReason())
				os.Exit(1)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			info, err := service.CheckForUpdate(ctx)
			if err != nil {
				logger.Error("Update check failed", "error", err)
				os.Exit(1)
			}

			if !info.UpdateAvailable {
				fmt.Printf("rendernode %s is up to date\n", version.Get().Version)
				return
			}

			fmt.Printf("Update available: %s -> %s (%s)\n",
				info.CurrentVersion, info.LatestVersion, info.ReleaseURL)

			if !apply {
				fmt.Println("Run again with --apply to install it")
				return
			}

			if err := service.ApplyUpdate(ctx); err != nil {
				logger.Error("Update failed", "error", err)
				os.Exit(1)
			}
			fmt.Printf("Updated to %s, restarting\n", info.LatestVersion)
		},
	}

	cmd.Flags().StringVar(&repository, "repo", updater.DefaultRepository, "GitHub repository slug to update from")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Include prerelease versions")
	cmd.Flags().BoolVar(&apply, "apply", false, "Download and install the update")

	return cmd
}
