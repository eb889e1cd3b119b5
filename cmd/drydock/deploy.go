package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	coredeploy "github.com/drydock-sh/drydock/internal/core/deploy"
	"github.com/drydock-sh/drydock/internal/shell/deploy"
)

// errDeployFailed signals a non-clean run. The report already printed the
// details, so the error text stays short.
var errDeployFailed = errors.New("deploy finished with failures")

func newDeployCmd(flags *rootFlags) *cobra.Command {
	var (
		servicesMode   bool
		skipCleanCheck bool
	)

	cmd := &cobra.Command{
		Use:   "deploy [name...]",
		Short: "Deploy apps (or services with --services) to their servers",
		Long: `Deploy runs the full release sequence: verify the working tree is
clean, load the manifest and secrets, verify the target hosts, build and
push every app image, then roll each target out server by server. With no
names, every configured app deploys; with --services, names select
services instead and they are replaced in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Log level and format follow the same environment overrides
			// the manifest loader honors.
			logger := setupLogger(flags.verbose,
				os.Getenv("DRYDOCK_LOG_LEVEL"), os.Getenv("DRYDOCK_LOG_FORMAT"))

			coordinator := deploy.NewCoordinator(logger, cmd.OutOrStdout())
			report := coordinator.Run(cmd.Context(), deploy.Options{
				ConfigPath: flags.configPath,
				Names:      args,
				Flags: coredeploy.Flags{
					ServicesMode:   servicesMode,
					SkipCleanCheck: skipCleanCheck,
					Verbose:        flags.verbose,
				},
			})

			if !report.Clean() {
				return errDeployFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&servicesMode, "services", false, "deploy services instead of apps")
	cmd.Flags().BoolVar(&skipCleanCheck, "skip-clean-check", false, "skip the clean working tree check")
	return cmd
}
