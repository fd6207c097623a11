package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/akuity/artifact-resolver/internal/config"
	"github.com/akuity/artifact-resolver/internal/logging"
	"github.com/akuity/artifact-resolver/internal/server"
	versionpkg "github.com/akuity/artifact-resolver/internal/version"
)

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "serve",
		Short:             "Serve artifact operations over HTTP",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := logging.LoggerFromContext(ctx)

			version := versionpkg.GetVersion()
			logger.Info(
				"Starting artifact server",
				"version", version.Version,
				"commit", version.GitCommit,
			)

			cfg := config.ServerConfigFromEnv()
			// The flag defaults to the same environment variable, but wins
			// when set explicitly.
			cfg.ArtifactsConfigPath = rootOpts.ConfigPath

			repo, err := rootOpts.repository(ctx)
			if err != nil {
				return err
			}
			if repo == nil {
				logger.Info("artifacts are disabled")
			} else {
				logger.Info("artifacts are enabled", "accounts", len(repo.List()))
			}

			l, err := net.Listen(
				"tcp",
				net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
			)
			if err != nil {
				return fmt.Errorf("error creating listener: %w", err)
			}
			defer l.Close()

			if err = server.NewServer(cfg, repo).Serve(ctx, l); err != nil {
				return fmt.Errorf("error serving: %w", err)
			}
			return nil
		},
	}
}
