package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akuity/artifact-resolver/internal/artifacts"
	"github.com/akuity/artifact-resolver/internal/config"
)

const configFlag = "config"

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	ConfigPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:               "artifact-resolver",
		Short:             "Resolve and fetch artifacts from configured accounts",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}
	cmd.PersistentFlags().StringVar(
		&opts.ConfigPath,
		configFlag,
		os.Getenv("ARTIFACTS_CONFIG_PATH"),
		"Path to the artifact accounts configuration file. If not set, "+
			"artifacts are disabled.",
	)

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newCredentialsCommand(opts))
	cmd.AddCommand(newNamesCommand(opts))
	cmd.AddCommand(newVersionsCommand(opts))
	cmd.AddCommand(newFetchCommand(opts))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCommand().ExecuteContext(ctx)
}

// repository loads the configured accounts. The result is nil if artifacts
// are disabled.
func (o *rootOptions) repository(ctx context.Context) (*artifacts.Repository, error) {
	cfg, err := config.LoadArtifactsConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	repo, err := artifacts.NewRepositoryFromConfig(ctx, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("error configuring artifact accounts: %w", err)
	}
	return repo, nil
}
