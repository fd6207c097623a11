package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	versionpkg "github.com/akuity/artifact-resolver/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, err := json.MarshalIndent(versionpkg.GetVersion(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal version: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(version))
			return err
		},
	}
}
