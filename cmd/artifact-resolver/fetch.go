package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/akuity/artifact-resolver/internal/artifacts"
)

type fetchOptions struct {
	rootOpts *rootOptions

	Reference artifacts.Reference
	Output    string
}

func newFetchCommand(rootOpts *rootOptions) *cobra.Command {
	cmdOpts := &fetchOptions{rootOpts: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch --type=TYPE [--account=ACCOUNT] [flags]",
		Short: "Download an artifact",
		Example: `# Download the latest version of a chart
artifact-resolver fetch --type=helm/chart --account=my-charts --name=my-chart -o my-chart.tgz

# Download a file using the first account able to handle it
artifact-resolver fetch --type=http/file --reference=https://example.com/values.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmdOpts.validate(); err != nil {
				return err
			}
			return cmdOpts.run(cmd)
		},
	}
	cmdOpts.addFlags(cmd)
	return cmd
}

func (o *fetchOptions) addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.Reference.Type, "type", "", "The type of the artifact.")
	flags.StringVar(
		&o.Reference.Account,
		"account",
		"",
		"The account to fetch the artifact with. If not set, the first account "+
			"handling the type is used.",
	)
	flags.StringVar(&o.Reference.Name, "name", "", "The name of the artifact.")
	flags.StringVar(&o.Reference.Version, "version", "", "The version of the artifact.")
	flags.StringVar(
		&o.Reference.Reference,
		"reference",
		"",
		"A type-specific locator for the artifact, e.g. a URL.",
	)
	flags.StringVar(&o.Reference.Location, "location", "", "A type-specific location.")
	flags.StringVarP(
		&o.Output,
		"output",
		"o",
		"",
		"The file to write the artifact to. If not set, it is written to stdout.",
	)
	if err := cmd.MarkFlagRequired("type"); err != nil {
		panic(fmt.Errorf("could not mark type flag as required: %w", err))
	}
}

func (o *fetchOptions) validate() error {
	if o.Reference.Type == "" {
		return errors.New("type is required")
	}
	return nil
}

func (o *fetchOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	repo, err := o.rootOpts.repository(ctx)
	if err != nil {
		return err
	}
	rc, err := artifacts.NewDownloader(repo).Download(ctx, o.Reference)
	if err != nil {
		return err
	}
	defer rc.Close()

	if o.Output == "" {
		if _, err = io.Copy(cmd.OutOrStdout(), rc); err != nil {
			return fmt.Errorf("error writing artifact: %w", err)
		}
		return nil
	}
	return writeArtifact(o.Output, rc)
}

// writeArtifact writes the contents of r to a file at path. Errors from
// closing the file are returned, since they may report a failed write.
func writeArtifact(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("error writing artifact: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("error closing output file: %w", err)
	}
	return nil
}
