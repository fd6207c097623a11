package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/akuity/artifact-resolver/internal/artifacts"
)

func newCredentialsCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "credentials",
		Short: "List configured artifact accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := rootOpts.repository(cmd.Context())
			if err != nil {
				return err
			}
			type credential struct {
				Name  string   `json:"name"`
				Types []string `json:"types"`
			}
			creds := repo.List()
			res := make([]credential, len(creds))
			for i, cred := range creds {
				res[i] = credential{Name: cred.Name(), Types: cred.Types()}
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newNamesCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "names KIND ACCOUNT",
		Short:   "List the artifact names known to an account's index",
		Example: "artifact-resolver names helm my-charts",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := rootOpts.repository(cmd.Context())
			if err != nil {
				return err
			}
			names, err := artifacts.NewResolver(repo, nil).
				ListNames(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), names)
		},
	}
}

func newVersionsCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "versions KIND ACCOUNT NAME",
		Short:   "List the versions of an artifact known to an account's index",
		Example: "artifact-resolver versions helm my-charts my-chart",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := rootOpts.repository(cmd.Context())
			if err != nil {
				return err
			}
			versions, err := artifacts.NewResolver(repo, nil).
				ListVersions(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), versions)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
