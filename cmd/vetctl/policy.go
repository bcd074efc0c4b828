package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPolicyCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Risk policy inspection",
	}
	cmd.AddCommand(newPolicyShowCmd(opts))
	return cmd
}

func newPolicyShowCmd(opts *rootOptions) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a policy version after validation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, err := opts.policyBook()
			if err != nil {
				return err
			}
			policy := book.Current()
			if version != "" {
				if policy, err = book.Version(version); err != nil {
					return err
				}
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), policy)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(policy); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "policy version (defaults to the active version)")
	return cmd
}
