package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCmd(flags *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all content with the built-in dataset",
		Long:  "Deletes every entry, update log and journal post, then restores the built-in dataset in one transaction.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("seed deletes all existing content; pass --yes to confirm")
			}
			return withDeps(flags, cmd.ErrOrStderr(), func(d *deps) error {
				result, err := d.system.Seed(cmd.Context())
				if err != nil {
					return fmt.Errorf("seeding: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d entries and %d journal posts.\n", result.Entries, result.Journal)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion of existing content")

	return cmd
}
