package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"logstudio/internal/service"
)

func newEntriesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Inspect and promote pipeline entries",
	}

	cmd.AddCommand(
		newEntriesListCmd(flags),
		newEntriesPromoteCmd(flags),
	)

	return cmd
}

func newEntriesListCmd(flags *globalFlags) *cobra.Command {
	var (
		level int
		tag   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		Long:  "Lists entries in insertion order, optionally filtered by level and tag.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := service.EntryFilter{Tag: tag}
			if cmd.Flags().Changed("level") {
				filter.Level = &level
			}

			return withDeps(flags, cmd.ErrOrStderr(), func(d *deps) error {
				entries, err := d.entries.List(cmd.Context(), filter)
				if err != nil {
					return describeError(err)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No entries found.")
					return nil
				}
				return printEntries(cmd.OutOrStdout(), entries)
			})
		},
	}

	cmd.Flags().IntVarP(&level, "level", "l", 0, "Only entries at this level (0-3)")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Only entries carrying this tag")

	return cmd
}

func newEntriesPromoteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <id> <level>",
		Short: "Move an entry to another level",
		Long:  "Changes an entry's level and type and appends a milestone to its update log.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("level must be an integer, got %q", args[1])
			}

			return withDeps(flags, cmd.ErrOrStderr(), func(d *deps) error {
				entry, err := d.entries.Promote(cmd.Context(), args[0], level)
				if err != nil {
					return describeError(err)
				}
				last := entry.Updates[len(entry.Updates)-1]
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s. %s\n", entry.ID, service.LevelLabel(entry.Level), last.Content)
				return nil
			})
		},
	}
}

func printEntries(w io.Writer, entries []service.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLEVEL\tTYPE\tSLUG\tTAGS\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\tL%d\t%s\t%s\t%s\t%s\n",
			e.ID, e.Level, e.Type, e.Slug, strings.Join(e.Tags, ","), e.UpdatedAt.UTC().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// describeError turns service errors into messages fit for a terminal.
func describeError(err error) error {
	if errs, ok := service.AsValidationErrors(err); ok {
		fields, form := errs.Flatten()
		keys := make([]string, 0, len(fields))
		for field := range fields {
			keys = append(keys, field)
		}
		sort.Strings(keys)

		var parts []string
		for _, field := range keys {
			parts = append(parts, field+": "+strings.Join(fields[field], "; "))
		}
		parts = append(parts, form...)
		return fmt.Errorf("invalid input: %s", strings.Join(parts, ", "))
	}
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		return errors.New(conflict.Message)
	}
	if errors.Is(err, service.ErrNotFound) {
		return errors.New("entry not found")
	}
	return err
}
