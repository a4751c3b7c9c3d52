package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/timetable/app"
)

var subFlags struct {
	date     string
	sections []string
}

var absentCmd = &cobra.Command{
	Use:   "absent TEACHER",
	Short: "Record a teacher absence and open substitution records from the live grid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(subFlags.date)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			recs, err := svc.Subs.MarkAbsent(ctx, date, args[0], subFlags.sections...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), recs)
		})
	},
}

var substituteCmd = &cobra.Command{
	Use:   "substitute",
	Short: "Assign and manage substitutions",
}

var substituteAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign substitutes to open records of a date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(subFlags.date)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			rep, err := svc.Subs.Assign(ctx, date, subFlags.sections...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		})
	},
}

var substituteSetCmd = &cobra.Command{
	Use:   "set RECORD TEACHER",
	Short: "Assign a substitute manually",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			rec, err := svc.Subs.SetSubstitute(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		})
	},
}

var substituteArchiveCmd = &cobra.Command{
	Use:   "archive RECORD...",
	Short: "Archive substitution records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			n, err := svc.Subs.Archive(ctx, args...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "archived %d records\n", n)
			return err
		})
	},
}

var substituteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active records of a date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(subFlags.date)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			return printJSON(cmd.OutOrStdout(), svc.Subs.Records(date, subFlags.sections...))
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{absentCmd, substituteAssignCmd, substituteListCmd} {
		c.Flags().StringVar(&subFlags.date, "date", "", "date (YYYY-MM-DD, default today)")
		c.Flags().StringSliceVar(&subFlags.sections, "section", nil, "restrict to these sections")
	}
	substituteCmd.AddCommand(substituteAssignCmd, substituteSetCmd, substituteArchiveCmd, substituteListCmd)
	rootCmd.AddCommand(absentCmd, substituteCmd)
}
