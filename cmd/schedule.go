package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/timetable/app"
	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
	"github.com/kilianp07/timetable/pkg/export"
)

var fillCmd = &cobra.Command{
	Use:   "fill GRADE",
	Short: "Auto-fill a grade's sections from its assignments and pool blocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			m, err := mode(svc)
			if err != nil {
				return err
			}
			if clearFirst {
				if _, err := svc.AutoFill.ClearGrade(ctx, m, args[0]); err != nil {
					return err
				}
			}
			rep, err := svc.AutoFill.Fill(ctx, m, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		})
	},
}

var clearFirst bool

var clearCmd = &cobra.Command{
	Use:   "clear GRADE",
	Short: "Remove every entry of a grade's sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			m, err := mode(svc)
			if err != nil {
				return err
			}
			n, err := svc.AutoFill.ClearGrade(ctx, m, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries from %s (%s)\n", n, args[0], m)
			return err
		})
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Promote the draft to live",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			res, err := svc.Publisher.Publish(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var discardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Empty the draft without publishing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			n, err := svc.Publisher.Discard(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "discarded %d draft entries\n", n)
			return err
		})
	},
}

var gridFlags struct {
	sections []string
	teacher  string
	day      string
	format   string
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Print grid entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(gridFlags.format)
		if err != nil {
			return err
		}
		f := grid.Filter{SectionIDs: gridFlags.sections, TeacherID: gridFlags.teacher}
		if gridFlags.day != "" {
			if f.Day, err = model.ParseDay(gridFlags.day); err != nil {
				return err
			}
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			m, err := mode(svc)
			if err != nil {
				return err
			}
			return export.WriteEntries(cmd.OutOrStdout(), format, svc.Grid.Entries(m, f))
		})
	},
}

var workloadDate string

var workloadCmd = &cobra.Command{
	Use:   "workload",
	Short: "Summarise teacher weekly loads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(workloadDate)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			m, err := mode(svc)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), svc.Workload(m, date))
		})
	},
}

func init() {
	fillCmd.Flags().BoolVar(&clearFirst, "clear", false, "clear the grade before filling")
	gridCmd.Flags().StringSliceVar(&gridFlags.sections, "section", nil, "section ids")
	gridCmd.Flags().StringVar(&gridFlags.teacher, "teacher", "", "teacher id")
	gridCmd.Flags().StringVar(&gridFlags.day, "day", "", "weekday")
	gridCmd.Flags().StringVar(&gridFlags.format, "format", "json", "output format: json or csv")
	workloadCmd.Flags().StringVar(&workloadDate, "date", "", "any date of the week (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(fillCmd, clearCmd, publishCmd, discardCmd, gridCmd, workloadCmd)
}
