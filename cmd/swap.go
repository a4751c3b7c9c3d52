package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/timetable/app"
	"github.com/kilianp07/timetable/core/model"
)

var swapFlags struct {
	kind    string
	id      string
	targets bool
}

var swapCmd = &cobra.Command{
	Use:   "swap SOURCE [TARGET]",
	Short: "Move or swap an entity's entries between two cells (DAY/SLOT)",
	Long: `Move or swap the entries of a section, teacher or room between two cells.
With --targets, list the cells SOURCE could move to without conflicts.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(swapFlags.kind)
		if err != nil {
			return err
		}
		en := model.Entity{Kind: kind, ID: swapFlags.id}
		source, err := parseCell(args[0])
		if err != nil {
			return err
		}
		if !swapFlags.targets && len(args) != 2 {
			return fmt.Errorf("swap needs SOURCE and TARGET")
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			m, err := mode(svc)
			if err != nil {
				return err
			}
			if swapFlags.targets {
				cells, err := svc.Swap.Targets(m, source, en)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), cells)
			}
			target, err := parseCell(args[1])
			if err != nil {
				return err
			}
			res, err := svc.Swap.MoveOrSwap(ctx, m, source, target, en)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

func init() {
	swapCmd.Flags().StringVar(&swapFlags.kind, "kind", "section", "entity kind: section, teacher or room")
	swapCmd.Flags().StringVar(&swapFlags.id, "id", "", "entity id")
	swapCmd.Flags().BoolVar(&swapFlags.targets, "targets", false, "list conflict-free target cells")
	_ = swapCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(swapCmd)
}
