package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/timetable/app"
	"github.com/kilianp07/timetable/core/model"
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Manage parallel pool blocks",
}

var blockSaveCmd = &cobra.Command{
	Use:   "save FILE",
	Short: "Create or update a block template from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := readBlock(args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			saved, err := svc.Blocks.SaveBlock(ctx, b)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), saved)
		})
	},
}

// readBlock decodes a block file. YAML is a superset of JSON, so one decoder
// serves both.
func readBlock(path string) (model.CombinedBlock, error) {
	var b model.CombinedBlock
	data, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" && ext != ".json" {
		return b, fmt.Errorf("unsupported block format: %s", ext)
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("decode %s: %w", path, err)
	}
	return b, nil
}

var blockDeployCmd = &cobra.Command{
	Use:   "deploy BLOCK DAY/SLOT",
	Short: "Place a block at a cell",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cell, err := parseCell(args[1])
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			m, err := mode(svc)
			if err != nil {
				return err
			}
			entries, err := svc.Blocks.DeployBlock(ctx, m, args[0], cell)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		})
	},
}

var blockDismantleCmd = &cobra.Command{
	Use:   "dismantle BLOCK DAY/SLOT",
	Short: "Remove a block's entries from a cell",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cell, err := parseCell(args[1])
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			m, err := mode(svc)
			if err != nil {
				return err
			}
			n, err := svc.Blocks.Dismantle(ctx, m, args[0], cell)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
			return err
		})
	},
}

var blockRemoveCmd = &cobra.Command{
	Use:   "remove BLOCK",
	Short: "Delete a block template; deployed entries become orphans",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			orphaned, err := svc.Blocks.RemoveBlock(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), orphaned)
		})
	},
}

var blockOrphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List entries whose block template no longer exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			m, err := mode(svc)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), svc.Blocks.Orphans(m))
		})
	},
}

func init() {
	blockCmd.AddCommand(blockSaveCmd, blockDeployCmd, blockDismantleCmd, blockRemoveCmd, blockOrphansCmd)
	rootCmd.AddCommand(blockCmd)
}
