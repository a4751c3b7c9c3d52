package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/timetable/app"
	"github.com/kilianp07/timetable/config"
	"github.com/kilianp07/timetable/core/model"
	"github.com/kilianp07/timetable/infra/logger"
)

const dateLayout = "2006-01-02"

var (
	cfgPath  string
	modeFlag string
	envFile  string

	// newService is replaced in tests.
	newService = func(ctx context.Context, cfg *config.Config) (*app.Service, error) {
		return app.New(ctx, cfg)
	}
)

var rootCmd = &cobra.Command{
	Use:   "timetable",
	Short: "School timetable and substitution engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "", "grid mode: draft or live (default: engine.default_mode)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// withService loads the configuration, builds the service and closes it
// once fn returns.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(ctx, svc)
}

// mode resolves --mode against the session default.
func mode(svc *app.Service) (model.Mode, error) {
	if modeFlag == "" {
		return svc.Mode(), nil
	}
	m, ok := model.ParseMode(modeFlag)
	if !ok {
		return 0, fmt.Errorf("unknown mode %q", modeFlag)
	}
	return m, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDate accepts YYYY-MM-DD; empty means today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// parseCell accepts "Mon/p1" or "Monday/p1".
func parseCell(s string) (model.Cell, error) {
	day, slot, ok := strings.Cut(s, "/")
	if !ok || slot == "" {
		return model.Cell{}, fmt.Errorf("cell %q: want DAY/SLOT", s)
	}
	d, err := model.ParseDay(day)
	if err != nil {
		return model.Cell{}, err
	}
	return model.Cell{Day: d, SlotID: slot}, nil
}
