// Package main provides the CLI entrypoint for peloton.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/peloton/internal/dataset"
	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/standings"
	"github.com/verte-zerg/peloton/internal/store"
	"github.com/verte-zerg/peloton/internal/timeline"
	"github.com/verte-zerg/peloton/internal/tui"
)

const (
	defaultFPS      = 30
	defaultStep     = 0.02
	defaultNavStep  = 1.0
	defaultWindow   = 600.0
	defaultMargin   = 2
	defaultAddr     = "127.0.0.1:8080"
	defaultLogLevel = "info"
)

var (
	flagDataset       string
	flagAvatarPattern string
	flagSeed          int64
	flagDBPath        string
	flagLogLevel      string
	flagWindow        float64
	flagPenalty       float64
	flagMargin        int

	animateFPS      int
	animateStep     float64
	animateNavStep  float64
	animateAutoplay bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "peloton",
		Short:         "Replay a stage race as an animated chart",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runAnimateCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDataset, "dataset", "", "stage results JSON file or http(s) URL (default: imported tour)")
	pf.StringVar(&flagAvatarPattern, "avatar-pattern", standings.DefaultAvatarPattern, "regexp extracting the 1-based rider number from avatar references")
	pf.Int64Var(&flagSeed, "seed", 0, "seed for rider lanes (0: random)")
	pf.StringVar(&flagDBPath, "db", "", "SQLite database path (default: XDG data dir)")
	pf.StringVar(&flagLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	pf.Float64Var(&flagWindow, "window", defaultWindow, "seconds behind the leader shown across the chart")
	pf.Float64Var(&flagPenalty, "penalty", timeline.DefaultPenaltySeconds, "seconds added behind the last rider for abandoned riders")
	pf.IntVar(&flagMargin, "margin", defaultMargin, "chart margin")

	rootCmd.Flags().IntVar(&animateFPS, "fps", defaultFPS, "animation frames per second")
	rootCmd.Flags().Float64Var(&animateStep, "step", defaultStep, "stage fraction advanced per frame")
	rootCmd.Flags().Float64Var(&animateNavStep, "nav-step", defaultNavStep, "stages skipped by the arrow keys")
	rootCmd.Flags().BoolVar(&animateAutoplay, "autoplay", false, "start playing immediately")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newStandingsCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newRidersCmd())
	rootCmd.AddCommand(newAvatarsCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runAnimateCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	tour, err := loadTour(cmd.Context(), s)
	if err != nil {
		return err
	}

	m := tui.NewModel(s.anim, tour, nil)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if err := m.Err(); err != nil {
		return fmt.Errorf("failed to render stage: %w", err)
	}
	return nil
}

// loadTour aggregates the configured dataset, or reads the imported tour
// when no dataset is configured.
func loadTour(ctx context.Context, s settings) (*model.Tour, error) {
	if s.anim.Dataset != "" {
		return aggregateDataset(ctx, s)
	}
	st, err := store.Open(s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st, s.logger)

	tour, err := st.LoadTour(ctx)
	if errors.Is(err, store.ErrNoTour) {
		return nil, fmt.Errorf("no dataset configured and nothing imported (use --dataset or peloton import)")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tour: %w", err)
	}
	s.logger.Info("tour loaded", "db", s.dbPath, "stages", len(tour.Stages), "riders", len(tour.Riders))
	return tour, nil
}

func aggregateDataset(ctx context.Context, s settings) (*model.Tour, error) {
	stages, err := dataset.Load(ctx, s.anim.Dataset, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	tour, err := standings.Aggregate(stages, standings.Options{
		AvatarPattern: s.anim.AvatarPattern,
		Rand:          rand.New(rand.NewSource(s.seed)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stages: %w", err)
	}
	s.logger.Debug("stages aggregated", "stages", len(tour.Stages), "riders", len(tour.Riders), "seed", s.seed)
	return tour, nil
}

func loadStages(ctx context.Context, s settings) ([]model.Stage, error) {
	if s.anim.Dataset == "" {
		return nil, fmt.Errorf("--dataset is required")
	}
	stages, err := dataset.Load(ctx, s.anim.Dataset, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return stages, nil
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if cerr := st.Close(); cerr != nil {
		logger.Warn("failed to close db", "error", cerr)
	}
}

func seedOrNow(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}
