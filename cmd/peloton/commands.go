package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/peloton/internal/browse"
	"github.com/verte-zerg/peloton/internal/dataset"
	"github.com/verte-zerg/peloton/internal/report"
	"github.com/verte-zerg/peloton/internal/server"
	"github.com/verte-zerg/peloton/internal/store"
)

var (
	standingsStage int
	standingsTop   int

	historyWidth int

	exportFormat string
	exportOut    string

	avatarsOut string

	mergeCount int
	mergeOut   string

	serveAddr string
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Aggregate a dataset and store it for later runs",
		Args:  cobra.NoArgs,
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if s.anim.Dataset == "" {
		return fmt.Errorf("--dataset is required")
	}
	tour, err := aggregateDataset(cmd.Context(), s)
	if err != nil {
		return err
	}
	st, err := store.Open(s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st, s.logger)
	if err := st.SaveTour(cmd.Context(), tour); err != nil {
		return fmt.Errorf("failed to save tour: %w", err)
	}
	s.logger.Info("tour imported", "db", s.dbPath, "stages", len(tour.Stages), "riders", len(tour.Riders))
	return nil
}

func newStandingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Print the general classification after a stage",
		Args:  cobra.NoArgs,
		RunE:  runStandingsCmd,
	}
	cmd.Flags().IntVar(&standingsStage, "stage", 0, "stage number, 1-based (default: last stage)")
	cmd.Flags().IntVar(&standingsTop, "top", 0, "limit to the first N riders")
	return cmd
}

func runStandingsCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if standingsTop < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	tour, err := loadTour(cmd.Context(), s)
	if err != nil {
		return err
	}
	idx := len(tour.Stages) - 1
	if standingsStage != 0 {
		if standingsStage < 1 || standingsStage > len(tour.Stages) {
			return fmt.Errorf("--stage must be between 1 and %d", len(tour.Stages))
		}
		idx = standingsStage - 1
	}
	return report.Standings(cmd.OutOrStdout(), &tour.Stages[idx], standingsTop)
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse standings and rider histories interactively",
		Args:  cobra.NoArgs,
		RunE:  runBrowseCmd,
	}
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	tour, err := loadTour(cmd.Context(), s)
	if err != nil {
		return err
	}
	program := tea.NewProgram(browse.NewModel(tour), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history RIDER",
		Short: "Plot a rider's rank and gap to the leader across stages",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyWidth, "width", 0, "plot width (default: terminal width)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	tour, err := loadTour(cmd.Context(), s)
	if err != nil {
		return err
	}
	return report.History(cmd.OutOrStdout(), tour, args[0], historyWidth)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the aggregated tour as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", string(report.FormatJSON), "output format (json, yaml)")
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	format, err := report.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	tour, err := loadTour(cmd.Context(), s)
	if err != nil {
		return err
	}
	if exportOut == "" {
		return report.Export(cmd.OutOrStdout(), tour, format)
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOut, err)
	}
	if err := report.Export(f, tour, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export tour: %w", err)
	}
	return f.Close()
}

func newRidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "riders",
		Short: "List every rider in the dataset",
		Args:  cobra.NoArgs,
		RunE:  runRidersCmd,
	}
}

func runRidersCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	stages, err := loadStages(cmd.Context(), s)
	if err != nil {
		return err
	}
	names := dataset.RiderNames(stages)
	out := cmd.OutOrStdout()
	for _, name := range names {
		if _, err := fmt.Fprintln(out, name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if _, err := fmt.Fprintf(out, "Total: %d\n", len(names)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newAvatarsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "avatars",
		Short: "List avatar references by rider number",
		Args:  cobra.NoArgs,
		RunE:  runAvatarsCmd,
	}
	cmd.Flags().StringVarP(&avatarsOut, "out", "o", "", "also write [number, src] pairs as JSON to this file")
	return cmd
}

func runAvatarsCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	stages, err := loadStages(cmd.Context(), s)
	if err != nil {
		return err
	}
	avatars, err := dataset.Avatars(stages, s.anim.AvatarPattern)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, a := range avatars {
		if _, err := fmt.Fprintf(out, "%d\t%s\n", a.Number, a.Src); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if _, err := fmt.Fprintf(out, "Total: %d\n", len(avatars)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if avatarsOut == "" {
		return nil
	}
	data, err := json.MarshalIndent(avatars, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode avatars: %w", err)
	}
	if err := os.WriteFile(avatarsOut, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", avatarsOut, err)
	}
	return nil
}

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge DIR",
		Short: "Merge stage-1.json ... stage-N.json into one dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  runMergeCmd,
	}
	cmd.Flags().IntVar(&mergeCount, "count", 21, "number of stage files")
	cmd.Flags().StringVarP(&mergeOut, "out", "o", "tour.json", "merged dataset path")
	return cmd
}

func runMergeCmd(cmd *cobra.Command, args []string) error {
	stages, err := dataset.ReadStages(args[0], mergeCount)
	if err != nil {
		return err
	}
	if err := dataset.Validate(stages); err != nil {
		return err
	}
	if err := dataset.WriteFile(mergeOut, stages); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d stages to %s\n", len(stages), mergeOut)
	return err
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stages and animation frames over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	tour, err := loadTour(cmd.Context(), s)
	if err != nil {
		return err
	}
	srv := server.New(s.server, s.anim, tour, s.logger)
	return srv.ListenAndServe(cmd.Context())
}
