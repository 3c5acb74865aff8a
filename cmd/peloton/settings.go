package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/peloton/internal/config"
	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/standings"
	"github.com/verte-zerg/peloton/internal/timeline"
)

type settings struct {
	anim   model.Config
	server model.ServerConfig
	dbPath string
	seed   int64
	logger *slog.Logger
}

// loadSettings merges defaults, the config file, PELOTON_* variables and
// flags, in increasing order of precedence.
func loadSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return settings{}, err
	}
	merged := fileCfg.Overlay(envCfg)

	applyStringConfig(cmd, "dataset", &flagDataset, merged.Dataset.Source)
	applyStringConfig(cmd, "avatar-pattern", &flagAvatarPattern, merged.Dataset.AvatarPattern)
	applyStringConfig(cmd, "log-level", &flagLogLevel, merged.Log.Level)
	applyFloatConfig(cmd, "window", &flagWindow, merged.Animation.Window)
	applyFloatConfig(cmd, "penalty", &flagPenalty, merged.Animation.Penalty)
	applyIntConfig(cmd, "margin", &flagMargin, merged.Animation.Margin)
	applyIntConfig(cmd, "fps", &animateFPS, merged.Animation.FPS)
	applyFloatConfig(cmd, "step", &animateStep, merged.Animation.Step)
	applyFloatConfig(cmd, "nav-step", &animateNavStep, merged.Animation.NavStep)
	applyBoolConfig(cmd, "autoplay", &animateAutoplay, merged.Animation.Autoplay)
	applyStringConfig(cmd, "addr", &serveAddr, merged.Server.Addr)

	anim := model.Config{
		Dataset:       strings.TrimSpace(flagDataset),
		AvatarPattern: flagAvatarPattern,
		FPS:           animateFPS,
		Step:          animateStep,
		NavStep:       animateNavStep,
		WindowSeconds: flagWindow,
		PenaltySecs:   flagPenalty,
		Margin:        flagMargin,
		Autoplay:      animateAutoplay,
	}
	if err := config.Validate(anim); err != nil {
		return settings{}, err
	}
	srv := model.ServerConfig{Addr: serveAddr}
	if err := config.Validate(srv); err != nil {
		return settings{}, err
	}
	level, err := config.ParseLogLevel(flagLogLevel)
	if err != nil {
		return settings{}, err
	}

	dbPath := flagDBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	return settings{
		anim:   anim,
		server: srv,
		dbPath: dbPath,
		seed:   seedOrNow(flagSeed),
		logger: slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})),
	}, nil
}

// applyXConfig copies a config value into a flag variable unless the flag was
// set on the command line. Flags the command does not define are left alone.
func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || skipConfig(cmd, name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || skipConfig(cmd, name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil || skipConfig(cmd, name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || skipConfig(cmd, name) {
		return
	}
	*target = *value
}

func skipConfig(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	return flag == nil || flag.Changed
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# peloton configuration
# Uncomment a value to enable it. PELOTON_* variables override the file,
# CLI flags override both.

[animation]
# fps = %d                # Frames per second
# step = %.2f             # Stage fraction advanced per frame
# nav-step = %.1f         # Stages skipped by the arrow keys
# window = %.1f         # Seconds behind the leader shown across the chart
# penalty = %.1f        # Seconds behind the last rider for abandoned riders
# margin = %d              # Chart margin
# autoplay = false        # Start playing immediately

[dataset]
# source = "tdf2017.json" # File path or http(s) URL
# avatar-pattern = %q

[server]
# addr = %q

[log]
# level = %q           # debug, info, warn or error
`,
		defaultFPS,
		defaultStep,
		defaultNavStep,
		defaultWindow,
		float64(timeline.DefaultPenaltySeconds),
		defaultMargin,
		standings.DefaultAvatarPattern,
		defaultAddr,
		defaultLogLevel,
	)
}
