// Package cmd implements the ff7-medit command line.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aktsk/ff7-medit/internal/config"
	"github.com/aktsk/ff7-medit/internal/logging"
	"github.com/aktsk/ff7-medit/pkg/bridge"
	"github.com/aktsk/ff7-medit/pkg/dispatch"
	"github.com/aktsk/ff7-medit/pkg/memory"
	"github.com/aktsk/ff7-medit/pkg/process"
)

var (
	configPath string
	formatFlag string
	pidFlag    int
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "ff7-medit",
	Short: "Inspect and edit a running FINAL FANTASY VII",
	Long:  "Reads and writes FINAL FANTASY VII game memory through a per-build address table, and decodes battle/scene.bin.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $FF7MEDIT_CONFIG or $XDG_CONFIG_HOME/ff7-medit/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().IntVarP(&pidFlag, "pid", "p", 0, "Attach to this pid instead of searching by name")
	RootCmd.PersistentFlags().StringP("build", "b", "", "Game build (overrides config)")
	RootCmd.PersistentFlags().String("address-table", "", "Address table YAML file (overrides build)")
	RootCmd.PersistentFlags().String("game-dir", "", "Game installation directory")
	RootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	RootCmd.PersistentFlags().Bool("freeze", false, "Stop the game while taking a snapshot")
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg      config.Config
	log      *zap.Logger
	bridge   *bridge.Bridge
	registry *dispatch.Registry
}

// loadConfig applies persistent flags on top of the file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("build") {
		cfg.Build, _ = flags.GetString("build")
	}
	if flags.Changed("address-table") {
		cfg.AddressTable, _ = flags.GetString("address-table")
	}
	if flags.Changed("game-dir") {
		cfg.GameDirectory, _ = flags.GetString("game-dir")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("freeze") {
		cfg.Freeze, _ = flags.GetBool("freeze")
	}
	return cfg, cfg.Validate()
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	table, err := cfg.Table()
	if err != nil {
		return nil, err
	}

	loc := process.NewLocator(cfg.ProcessNames, process.WithLogger(log))
	acc := memory.NewAccessor(loc, memory.WithLogger(log))
	b := bridge.New(table, loc, acc,
		bridge.WithPID(pidFlag),
		bridge.WithFreeze(cfg.Freeze),
		bridge.WithGameDirectory(cfg.GameDirectory),
		bridge.WithLogger(log),
	)
	reg := dispatch.NewRegistry()
	dispatch.Bind(reg, b)

	log.Debug("ready", zap.String("build", table.Build()), zap.Strings("process_names", cfg.ProcessNames))
	return &app{cfg: cfg, log: log, bridge: b, registry: reg}, nil
}

func mustApp(cmd *cobra.Command) *app {
	a, err := newApp(cmd)
	if err != nil {
		exitErr("setup", err)
	}
	return a
}

// invoke runs a registered command with args marshaled to JSON.
func (a *app) invoke(ctx context.Context, name string, args any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return a.registry.Invoke(ctx, name, raw)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
