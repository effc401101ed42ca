package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fortipass/fortipass-go/internal/config"
)

type app struct {
	cfg     config.Config
	logFile *os.File
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "fortipass",
		Short:         "Generate random passwords and rate their strength",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return a.setupLogging(cmd.ErrOrStderr(), cmd.Name() == "serve")
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.closeLog()
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newGenerateCmd(a),
		newStrengthCmd(),
		newStatusCmd(a),
	)

	// PersistentPostRunE is skipped when RunE fails.
	for _, c := range root.Commands() {
		run := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if err != nil {
				a.closeLog()
			}
			return err
		}
	}
	return root
}

// setupLogging points the default slog logger at LOG_FILE, or at stderr when
// it is unset. One-shot commands logging to stderr only show warnings so
// their output stays readable.
func (a *app) setupLogging(stderr io.Writer, longRunning bool) error {
	var w io.Writer = stderr
	level := a.cfg.LogLevel

	if a.cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.LogFile), 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.logFile = f
		w = f
	} else if !longRunning && level < slog.LevelWarn {
		level = slog.LevelWarn
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func (a *app) closeLog() error {
	if a.logFile == nil {
		return nil
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	err := a.logFile.Close()
	a.logFile = nil
	return err
}
