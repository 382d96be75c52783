package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/five82/varlens/internal/config"
	"github.com/five82/varlens/internal/logtail"
)

func newLogsCmd(flags *rootFlags) *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the most recent entries of the varlens log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			minLevel, err := zapcore.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("parse --level: %w", err)
			}
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load varlens config: %w", err)
			}
			if cfg.LogFile == "" {
				return errors.New("log_file is not set in the config")
			}
			entries, err := logtail.Read(cfg.LogFile, lines, minLevel)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				if _, err := fmt.Fprintln(out, e.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of entries to show (0 for all)")
	cmd.Flags().StringVar(&level, "level", "info", "minimum level: debug, info, warn or error")
	return cmd
}
