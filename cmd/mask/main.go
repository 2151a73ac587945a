package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gonkalabs/gonka-mask-go/internal/config"
	"github.com/gonkalabs/gonka-mask-go/internal/run"
	"github.com/gonkalabs/gonka-mask-go/internal/sanitize"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	exitCode := 0

	cmd := &cobra.Command{
		Use:   "mask [file]",
		Short: "Mask personal information in spreadsheet and CSV files",
		Long: `mask writes a copy of a .xlsx, .xls or .csv file with personal information
removed. Columns whose header names a personal attribute (name, address,
phone, mail, ...) are replaced wholesale; every other cell is scanned for
names, places and organisations by the NER sidecar and for e-mail addresses,
phone numbers, postal codes and street addresses by fixed patterns.

The output is written next to the source, prefixed with 【マスク済み】.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var path string
			if len(args) == 1 {
				path = args[0]
			}

			rules := sanitize.DefaultRules()
			detector := run.ResolveDetector(ctx, cfg, rules)
			ctrl := run.New(rules, detector,
				run.NewTerminalPrompter(os.Stdin, os.Stderr),
				run.WithAssumeYes(cfg.AssumeYes),
			)

			out := ctrl.Run(ctx, path)
			switch out.Kind {
			case run.OutcomeSuccess:
				fmt.Fprintln(cmd.OutOrStdout(), out.Message())
			default:
				fmt.Fprintln(cmd.ErrOrStderr(), out.Message())
			}
			exitCode = out.ExitCode()
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("mask: error", "err", err)
		return 1
	}
	return exitCode
}
