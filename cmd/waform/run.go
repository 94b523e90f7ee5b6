package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/console"
	"github.com/DylanUno/whatsapp-group-form-automation/internal/coordinator"
	"github.com/DylanUno/whatsapp-group-form-automation/internal/ingest"
	"github.com/DylanUno/whatsapp-group-form-automation/internal/wadriver"
	"github.com/DylanUno/whatsapp-group-form-automation/pkg/logger"
)

func newRunCommand(flags *rootFlags) *cobra.Command {
	var (
		startBatch  int
		deduplicate bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the responses file and add numbers through WhatsApp Web",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(flags)
			if err != nil {
				return err
			}
			log := logger.Get()

			entries, err := ingest.ReadEntries(cfg.Input.Path, cfg.Input.PhoneColumn)
			if err != nil {
				return err
			}
			log.Info("responses loaded",
				zap.String("path", cfg.Input.Path),
				zap.Int("entries", len(entries)),
			)

			gate := console.NewGate()
			printer := console.NewPrinter(cmd.OutOrStdout())
			driver := wadriver.New(wadriver.Options{
				StartURL:          cfg.WhatsApp.URL,
				SearchBoxSelector: cfg.WhatsApp.SearchBoxSelector,
				ActionTimeout:     cfg.WhatsApp.ActionTimeout,
			}, gate.AwaitOperator, log)
			defer driver.Close()

			opts := coordinator.Options{
				BatchSize:   cfg.Batch.Size,
				StartBatch:  cfg.Batch.Start,
				InterAction: cfg.Batch.InterActionDelay,
				InterBatch:  cfg.Batch.InterBatchDelay,
				Deduplicate: cfg.Batch.Deduplicate,
			}
			if cmd.Flags().Changed("start-batch") {
				opts.StartBatch = startBatch
			}
			if cmd.Flags().Changed("deduplicate") {
				opts.Deduplicate = deduplicate
			}

			coord, err := coordinator.New(newNormalizer(cfg), driver, gate, printer, log, opts)
			if err != nil {
				return err
			}

			report, err := coord.Run(cmd.Context(), entries)
			if err != nil {
				return err
			}
			if report.Halted {
				return fmt.Errorf("run halted: %s", report.HaltReason)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&startBatch, "start-batch", 1, "resume from this batch; earlier batches are recorded as skipped")
	cmd.Flags().BoolVar(&deduplicate, "deduplicate", false, "drop repeated numbers, keeping the first occurrence")
	return cmd
}
