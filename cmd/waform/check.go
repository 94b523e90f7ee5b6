package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/console"
	"github.com/DylanUno/whatsapp-group-form-automation/internal/coordinator"
	"github.com/DylanUno/whatsapp-group-form-automation/internal/domain"
	"github.com/DylanUno/whatsapp-group-form-automation/internal/ingest"
)

// check vets a responses file before a session: normalize everything
// and show what the run would look like, without touching a browser.
func newCheckCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the responses file and preview batches without running a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(flags)
			if err != nil {
				return err
			}

			entries, err := ingest.ReadEntries(cfg.Input.Path, cfg.Input.PhoneColumn)
			if err != nil {
				return err
			}

			norm := newNormalizer(cfg)
			var (
				valid    []domain.CanonicalNumber
				rejected []domain.RejectedEntry
			)
			for _, entry := range entries {
				num, rej := norm.Normalize(entry)
				if rej != nil {
					rejected = append(rejected, *rej)
					continue
				}
				valid = append(valid, num)
			}

			batches, err := coordinator.Partition(valid, cfg.Batch.Size)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printer := console.NewPrinter(out)
			printer.Rejections(rejected)
			fmt.Fprintf(out, "%d entries: %d valid, %d rejected\n", len(entries), len(valid), len(rejected))
			fmt.Fprintf(out, "%d batches of up to %d numbers\n", len(batches), cfg.Batch.Size)
			return nil
		},
	}
}
