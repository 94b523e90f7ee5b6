package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/config"
	"github.com/DylanUno/whatsapp-group-form-automation/internal/normalizer"
	"github.com/DylanUno/whatsapp-group-form-automation/pkg/logger"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	inputPath  string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "waform",
		Short: "Add Google Forms respondents to a WhatsApp group in policy-compliant batches",
		Long: "waform reads phone numbers from a form-responses CSV export, normalizes them\n" +
			"to international format, and feeds the valid ones to WhatsApp Web in small,\n" +
			"operator-confirmed batches. Invalid numbers are listed for manual handling.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVarP(&flags.inputPath, "input", "i", "", "path to the responses CSV (overrides config)")

	cmd.AddCommand(
		newRunCommand(flags),
		newCheckCommand(flags),
	)
	return cmd
}

// setup loads configuration, applies flag overrides, and initializes
// logging. All subcommands go through here.
func setup(flags *rootFlags) (*config.Config, error) {
	if err := config.Load(flags.configPath); err != nil {
		return nil, err
	}
	cfg := config.Get()
	if flags.inputPath != "" {
		cfg.Input.Path = flags.inputPath
	}
	if cfg.Input.Path == "" {
		return nil, errors.New("no input file: set input.path in the config or pass --input")
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newNormalizer(cfg *config.Config) *normalizer.Normalizer {
	rules := make([]normalizer.Rule, 0, len(cfg.Normalize.Rules))
	for _, r := range cfg.Normalize.Rules {
		rules = append(rules, normalizer.Rule{TrunkPrefix: r.TrunkPrefix, CountryCode: r.CountryCode})
	}
	return normalizer.New(rules, cfg.Normalize.MinDigits, cfg.Normalize.MaxDigits)
}
