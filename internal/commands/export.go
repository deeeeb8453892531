package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gntoka/gntoka/internal/config"
	"github.com/gntoka/gntoka/internal/export"
)

type exportFlags struct {
	configPath string
	envFile    string
	output     string
	xlsx       string
	startSlip  int
	from       string
	to         string
	dryRun     bool
}

func newExportCommand(a *app) *cobra.Command {
	var f exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the 会計王 journal import file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f.configPath, f.envFile)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			p, err := export.FromConfig(cfg)
			if err != nil {
				return err
			}
			p.RunID = a.runID
			p.DryRun = f.dryRun

			res, err := export.Run(cmd.Context(), p, a.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case !res.Written:
				fmt.Fprintf(out, "Dry run: %d entries from %d transactions\n", len(res.Entries), res.Transactions)
			case len(res.Entries) == 0:
				fmt.Fprintf(out, "Wrote header only to %s (no transactions)\n", p.OutputPath)
			default:
				fmt.Fprintf(out, "Wrote %d entries (slips %d-%d) to %s\n",
					len(res.Entries), res.FirstSlip, res.LastSlip, p.OutputPath)
			}
			if len(res.Unlinked) > 0 {
				fmt.Fprintf(out, "%d account(s) have no mapping; run `gntoka accounts` to list them\n", len(res.Unlinked))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", config.FileName, "config file")
	cmd.Flags().StringVar(&f.envFile, "env", ".env", "optional dotenv file with GNTOKA_* overrides")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "journal CSV path (overrides journal.output)")
	cmd.Flags().StringVar(&f.xlsx, "xlsx", "", "also write an xlsx preview to this path")
	cmd.Flags().IntVar(&f.startSlip, "start-slip", 0, "first slip number (overrides journal.start_slip)")
	cmd.Flags().StringVar(&f.from, "from", "", "first date to export, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last date to export, YYYY-MM-DD")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "build and validate without writing")

	return cmd
}

// apply lays explicitly set flags over the loaded config.
func (f *exportFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Journal.Output = f.output
	}
	if flags.Changed("xlsx") {
		cfg.Journal.XLSX = f.xlsx
	}
	if flags.Changed("start-slip") {
		cfg.Journal.StartSlip = f.startSlip
		cfg.Journal.ContinueSlips = false
	}
	if flags.Changed("from") {
		cfg.Period.Start = f.from
	}
	if flags.Changed("to") {
		cfg.Period.End = f.to
	}
}

func loadConfig(path, envFile string) (*config.Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(absPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadEnv(envFile); err != nil {
		return nil, err
	}
	return cfg, nil
}
