package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gntoka/gntoka/internal/journal"
	"github.com/gntoka/gntoka/internal/ledger"
	"github.com/gntoka/gntoka/internal/model"
)

// FileName is the default config file name in a project directory.
const FileName = "gntoka.yaml"

// DateFormat is the layout of period bounds.
const DateFormat = "2006-01-02"

// Environment variables that override file values.
const (
	EnvLedger      = "GNTOKA_LEDGER"
	EnvMapping     = "GNTOKA_MAPPING"
	EnvExportList  = "GNTOKA_EXPORT_LIST"
	EnvOutput      = "GNTOKA_OUTPUT"
	EnvStartSlip   = "GNTOKA_START_SLIP"
	EnvPeriodStart = "GNTOKA_PERIOD_START"
	EnvPeriodEnd   = "GNTOKA_PERIOD_END"
)

// Config represents the top-level gntoka.yaml configuration.
type Config struct {
	Ledger   LedgerConfig   `yaml:"ledger"`
	Accounts AccountsConfig `yaml:"accounts"`
	Journal  JournalConfig  `yaml:"journal"`
	Period   PeriodConfig   `yaml:"period"`
}

// LedgerConfig locates the GnuCash book.
type LedgerConfig struct {
	Path        string `yaml:"path"`
	RootAccount string `yaml:"root_account"`
}

// AccountsConfig locates the account mapping and the optional export list.
type AccountsConfig struct {
	Mapping    string `yaml:"mapping"`
	ExportList string `yaml:"export_list,omitempty"`
}

// JournalConfig controls the generated import file.
type JournalConfig struct {
	Output               string `yaml:"output"`
	XLSX                 string `yaml:"xlsx,omitempty"`
	StartSlip            int    `yaml:"start_slip"`
	ContinueSlips        bool   `yaml:"continue_slips"`
	RunLog               string `yaml:"run_log"`
	FoldIdeographicSpace bool   `yaml:"fold_ideographic_space"`
}

// PeriodConfig bounds the exported transactions. Both ends are inclusive
// "YYYY-MM-DD" dates; an empty bound is open.
type PeriodConfig struct {
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`
}

// Load reads a gntoka.yaml file from disk. Keys missing from the file keep
// their Default values. Relative paths in the file are taken relative to
// the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Path:        "book.gnucash",
			RootAccount: model.RootAccountName,
		},
		Accounts: AccountsConfig{
			Mapping: "accounts.csv",
		},
		Journal: JournalConfig{
			Output:               "out/journal.csv",
			StartSlip:            1,
			RunLog:               "logs/runs.csv",
			FoldIdeographicSpace: true,
		},
	}
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{
		&c.Ledger.Path,
		&c.Accounts.Mapping,
		&c.Accounts.ExportList,
		&c.Journal.Output,
		&c.Journal.XLSX,
		&c.Journal.RunLog,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// LoadEnv reads envFile into the process environment when it exists and
// then applies the GNTOKA_* overrides. Variables already set in the
// environment win over the file.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return c.ApplyEnv(os.LookupEnv)
}

// ApplyEnv overrides file values with the GNTOKA_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{EnvLedger, &c.Ledger.Path},
		{EnvMapping, &c.Accounts.Mapping},
		{EnvExportList, &c.Accounts.ExportList},
		{EnvOutput, &c.Journal.Output},
		{EnvPeriodStart, &c.Period.Start},
		{EnvPeriodEnd, &c.Period.End},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := lookup(EnvStartSlip); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStartSlip, err)
		}
		c.Journal.StartSlip = n
	}
	return nil
}

// LedgerPeriod parses the configured period.
func (c *Config) LedgerPeriod() (ledger.Period, error) {
	var p ledger.Period
	var err error
	if c.Period.Start != "" {
		if p.Start, err = time.Parse(DateFormat, c.Period.Start); err != nil {
			return ledger.Period{}, fmt.Errorf("period start %q: %w", c.Period.Start, err)
		}
	}
	if c.Period.End != "" {
		if p.End, err = time.Parse(DateFormat, c.Period.End); err != nil {
			return ledger.Period{}, fmt.Errorf("period end %q: %w", c.Period.End, err)
		}
	}
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return ledger.Period{}, fmt.Errorf("period end %s is before start %s", c.Period.End, c.Period.Start)
	}
	return p, nil
}

// Validate checks that the config can drive an export.
func (c *Config) Validate() error {
	var errs []error
	if c.Ledger.Path == "" {
		errs = append(errs, errors.New("ledger.path is required"))
	}
	if c.Accounts.Mapping == "" {
		errs = append(errs, errors.New("accounts.mapping is required"))
	}
	if c.Journal.Output == "" {
		errs = append(errs, errors.New("journal.output is required"))
	}
	if c.Journal.StartSlip < 1 || c.Journal.StartSlip > journal.MaxSlipNumber {
		errs = append(errs, fmt.Errorf("journal.start_slip %d not in 1..%d: %w",
			c.Journal.StartSlip, journal.MaxSlipNumber, model.ErrOutOfRange))
	}
	if c.Journal.ContinueSlips && c.Journal.RunLog == "" {
		errs = append(errs, errors.New("journal.continue_slips needs journal.run_log"))
	}
	if _, err := c.LedgerPeriod(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
