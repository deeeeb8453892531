// Package export runs the GnuCash to 会計王 journal pipeline.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gntoka/gntoka/internal/accounts"
	"github.com/gntoka/gntoka/internal/config"
	"github.com/gntoka/gntoka/internal/gnucash"
	"github.com/gntoka/gntoka/internal/journal"
	"github.com/gntoka/gntoka/internal/ledger"
	"github.com/gntoka/gntoka/internal/model"
	"github.com/gntoka/gntoka/internal/preview"
	"github.com/gntoka/gntoka/internal/runlog"
	"github.com/gntoka/gntoka/internal/textenc"
)

// Params drives one export run.
type Params struct {
	RunID          string
	LedgerPath     string
	RootAccount    string
	MappingPath    string
	ExportListPath string
	OutputPath     string
	XLSXPath       string
	RunLogPath     string
	StartSlip      int
	ContinueSlips  bool
	Period         ledger.Period
	Text           textenc.Options
	DryRun         bool
}

// FromConfig converts a validated Config into Params.
func FromConfig(cfg *config.Config) (Params, error) {
	period, err := cfg.LedgerPeriod()
	if err != nil {
		return Params{}, err
	}
	return Params{
		LedgerPath:     cfg.Ledger.Path,
		RootAccount:    cfg.Ledger.RootAccount,
		MappingPath:    cfg.Accounts.Mapping,
		ExportListPath: cfg.Accounts.ExportList,
		OutputPath:     cfg.Journal.Output,
		XLSXPath:       cfg.Journal.XLSX,
		RunLogPath:     cfg.Journal.RunLog,
		StartSlip:      cfg.Journal.StartSlip,
		ContinueSlips:  cfg.Journal.ContinueSlips,
		Period:         period,
		Text:           textenc.Options{FoldIdeographicSpace: cfg.Journal.FoldIdeographicSpace},
	}, nil
}

// Input is everything Build needs besides Params.
type Input struct {
	Source     ledger.Source
	Links      []model.Link
	ExportList []string
}

// Result summarizes a run.
type Result struct {
	RunID        string
	Entries      []model.JournalEntry
	Transactions int
	FirstSlip    int
	LastSlip     int
	Unlinked     []string
	Missing      []string
	Written      bool
}

// Build reads the ledger, links accounts and builds validated journal
// entries. It writes nothing.
func Build(ctx context.Context, in Input, p Params, logger zerolog.Logger) (*Result, error) {
	tables, err := ledger.Load(ctx, in.Source)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Int("accounts", len(tables.Accounts)).
		Int("transactions", len(tables.Transactions)).
		Int("splits", len(tables.Splits)).
		Msg("ledger loaded")

	root := p.RootAccount
	if root == "" {
		root = model.RootAccountName
	}
	svc, err := accounts.Link(tables.Accounts, in.Links, root)
	if err != nil {
		return nil, fmt.Errorf("linking accounts: %w", err)
	}

	res := &Result{RunID: p.RunID}
	for _, a := range svc.Unlinked() {
		res.Unlinked = append(res.Unlinked, a.FullName)
		logger.Debug().Str("account", a.FullName).Msg("account not in mapping")
	}

	splits, err := ledger.Resolve(tables, svc, p.Period)
	if err != nil {
		return nil, err
	}
	groups := journal.GroupByTransaction(splits)

	if in.ExportList != nil {
		ids, missing := svc.ExportSet(in.ExportList)
		for _, name := range missing {
			logger.Warn().Str("account", name).Msg("export list names no linked account")
		}
		res.Missing = missing
		groups = journal.FilterAccounts(groups, ids)
	}
	res.Transactions = len(groups)

	counter := journal.NewCounter(p.StartSlip)
	builder := journal.NewBuilder(counter,
		journal.WithTextOptions(p.Text),
		journal.WithLogger(logger),
	)
	entries, err := builder.BuildAll(groups)
	if err != nil {
		return nil, err
	}
	journal.SortByDate(entries)
	if verrs := journal.ValidateEntries(entries); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, fmt.Errorf("validating journal: %w", errors.Join(errs...))
	}

	res.Entries = entries
	if len(entries) > 0 {
		res.FirstSlip = entries[0].SlipNumber
		res.LastSlip = entries[len(entries)-1].SlipNumber
	}
	return res, nil
}

// Run performs a full export: it opens the book, builds the entries, then
// commits the optional xlsx preview, the journal file and the run log.
// Nothing is written when building fails or p.DryRun is set.
func Run(ctx context.Context, p Params, logger zerolog.Logger) (*Result, error) {
	if p.RunID == "" {
		p.RunID = uuid.NewString()
	}
	logger = logger.With().Str("run_id", p.RunID).Logger()

	start, err := startSlip(p)
	if err != nil {
		return nil, err
	}
	p.StartSlip = start

	links, err := accounts.LoadLinks(p.MappingPath)
	if err != nil {
		return nil, err
	}
	var exportList []string
	if p.ExportListPath != "" {
		if exportList, err = accounts.LoadExportList(p.ExportListPath); err != nil {
			return nil, err
		}
		if exportList == nil {
			exportList = []string{}
		}
	}

	book, err := gnucash.Open(p.LedgerPath)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	logger.Info().Str("ledger", book.Path()).Int("start_slip", start).Msg("exporting")

	res, err := Build(ctx, Input{Source: book, Links: links, ExportList: exportList}, p, logger)
	if err != nil {
		return nil, err
	}

	if p.DryRun {
		logger.Info().
			Int("entries", len(res.Entries)).
			Int("transactions", res.Transactions).
			Msg("dry run, nothing written")
		return res, nil
	}

	// The preview goes first so that a failure there leaves no journal
	// behind whose slips the run log does not know about.
	if p.XLSXPath != "" {
		if err := preview.WriteXLSX(p.XLSXPath, res.Entries); err != nil {
			return nil, fmt.Errorf("writing preview: %w", err)
		}
	}
	if err := journal.WriteFile(p.OutputPath, res.Entries); err != nil {
		if p.XLSXPath != "" {
			_ = os.Remove(p.XLSXPath)
		}
		return nil, err
	}
	res.Written = true
	logger.Info().
		Str("output", p.OutputPath).
		Int("entries", len(res.Entries)).
		Int("first_slip", res.FirstSlip).
		Int("last_slip", res.LastSlip).
		Msg("journal written")
	if p.XLSXPath != "" {
		logger.Info().Str("xlsx", p.XLSXPath).Msg("preview written")
	}

	if p.RunLogPath != "" {
		entry := runlog.Entry{
			Timestamp: time.Now().UTC().Truncate(time.Second),
			RunID:     p.RunID,
			Output:    p.OutputPath,
			Entries:   len(res.Entries),
			FirstSlip: res.FirstSlip,
			LastSlip:  res.LastSlip,
		}
		if err := runlog.Append(p.RunLogPath, []runlog.Entry{entry}); err != nil {
			if p.ContinueSlips {
				return res, fmt.Errorf("recording slips %d..%d in run log, pass --start-slip %d next time: %w",
					res.FirstSlip, res.LastSlip, res.LastSlip+1, err)
			}
			logger.Warn().Err(err).Msg("failed to write run log")
		}
	}
	return res, nil
}

func startSlip(p Params) (int, error) {
	if !p.ContinueSlips || p.RunLogPath == "" {
		return p.StartSlip, nil
	}
	next, err := runlog.NextSlip(p.RunLogPath)
	if err != nil {
		return 0, err
	}
	if next == 0 {
		return p.StartSlip, nil
	}
	if next > journal.MaxSlipNumber {
		return 0, fmt.Errorf("continuing after slip %d: %w", next-1, model.ErrOutOfRange)
	}
	return next, nil
}
