package commands_test

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gntoka/gntoka/internal/accounts"
	"github.com/gntoka/gntoka/internal/commands"
	"github.com/gntoka/gntoka/internal/config"
	"github.com/gntoka/gntoka/internal/journal"
	"github.com/gntoka/gntoka/internal/model"
)

func runGntoka(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

const bookSchema = `
CREATE TABLE accounts (guid TEXT PRIMARY KEY, name TEXT NOT NULL, parent_guid TEXT);
CREATE TABLE transactions (guid TEXT PRIMARY KEY, post_date TEXT, description TEXT);
CREATE TABLE splits (
    guid TEXT PRIMARY KEY,
    tx_guid TEXT NOT NULL,
    account_guid TEXT NOT NULL,
    memo TEXT NOT NULL DEFAULT '',
    value_num INTEGER NOT NULL,
    value_denom INTEGER NOT NULL
);
INSERT INTO accounts VALUES ('root', 'Root Account', NULL);
INSERT INTO accounts VALUES ('assets', 'Assets', 'root');
INSERT INTO accounts VALUES ('cash', 'Cash', 'assets');
INSERT INTO accounts VALUES ('travel', 'Travel', 'root');
INSERT INTO accounts VALUES ('misc', 'Misc', 'root');
INSERT INTO transactions VALUES ('t1', '2024-01-05 10:59:00', 'Train');
INSERT INTO transactions VALUES ('t2', '2024-02-10 10:59:00', 'Taxi');
INSERT INTO splits VALUES ('s1', 't1', 'travel', 'Shinjuku', 1000, 1);
INSERT INTO splits VALUES ('s2', 't1', 'cash', '', -1000, 1);
INSERT INTO splits VALUES ('s3', 't2', 'travel', '', 2500, 1);
INSERT INTO splits VALUES ('s4', 't2', 'cash', '', -2500, 1);
`

// newProject runs init in a temp dir and fills in a book and a mapping.
// GNTOKA_* variables are cleared for the test.
func newProject(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		config.EnvLedger, config.EnvMapping, config.EnvExportList, config.EnvOutput,
		config.EnvStartSlip, config.EnvPeriodStart, config.EnvPeriodEnd,
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	dir := t.TempDir()
	_, _, err := runGntoka(t, "init", dir)
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", filepath.Join(dir, "book.gnucash"))
	require.NoError(t, err)
	_, err = db.Exec(bookSchema)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	f, err := os.Create(filepath.Join(dir, "accounts.csv"))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, accounts.WriteLinks(f, []model.Link{
		{Name: "Assets:Cash", Code: "100", AccountName: "現金"},
		{Name: "Travel", Code: "520", AccountName: "旅費交通費"},
	}))
	return dir
}

func exportArgs(dir string, extra ...string) []string {
	args := []string{
		"export",
		"--config", filepath.Join(dir, config.FileName),
		"--env", filepath.Join(dir, ".env"),
	}
	return append(args, extra...)
}

func readJournal(t *testing.T, path string) []model.JournalEntry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	entries, err := journal.ReadEntries(f)
	require.NoError(t, err)
	return entries
}

func TestInit_CreatesFiles(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runGntoka(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized gntoka project")

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "book.gnucash"), cfg.Ledger.Path)

	data, err := os.ReadFile(filepath.Join(dir, "accounts.csv"))
	require.NoError(t, err)
	assert.Equal(t, accounts.Header+"\n", string(data))

	gitignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(gitignore), "out/")
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runGntoka(t, "init", dir)
	require.NoError(t, err)

	mapping := filepath.Join(dir, "accounts.csv")
	require.NoError(t, os.WriteFile(mapping, []byte(accounts.Header+"\nTravel,520,,旅費交通費,\n"), 0o644))

	_, _, err = runGntoka(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = runGntoka(t, "init", dir, "--force")
	require.NoError(t, err)

	data, err := os.ReadFile(mapping)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Travel", "existing mapping kept")
}

func TestExport(t *testing.T) {
	dir := newProject(t)
	out, logs, err := runGntoka(t, exportArgs(dir)...)
	require.NoError(t, err, logs)
	assert.Contains(t, out, "Wrote 2 entries (slips 1-2)")
	assert.Contains(t, out, "have no mapping")
	assert.Contains(t, logs, "journal written")

	entries := readJournal(t, filepath.Join(dir, "out", "journal.csv"))
	require.Len(t, entries, 2)
	assert.Equal(t, "520", entries[0].Debit.AccountCode)
	assert.Equal(t, "100", entries[0].Credit.AccountCode)
	assert.Equal(t, "Train Shinjuku", entries[0].Memo)
	assert.Equal(t, "2500", entries[1].Debit.Amount.String())

	_, err = os.Stat(filepath.Join(dir, "logs", "runs.csv"))
	assert.NoError(t, err)
}

func TestExport_Flags(t *testing.T) {
	dir := newProject(t)
	output := filepath.Join(dir, "feb.csv")
	xlsx := filepath.Join(dir, "feb.xlsx")

	out, _, err := runGntoka(t, exportArgs(dir,
		"--from", "2024-02-01", "--to", "2024-02-29",
		"--start-slip", "300",
		"--output", output,
		"--xlsx", xlsx,
	)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 entries (slips 300-300)")

	entries := readJournal(t, output)
	require.Len(t, entries, 1)
	assert.Equal(t, 300, entries[0].SlipNumber)

	_, err = os.Stat(xlsx)
	assert.NoError(t, err)
}

func TestExport_DryRun(t *testing.T) {
	dir := newProject(t)
	out, _, err := runGntoka(t, exportArgs(dir, "--dry-run")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: 2 entries from 2 transactions")

	_, err = os.Stat(filepath.Join(dir, "out", "journal.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestExport_EnvOverride(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("GNTOKA_PERIOD_START=2024-02-01\n"), 0o644))
	t.Setenv(config.EnvStartSlip, "40")

	out, _, err := runGntoka(t, exportArgs(dir)...)
	require.NoError(t, err)
	assert.Contains(t, out, "slips 40-40")
}

func TestExport_InvalidConfig(t *testing.T) {
	dir := newProject(t)
	_, _, err := runGntoka(t, exportArgs(dir, "--from", "yesterday")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	_, _, err = runGntoka(t, "export", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExport_LogJSON(t *testing.T) {
	dir := newProject(t)
	_, logs, err := runGntoka(t, exportArgs(dir, "--log-json", "--verbose")...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(logs), "\n")
	require.NotEmpty(t, lines)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "{"), l)
		assert.Contains(t, l, `"run_id":`)
	}
	assert.Contains(t, logs, `"level":"debug"`)
}

func TestAccounts(t *testing.T) {
	dir := newProject(t)
	out, _, err := runGntoka(t, "accounts", "--config", filepath.Join(dir, config.FileName))
	require.NoError(t, err)

	links, err := accounts.ReadLinks(strings.NewReader(out))
	require.NoError(t, err)
	names := make(map[string]model.Link)
	for _, l := range links {
		names[l.Name] = l
	}
	assert.Equal(t, "520", names["Travel"].Code)
	assert.Equal(t, "", names["Misc"].Code)
	assert.Contains(t, names, "Assets:Cash")
	assert.Contains(t, names, "Assets")
}

func TestAccounts_UnlinkedToFile(t *testing.T) {
	dir := newProject(t)
	path := filepath.Join(dir, "todo.csv")
	_, _, err := runGntoka(t, "accounts", "--config", filepath.Join(dir, config.FileName),
		"--unlinked", "--output", path)
	require.NoError(t, err)

	links, err := accounts.LoadLinks(path)
	require.NoError(t, err)
	for _, l := range links {
		assert.NotEqual(t, "Travel", l.Name)
		assert.NotEqual(t, "Assets:Cash", l.Name)
	}
	assert.NotEmpty(t, links)
}

func TestVersion(t *testing.T) {
	out, _, err := runGntoka(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}
