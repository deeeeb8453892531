package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gntoka/gntoka/internal/accounts"
	"github.com/gntoka/gntoka/internal/config"
	"github.com/gntoka/gntoka/internal/fileutil"
	"github.com/gntoka/gntoka/internal/gnucash"
	"github.com/gntoka/gntoka/internal/model"
)

func newAccountsCommand(a *app) *cobra.Command {
	var configPath, envFile, output string
	var unlinkedOnly bool

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Write every ledger account with its current mapping as a mapping CSV",
		Long: "Write every ledger account with its current mapping as a mapping CSV.\n" +
			"Fill in the blank codes and save the result as the account mapping.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, envFile)
			if err != nil {
				return err
			}

			links, err := accounts.LoadLinks(cfg.Accounts.Mapping)
			if errors.Is(err, os.ErrNotExist) {
				a.logger.Debug().Str("mapping", cfg.Accounts.Mapping).Msg("no mapping yet")
				links, err = nil, nil
			}
			if err != nil {
				return err
			}

			book, err := gnucash.Open(cfg.Ledger.Path)
			if err != nil {
				return err
			}
			defer book.Close()

			raw, err := book.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			root := cfg.Ledger.RootAccount
			if root == "" {
				root = model.RootAccountName
			}
			svc, err := accounts.Link(raw, links, root)
			if err != nil {
				return fmt.Errorf("linking accounts: %w", err)
			}

			rows := svc.Links()
			if unlinkedOnly {
				rows = unlinkedLinks(svc)
			}
			a.logger.Info().
				Int("accounts", len(svc.All())).
				Int("unlinked", len(svc.Unlinked())).
				Msg("accounts listed")

			if output == "" || output == "-" {
				return accounts.WriteLinks(cmd.OutOrStdout(), rows)
			}
			return fileutil.Commit(output, func(w io.Writer) error {
				return accounts.WriteLinks(w, rows)
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.FileName, "config file")
	cmd.Flags().StringVar(&envFile, "env", ".env", "optional dotenv file with GNTOKA_* overrides")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output path, - for stdout")
	cmd.Flags().BoolVar(&unlinkedOnly, "unlinked", false, "only list accounts without a mapping")

	return cmd
}

func unlinkedLinks(svc *accounts.Service) []model.Link {
	var links []model.Link
	for _, l := range svc.Links() {
		if acct, ok := svc.ByFullName(l.Name); ok && !acct.Linked {
			links = append(links, l)
		}
	}
	return links
}
