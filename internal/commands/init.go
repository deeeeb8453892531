package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gntoka/gntoka/internal/accounts"
	"github.com/gntoka/gntoka/internal/config"
	"github.com/gntoka/gntoka/internal/fileutil"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default gntoka.yaml and an empty account mapping",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized gntoka project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing gntoka.yaml")

	return cmd
}

func runInit(dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	// Write gntoka.yaml.
	cfg := config.Default()
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write an empty mapping unless one is already there.
	mapping := filepath.Join(dir, cfg.Accounts.Mapping)
	if _, err := os.Stat(mapping); errors.Is(err, os.ErrNotExist) {
		if err := fileutil.Commit(mapping, func(w io.Writer) error {
			return accounts.WriteLinks(w, nil)
		}); err != nil {
			return fmt.Errorf("writing account mapping: %w", err)
		}
	}

	// Write .gitignore.
	gitignore := "out/\nlogs/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	return nil
}
