package commands

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gntoka/gntoka/internal/buildinfo"
)

// app carries state shared by all subcommands.
type app struct {
	verbose bool
	logJSON bool
	runID   string
	logger  zerolog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:     "gntoka",
		Short:   "Export GnuCash transactions as a 会計王 journal import file",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setupLogger(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "log JSON lines instead of console text")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newExportCommand(a))
	rootCmd.AddCommand(newAccountsCommand(a))

	return rootCmd
}

func (a *app) setupLogger(cmd *cobra.Command) {
	level := zerolog.InfoLevel
	if a.verbose {
		level = zerolog.DebugLevel
	}

	w := cmd.ErrOrStderr()
	if !a.logJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true}
	}

	a.runID = uuid.NewString()
	a.logger = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("run_id", a.runID).
		Logger()
}
