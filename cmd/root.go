// Package cmd provides the root command and CLI setup for refix.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marsh-hen/refix/internal/adapter"
	"github.com/marsh-hen/refix/internal/controller"
	"github.com/marsh-hen/refix/internal/domain"
	m "github.com/marsh-hen/refix/internal/model"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	var searchFlag string
	var replaceFlag string
	var fixedFlag bool
	var hiddenFlag bool
	var pathPatternFlag string
	var noTUIFlag bool
	var logLevelFlag string

	cmd := &cobra.Command{
		Use:   "refix [directory]",
		Short: "Interactive find and replace across a directory tree",
		Long: `Refix searches every text file under a directory for a pattern,
lets you review and toggle each match, and then rewrites the selected
matches in place.

Files matched by .gitignore or .ignore rules are skipped, as are binary
files and anything under .git. Without a terminal (or with --no-tui) it
replaces every match immediately; --search is required in that mode.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			log := adapter.NewFileLogger(logLevelFlag)

			session := domain.NewSession(
				adapter.NewLocalTreeWalker(log),
				adapter.NewLocalFileSystem(),
				log,
			)

			useTTY := !noTUIFlag && controller.IsTTY(cmd.OutOrStdout())
			ui := controller.NewUI(cmd, useTTY)

			return ui.Run(cmd.Context(), session, controller.Defaults{
				Spec: m.SearchSpec{
					Pattern:       searchFlag,
					FixedStrings:  fixedFlag,
					PathPattern:   pathPatternFlag,
					IncludeHidden: hiddenFlag,
					Root:          m.Path(root),
				},
				Replace: m.ReplaceSpec{Template: replaceFlag},
			})
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&searchFlag, "search", "s", "", "text or regex to search for")
	cmd.Flags().StringVarP(&replaceFlag, "replace", "r", "", "replacement text, $1 for capture groups")
	cmd.Flags().BoolVarP(&fixedFlag, "fixed-strings", "f", false, "treat the search pattern as literal text")
	cmd.Flags().BoolVar(&hiddenFlag, "hidden", false, "search hidden files and directories")
	cmd.Flags().StringVar(&pathPatternFlag, "path-pattern", "", "only search paths matching this regex")
	cmd.Flags().BoolVar(&noTUIFlag, "no-tui", false, "replace all matches without interactive review")
	cmd.Flags().StringVar(&logLevelFlag, "log-level", "warn", "log file verbosity (trace, debug, info, warn, error)")

	return cmd
}

// Execute runs the root command. This is called by main.main(). It only needs
// to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
