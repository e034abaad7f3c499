package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every subcommand.
type RootOptions struct {
	DBPath     string
	Sheet      string
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root sheetcore command with all subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sheetcore",
		Short: "Spreadsheet cell store with dependency-aware recalculation",
		Long: `sheetcore stores cell literals and recomputes formulas when the cells
they read change.

Literals are persisted to a bbolt database when --db is given; without it
every invocation starts from an empty sheet.

Example:
  sheetcore --db book.db put A1 5 A2 =A1*2
  sheetcore --db book.db get A2`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Sheet == "" {
				return fmt.Errorf("--sheet must not be empty")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "bbolt database holding the sheet literals")
	cmd.PersistentFlags().StringVar(&opts.Sheet, "sheet", "default", "sheet name (one bucket per sheet)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log engine activity to stderr")

	cmd.AddCommand(NewPutCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewLiteralCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))

	return cmd
}
