package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vogtb/go-sheetcore/packages/sheetcore"
)

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <ref> <literal> [<ref> <literal>...]",
		Short: "Store literals in cells",
		Long: `Store one or more literals, applied in order. A literal starting with
the formula marker (default "=") is a formula.

Processing stops at the first rejected put; earlier puts stay applied.

Example:
  sheetcore --db book.db put A1 5 B1 '=A1+1'`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected <ref> <literal> pairs, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runPut(opts *RootOptions, pairs []string, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	printLn := func(s string) { fmt.Fprintln(cmd.OutOrStdout(), s) }
	runner := sheetcore.NewRunnableSheet(sess.sheet, printLn).PutPairs(pairs...)
	if err := runner.Error(); err != nil {
		return err
	}

	if opts.Verbose {
		for i := 0; i < len(pairs); i += 2 {
			runner.Log(pairs[i])
		}
	}
	return runner.Error()
}
