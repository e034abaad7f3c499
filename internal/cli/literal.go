package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLiteralCommand creates the literal command.
func NewLiteralCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "literal <ref>",
		Short: "Print exactly what was stored in a cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			literal, err := sess.sheet.GetLiteral(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), literal)
			return nil
		},
	}

	return cmd
}
