package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <ref>...",
		Short: "Print the computed value of cells",
		Long: `Print the display value of each cell, one per line. With more than one
reference each line is prefixed with the reference.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runGet(opts *RootOptions, refs []string, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, ref := range refs {
		val, err := sess.sheet.Get(ref)
		if err != nil {
			return err
		}
		if len(refs) == 1 {
			fmt.Fprintln(cmd.OutOrStdout(), val)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ref, val)
	}
	return nil
}
