package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vogtb/go-sheetcore/packages/sheetcore"
)

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Read get/put commands from stdin",
		Long: `Read one command per line from stdin and apply it to a single sheet:

  put <ref> <literal>   store a literal (the rest of the line, verbatim)
  get <ref>             print the computed value
  literal <ref>         print the stored literal
  deps <ref>            print precedents and dependents
  quit                  stop reading

Errors are printed and do not stop the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			return runRepl(sess.sheet, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	return cmd
}

func runRepl(sheet *sheetcore.Sheet, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		verb, rest, _ := strings.Cut(line, " ")
		if verb == "quit" || verb == "exit" {
			return nil
		}
		if err := replCommand(sheet, verb, strings.TrimLeft(rest, " "), out); err != nil {
			fmt.Fprintf(out, "ERROR: %v\n", err)
		}
	}
	return scanner.Err()
}

func replCommand(sheet *sheetcore.Sheet, verb, rest string, out io.Writer) error {
	switch verb {
	case "put":
		ref, literal, _ := strings.Cut(rest, " ")
		if ref == "" {
			return fmt.Errorf("usage: put <ref> <literal>")
		}
		return sheet.Put(ref, literal)
	case "get":
		val, err := sheet.Get(rest)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, val)
	case "literal":
		literal, err := sheet.GetLiteral(rest)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, literal)
	case "deps":
		precedents, err := sheet.Precedents(rest)
		if err != nil {
			return err
		}
		dependents, err := sheet.Dependents(rest)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "precedents: %s\n", strings.Join(precedents, " "))
		fmt.Fprintf(out, "dependents: %s\n", strings.Join(dependents, " "))
	default:
		return fmt.Errorf("unknown command %q", verb)
	}
	return nil
}
