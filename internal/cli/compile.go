package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	q "github.com/manojoshi/docquery/query"
)

func newCompileCommand(a *app) *cobra.Command {
	var (
		filter filterFlags
		scope  string
		asText bool
	)
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the statement and parameters for a filter document",
		Example: `  docquery compile -f '{"status":"active","age":{"$gte":18},"$limit":10}'
  docquery compile --file filter.yaml --scope users`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := filter.document(cmd.InOrStdin())
			if err != nil {
				return err
			}
			dirs, err := q.Interpret(doc)
			if err != nil {
				return err
			}
			stmt, err := q.Compile(dirs, q.WithScope(scope))
			if err != nil {
				return err
			}
			a.log.Debug("compiled", "statement", stmt.Text, "params", len(stmt.Params))

			if asText {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), stmt.Text)
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"statement": stmt.Text,
				"params":    stmt.Params,
			})
		},
	}
	filter.bind(cmd)
	cmd.Flags().StringVar(&scope, "scope", "", "bucket the statement reads FROM")
	cmd.Flags().BoolVar(&asText, "text", false, "print only the statement text")
	return cmd
}
