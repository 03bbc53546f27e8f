package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manojoshi/docquery/index"
)

func newIndexCommand(a *app) *cobra.Command {
	var (
		docType string
		name    string
		primary bool
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "index <field>...",
		Short: "Create a secondary index over fields of one document type",
		Example: `  docquery index --type room name volume
  docquery index --type room --primary --dry-run volume`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if docType == "" {
				docType = a.cfg.Name
			}
			opts := []index.CreateOpt{index.WithType(docType)}
			if name != "" {
				opts = append(opts, index.WithName(name))
			}
			stmt, err := index.FieldsStatement(a.cfg.Bucket, args, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				if primary {
					fmt.Fprintln(out, index.PrimaryStatement(a.cfg.Bucket))
				}
				_, err := fmt.Fprintln(out, stmt)
				return err
			}
			if err := index.Exec(cmd.Context(), a.querier(), a.cfg.Bucket, stmt, primary); err != nil {
				return err
			}
			a.log.Info("index ready", "statement", stmt)
			return nil
		},
	}
	cmd.Flags().StringVar(&docType, "type", "", "document _type the index covers (default from config)")
	cmd.Flags().StringVar(&name, "name", "", "index name (default <type>_idx)")
	cmd.Flags().BoolVar(&primary, "primary", false, "also create the primary index")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the statements instead of running them")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "docquery %s\n", Version)
			return err
		},
	}
}
