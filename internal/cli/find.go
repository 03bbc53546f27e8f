package cli

import (
	"github.com/spf13/cobra"

	"github.com/manojoshi/docquery/repository"
)

func newFindCommand(a *app) *cobra.Command {
	var (
		filter filterFlags
		name   string
	)
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Run a filter document against the configured bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := filter.document(cmd.InOrStdin())
			if err != nil {
				return err
			}
			svc, rdb, err := a.service(name)
			if err != nil {
				return err
			}
			defer rdb.Close()

			var opts []repository.Opt
			c, err := a.cfg.ScanConsistency()
			if err != nil {
				return err
			}
			if c != "" {
				opts = append(opts, repository.WithConsistency(c))
			}

			page, err := svc.Find(cmd.Context(), doc, opts...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	filter.bind(cmd)
	cmd.Flags().StringVar(&name, "name", "", "document type (default from config)")
	return cmd
}

func newGetCommand(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch one document by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, rdb, err := a.service(name)
			if err != nil {
				return err
			}
			defer rdb.Close()

			doc, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "document type (default from config)")
	return cmd
}
