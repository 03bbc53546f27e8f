// Package cli wires the docquery commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/manojoshi/docquery/config"
	"github.com/manojoshi/docquery/driver"
	q "github.com/manojoshi/docquery/query"
	"github.com/manojoshi/docquery/repository"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

type app struct {
	cfgPath  string
	logLevel string
	cfg      *config.Config
	log      *slog.Logger
}

// NewRootCommand builds the command tree. Tests drive it with SetArgs.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "docquery",
		Short:         "Compile and run filter documents against a document store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			a.cfg = cfg
			a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default .docquery.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newCompileCommand(a),
		newFindCommand(a),
		newGetCommand(a),
		newIndexCommand(a),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI and prints any error in red.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// ----------------------------------------------------------------------------
// shared helpers
// ----------------------------------------------------------------------------

// filterFlags is the --filter / --file pair shared by compile and find.
type filterFlags struct {
	inline string
	file   string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.inline, "filter", "f", "", "filter document as JSON or YAML")
	cmd.Flags().StringVar(&f.file, "file", "", "read the filter document from a file ('-' for stdin)")
}

func (f *filterFlags) document(stdin io.Reader) (q.Document, error) {
	var data []byte
	switch {
	case f.inline != "" && f.file != "":
		return nil, fmt.Errorf("--filter and --file are mutually exclusive")
	case f.inline != "":
		data = []byte(f.inline)
	case f.file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		data = b
	case f.file != "":
		b, err := afero.ReadFile(config.AppFs, f.file)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return q.ParseDocument(data)
}

func (a *app) querier() *driver.QueryService {
	return driver.NewQueryService(a.cfg.QueryEndpoint,
		driver.WithBasicAuth(a.cfg.Username, a.cfg.Password),
		driver.WithQueryTimeout(a.cfg.QueryTimeout),
	)
}

func (a *app) service(name string) (*repository.Service, *redis.Client, error) {
	if name == "" {
		name = a.cfg.Name
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	svc, err := repository.New(repository.Config{
		Bucket:    a.cfg.Bucket,
		Name:      name,
		IDField:   a.cfg.IDField,
		Separator: a.cfg.Separator,
		KV:        driver.NewRedisKV(rdb),
		Querier:   a.querier(),
		Paginate: repository.Paginate{
			Default: a.cfg.PaginateDefault,
			Max:     a.cfg.PaginateMax,
		},
		Logger: a.log,
	})
	if err != nil {
		rdb.Close()
		return nil, nil, err
	}
	return svc, rdb, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
