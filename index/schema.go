// Package index turns Go structs into secondary index DDL for the query
// service. `AutoCreate` renders the statement and runs it, treating an
// existing index as success.
//
//	type Room struct {
//	    ID     string  `docquery:"uuid"`
//	    Name   string  `docquery:"name,index"`
//	    Volume float64 `docquery:"volume,index"`
//	}
//
//	if err := index.AutoCreate(ctx, qs, "default", Room{},
//	    index.WithType("room"),
//	    index.WithPrimary(),
//	); err != nil {
//	    log.Fatal(err)
//	}
package index

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/manojoshi/docquery/driver"
	"github.com/manojoshi/docquery/internal"
	q "github.com/manojoshi/docquery/query"
)

// ------------------------------------------------------------------
// Options
// ------------------------------------------------------------------

type CreateOpt func(*createCfg)

type createCfg struct {
	name    string // index name, default <type>_idx
	docType string // _type the index is filtered on
	primary bool   // also CREATE PRIMARY INDEX
}

func WithName(name string) CreateOpt { return func(c *createCfg) { c.name = name } }
func WithType(t string) CreateOpt    { return func(c *createCfg) { c.docType = t } }
func WithPrimary() CreateOpt         { return func(c *createCfg) { c.primary = true } }

// ------------------------------------------------------------------
// Public API
// ------------------------------------------------------------------

// AutoCreate builds the index for model on bucket and runs it through
// querier. "already exists" answers are ignored, so it is safe to call on
// every start-up.
func AutoCreate(
	ctx context.Context,
	querier driver.Querier,
	bucket string,
	model any,
	opts ...CreateOpt,
) error {
	stmt, err := BuildIndexStatement(bucket, model, opts...)
	if err != nil {
		return err
	}
	return Exec(ctx, querier, bucket, stmt, config(model, opts).primary)
}

// Exec runs a rendered CREATE INDEX statement, preceded by CREATE PRIMARY
// INDEX when primary is set.
func Exec(ctx context.Context, querier driver.Querier, bucket, stmt string, primary bool) error {
	if primary {
		if err := run(ctx, querier, PrimaryStatement(bucket)); err != nil {
			return fmt.Errorf("index: primary index failed: %w", err)
		}
	}
	if err := run(ctx, querier, stmt); err != nil {
		return fmt.Errorf("index: create failed: %w", err)
	}
	return nil
}

func PrimaryStatement(bucket string) string {
	return "CREATE PRIMARY INDEX ON " + q.Ident(bucket)
}

// BuildIndexStatement renders
//
//	CREATE INDEX `room_idx` ON `default`(`name`,`volume`) WHERE `_type` = "room"
//
// from the fields tagged `docquery:"field,index"`.
func BuildIndexStatement(bucket string, model any, opts ...CreateOpt) (string, error) {
	fields := IndexedFields(model)
	if len(fields) == 0 {
		return "", fmt.Errorf("index: %T has no fields tagged for indexing", model)
	}
	return buildStatement(bucket, fields, config(model, opts))
}

// FieldsStatement is BuildIndexStatement for an explicit field list. The
// document type comes from WithType.
func FieldsStatement(bucket string, fields []string, opts ...CreateOpt) (string, error) {
	if len(fields) == 0 {
		return "", errors.New("index: at least one field is required")
	}
	return buildStatement(bucket, internal.Unique(fields), config(nil, opts))
}

func buildStatement(bucket string, fields []string, cfg *createCfg) (string, error) {
	if bucket == "" {
		return "", errors.New("index: bucket is required")
	}
	if cfg.name == "" {
		return "", errors.New("index: index name is required")
	}

	return internal.Render(func(sb *strings.Builder) error {
		sb.WriteString("CREATE INDEX ")
		sb.WriteString(q.Ident(cfg.name))
		sb.WriteString(" ON ")
		sb.WriteString(q.Ident(bucket))
		sb.WriteByte('(')
		sb.WriteString(strings.Join(internal.Map(fields, q.Ident), ","))
		sb.WriteByte(')')
		if cfg.docType != "" {
			sb.WriteString(" WHERE ")
			sb.WriteString(q.Ident("_type"))
			sb.WriteString(" = ")
			sb.WriteString(strconv.Quote(cfg.docType))
		}
		return nil
	})
}

// IndexedFields lists the tagged field names carrying the "index" flag,
// in declaration order, without duplicates.
func IndexedFields(model any) []string {
	rt := reflect.TypeOf(model)
	if rt == nil {
		return nil
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil
	}

	var out []string
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("docquery")
		if tag == "" || tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		for _, a := range parts[1:] {
			if strings.EqualFold(strings.TrimSpace(a), "index") {
				out = append(out, parts[0])
			}
		}
	}
	return internal.Unique(out)
}

func config(model any, opts []CreateOpt) *createCfg {
	cfg := &createCfg{docType: inferType(model)}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.name == "" && cfg.docType != "" {
		cfg.name = cfg.docType + "_idx"
	}
	return cfg
}

func run(ctx context.Context, querier driver.Querier, stmt string) error {
	_, err := querier.Query(ctx, stmt, nil, "")
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return nil
	}
	return err
}

// inferType defaults to the struct type name snake_cased.
func inferType(model any) string {
	t := reflect.TypeOf(model)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return snake(t.Name())
}

// snake converts CamelCase to snake_case.
func snake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}
