// Package driver holds the transports the repository runs on: a keyed
// document store and a query service that executes compiled statements.
// Every round trip is wrapped in an OpenTelemetry span.
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	kv := driver.NewRedisKV(rdb)
//	qs := driver.NewQueryService("http://localhost:8093", driver.WithBasicAuth("admin", "secret"))
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrKeyNotFound = errors.New("driver: key not found")
	ErrKeyExists   = errors.New("driver: key already exists")
)

// KeyValue is a keyed store of encoded documents.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Insert(ctx context.Context, key string, doc []byte) error
	Replace(ctx context.Context, key string, doc []byte) error
	Remove(ctx context.Context, key string) error
}

// Querier executes a statement with positional arguments ($1 → args[0]).
type Querier interface {
	Query(ctx context.Context, statement string, args []any, c Consistency) (*Result, error)
}

// Result is one query response.
type Result struct {
	Rows    []map[string]any
	Metrics Metrics
}

type Metrics struct {
	ResultCount   int
	ResultSize    int
	ElapsedTime   string
	ExecutionTime string
}

// ----------------------------------------------------------------------------
// Scan consistency
// ----------------------------------------------------------------------------

type Consistency string

const (
	NotBounded    Consistency = "not_bounded"
	RequestPlus   Consistency = "request_plus"
	StatementPlus Consistency = "statement_plus"
)

// ParseConsistency accepts NOT_BOUNDED / REQUEST_PLUS / STATEMENT_PLUS in
// any case, with '_' or '-' separators.
func ParseConsistency(s string) (Consistency, error) {
	c := Consistency(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch c {
	case NotBounded, RequestPlus, StatementPlus:
		return c, nil
	}
	return "", fmt.Errorf("driver: unknown scan consistency %q", s)
}
