package repository

import (
	"github.com/manojoshi/docquery/driver"
	q "github.com/manojoshi/docquery/query"
)

// Opt tweaks one Find call. Most options append a directive to the
// builder; a few adjust the call itself.
type Opt interface {
	apply(*findCfg)
}

type findCfg struct {
	b        *q.Builder
	paginate Paginate
}

// optFunc is a concrete Opt implementation. Either hook may be nil.
type optFunc struct {
	build func(*q.Builder)
	find  func(*findCfg)
}

func (o optFunc) apply(c *findCfg) {
	if o.build != nil {
		o.build(c.b)
	}
	if o.find != nil {
		o.find(c)
	}
}

// Select limits the returned fields; rows are stripped to exactly these keys.
func Select(fields ...string) Opt {
	return optFunc{build: func(b *q.Builder) { b.Select(fields...) }}
}

// Limit overrides any $limit in the filter. It is still clamped to the
// paginate maximum.
func Limit(n int) Opt {
	return optFunc{build: func(b *q.Builder) { b.Limit(n) }}
}

func Skip(n int) Opt {
	return optFunc{build: func(b *q.Builder) { b.Skip(n) }}
}

// SortAsc / SortDesc append one ORDER BY term.
func SortAsc(field string) Opt  { return sortOpt(field, q.Asc) }
func SortDesc(field string) Opt { return sortOpt(field, q.Desc) }

func sortOpt(f string, dir q.Direction) Opt {
	return optFunc{build: func(b *q.Builder) { b.Sort([]string{f}, string(dir)) }}
}

// Where adds one comparison next to the filter.
func Where(field string, op q.Op, v any) Opt {
	return optFunc{build: func(b *q.Builder) { b.Where(field, op, v) }}
}

func WithConsistency(c driver.Consistency) Opt {
	return optFunc{build: func(b *q.Builder) { b.Consistency(c) }}
}

// WithPaginate replaces the service's pagination for one call. A zero
// Paginate turns paging off.
func WithPaginate(p Paginate) Opt {
	return optFunc{find: func(c *findCfg) { c.paginate = p }}
}
