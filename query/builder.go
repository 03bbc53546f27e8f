package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/manojoshi/docquery/driver"
	"github.com/manojoshi/docquery/scan"
)

// -------------------------------------------------------------------
// Builder: imperative surface over the same directives Interpret
// produces. Each call appends one directive; the first construction
// error sticks and is visible through Err right away.
// -------------------------------------------------------------------

type Builder struct {
	scope       string
	dirs        []Directive
	err         error
	querier     driver.Querier
	consistency driver.Consistency
}

// NewBuilder starts a builder; scope may be empty. Querier must be
// provided before Run.
func NewBuilder(scope string) *Builder {
	return &Builder{scope: scope}
}

func (b *Builder) Select(fs ...string) *Builder { return b.Add(NewSelect(fs...)) }

// From sets the scope late, overriding the one given to NewBuilder.
func (b *Builder) From(scope string) *Builder { b.scope = scope; return b }

func (b *Builder) Limit(n any) *Builder { return b.add(NewLimit(n)) }
func (b *Builder) Skip(n any) *Builder  { return b.add(NewSkip(n)) }

// Sort orders fields in one direction; order is "ASC" or "DESC" in any
// case, "" meaning ASC.
func (b *Builder) Sort(fields []string, order string) *Builder {
	return b.add(NewSort(order, fields...))
}

func (b *Builder) Where(field string, op Op, v any) *Builder {
	return b.add(NewComparison(field, op, v))
}

// Or appends one OR group whose members are the given sub-documents, each
// interpreted as an implicit AND.
func (b *Builder) Or(groups ...Document) *Builder {
	items := make([]any, len(groups))
	for i, g := range groups {
		items[i] = g
	}
	return b.add(orGroup(items))
}

// Interpret appends everything doc describes.
func (b *Builder) Interpret(doc Document) *Builder {
	ds, err := Interpret(doc)
	if err != nil {
		return b.fail(err)
	}
	return b.Add(ds...)
}

// Add appends already-built directives.
func (b *Builder) Add(ds ...Directive) *Builder {
	if b.err == nil {
		b.dirs = append(b.dirs, ds...)
	}
	return b
}

func (b *Builder) Using(q driver.Querier) *Builder { b.querier = q; return b }

// Consistency overrides any $consistency extension for Run.
func (b *Builder) Consistency(c driver.Consistency) *Builder { b.consistency = c; return b }

// Err reports the first construction error, if any.
func (b *Builder) Err() error { return b.err }

// Directives returns a copy of what has been appended so far.
func (b *Builder) Directives() []Directive { return append([]Directive(nil), b.dirs...) }

func (b *Builder) Extensions() []*Extension { return Extensions(b.dirs) }

// Build compiles the directives. It may be called repeatedly.
func (b *Builder) Build(opts ...CompileOpt) (Statement, error) {
	if b.err != nil {
		return Statement{}, b.err
	}
	opts = append([]CompileOpt{WithScope(b.scope)}, opts...)
	return Compile(b.dirs, opts...)
}

// Run compiles and executes the statement, returning raw rows.
func (b *Builder) Run(ctx context.Context) (*driver.Result, error) {
	if b.querier == nil {
		return nil, errors.New("query: querier not set (call Using())")
	}
	stmt, err := b.Build()
	if err != nil {
		return nil, err
	}
	c, err := b.scanConsistency()
	if err != nil {
		return nil, err
	}
	return b.querier.Query(ctx, stmt.Text, stmt.Params, c)
}

// Fetch runs b and decodes the rows into []T.
func Fetch[T any](ctx context.Context, b *Builder) ([]T, error) {
	res, err := b.Run(ctx)
	if err != nil {
		return nil, err
	}
	return scan.Decode[T](res.Rows)
}

// scanConsistency prefers the explicit setting, then $consistency.
func (b *Builder) scanConsistency() (driver.Consistency, error) {
	if b.consistency != "" {
		return b.consistency, nil
	}
	v, ok := ExtensionValue(b.dirs, "consistency")
	if !ok || v == nil {
		return "", nil
	}
	c, err := driver.ParseConsistency(fmt.Sprint(v))
	if err != nil {
		return "", queryErr(fmt.Sprintf("Unknown consistency %v", v))
	}
	return c, nil
}

func (b *Builder) add(d Directive, err error) *Builder {
	if err != nil {
		return b.fail(err)
	}
	return b.Add(d)
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Selected returns the fields of the last $select, nil when projecting
// everything.
func (b *Builder) Selected() []string {
	var fields []string
	for _, d := range b.dirs {
		if m, ok := d.(*Modifier); ok && m.Kind == ModSelect {
			fields = m.Fields
		}
	}
	return fields
}

// Window reports the effective LIMIT and OFFSET after coercion. hasLimit is
// false when no $limit was given; skip defaults to 0.
func (b *Builder) Window() (limit, skip int64, hasLimit bool, err error) {
	if b.err != nil {
		return 0, 0, false, b.err
	}
	for _, d := range b.dirs {
		m, ok := d.(*Modifier)
		if !ok {
			continue
		}
		switch m.Kind {
		case ModLimit:
			if limit, err = amount(m.Amount, msgLimitNumeric); err != nil {
				return 0, 0, false, err
			}
			hasLimit = true
		case ModSkip:
			if skip, err = amount(m.Amount, msgSkipNumeric); err != nil {
				return 0, 0, false, err
			}
		}
	}
	return limit, skip, hasLimit, nil
}
