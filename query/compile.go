package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/manojoshi/docquery/internal"
)

// Statement is compiled text plus the literals for its placeholders.
type Statement struct {
	Text   string
	Params []any
}

func (s Statement) String() string { return s.Text }

// ------------------------------------------------------------------
// Options
// ------------------------------------------------------------------

type CompileOpt func(*compileCfg)

type compileCfg struct {
	scope      string // bucket / table qualifying projections
	projection string // used when no SELECT modifier is present
}

func WithScope(scope string) CompileOpt { return func(c *compileCfg) { c.scope = scope } }
func WithDefaultProjection(p string) CompileOpt {
	return func(c *compileCfg) { c.projection = p }
}

// Compile renders directives into a Statement. Clause order is fixed:
// SELECT, FROM, WHERE, ORDER BY, LIMIT, OFFSET. Top-level predicates are
// conjoined; Extensions are skipped. Compile has no side effects, so the
// same directives always produce the same Statement.
func Compile(ds []Directive, opts ...CompileOpt) (Statement, error) {
	cfg := compileCfg{projection: "*"}
	for _, o := range opts {
		o(&cfg)
	}

	var (
		selected    []string
		preds       []Directive
		order       SortSpec
		limit, skip *int64
	)
	for _, d := range ds {
		switch n := d.(type) {
		case *Comparison, *Logical:
			preds = append(preds, d)
		case *Modifier:
			switch n.Kind {
			case ModSelect:
				selected = n.Fields
			case ModLimit:
				v, err := amount(n.Amount, msgLimitNumeric)
				if err != nil {
					return Statement{}, err
				}
				limit = &v
			case ModSkip:
				v, err := amount(n.Amount, msgSkipNumeric)
				if err != nil {
					return Statement{}, err
				}
				skip = &v
			case ModSort:
				if len(n.Sort) == 0 {
					return Statement{}, queryErr(msgSortFields)
				}
				order = append(order, n.Sort...)
			default:
				return Statement{}, queryErr("unsupported modifier " + string(n.Kind))
			}
		case *Extension:
			// consumed by the caller, never rendered
		default:
			return Statement{}, queryErr(fmt.Sprintf("unsupported directive %T", d))
		}
	}

	sb := internal.GetBuilder()
	defer internal.PutBuilder(sb)
	b := &Binder{}

	writeSelect(sb, selected, cfg)

	if cfg.scope != "" {
		sb.WriteString(" FROM ")
		sb.WriteString(quote(cfg.scope))
	}

	if len(preds) > 0 {
		sb.WriteString(" WHERE ")
		if err := writeAnd(sb, b, preds); err != nil {
			return Statement{}, err
		}
	}

	if len(order) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, f := range order {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(quote(f.Field))
			sb.WriteByte(' ')
			sb.WriteString(string(f.Direction))
		}
	}

	if limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatInt(*limit, 10))
	}
	if skip != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.FormatInt(*skip, 10))
	}

	return Statement{Text: sb.String(), Params: b.Params()}, nil
}

// -------------------------------------------------------------------
// node writers: predicates render themselves; the type switch in
// writePredicate is the one place that decides what may appear in WHERE.
// -------------------------------------------------------------------

func writePredicate(sb *strings.Builder, b *Binder, d Directive) error {
	switch n := d.(type) {
	case *Comparison:
		return n.render(sb, b)
	case *Logical:
		return n.render(sb, b)
	case *Modifier:
		return queryErr("modifier " + string(n.Kind) + " cannot appear in a predicate")
	case *Extension:
		return queryErr("extension $" + n.Name + " cannot appear in a predicate")
	default:
		return queryErr(fmt.Sprintf("unsupported directive %T", d))
	}
}

func (n *Comparison) render(sb *strings.Builder, b *Binder) error {
	if n.Field == "" {
		return queryErr(msgRootComparison)
	}
	tok := n.Op.Token()
	if tok == "" {
		return queryErr(msgUnknownOperator + ": " + string(n.Op))
	}
	sb.WriteString(quote(n.Field))
	sb.WriteByte(' ')
	sb.WriteString(tok)
	sb.WriteByte(' ')
	if Classify(n.Value) == KindNull {
		sb.WriteString("NULL")
		return nil
	}
	sb.WriteString(b.Bind(n.Value))
	return nil
}

func (n *Logical) render(sb *strings.Builder, b *Binder) error {
	switch n.Op {
	case And:
		return writeAnd(sb, b, n.Children)
	case Or:
		return writeOr(sb, b, n.Children)
	}
	return queryErr("unsupported logical operator " + string(n.Op))
}

// writeAnd joins children with AND, parenthesizing OR children. A group of
// one is transparent and an empty group is TRUE.
func writeAnd(sb *strings.Builder, b *Binder, xs []Directive) error {
	switch len(xs) {
	case 0:
		sb.WriteString("TRUE")
		return nil
	case 1:
		return writePredicate(sb, b, xs[0])
	}
	for i, x := range xs {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		if l, ok := x.(*Logical); ok && l.Op == Or {
			if err := group(sb, b, x); err != nil {
				return err
			}
			continue
		}
		if err := writePredicate(sb, b, x); err != nil {
			return err
		}
	}
	return nil
}

// writeOr joins children with OR, parenthesizing every composite child.
// An empty group is FALSE.
func writeOr(sb *strings.Builder, b *Binder, xs []Directive) error {
	if len(xs) == 0 {
		sb.WriteString("FALSE")
		return nil
	}
	for i, x := range xs {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		if _, ok := x.(*Logical); ok {
			if err := group(sb, b, x); err != nil {
				return err
			}
			continue
		}
		if err := writePredicate(sb, b, x); err != nil {
			return err
		}
	}
	return nil
}

// group helper for (a AND b) / (a OR b)
func group(sb *strings.Builder, b *Binder, x Directive) error {
	sb.WriteByte('(')
	if err := writePredicate(sb, b, x); err != nil {
		return err
	}
	sb.WriteByte(')')
	return nil
}

func writeSelect(sb *strings.Builder, fields []string, cfg compileCfg) {
	if len(fields) == 0 {
		fields = []string{cfg.projection}
	}
	sb.WriteString("SELECT ")
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		if cfg.scope != "" {
			sb.WriteString(quote(cfg.scope))
			sb.WriteByte('.')
		}
		sb.WriteString(f)
	}
}

// -------------------------------------------------------------------
// Small utilities
// -------------------------------------------------------------------

// Ident quotes an identifier the way compiled statements do.
func Ident(name string) string { return quote(name) }

// quote wraps an identifier in backticks. A dotted path stays one token.
func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// amount coerces a LIMIT/SKIP payload: numbers and numeric strings pass,
// fractions truncate toward zero, and the result is clamped to
// [0, MaxInt64].
func amount(v any, msg string) (int64, error) {
	switch v.(type) {
	case nil, bool:
		return 0, queryErr(msg)
	}
	if Classify(v) != KindScalar {
		return 0, queryErr(msg)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, queryErr(msg)
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return 0, queryErr(msg)
	}
	switch {
	case f <= 0:
		return 0, nil
	case f >= math.MaxInt64:
		return math.MaxInt64, nil
	}
	return int64(f), nil
}
