// Package query compiles Mongo-style filter documents into parameterized
// N1QL-like statements.
//
//	import q "github.com/manojoshi/docquery/query"
//
//	dirs, err := q.Interpret(q.D(
//	    "status", "active",
//	    "age", q.D("$gte", 18),
//	    "$sort", q.D("age", -1),
//	    "$limit", 20,
//	))
//	stmt, err := q.Compile(dirs, q.WithScope("users"))
//	// SELECT `users`.* FROM `users` WHERE `status` = $1 AND `age` >= $2 ORDER BY `age` DESC LIMIT 20
package query

import (
	"regexp"
	"strings"
)

// -------------------------------------------------------------------
// Directive: the closed node variant. Only the four node types in this
// file satisfy it; renderers switch over all of them explicitly.
// -------------------------------------------------------------------

type Directive interface {
	isDirective()
}

func (*Comparison) isDirective() {}
func (*Logical) isDirective()    {}
func (*Modifier) isDirective()   {}
func (*Extension) isDirective()  {}

// directivePattern matches reserved keys like "$limit".
var directivePattern = regexp.MustCompile(`^\$([a-zA-Z]+)$`)

// directiveName returns the bare name of a directive key, or "".
func directiveName(key string) string {
	m := directivePattern.FindStringSubmatch(key)
	if m == nil {
		return ""
	}
	return m[1]
}

// ------------
// Comparison
// ------------

type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpIn  Op = "in"
	OpNin Op = "nin"
)

var opTokens = map[Op]string{
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
	OpNe:  "!=",
	OpEq:  "=",
	OpIn:  "IN",
	OpNin: "NOT IN",
}

// Token is the operator as written in statement text.
func (o Op) Token() string { return opTokens[o] }

// ParseOp accepts "gt" as well as "$gt".
func ParseOp(s string) (Op, error) {
	op := Op(strings.TrimPrefix(s, "$"))
	if _, ok := opTokens[op]; !ok {
		return "", queryErr(msgUnknownOperator + ": " + s)
	}
	return op, nil
}

// nestedOps are the operators accepted as keys under an ordinary field.
func nestedOp(name string) (Op, bool) {
	switch op := Op(name); op {
	case OpLt, OpLte, OpGt, OpGte, OpNe, OpIn, OpNin:
		return op, true
	}
	return "", false
}

// Comparison binds one field path to one operator and value.
type Comparison struct {
	Op    Op
	Field string
	Value any
}

// NewComparison validates op and field up front.
func NewComparison(field string, op Op, v any) (*Comparison, error) {
	if field == "" {
		return nil, queryErr(msgFieldRequired)
	}
	if _, ok := opTokens[op]; !ok {
		return nil, queryErr(msgUnknownOperator + ": " + string(op))
	}
	return &Comparison{Op: op, Field: field, Value: v}, nil
}

// ------------
// Logical
// ------------

type LogicalOp string

const (
	And LogicalOp = "AND"
	Or  LogicalOp = "OR"
)

// Logical groups children. AND children are conjoined; each OR child is
// itself an implicitly conjoined group.
type Logical struct {
	Op       LogicalOp
	Children []Directive
}

func AllOf(xs ...Directive) *Logical { return &Logical{Op: And, Children: xs} }
func AnyOf(xs ...Directive) *Logical { return &Logical{Op: Or, Children: xs} }

// ------------
// Modifier
// ------------

type ModifierKind string

const (
	ModLimit  ModifierKind = "LIMIT"
	ModSkip   ModifierKind = "SKIP"
	ModSelect ModifierKind = "SELECT"
	ModSort   ModifierKind = "SORT"
)

// Modifier is a non-predicate clause. Which payload field is meaningful
// depends on Kind: Amount for LIMIT/SKIP (validated at compile time),
// Fields for SELECT, Sort for SORT.
type Modifier struct {
	Kind   ModifierKind
	Amount any
	Fields []string
	Sort   SortSpec
}

// NewLimit rejects a missing amount; numeric checks happen at compile time.
func NewLimit(amount any) (*Modifier, error) {
	if Classify(amount) == KindNull {
		return nil, queryErr(msgAmountRequired)
	}
	return &Modifier{Kind: ModLimit, Amount: amount}, nil
}

// NewSkip rejects a missing amount; numeric checks happen at compile time.
func NewSkip(amount any) (*Modifier, error) {
	if Classify(amount) == KindNull {
		return nil, queryErr(msgAmountRequired)
	}
	return &Modifier{Kind: ModSkip, Amount: amount}, nil
}

func NewSelect(fields ...string) *Modifier {
	return &Modifier{Kind: ModSelect, Fields: append([]string{}, fields...)}
}

// NewSort orders every field in the same direction. order is matched
// case-insensitively against ASC/DESC.
func NewSort(order string, fields ...string) (*Modifier, error) {
	if len(fields) == 0 {
		return nil, queryErr(msgSortFields)
	}
	dir, err := ParseDirection(order)
	if err != nil {
		return nil, err
	}
	spec := make(SortSpec, len(fields))
	for i, f := range fields {
		spec[i] = SortField{Field: f, Direction: dir}
	}
	return &Modifier{Kind: ModSort, Sort: spec}, nil
}

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection normalizes "asc"/"desc" in any case; "" means ASC.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(s)); d {
	case "":
		return Asc, nil
	case Asc, Desc:
		return d, nil
	}
	return "", queryErr(msgSortOrder)
}

// SortField is one ORDER BY entry.
type SortField struct {
	Field     string
	Direction Direction
}

// SortSpec keeps fields in first-appearance order.
type SortSpec []SortField

// ------------
// Extension
// ------------

// Extension carries an unrecognized "$name" directive through untouched.
// It never reaches statement text.
type Extension struct {
	Name    string
	Payload any
}

// Extensions picks the passthrough directives out of a directive list.
func Extensions(ds []Directive) []*Extension {
	var out []*Extension
	for _, d := range ds {
		if e, ok := d.(*Extension); ok {
			out = append(out, e)
		}
	}
	return out
}

// ExtensionValue returns the payload of the last extension called name.
func ExtensionValue(ds []Directive, name string) (any, bool) {
	var (
		v  any
		ok bool
	)
	for _, e := range Extensions(ds) {
		if e.Name == name {
			v, ok = e.Payload, true
		}
	}
	return v, ok
}
