package query

import (
	"github.com/spf13/cast"
)

// Interpret normalizes a filter document into top-level directives.
//
// Keys are visited in enumeration order. Reserved keys ($limit, $skip,
// $select, $sort) become modifiers, any other "$name" becomes an Extension,
// and ordinary fields plus top-level $or groups are gathered into one
// trailing AND group. Numeric checks on $limit/$skip wait for Compile.
func Interpret(doc Document) ([]Directive, error) {
	var (
		out   []Directive
		where []Directive
	)

	for _, f := range doc {
		name := directiveName(f.Key)
		if name == "" {
			ds, err := fieldDirectives(f.Key, f.Value)
			if err != nil {
				return nil, err
			}
			where = append(where, ds...)
			continue
		}

		switch name {
		case "limit":
			out = append(out, &Modifier{Kind: ModLimit, Amount: f.Value})
		case "skip":
			out = append(out, &Modifier{Kind: ModSkip, Amount: f.Value})
		case "select":
			fields, err := selectFields(f.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, NewSelect(fields...))
		case "sort":
			m, err := sortModifier(f.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		case "or":
			l, err := orGroup(f.Value)
			if err != nil {
				return nil, err
			}
			where = append(where, l)
		default:
			if _, ok := nestedOp(name); ok || name == string(OpEq) {
				return nil, queryErr(msgRootComparison + ": " + f.Key)
			}
			out = append(out, &Extension{Name: name, Payload: f.Value})
		}
	}

	if len(where) > 0 {
		out = append(out, AllOf(where...))
	}
	return out, nil
}

// resolveNested flattens an object under field into dotted-path
// comparisons. Operator keys bind to field itself, $or becomes a sibling
// group, and unknown operator keys are dropped.
func resolveNested(field string, v any) ([]Directive, error) {
	var out []Directive
	for _, sub := range entries(v) {
		if name := directiveName(sub.Key); name != "" {
			if op, ok := nestedOp(name); ok {
				out = append(out, &Comparison{Op: op, Field: field, Value: sub.Value})
			} else if name == "or" {
				l, err := orGroup(sub.Value)
				if err != nil {
					return nil, err
				}
				out = append(out, l)
			}
			continue
		}

		path := field + "." + sub.Key
		if Classify(sub.Value) == KindObject {
			ds, err := resolveNested(path, sub.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, ds...)
			continue
		}
		out = append(out, &Comparison{Op: OpEq, Field: path, Value: sub.Value})
	}
	return out, nil
}

// orGroup builds OR(AND(...), AND(...)) with exactly one AND child per
// element of the list.
func orGroup(v any) (*Logical, error) {
	if Classify(v) != KindArray {
		return nil, queryErr(msgOrShape)
	}

	var children []Directive
	for _, item := range elements(v) {
		if Classify(item) != KindObject {
			return nil, queryErr(msgOrShape)
		}
		var group []Directive
		for _, f := range entries(item) {
			switch name := directiveName(f.Key); name {
			case "":
				ds, err := fieldDirectives(f.Key, f.Value)
				if err != nil {
					return nil, err
				}
				group = append(group, ds...)
			case "or":
				l, err := orGroup(f.Value)
				if err != nil {
					return nil, err
				}
				group = append(group, l)
			}
		}
		children = append(children, AllOf(group...))
	}
	return AnyOf(children...), nil
}

// fieldDirectives turns one ordinary field into comparisons. Objects
// descend through resolveNested; null, scalars and arrays compare for
// equality.
func fieldDirectives(field string, v any) ([]Directive, error) {
	if Classify(v) == KindObject {
		return resolveNested(field, v)
	}
	return []Directive{&Comparison{Op: OpEq, Field: field, Value: v}}, nil
}

// sortModifier reads {field: n}; n > 0 sorts ascending, anything else
// descending.
func sortModifier(v any) (*Modifier, error) {
	if Classify(v) != KindObject {
		return nil, queryErr(msgSortShape)
	}
	var spec SortSpec
	for _, f := range entries(v) {
		if directiveName(f.Key) != "" {
			continue
		}
		dir := Desc
		if n, err := cast.ToFloat64E(f.Value); err == nil && n > 0 {
			dir = Asc
		}
		spec = append(spec, SortField{Field: f.Key, Direction: dir})
	}
	return &Modifier{Kind: ModSort, Sort: spec}, nil
}

func selectFields(v any) ([]string, error) {
	switch Classify(v) {
	case KindNull:
		return nil, nil
	case KindScalar:
		if s, ok := v.(string); ok {
			return []string{s}, nil
		}
	case KindArray:
		items := elements(v)
		fields := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, queryErr(msgSelectShape)
			}
			fields = append(fields, s)
		}
		return fields, nil
	}
	return nil, queryErr(msgSelectShape)
}
