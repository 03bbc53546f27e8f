package query

import (
	"reflect"
	"sort"
)

// Field is one key/value entry of a Document.
type Field struct {
	Key   string
	Value any
}

// Document is an ordered filter document. Enumeration order is slice order,
// which is what the interpreter walks:
//
//	q.Document{
//	    {"status", "active"},
//	    {"age", q.Document{{"$gte", 18}}},
//	    {"$limit", 10},
//	}
type Document []Field

// D is shorthand for building a Document from alternating key/value pairs.
// It panics when a key is not a string or a value is missing.
func D(kv ...any) Document {
	if len(kv)%2 != 0 {
		panic("query.D: odd number of arguments")
	}
	doc := make(Document, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic("query.D: key is not a string")
		}
		doc = append(doc, Field{Key: k, Value: kv[i+1]})
	}
	return doc
}

// Get returns the value stored under key.
func (d Document) Get(key string) (any, bool) {
	for _, f := range d {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under key in place, or appends it.
func (d Document) Set(key string, v any) Document {
	for i := range d {
		if d[i].Key == key {
			d[i].Value = v
			return d
		}
	}
	return append(d, Field{Key: key, Value: v})
}

// Delete returns d without key. The receiver is not modified.
func (d Document) Delete(key string) Document {
	out := make(Document, 0, len(d))
	for _, f := range d {
		if f.Key != key {
			out = append(out, f)
		}
	}
	return out
}

// Clone copies the top level of d.
func (d Document) Clone() Document {
	return append(Document(nil), d...)
}

// Kind is the shape of a document value.
type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "scalar"
	}
}

// Classify decides once how a value participates in interpretation.
// Document and string-keyed maps are objects, slices and arrays (except
// []byte) are arrays, nil and nil pointers are null, everything else is a
// scalar.
func Classify(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case Document, map[string]any:
		return KindObject
	case []any:
		return KindArray
	case string, []byte, bool, int, int64, float64:
		return KindScalar
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return KindNull
		}
	case reflect.Slice, reflect.Array:
		return KindArray
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return KindObject
		}
	}
	return KindScalar
}

// entries lists the fields of an object value in enumeration order. Plain
// maps have no order of their own, so their keys are visited sorted.
func entries(v any) []Field {
	switch t := v.(type) {
	case Document:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Field, len(keys))
		for i, k := range keys {
			out[i] = Field{Key: k, Value: t[k]}
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	out := make([]Field, len(keys))
	for i, k := range keys {
		out[i] = Field{Key: k, Value: rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()}
	}
	return out
}

// elements lists the items of an array value.
func elements(v any) []any {
	if t, ok := v.([]any); ok {
		return t
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
