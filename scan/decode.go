// Package scan maps query rows and stored documents onto Go values.
//
// Struct targets are tagged with the result field name:
//
//	type Room struct {
//	    ID      string `docquery:"uuid"`
//	    Name    string `docquery:"name"`
//	    Volume  float64 `docquery:"volume"`
//	}
//	rooms, err := scan.Decode[Room](result.Rows)
package scan

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"

	"github.com/manojoshi/docquery/internal"
)

// Decode converts rows into []T. T is either map[string]any or a struct
// tagged with `docquery:"field"`.
func Decode[T any](rows []map[string]any) ([]T, error) {
	out := make([]T, len(rows))
	for i, row := range rows {
		if err := assign(&out[i], row); err != nil {
			return nil, fmt.Errorf("scan: row %d: %w", i, err)
		}
	}
	return out, nil
}

// Strip keeps only the selected keys of every row. Rows are copied.
func Strip(selected []string, rows []map[string]any) []map[string]any {
	return internal.Map(rows, func(row map[string]any) map[string]any {
		m := make(map[string]any, len(selected))
		for k, v := range row {
			if internal.Contains(selected, k) {
				m[k] = v
			}
		}
		return m
	})
}

// Unmarshal decodes a stored document.
func Unmarshal(raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("scan: decode document: %w", err)
	}
	return doc, nil
}

// Marshal encodes a document for storage.
func Marshal(doc map[string]any) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("scan: encode document: %w", err)
	}
	return b, nil
}

/*───────────────────────────────
|  Struct assignment w/ cache    |
└───────────────────────────────*/

var metaCache sync.Map // reflect.Type → []fieldMeta

type fieldMeta struct {
	name  string
	index []int
}

func assign[T any](ptr *T, row map[string]any) error {
	// fast-path: target is map[string]any
	if p, ok := any(ptr).(*map[string]any); ok {
		*p = row
		return nil
	}

	val := reflect.ValueOf(ptr).Elem()
	rt := val.Type()
	if rt.Kind() != reflect.Struct {
		return fmt.Errorf("unsupported target %s", rt)
	}

	metaAny, ok := metaCache.Load(rt)
	if !ok {
		metaAny, _ = metaCache.LoadOrStore(rt, buildMeta(rt))
	}
	for _, fm := range metaAny.([]fieldMeta) {
		v, ok := row[fm.name]
		if !ok || v == nil {
			continue
		}
		if err := set(val.FieldByIndex(fm.index), v); err != nil {
			return fmt.Errorf("field %s: %w", fm.name, err)
		}
	}
	return nil
}

func set(f reflect.Value, v any) error {
	var (
		out any
		err error
	)
	switch f.Kind() {
	case reflect.String:
		out, err = cast.ToStringE(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		if n, err = cast.ToInt64E(v); err == nil {
			f.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		if n, err = cast.ToUint64E(v); err == nil {
			f.SetUint(n)
			return nil
		}
	case reflect.Float32, reflect.Float64:
		var n float64
		if n, err = cast.ToFloat64E(v); err == nil {
			f.SetFloat(n)
			return nil
		}
	case reflect.Bool:
		out, err = cast.ToBoolE(v)
	default:
		out = v
	}
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(out)
	switch {
	case rv.Type().AssignableTo(f.Type()):
		f.Set(rv)
	case rv.Kind() != reflect.Map && rv.Kind() != reflect.Slice && rv.Type().ConvertibleTo(f.Type()):
		f.Set(rv.Convert(f.Type()))
	default:
		// nested objects and lists: let the JSON codec do the shape work
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, f.Addr().Interface()); err != nil {
			return fmt.Errorf("cannot assign %T to %s: %w", v, f.Type(), err)
		}
	}
	return nil
}

func buildMeta(rt reflect.Type) []fieldMeta {
	out := make([]fieldMeta, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get("docquery")
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		name := strings.Split(tag, ",")[0]
		out = append(out, fieldMeta{name, f.Index})
	}
	return out
}
