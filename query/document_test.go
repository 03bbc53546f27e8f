package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestD(t *testing.T) {
	doc := D("a", 1, "b", "x")
	assert.Equal(t, Document{{Key: "a", Value: 1}, {Key: "b", Value: "x"}}, doc)

	assert.Panics(t, func() { D("a") })
	assert.Panics(t, func() { D(1, 2) })
}

func TestDocumentAccessors(t *testing.T) {
	doc := D("a", 1, "b", 2)

	v, ok := doc.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = doc.Get("missing")
	assert.False(t, ok)

	doc = doc.Set("a", 10).Set("c", 3)
	assert.Equal(t, D("a", 10, "b", 2, "c", 3), doc)

	trimmed := doc.Delete("b")
	assert.Equal(t, D("a", 10, "c", 3), trimmed)
	assert.Len(t, doc, 3, "Delete must not touch the receiver")

	clone := doc.Clone()
	clone[0].Value = 99
	assert.Equal(t, 10, doc[0].Value)
}

func TestClassify(t *testing.T) {
	var nilPtr *int
	tests := []struct {
		name string
		in   any
		want Kind
	}{
		{"nil", nil, KindNull},
		{"nil pointer", nilPtr, KindNull},
		{"string", "x", KindScalar},
		{"int", 3, KindScalar},
		{"float", 1.5, KindScalar},
		{"bool", true, KindScalar},
		{"bytes", []byte("raw"), KindScalar},
		{"uint8", uint8(1), KindScalar},
		{"any slice", []any{1}, KindArray},
		{"typed slice", []string{"a"}, KindArray},
		{"array", [2]int{1, 2}, KindArray},
		{"document", D("a", 1), KindObject},
		{"map", map[string]any{"a": 1}, KindObject},
		{"typed map", map[string]int{"a": 1}, KindObject},
		{"int keyed map", map[int]string{1: "a"}, KindScalar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestEntriesSortsMapKeys(t *testing.T) {
	got := entries(map[string]int{"z": 1, "a": 2, "m": 3})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "m", "z"}, []string{got[0].Key, got[1].Key, got[2].Key})
	assert.Equal(t, 2, got[0].Value)
}
