package query

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDocumentJSONKeepsOrder(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"z": 1, "a": {"$gte": 2.5, "$lt": 10}, "tags": ["x", null], "ok": true}`))
	require.NoError(t, err)

	assert.Equal(t, D(
		"z", 1,
		"a", D("$gte", 2.5, "$lt", 10),
		"tags", []any{"x", nil},
		"ok", true,
	), doc)
}

func TestParseDocumentYAMLKeepsOrder(t *testing.T) {
	src := `
z: 1
a:
  $gte: 2.5
  $lt: 10
$or:
  - name: attic
  - volume: {$gt: 40}
`
	doc, err := ParseDocument([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, D(
		"z", 1,
		"a", D("$gte", 2.5, "$lt", 10),
		"$or", []any{D("name", "attic"), D("volume", D("$gt", 40))},
	), doc)
}

func TestParseDocumentEdges(t *testing.T) {
	doc, err := ParseDocument([]byte("   "))
	require.NoError(t, err)
	assert.Empty(t, doc)

	_, err = ParseDocument([]byte(`{"a": 1} {"b": 2}`))
	assert.Error(t, err)

	_, err = ParseDocument([]byte(`{"a": `))
	assert.Error(t, err)

	_, err = ParseDocument([]byte("- 1\n- 2\n"))
	assert.EqualError(t, err, "query: parse document: root must be an object")
}

func TestDocumentUnmarshal(t *testing.T) {
	var req struct {
		Filter Document `json:"filter" yaml:"filter"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"filter": {"b": 1, "a": 2}}`), &req))
	assert.Equal(t, D("b", 1, "a", 2), req.Filter)

	require.NoError(t, yaml.Unmarshal([]byte("filter:\n  b: 1\n  a: 2\n"), &req))
	assert.Equal(t, D("b", 1, "a", 2), req.Filter)
}

func TestObjectParamsEncodeAsObjects(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"a":{"$ne":{"b":1,"a":2}},"tags":[{"x":1}]}`))
	require.NoError(t, err)
	ds, err := Interpret(doc)
	require.NoError(t, err)
	stmt, err := Compile(ds)
	require.NoError(t, err)
	require.Equal(t, "SELECT * WHERE `a` != $1 AND `tags` = $2", stmt.Text)

	wire, err := json.Marshal(stmt.Params)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"b":1,"a":2},[{"x":1}]]`, string(wire))
	assert.Equal(t, `[{"b":1,"a":2},[{"x":1}]]`, string(wire), "keys keep document order")
}

func TestDocumentMarshalRoundTrip(t *testing.T) {
	in := D("z", 1, "a", D("y", []any{D("k", "v")}, "b", nil))

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":{"y":[{"k":"v"}],"b":null}}`, string(raw))

	out, err := ParseDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	empty, err := json.Marshal(Document{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))

	y, err := yaml.Marshal(D("z", 1, "a", D("b", "x")))
	require.NoError(t, err)
	assert.Equal(t, "z: 1\na:\n    b: x\n", string(y))
}
