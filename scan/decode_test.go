package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type room struct {
	ID      string            `docquery:"uuid"`
	Name    string            `docquery:"name"`
	Floor   int               `docquery:"floor"`
	Volume  float64           `docquery:"volume"`
	Shared  bool              `docquery:"shared"`
	Tags    []string          `docquery:"tags"`
	Extra   map[string]string `docquery:"extra"`
	Skipped string            `docquery:"-"`
	private string            `docquery:"private"`
}

func TestDecodeStruct(t *testing.T) {
	rows := []map[string]any{
		{
			"uuid":    "r1",
			"name":    "attic",
			"floor":   "2",
			"volume":  18,
			"shared":  "true",
			"tags":    []any{"cold", "dusty"},
			"extra":   map[string]any{"note": "low ceiling"},
			"Skipped": "x",
			"private": "y",
		},
		{"uuid": "r2", "name": nil, "floor": 1.0},
	}

	got, err := Decode[room](rows)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, room{
		ID:     "r1",
		Name:   "attic",
		Floor:  2,
		Volume: 18,
		Shared: true,
		Tags:   []string{"cold", "dusty"},
		Extra:  map[string]string{"note": "low ceiling"},
	}, got[0])
	assert.Equal(t, room{ID: "r2", Floor: 1}, got[1])
}

func TestDecodeMaps(t *testing.T) {
	rows := []map[string]any{{"a": 1}}
	got, err := Decode[map[string]any](rows)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode[room]([]map[string]any{{"floor": "second"}})
	assert.ErrorContains(t, err, "scan: row 0: field floor")

	_, err = Decode[int]([]map[string]any{{"a": 1}})
	assert.ErrorContains(t, err, "unsupported target int")
}

func TestStrip(t *testing.T) {
	rows := []map[string]any{
		{"name": "attic", "volume": 18, "_type": "room"},
		{"name": "study"},
	}
	got := Strip([]string{"name", "volume"}, rows)

	assert.Equal(t, []map[string]any{
		{"name": "attic", "volume": 18},
		{"name": "study"},
	}, got)
	assert.Contains(t, rows[0], "_type", "input rows are left alone")
}

func TestMarshalRoundTrip(t *testing.T) {
	raw, err := Marshal(map[string]any{"name": "attic", "floor": 2})
	require.NoError(t, err)

	doc, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, "attic", doc["name"])
	assert.EqualValues(t, 2, doc["floor"])

	_, err = Unmarshal([]byte("[1]"))
	assert.ErrorContains(t, err, "scan: decode document")
}
