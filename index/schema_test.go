package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojoshi/docquery/driver"
)

type MeetingRoom struct {
	ID       string  `docquery:"uuid"`
	Name     string  `docquery:"name,index"`
	Floor    int     `docquery:"floor, index"`
	Volume   float64 `docquery:"volume,INDEX"`
	Dup      string  `docquery:"name,index"`
	Internal string
}

type recorder struct {
	statements []string
	fail       map[string]error
}

func (r *recorder) Query(_ context.Context, statement string, args []any, _ driver.Consistency) (*driver.Result, error) {
	r.statements = append(r.statements, statement)
	if err, ok := r.fail[statement]; ok {
		return nil, err
	}
	return &driver.Result{}, nil
}

func TestIndexedFields(t *testing.T) {
	assert.Equal(t, []string{"name", "floor", "volume"}, IndexedFields(MeetingRoom{}))
	assert.Equal(t, []string{"name", "floor", "volume"}, IndexedFields(&MeetingRoom{}))
	assert.Nil(t, IndexedFields(nil))
	assert.Nil(t, IndexedFields(42))
}

func TestBuildIndexStatement(t *testing.T) {
	stmt, err := BuildIndexStatement("default", MeetingRoom{})
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE INDEX `meeting_room_idx` ON `default`(`name`,`floor`,`volume`) WHERE `_type` = \"meeting_room\"",
		stmt)

	stmt, err = BuildIndexStatement("default", MeetingRoom{}, WithType("room"), WithName("by_size"))
	require.NoError(t, err)
	assert.Equal(t, "CREATE INDEX `by_size` ON `default`(`name`,`floor`,`volume`) WHERE `_type` = \"room\"", stmt)

	_, err = BuildIndexStatement("", MeetingRoom{})
	assert.EqualError(t, err, "index: bucket is required")

	_, err = BuildIndexStatement("default", struct{ A string }{})
	assert.ErrorContains(t, err, "no fields tagged for indexing")
}

func TestFieldsStatement(t *testing.T) {
	stmt, err := FieldsStatement("default", []string{"a", "b", "a"}, WithType("room"))
	require.NoError(t, err)
	assert.Equal(t, "CREATE INDEX `room_idx` ON `default`(`a`,`b`) WHERE `_type` = \"room\"", stmt)

	stmt, err = FieldsStatement("default", []string{"a"}, WithName("all_a"))
	require.NoError(t, err)
	assert.Equal(t, "CREATE INDEX `all_a` ON `default`(`a`)", stmt)

	_, err = FieldsStatement("default", []string{"a"})
	assert.EqualError(t, err, "index: index name is required")

	_, err = FieldsStatement("default", nil, WithType("room"))
	assert.Error(t, err)
}

func TestAutoCreate(t *testing.T) {
	rec := &recorder{fail: map[string]error{
		"CREATE PRIMARY INDEX ON `default`": errors.New("driver: query service errors: [4300] The index #primary already exists."),
	}}
	err := AutoCreate(context.Background(), rec, "default", MeetingRoom{}, WithType("room"), WithPrimary())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE PRIMARY INDEX ON `default`",
		"CREATE INDEX `room_idx` ON `default`(`name`,`floor`,`volume`) WHERE `_type` = \"room\"",
	}, rec.statements)
}

func TestAutoCreateFailure(t *testing.T) {
	stmt := "CREATE INDEX `room_idx` ON `default`(`name`,`floor`,`volume`) WHERE `_type` = \"room\""
	rec := &recorder{fail: map[string]error{stmt: errors.New("boom")}}

	err := AutoCreate(context.Background(), rec, "default", MeetingRoom{}, WithType("room"))
	assert.EqualError(t, err, "index: create failed: boom")
	assert.Equal(t, []string{stmt}, rec.statements, "no primary index unless asked")
}
