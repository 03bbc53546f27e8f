package cli

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojoshi/docquery/config"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	prev := config.AppFs
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "filter.yaml", []byte("age:\n  $gte: 18\n$sort:\n  age: -1\n"), 0o644))
	config.AppFs = fs
	t.Cleanup(func() { config.AppFs = prev })

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	return out.String(), err
}

func TestCompileCommand(t *testing.T) {
	out, err := run(t, "", "compile", "-f", `{"status":"active","age":{"$gte":18},"$limit":"10"}`, "--scope", "users")
	require.NoError(t, err)

	var got struct {
		Statement string `json:"statement"`
		Params    []any  `json:"params"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "SELECT `users`.* FROM `users` WHERE `status` = $1 AND `age` >= $2 LIMIT 10", got.Statement)
	assert.Equal(t, []any{"active", float64(18)}, got.Params)
}

func TestCompileCommandSources(t *testing.T) {
	out, err := run(t, "", "compile", "--file", "filter.yaml", "--text")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * WHERE `age` >= $1 ORDER BY `age` DESC\n", out)

	out, err = run(t, `{"a": null}`, "compile", "--file", "-", "--text")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * WHERE `a` = NULL\n", out)

	_, err = run(t, "", "compile", "-f", "{}", "--file", "filter.yaml")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = run(t, "", "compile", "-f", `{"$limit": "many"}`)
	assert.ErrorContains(t, err, "Limit parameter must be numeric")
}

func TestIndexDryRun(t *testing.T) {
	out, err := run(t, "", "index", "--type", "room", "--primary", "--dry-run", "name", "volume")
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE PRIMARY INDEX ON `default`\nCREATE INDEX `room_idx` ON `default`(`name`,`volume`) WHERE `_type` = \"room\"\n",
		out)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "docquery dev\n", out)
}
