package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/geometax/pkg/errors"
)

func TestNewRootCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := NewRootCommand()
	require.NoError(t, cmd.PersistentFlags().Parse([]string{
		"--server", "http://api.example:9090",
		"--output", "table",
		"-v",
	}))

	server, err := cmd.PersistentFlags().GetString("server")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example:9090", server)

	output, err := cmd.PersistentFlags().GetString("output")
	require.NoError(t, err)
	assert.Equal(t, "table", output)

	verbose, err := cmd.PersistentFlags().GetBool("verbose")
	require.NoError(t, err)
	assert.True(t, verbose)
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	cmd := NewRootCommand()
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"extract", "jobs", "annotations", "search", "reference", "refdata", "migrate"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestGetCLIContext_Uninitialized(t *testing.T) {
	t.Parallel()

	_, err := GetCLIContext(NewRootCommand())
	assert.True(t, errors.IsCode(err, errors.ErrCodeInternal))
}

func TestFormatTable(t *testing.T) {
	t.Parallel()

	out := FormatTable(
		[]string{"GSM", "FACTOR"},
		[][]string{
			{"GSM1", "CTCF"},
			{"GSM200", "H3K27ac"},
		},
	)

	assert.Contains(t, out, "GSM     FACTOR")
	assert.Contains(t, out, "GSM200  H3K27ac")
	assert.Contains(t, out, "------")
}

func TestFormatTable_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FormatTable(nil, nil))
}

func TestReadMapping(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"GSM1":["GSE1","GSE2"]}`), 0o644))

	mapping, err := readMapping(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"GSE1", "GSE2"}, mapping["GSM1"])
}

func TestReadMapping_Invalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))

	_, err := readMapping(path)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))

	_, err = readMapping(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}
