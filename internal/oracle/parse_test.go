package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScalar(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "ESR1", "ESR1"},
		{"whitespace", "  ESR1\n", "ESR1"},
		{"quoted", `"H3K27ac"`, "H3K27ac"},
		{"fenced", "```\nCTCF\n```", "CTCF"},
		{"trailing period", "None.", "None"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, parseScalar(tc.raw))
		})
	}
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	got, err := parseBool("True")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = parseBool(`"false"`)
	require.NoError(t, err)
	assert.False(t, got)

	_, err = parseBool("the sample is an input control")
	assert.Error(t, err)
}

func TestParseStringList(t *testing.T) {
	t.Parallel()

	got, err := parseStringList("Here you go:\n```json\n[\"POLR2A\", \"RPB1\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"POLR2A", "RPB1"}, got)

	_, err = parseStringList("no list here")
	assert.Error(t, err)

	_, err = parseStringList(`[1, 2, 3]`)
	assert.Error(t, err)
}

func TestParseObject(t *testing.T) {
	t.Parallel()

	var dest struct {
		CellLine string `json:"cell_line"`
		Disease  string `json:"disease"`
	}
	raw := "Sure.\n{\"cell_line\": \"MCF-7\", \"disease\": \"N/A\"}\n"
	require.NoError(t, parseObject(raw, &dest))
	assert.Equal(t, "MCF-7", dest.CellLine)
	assert.Equal(t, "N/A", dest.Disease)

	assert.Error(t, parseObject("not an object", &dest))
}
