package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsilva/sandbox-fastmcp/internal/mcp/tools/types"
)

func TestEncode(t *testing.T) {
	records := []types.ProjectRecord{{Name: "alpha", Entity: "team"}}

	var buf bytes.Buffer
	require.NoError(t, encode(&buf, "yaml", records))
	assert.Contains(t, buf.String(), "- created_at:")
	assert.Contains(t, buf.String(), "name: alpha")

	buf.Reset()
	require.NoError(t, encode(&buf, "json", records))
	assert.Contains(t, buf.String(), `"name": "alpha"`)

	assert.Error(t, encode(&buf, "toml", records))
}

func TestCountLetterCommand(t *testing.T) {
	cmd := countLetterCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"banana", "a"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "The letter 'a' appears 3 times in the text.\n", out.String())
}
