package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenEncodeDecode(t *testing.T) {
	out, err := runCmd(t, "token", "encode", "--question", "2", "--event", "titanic", "--key", "1700000000")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	assert.NotEmpty(t, token)

	out, err = runCmd(t, "token", "decode", token, "--key", "1700000000")
	require.NoError(t, err)
	assert.Equal(t, "2: titanic\n", out)
}

func TestTokenDecodeMalformed(t *testing.T) {
	_, err := runCmd(t, "token", "decode", "@@@", "--key", "1")
	assert.Error(t, err)
}

func TestTokenEncodeRequiresKey(t *testing.T) {
	_, err := runCmd(t, "token", "encode", "--event", "titanic")
	assert.Error(t, err)
}

func TestPickCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte("7:\n  - pompeii\n"), 0o644))

	out, err := runCmd(t, "pick", "--catalog", path, "--key", "99")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "7: pompeii", lines[0])
	assert.Equal(t, `(7, "pompeii")`, lines[2])
}

func TestParseKey(t *testing.T) {
	key, err := parseKey("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", key.String())

	_, err = parseKey("-1")
	assert.Error(t, err)
	_, err = parseKey("abc")
	assert.Error(t, err)

	t.Setenv("OBFUSCATION_KEY", "55")
	key, err = parseKey("")
	require.NoError(t, err)
	assert.Equal(t, int64(55), key.Int64())
}
