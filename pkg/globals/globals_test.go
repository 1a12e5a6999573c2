package globals

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGlobals(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeGlobals(t, "globals.yaml", `
install_root: /opt
use_ssl: "True"
client:
  ssl:
    key_store_jks: client1.jks
    key_store_password: qwe123
`)

	g, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt", g.StringOr("install_root", ""))
	assert.Equal(t, "True", g.StringOr("use_ssl", ""))

	client, ok := g.Section("client")
	require.True(t, ok)
	ssl, ok := client.Section("ssl")
	require.True(t, ok)

	keystore, ok := ssl.String("key_store_jks")
	require.True(t, ok)
	assert.Equal(t, "client1.jks", keystore)
}

func TestLoadJSONFallback(t *testing.T) {
	// Test harnesses commonly hand the globals over as JSON.
	path := writeGlobals(t, "globals.json",
		`{"install_root": "/opt", "use_ssl": "True", "server": {"ssl": {"key_store_jks": "server.jks"}}}`)

	g, err := Load(path)
	require.NoError(t, err)

	server, ok := g.Section("server")
	require.True(t, ok)
	_, ok = server.Section("ssl")
	assert.True(t, ok)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("garbage content", func(t *testing.T) {
		path := writeGlobals(t, "globals.yaml", "{{{not a tree")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GLOBALS_INSTALL_ROOT", "/custom")
	t.Setenv("GLOBALS_USE_SSL", "True")

	path := writeGlobals(t, "globals.yaml", "install_root: /opt\n")

	g, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/custom", g.StringOr("install_root", ""))
	assert.Equal(t, "True", g.StringOr("use_ssl", ""))
}

func TestLoadEmptyFile(t *testing.T) {
	// A truncated or freshly created globals file is valid, just empty.
	// Overrides must still apply without a nil-map write.
	t.Setenv("GLOBALS_INSTALL_ROOT", "/custom")
	t.Setenv("GLOBALS_USE_SSL", "True")

	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"null document", "null\n"},
		{"comment only", "# nothing configured yet\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeGlobals(t, "globals.yaml", tt.content)

			g, err := Load(path)
			require.NoError(t, err)
			require.NotNil(t, g)

			assert.Equal(t, "/custom", g.StringOr("install_root", ""))
			assert.Equal(t, "True", g.StringOr("use_ssl", ""))
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	g, err := Parse(nil)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.NotPanics(t, func() { g["use_ssl"] = "True" })
}

func TestLookupsOnMissingData(t *testing.T) {
	var nilTree Globals
	_, ok := nilTree.String("use_ssl")
	assert.False(t, ok)
	_, ok = nilTree.Section("client")
	assert.False(t, ok)
	assert.Equal(t, "/opt", nilTree.StringOr("install_root", "/opt"))

	g := Globals{"use_ssl": 42, "client": "not-a-section"}
	_, ok = g.String("use_ssl")
	assert.False(t, ok)
	_, ok = g.Section("client")
	assert.False(t, ok)
}
