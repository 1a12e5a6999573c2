package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGlobalsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "globals.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommandYAML(t *testing.T) {
	path := writeGlobalsFile(t, `
install_root: /opt
use_ssl: "True"
client:
  ssl:
    key_store_jks: client1.jks
    key_store_password: qwe123
`)

	out, err := runCommand(t, "--globals", path, "--role", "client")
	require.NoError(t, err)

	assert.Contains(t, out, "role: client")
	assert.Contains(t, out, "enabled: true")
	assert.Contains(t, out, "key_store_path: /opt/polis-dev/testing/certs/client1.jks")
	assert.Contains(t, out, "key_store_password: qwe123")
	assert.Contains(t, out, "trust_store_path: /opt/polis-dev/testing/certs/truststore.jks")
}

func TestResolveCommandJSON(t *testing.T) {
	path := writeGlobalsFile(t, `
install_root: /opt
use_ssl: "True"
`)

	out, err := runCommand(t, "--globals", path, "--role", "client", "--role", "server", "--format", "json")
	require.NoError(t, err)

	var reports []roleReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)

	assert.Equal(t, "client", reports[0].Role)
	assert.Equal(t, "/opt/polis-dev/testing/certs/client.jks", reports[0].KeystorePath)
	assert.Equal(t, "server", reports[1].Role)
	assert.Equal(t, "/opt/polis-dev/testing/certs/server.jks", reports[1].KeystorePath)
}

func TestResolveCommandDisabled(t *testing.T) {
	path := writeGlobalsFile(t, "install_root: /opt\n")

	out, err := runCommand(t, "--globals", path, "--role", "client")
	require.NoError(t, err)

	assert.Contains(t, out, "enabled: false")
	assert.NotContains(t, out, "key_store_path")
}

func TestResolveCommandAmbiguousConfig(t *testing.T) {
	path := writeGlobalsFile(t, `
install_root: /opt
use_ssl: "True"
client:
  ssl:
    key_store_jks: client1.jks
    key_store_path: /opt/certs/client1.jks
`)

	_, err := runCommand(t, "--globals", path, "--role", "client")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key_store_jks")
}

func TestResolveCommandBadFormat(t *testing.T) {
	path := writeGlobalsFile(t, "install_root: /opt\n")

	_, err := runCommand(t, "--globals", path, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestResolveCommandMissingGlobalsFlag(t *testing.T) {
	_, err := runCommand(t)
	require.Error(t, err)
}
