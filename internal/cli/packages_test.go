package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/store"
)

func runPackagesCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewPackagesCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writePackageFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "package.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestPackages_ImportListDelete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "scenesync.db")
	file := writePackageFile(t, []byte{1, 2, 3, 4})

	out, err := runPackagesCommand(t, "text", "import", "--db", dbPath, "nodes", file)
	require.NoError(t, err)
	assert.Equal(t, "✓ imported nodes (4 bytes)\n", out)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	data, err := st.Package(context.Background(), "nodes")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
	require.NoError(t, st.Close())

	out, err = runPackagesCommand(t, "text", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "nodes")
	assert.Contains(t, out, "4 bytes")
	assert.NotContains(t, out, "not requested by peers")

	out, err = runPackagesCommand(t, "text", "delete", "--db", dbPath, "nodes")
	require.NoError(t, err)
	assert.Equal(t, "✓ deleted nodes\n", out)

	out, err = runPackagesCommand(t, "text", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No packages stored.\n", out)
}

func TestPackages_UnknownNameNeedsForce(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "scenesync.db")
	file := writePackageFile(t, []byte("blob"))

	_, err := runPackagesCommand(t, "text", "import", "--db", dbPath, "custom", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown package "custom"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = runPackagesCommand(t, "text", "import", "--db", dbPath, "--force", "custom", file)
	require.NoError(t, err)

	out, err := runPackagesCommand(t, "text", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "custom")
	assert.Contains(t, out, "(not requested by peers)")
}

func TestPackages_ListJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "scenesync.db")
	_, err := runPackagesCommand(t, "text", "import", "--db", dbPath, "objects", writePackageFile(t, []byte("ab")))
	require.NoError(t, err)
	_, err = runPackagesCommand(t, "text", "import", "--db", dbPath, "header", writePackageFile(t, []byte("abc")))
	require.NoError(t, err)

	out, err := runPackagesCommand(t, "json", "list", "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   []PackageEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "header", resp.Data[0].Name)
	assert.Equal(t, 3, resp.Data[0].Size)
	assert.True(t, resp.Data[0].Known)
	assert.Equal(t, "objects", resp.Data[1].Name)
}

func TestPackages_ImportMissingFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "scenesync.db")

	_, err := runPackagesCommand(t, "text", "import", "--db", dbPath, "nodes", filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read package file")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPackages_RequiresDatabase(t *testing.T) {
	_, err := runPackagesCommand(t, "text", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "db")
}
