package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes studioctl with args against the database at dbPath.
func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--db", dbPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testDBPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "default.db"))
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(dir, "studio.db")
}

func TestRootCmd_Structure(t *testing.T) {
	cmd := newRootCmd()

	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"migrate", "seed", "entries"})

	entries, _, err := cmd.Find([]string{"entries", "promote"})
	require.NoError(t, err)
	assert.Equal(t, "promote", entries.Name())

	assert.NotNil(t, cmd.PersistentFlags().Lookup("db"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("driver"))
}

func TestMigrateCmd(t *testing.T) {
	dbPath := testDBPath(t)

	out, err := runCLI(t, dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date.")

	// Migrations are idempotent.
	_, err = runCLI(t, dbPath, "migrate")
	require.NoError(t, err)
}

func TestSeedCmd_RequiresConfirmation(t *testing.T) {
	dbPath := testDBPath(t)

	_, err := runCLI(t, dbPath, "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestSeedAndList(t *testing.T) {
	dbPath := testDBPath(t)

	out, err := runCLI(t, dbPath, "seed", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Seeded 9 entries and 2 journal posts.\n", out)

	out, err = runCLI(t, dbPath, "entries", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 10)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "note-01"))

	out, err = runCLI(t, dbPath, "entries", "list", "--level", "3")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines[1:] {
		assert.Contains(t, line, "L3")
	}

	out, err = runCLI(t, dbPath, "entries", "list", "--tag", "no-such-tag")
	require.NoError(t, err)
	assert.Equal(t, "No entries found.\n", out)
}

func TestEntriesList_InvalidLevel(t *testing.T) {
	dbPath := testDBPath(t)

	_, err := runCLI(t, dbPath, "entries", "list", "--level", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input: level:")
}

func TestEntriesPromote(t *testing.T) {
	dbPath := testDBPath(t)

	_, err := runCLI(t, dbPath, "seed", "--yes")
	require.NoError(t, err)

	out, err := runCLI(t, dbPath, "entries", "promote", "note-01", "2")
	require.NoError(t, err)
	assert.Equal(t, "note-01 is now L2 Project. Promoted from L0 Lab Note to L2 Project.\n", out)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "same level", args: []string{"note-01", "2"}, wantErr: "Entry is already at this level"},
		{name: "unknown entry", args: []string{"nope", "1"}, wantErr: "entry not found"},
		{name: "non-numeric level", args: []string{"note-01", "two"}, wantErr: "level must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, dbPath, append([]string{"entries", "promote"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
