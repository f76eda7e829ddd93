package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration_WritesUpDownPair(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add Return Notes Table", "Return notes and items")
	require.NoError(t, err)

	assert.Len(t, mf.Version, len(versionLayout))
	assert.Equal(t, filepath.Join(dir, mf.Version+"_add_return_notes_table.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, mf.Version+"_add_return_notes_table.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: Add Return Notes Table")
	assert.Contains(t, string(up), "-- Description: Return notes and items")
	assert.Contains(t, string(up), "UP migration SQL")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
	assert.Contains(t, string(down), "Rollback for Return notes and items")
	assert.Contains(t, string(down), "DOWN migration SQL")
}

func TestCreateMigration_CreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db", "migrations")

	mf, err := CreateMigration(dir, "init_schema", "")
	require.NoError(t, err)

	assert.FileExists(t, mf.UpPath)
	assert.FileExists(t, mf.DownPath)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"add_suppliers", "add_suppliers"},
		{"Add Receipt Notes", "add_receipt_notes"},
		{"fix--double--dashes", "fix_double_dashes"},
		{"trailing space ", "trailing_space"},
		{"v2 schema", "v2_schema"},
		{"weird!@#chars", "weirdchars"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), "name %q", tt.in)
	}
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"20240102000000_add_receipt_notes",
		"20240101000000_init_schema",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".up.sql"), []byte("-- up"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".down.sql"), []byte("-- down"), 0o644))
	}
	// Stray files are not migrations.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"20240101000000_init_schema",
		"20240102000000_add_receipt_notes",
	}, migrations, "sorted by version, one entry per pair")
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))

	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestMigrationStubs_EmbedVersionedHeader(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add index", "btree on document_number")
	require.NoError(t, err)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(up), "-- Migration: add index\n"))
	assert.Contains(t, string(up), "-- Created: "+mf.Timestamp)
}
