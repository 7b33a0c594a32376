package migration

import (
	"io/fs"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/merchantops/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add users table", "add_users_table"},
		{"Add-Users-Table", "add_users_table"},
		{"add__users__table", "add_users_table"},
		{"Add Branch Region 2", "add_branch_region_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading_and_trailing_", "leading_and_trailing"},
		{"!!! ok", "ok"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_later.up.sql":      {},
		"000002_second.up.sql":     {},
		"000002_second.down.sql":   {},
		"000001_first.up.sql":      {},
		"notes.md":                 {},
		"unversioned.up.sql":       {},
		"000003_only_down.down.sql": {},
	}
	got, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []Listed{
		{Version: 1, Name: "000001_first"},
		{Version: 2, Name: "000002_second"},
		{Version: 10, Name: "000010_later"},
	}, got)
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add branch region", "Region code per branch")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, "000001_add_branch_region", first.Name)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(up), "-- Up: add branch region"))
	assert.Contains(t, string(up), "-- Region code per branch")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(down), "-- Down: add branch region"))

	second, err := CreateMigration(dir, "Drop Legacy", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, "000002_drop_legacy", second.Name)

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	listed, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	for i, m := range listed {
		assert.Equal(t, uint(i+1), m.Version)
		_, err := fs.Stat(migrations.FS, m.Name+".down.sql")
		assert.NoError(t, err, "missing down migration for %s", m.Name)
	}

	schema, err := fs.ReadFile(migrations.FS, "000002_create_audit_logs.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(schema), "CREATE TABLE IF NOT EXISTS audit_logs")
	assert.Contains(t, string(schema), "'RESTORE'")
}
