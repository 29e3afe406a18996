// ABOUTME: Tests for copying documents between backends
// ABOUTME: Includes a SQLite to Badger round trip

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/prospecta/config"
	"github.com/harperreed/prospecta/db"
	"github.com/harperreed/prospecta/store"
)

func TestCopyDocuments(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemory()
	dst := store.NewMemory()

	require.NoError(t, src.Put(ctx, "prospects", "p1", []byte(`{"nombre":"Ana"}`)))
	require.NoError(t, src.Put(ctx, "prospects", "p2", []byte(`{"nombre":"Luis"}`)))
	require.NoError(t, src.Put(ctx, "users", "u1", []byte(`{"email":"a@example.com"}`)))

	counts, err := copyDocuments(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"prospects": 2, "users": 1}, counts)

	got, err := dst.Get(ctx, "prospects", "p2")
	require.NoError(t, err)
	assert.JSONEq(t, `{"nombre":"Luis"}`, string(got))
}

func TestCopyDocumentsDryRun(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemory()
	require.NoError(t, src.Put(ctx, "invoices", "i1", []byte(`{}`)))

	counts, err := copyDocuments(ctx, src, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["invoices"])
}

func TestMigrateSQLiteToBadger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.db")
	dstPath := filepath.Join(dir, "badger")

	src, err := db.Open(srcPath)
	require.NoError(t, err)
	require.NoError(t, src.Put(ctx, "budgets", "b1", []byte(`{"name":"Marketing"}`)))
	require.NoError(t, src.Close())

	require.NoError(t, migrate(ctx, config.BackendSQLite, srcPath, config.BackendBadger, dstPath, false, true))

	dst, err := openBackend(config.BackendBadger, dstPath)
	require.NoError(t, err)
	defer func() { _ = dst.Close() }()

	got, err := dst.Get(ctx, "budgets", "b1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Marketing"}`, string(got))
}

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prospecta.db")

	require.NoError(t, backupFile(path))

	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
	require.NoError(t, backupFile(path))

	matches, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
