// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Uses a per-test temporary directory with BadgerDB for isolation

package charm

import (
	"path/filepath"
	"testing"
)

// NewTestClient creates a client backed by BadgerDB in a temporary directory.
// The database is closed automatically when the test finishes.
func NewTestClient(t *testing.T) *Client {
	t.Helper()

	c, err := OpenLocal(filepath.Join(t.TempDir(), AppName))
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return c
}
