// ABOUTME: Charm KV sync operations surfaced by the "store" CLI commands
// ABOUTME: SSH key auth - charm handles identity, no login/logout needed

package charm

import (
	"fmt"
	"io"
)

// Link tests the connection to the charm server by syncing, then reports the account id.
func Link(w io.Writer, c *Client) error {
	cfg := c.Config()
	fmt.Fprintf(w, "Linking to Charm Cloud (%s)...\n\n", cfg.Host)
	fmt.Fprintln(w, "Charm uses SSH key authentication.")

	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	id, err := c.ID()
	if err != nil {
		fmt.Fprintln(w, "✓ Device linked (ID unavailable)")
	} else {
		fmt.Fprintf(w, "✓ Linked to account: %s\n", id)
	}

	fmt.Fprintf(w, "✓ Auto-sync: %v\n", cfg.AutoSync)
	return nil
}

// Status prints the sync configuration and connection state.
func Status(w io.Writer, c *Client) error {
	cfg := c.Config()
	fmt.Fprintln(w, "Charm Sync Status")
	fmt.Fprintln(w, "─────────────────")
	fmt.Fprintf(w, "Server:    %s\n", cfg.Host)
	fmt.Fprintf(w, "Auto-sync: %v\n", cfg.AutoSync)
	fmt.Fprintf(w, "Stale after: %s\n", cfg.StaleThreshold)

	id, err := c.ID()
	if err != nil {
		fmt.Fprintln(w, "\nStatus: Not connected")
	} else {
		fmt.Fprintln(w, "\nStatus: Connected to Charm Cloud")
		fmt.Fprintf(w, "ID:        %s\n", id)
	}

	if n, err := c.KeyCount(); err == nil {
		fmt.Fprintf(w, "Keys:      %d\n", n)
	}
	return nil
}

// SyncNow performs an immediate sync.
func SyncNow(w io.Writer, c *Client) error {
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Fprintln(w, "✓ Synced")
	return nil
}

// Wipe resets the KV store. Without confirm it only prints a warning.
func Wipe(w io.Writer, c *Client, confirm bool) error {
	if !confirm {
		fmt.Fprintln(w, "WARNING: This will delete ALL local data!")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "To confirm, run:")
		fmt.Fprintln(w, "  prospecta store wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	fmt.Fprintln(w, "✓ All data wiped")
	return nil
}
