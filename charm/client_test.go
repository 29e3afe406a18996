// ABOUTME: Tests for the charm client on a local Badger backend
// ABOUTME: Runs the shared store suite plus wipe and defaults

package charm

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/harperreed/prospecta/store"
	"github.com/harperreed/prospecta/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDocuments(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Documents {
		return NewTestClient(t)
	})
}

func TestClientKeysAreCollectionScoped(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "user", "1", []byte(`{"a":1}`)))
	require.NoError(t, c.Put(ctx, "users", "1", []byte(`{"b":2}`)))

	list, err := c.List(ctx, "user")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.JSONEq(t, `{"a":1}`, string(list["1"]))
}

func TestWipeRequiresConfirm(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "prospects", "p1", []byte(`{}`)))

	var out bytes.Buffer
	require.NoError(t, Wipe(&out, c, false))
	assert.Contains(t, out.String(), "--confirm")

	n, err := c.KeyCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out.Reset()
	require.NoError(t, Wipe(&out, c, true))
	n, err = c.KeyCount()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestConfigDefaults(t *testing.T) {
	cfg := (&Config{AutoSync: true}).withDefaults()
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.True(t, cfg.AutoSync)
	assert.NotZero(t, cfg.StaleThreshold)

	custom := &Config{Host: "charm.example.com", StaleThreshold: time.Minute}
	got := custom.withDefaults()
	assert.Equal(t, "charm.example.com", got.Host)
	assert.False(t, got.AutoSync)
	assert.Equal(t, time.Minute, got.StaleThreshold)
	assert.NotSame(t, custom, got)
}

func TestSyncNowLocal(t *testing.T) {
	c := NewTestClient(t)

	var out bytes.Buffer
	require.NoError(t, SyncNow(&out, c))
	assert.Contains(t, out.String(), "Synced")
}
