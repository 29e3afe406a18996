// ABOUTME: Behavioural checks every Documents backend must pass
// ABOUTME: Shared by the memory, SQLite, and Charm/Badger store tests
package storetest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/harperreed/prospecta/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a Documents implementation. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Documents) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) {
		docs := newStore(t)
		_, err := docs.Get(context.Background(), "prospects", "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		docs := newStore(t)
		ctx := context.Background()

		require.NoError(t, docs.Put(ctx, "prospects", "p1", []byte(`{"nombre":"Ana","estado":"Nuevo"}`)))

		got, err := docs.Get(ctx, "prospects", "p1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"nombre":"Ana","estado":"Nuevo"}`, string(got))
	})

	t.Run("PutOverwritesWholesale", func(t *testing.T) {
		docs := newStore(t)
		ctx := context.Background()

		require.NoError(t, docs.Put(ctx, "events", "e1", []byte(`{"title":"a","location":"x"}`)))
		require.NoError(t, docs.Put(ctx, "events", "e1", []byte(`{"title":"b"}`)))

		got, err := docs.Get(ctx, "events", "e1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"b"}`, string(got))
	})

	t.Run("MergeUpserts", func(t *testing.T) {
		docs := newStore(t)
		ctx := context.Background()

		require.NoError(t, docs.Merge(ctx, "oauth_credentials", "inst", []byte(`{"access_token":"a1","refresh_token":"r1","expiry_date":1}`)))
		require.NoError(t, docs.Merge(ctx, "oauth_credentials", "inst", []byte(`{"access_token":"a2","expiry_date":2}`)))

		got, err := docs.Get(ctx, "oauth_credentials", "inst")
		require.NoError(t, err)

		var cred map[string]any
		require.NoError(t, json.Unmarshal(got, &cred))
		assert.Equal(t, "a2", cred["access_token"])
		assert.Equal(t, "r1", cred["refresh_token"])
		assert.EqualValues(t, 2, cred["expiry_date"])
	})

	t.Run("DeleteAndList", func(t *testing.T) {
		docs := newStore(t)
		ctx := context.Background()

		require.NoError(t, docs.Put(ctx, "users", "u1", []byte(`{"email":"a@x.com"}`)))
		require.NoError(t, docs.Put(ctx, "users", "u2", []byte(`{"email":"b@x.com"}`)))
		require.NoError(t, docs.Put(ctx, "prospects", "p1", []byte(`{}`)))

		list, err := docs.List(ctx, "users")
		require.NoError(t, err)
		assert.Len(t, list, 2)
		assert.Contains(t, list, "u1")

		require.NoError(t, docs.Delete(ctx, "users", "u1"))
		assert.ErrorIs(t, docs.Delete(ctx, "users", "u1"), store.ErrNotFound)

		list, err = docs.List(ctx, "users")
		require.NoError(t, err)
		assert.Len(t, list, 1)

		names, err := docs.Collections(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"prospects", "users"}, names)
	})

	t.Run("ListEmptyCollection", func(t *testing.T) {
		docs := newStore(t)
		list, err := docs.List(context.Background(), "invoices")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("RejectsEmptyKey", func(t *testing.T) {
		docs := newStore(t)
		err := docs.Put(context.Background(), "users", "", []byte(`{}`))
		assert.ErrorIs(t, err, store.ErrInvalidKey)
	})
}
