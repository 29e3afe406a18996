// ABOUTME: Tests for the in-memory document store and the JSON merge patch
// ABOUTME: The memory store also runs the shared backend conformance suite
package store_test

import (
	"context"
	"testing"

	"github.com/harperreed/prospecta/store"
	"github.com/harperreed/prospecta/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDocuments(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Documents {
		return store.NewMemory()
	})
}

func TestMergePatch(t *testing.T) {
	tests := []struct {
		name   string
		target string
		patch  string
		want   string
	}{
		{"insert into empty", ``, `{"a":1}`, `{"a":1}`},
		{"replace scalar", `{"a":1,"b":2}`, `{"a":3}`, `{"a":3,"b":2}`},
		{"null deletes", `{"a":1,"b":2}`, `{"b":null}`, `{"a":1}`},
		{"nested objects merge", `{"s":{"x":1,"y":2}}`, `{"s":{"y":3}}`, `{"s":{"x":1,"y":3}}`},
		{"arrays replace", `{"l":[1,2]}`, `{"l":[3]}`, `{"l":[3]}`},
		{"nulls pruned from new members", ``, `{"s":{"x":null,"y":1}}`, `{"s":{"y":1}}`},
		{"non-object target replaced", `[1,2]`, `{"a":1}`, `{"a":1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.MergePatch([]byte(tc.target), []byte(tc.patch))
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestMergePatchRejectsNonObject(t *testing.T) {
	for _, patch := range []string{`[1,2]`, `null`, `"text"`} {
		_, err := store.MergePatch([]byte(`{}`), []byte(patch))
		assert.ErrorIs(t, err, store.ErrNotAnObject, patch)
	}

	_, err := store.MergePatch([]byte(`{}`), []byte(`{"a":`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotAnObject)
}

func TestJSONHelpers(t *testing.T) {
	docs := store.NewMemory()
	ctx := context.Background()

	type note struct {
		Text string `json:"text"`
	}

	require.NoError(t, store.PutJSON(ctx, docs, "notes", "n1", note{Text: "hola"}))
	require.NoError(t, store.PutJSON(ctx, docs, "notes", "n2", note{Text: "adios"}))

	var got note
	require.NoError(t, store.GetJSON(ctx, docs, "notes", "n1", &got))
	assert.Equal(t, "hola", got.Text)

	all, err := store.ListJSON[note](ctx, docs, "notes")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
