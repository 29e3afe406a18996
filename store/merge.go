// ABOUTME: RFC 7396 JSON merge patch used by every Documents backend's Merge
// ABOUTME: Only object patches are accepted; null members delete keys
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

var emptyObject = []byte(`{}`)

// MergePatch applies patch to target following RFC 7396 and returns the merged document.
// A nil or empty target is treated as an empty object.
func MergePatch(target, patch []byte) ([]byte, error) {
	if !json.Valid(patch) {
		return nil, errors.New("invalid merge patch: malformed JSON")
	}
	if !isObject(patch) {
		return nil, ErrNotAnObject
	}

	if len(bytes.TrimSpace(target)) == 0 {
		target = emptyObject
	}
	if !json.Valid(target) {
		return nil, errors.New("invalid merge target: malformed JSON")
	}
	if !isObject(target) {
		target = emptyObject
	}

	merged, err := jsonpatch.MergePatch(target, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to apply merge patch: %w", err)
	}
	return merged, nil
}

func isObject(doc []byte) bool {
	trimmed := bytes.TrimSpace(doc)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
