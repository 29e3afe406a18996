// ABOUTME: Writes single settings back into the YAML config file
// ABOUTME: Edits the node tree so comments and ${VAR} references survive

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SetCharmAutoSync records charm.auto_sync in the config file at path,
// creating the file if needed.
func SetCharmAutoSync(path string, enabled bool) error {
	return setValue(path, []string{"charm", "auto_sync"}, strconv.FormatBool(enabled), "!!bool")
}

func setValue(path string, keys []string, value, tag string) error {
	var doc yaml.Node
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if len(doc.Content) == 0 {
		doc.Kind = yaml.DocumentNode
		doc.Content = []*yaml.Node{newMapping()}
	}

	node := doc.Content[0]
	if isNull(node) {
		*node = *newMapping()
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("config %s is not a mapping", path)
	}
	for i, key := range keys {
		child := lookup(node, key)
		if child == nil {
			child = newMapping()
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, child)
		}
		if i == len(keys)-1 {
			*child = yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value, LineComment: child.LineComment}
			break
		}
		if isNull(child) {
			*child = *newMapping()
		}
		if child.Kind != yaml.MappingNode {
			return fmt.Errorf("config key %s is not a mapping", key)
		}
		node = child
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0600)
}

func newMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
