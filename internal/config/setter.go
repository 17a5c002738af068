package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyKeyPath is returned for a blank or malformed dotted key.
var ErrEmptyKeyPath = errors.New("empty key path")

// ParseKeyPath splits a dotted key ("git.auto_commit") into its segments.
func ParseKeyPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrEmptyKeyPath
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrEmptyKeyPath, path)
		}
	}
	return parts, nil
}

// SetNestedValue sets value at keyPath inside a YAML document node, creating
// intermediate mappings as needed. Comments on replaced values are kept.
func SetNestedValue(root *yaml.Node, keyPath []string, value interface{}) error {
	if len(keyPath) == 0 {
		return ErrEmptyKeyPath
	}
	if root.Kind == 0 {
		root.Kind = yaml.DocumentNode
	}
	if root.Kind != yaml.DocumentNode {
		return fmt.Errorf("expected a YAML document, got node kind %d", root.Kind)
	}
	if len(root.Content) == 0 {
		root.Content = []*yaml.Node{newMapping()}
	}

	current := root.Content[0]
	if current.Kind != yaml.MappingNode {
		return fmt.Errorf("config root is not a mapping")
	}

	for i, key := range keyPath {
		idx := mappingIndex(current, key)

		if i == len(keyPath)-1 {
			var valNode yaml.Node
			if err := valNode.Encode(value); err != nil {
				return fmt.Errorf("encoding value for %s: %w", strings.Join(keyPath, "."), err)
			}
			if idx >= 0 {
				old := current.Content[idx+1]
				valNode.LineComment = old.LineComment
				valNode.HeadComment = old.HeadComment
				current.Content[idx+1] = &valNode
			} else {
				current.Content = append(current.Content, keyNode(key), &valNode)
			}
			return nil
		}

		if idx >= 0 && current.Content[idx+1].Kind == yaml.MappingNode {
			current = current.Content[idx+1]
			continue
		}
		child := newMapping()
		if idx >= 0 {
			current.Content[idx+1] = child
		} else {
			current.Content = append(current.Content, keyNode(key), child)
		}
		current = child
	}
	return nil
}

// GetNestedValue returns the node at keyPath, or nil.
func GetNestedValue(root *yaml.Node, keyPath []string) *yaml.Node {
	if len(keyPath) == 0 || root == nil {
		return nil
	}
	current := root
	if current.Kind == yaml.DocumentNode {
		if len(current.Content) == 0 {
			return nil
		}
		current = current.Content[0]
	}
	for _, key := range keyPath {
		if current.Kind != yaml.MappingNode {
			return nil
		}
		idx := mappingIndex(current, key)
		if idx < 0 {
			return nil
		}
		current = current.Content[idx+1]
	}
	return current
}

// SetConfigValue validates value against the key schema and writes it into
// the YAML config at configPath, creating the file if needed.
func SetConfigValue(configPath, key, value string) error {
	parsed, err := ValidateValue(key, value)
	if err != nil {
		return err
	}
	keyPath, err := ParseKeyPath(key)
	if err != nil {
		return err
	}

	var root yaml.Node
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if len(bytes.TrimSpace(data)) > 0 {
			if err := yaml.Unmarshal(data, &root); err != nil {
				return fmt.Errorf("parsing %s: %w", configPath, err)
			}
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("reading %s: %w", configPath, err)
	}

	if err := SetNestedValue(&root, keyPath, parsed.Parsed); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	return nil
}

func mappingIndex(m *yaml.Node, key string) int {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return i
		}
	}
	return -1
}

func newMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}
