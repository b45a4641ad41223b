package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kgxflow/kgxflow/internal/errors"
)

// LoadYAML reads the YAML document at path, resolves every !include tag by
// recursively loading the referenced file relative to path's directory, and
// rejects any mapping that declares the same key twice at any nesting
// level. The fully-resolved document is then decoded into out.
func LoadYAML(path string, out any) error {
	node, err := loadNode(path)
	if err != nil {
		return err
	}
	if err := node.Decode(out); err != nil {
		return errors.Wrapf(err, errors.KindConfig, "decode %s", path)
	}
	return nil
}

// loadNode parses path into a yaml.Node document root, resolves !include
// tags depth-first, and checks for duplicate mapping keys throughout.
func loadNode(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "read config %s", path)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.KindConfig, "parse config %s", path)
	}
	if len(doc.Content) == 0 {
		return &doc, nil
	}

	root := doc.Content[0]
	if err := checkDuplicateKeys(root, path); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := resolveIncludes(root, dir); err != nil {
		return nil, err
	}

	return root, nil
}

// resolveIncludes walks node depth-first, replacing any node tagged
// "!include <path>" with the fully-resolved document loaded from that path
// (resolved relative to dir).
func resolveIncludes(node *yaml.Node, dir string) error {
	if node.Tag == "!include" {
		var rel string
		if err := node.Decode(&rel); err != nil {
			return errors.Wrapf(err, errors.KindConfig, "decode !include target")
		}
		includePath := filepath.Join(dir, rel)
		included, err := loadNode(includePath)
		if err != nil {
			return err
		}
		*node = *included
		return nil
	}

	for _, child := range node.Content {
		if err := resolveIncludes(child, dir); err != nil {
			return err
		}
	}
	return nil
}

// checkDuplicateKeys fails loading if any mapping node in the document
// declares the same scalar key more than once, at any depth.
func checkDuplicateKeys(node *yaml.Node, path string) error {
	if node.Kind == yaml.MappingNode {
		seen := make(map[string]bool, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yaml.ScalarNode {
				continue
			}
			if seen[key.Value] {
				return errors.ConfigErrorf("duplicate key %q in %s (line %d)", key.Value, path, key.Line)
			}
			seen[key.Value] = true
		}
	}
	for _, child := range node.Content {
		if err := checkDuplicateKeys(child, path); err != nil {
			return err
		}
	}
	return nil
}

// DumpYAML marshals v to path as YAML, creating parent directories as needed.
func DumpYAML(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, errors.KindIO, "create dir %s", dir)
		}
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, errors.KindConfig, "marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.KindIO, "write %s", path)
	}
	return nil
}
