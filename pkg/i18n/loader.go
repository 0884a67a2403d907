package i18n

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// WithYAMLDir loads messages from YAML files in fsys. Two layouts are
// accepted and may be mixed:
//
//	en.yaml              messages for "en"
//	de/validation.yaml   messages for "de"; the file name is not part of the key
func WithYAMLDir(fsys fs.FS) Option {
	return func(c *Catalog) error {
		return loadYAML(c, fsys, ".")
	}
}

func loadYAML(c *Catalog, fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		lang := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if dir := path.Dir(p); dir != root {
			lang = path.Base(dir)
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("i18n: reading %q: %w", p, err)
		}
		var messages map[string]any
		if err := yaml.Unmarshal(data, &messages); err != nil {
			return fmt.Errorf("%w: parsing %q: %s", ErrInvalidFile, p, err)
		}
		for k, v := range flatten(messages, "") {
			c.bucket(lang)[k] = v
		}
		return nil
	})
}
