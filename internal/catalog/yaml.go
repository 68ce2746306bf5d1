package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/plugin"
)

// pluginDoc matches the YAML structure of a plugin file.
type pluginDoc struct {
	Name        string              `yaml:"name"`
	Version     string              `yaml:"version,omitempty"`
	Category    string              `yaml:"category,omitempty"`
	Description string              `yaml:"description,omitempty"`
	Author      string              `yaml:"author,omitempty"`
	Keywords    []string            `yaml:"keywords,omitempty"`
	Body        map[string]string   `yaml:"body,omitempty"`
	Constraints map[string][]string `yaml:"constraints,omitempty"`
	Commands    []commandDoc        `yaml:"commands,omitempty"`
}

type commandDoc struct {
	Name        string              `yaml:"name"`
	Params      []string            `yaml:"params,omitempty"`
	Description map[string]string   `yaml:"description,omitempty"`
	Rules       map[string][]string `yaml:"rules,omitempty"`
	Examples    []plugin.Example    `yaml:"examples,omitempty"`
}

// Parse decodes one YAML file. The file holds either a single plugin or a
// sequence of plugins.
func Parse(data []byte) ([]*plugin.Plugin, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	var docs []pluginDoc
	node := root.Content[0]
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&docs); err != nil {
			return nil, fmt.Errorf("decode plugins: %w", err)
		}
	case yaml.MappingNode:
		var doc pluginDoc
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode plugin: %w", err)
		}
		docs = []pluginDoc{doc}
	default:
		return nil, fmt.Errorf("expected a plugin mapping or a sequence of plugins")
	}

	plugins := make([]*plugin.Plugin, 0, len(docs))
	for _, d := range docs {
		p, err := d.toPlugin()
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

func (d pluginDoc) toPlugin() (*plugin.Plugin, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, errors.NewInvalidPlugin("", "name is required")
	}

	body, err := toText(d.Body)
	if err != nil {
		return nil, errors.NewInvalidPlugin(name, "body: "+err.Error())
	}
	constraints, err := toRules(d.Constraints)
	if err != nil {
		return nil, errors.NewInvalidPlugin(name, "constraints: "+err.Error())
	}

	p := &plugin.Plugin{
		Name:        name,
		Version:     d.Version,
		Description: d.Description,
		Author:      d.Author,
		Keywords:    d.Keywords,
		Body:        body,
		Constraints: constraints,
	}

	for _, cd := range d.Commands {
		desc, err := toText(cd.Description)
		if err != nil {
			return nil, errors.NewInvalidPlugin(name, cd.Name+" description: "+err.Error())
		}
		rules, err := toRules(cd.Rules)
		if err != nil {
			return nil, errors.NewInvalidPlugin(name, cd.Name+" rules: "+err.Error())
		}
		p.Commands = append(p.Commands, &plugin.Command{
			Name:        strings.TrimSpace(cd.Name),
			Params:      cd.Params,
			Description: desc,
			Rules:       rules,
			Examples:    cd.Examples,
		})
	}

	// Without an explicit category, a plugin with triggers is a kit and one
	// without is an always-on role.
	if d.Category == "" {
		if len(p.Keywords) > 0 || len(p.Commands) > 0 {
			p.Category = plugin.CategoryKit
		} else {
			p.Category = plugin.CategoryRole
		}
	} else {
		c, err := plugin.ParseCategory(d.Category)
		if err != nil {
			return nil, errors.NewInvalidPlugin(name, err.Error())
		}
		p.Category = c
	}

	return p, nil
}

func toText(m map[string]string) (plugin.Text, error) {
	if len(m) == 0 {
		return nil, nil
	}
	t := make(plugin.Text, len(m))
	for k, v := range m {
		lang, err := plugin.ParseLang(k)
		if err != nil {
			return nil, err
		}
		t[lang] = v
	}
	return t, nil
}

func toRules(m map[string][]string) (plugin.Rules, error) {
	if len(m) == 0 {
		return nil, nil
	}
	r := make(plugin.Rules, len(m))
	for k, v := range m {
		lang, err := plugin.ParseLang(k)
		if err != nil {
			return nil, err
		}
		r[lang] = v
	}
	return r, nil
}

// LoadFS reads every .yaml/.yml file under root in fsys, in lexical order.
func LoadFS(fsys fs.FS, root string) ([]*plugin.Plugin, error) {
	var all []*plugin.Plugin

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
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

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		plugins, err := Parse(data)
		if err != nil {
			if _, ok := err.(*errors.AecError); ok {
				return err
			}
			return errors.NewInvalidPlugin(p, err.Error())
		}
		all = append(all, plugins...)
		return nil
	})
	if err != nil {
		if _, ok := err.(*errors.AecError); ok {
			return nil, err
		}
		return nil, fmt.Errorf("load plugins from %s: %w", root, err)
	}

	return all, nil
}

// LoadDir reads user plugins from a directory on disk.
func LoadDir(dir string) ([]*plugin.Plugin, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("plugin directory", dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("plugin path %s is not a directory", dir))
	}
	return LoadFS(os.DirFS(dir), ".")
}
