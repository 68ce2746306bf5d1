// Package catalog provides the built-in AEC plugins and loads user plugins
// from YAML.
package catalog

import (
	"embed"
	"sync"

	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/fuzzy"
	"github.com/hpungsan/aec/internal/plugin"
)

// KernelName is the namespace of the built-in kernel plugin.
const KernelName = "__KERNEL__"

//go:embed plugins
var builtinFS embed.FS

var loadBuiltin = sync.OnceValues(func() ([]*plugin.Plugin, error) {
	return LoadFS(builtinFS, "plugins")
})

// Builtin returns the embedded plugins in catalog order. The plugins are
// shared and must not be modified.
func Builtin() ([]*plugin.Plugin, error) {
	plugins, err := loadBuiltin()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	out := make([]*plugin.Plugin, len(plugins))
	copy(out, plugins)
	return out, nil
}

// Available returns the built-in plugins followed by the plugins found in
// dirs. A user plugin with the same name as an earlier one replaces it in
// place.
func Available(dirs []string) ([]*plugin.Plugin, error) {
	all, err := Builtin()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		loaded, err := LoadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, p := range loaded {
			all = replaceOrAppend(all, p)
		}
	}
	return all, nil
}

func replaceOrAppend(all []*plugin.Plugin, p *plugin.Plugin) []*plugin.Plugin {
	for i, existing := range all {
		if existing.Name == p.Name {
			all[i] = p
			return all
		}
	}
	return append(all, p)
}

// Select returns the plugins named in names, in that order. The kernel is
// always included. An empty names list selects everything in all.
func Select(all []*plugin.Plugin, names []string) ([]*plugin.Plugin, error) {
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]*plugin.Plugin, len(all))
	candidates := make([]string, 0, len(all))
	for _, p := range all {
		byName[p.Name] = p
		candidates = append(candidates, p.Name)
	}

	var out []*plugin.Plugin
	picked := make(map[string]bool, len(names)+1)

	for _, p := range all {
		if p.Category == plugin.CategoryKernel {
			out = append(out, p)
			picked[p.Name] = true
		}
	}

	for _, name := range names {
		if picked[name] {
			continue
		}
		p, ok := byName[name]
		if !ok {
			suggestion, _ := fuzzy.Suggest(name, candidates)
			return nil, errors.NewPluginNotFound(name, suggestion)
		}
		out = append(out, p)
		picked[name] = true
	}
	return out, nil
}

// Registry builds a validated registry from the built-in catalog, user
// plugin dirs, and the enabled plugin names.
func Registry(names, dirs []string) (*plugin.Registry, error) {
	all, err := Available(dirs)
	if err != nil {
		return nil, err
	}
	selected, err := Select(all, names)
	if err != nil {
		return nil, err
	}
	return plugin.NewRegistry(selected...)
}
