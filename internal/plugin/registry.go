package plugin

import (
	"strings"

	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/lexer"
)

// Registry is an immutable, ordered collection of plugins. Kernel plugins
// come first; everything else keeps registration order.
//
// A Registry is safe for concurrent use: nothing mutates it after NewRegistry.
type Registry struct {
	plugins []*Plugin
}

// NewRegistry validates plugins and returns a registry over them.
//
// Rules: every plugin and command has a non-empty name; namespaces are
// unique; command names are unique across the whole registry; there is at
// most one kernel; a kit declares at least one keyword or command.
func NewRegistry(plugins ...*Plugin) (*Registry, error) {
	namespaces := make(map[string]bool, len(plugins))
	commands := make(map[string]bool)
	var kernels, others []*Plugin

	for _, p := range plugins {
		if p == nil {
			continue
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, errors.NewInvalidPlugin("", "name is required")
		}
		if namespaces[name] {
			return nil, errors.NewDuplicateName("namespace", name)
		}
		namespaces[name] = true

		if _, err := ParseCategory(string(p.Category)); err != nil {
			return nil, errors.NewInvalidPlugin(name, err.Error())
		}

		for _, c := range p.Commands {
			if c == nil || strings.TrimSpace(c.Name) == "" {
				return nil, errors.NewInvalidPlugin(name, "command name is required")
			}
			if commands[c.Name] {
				return nil, errors.NewDuplicateName("command", c.Name)
			}
			commands[c.Name] = true
		}

		switch p.Category {
		case CategoryKernel:
			if len(kernels) > 0 {
				return nil, errors.NewInvalidPlugin(name, "only one kernel plugin is allowed (already have "+kernels[0].Name+")")
			}
			kernels = append(kernels, p)
		case CategoryKit:
			if len(p.Keywords) == 0 && len(p.Commands) == 0 {
				return nil, errors.NewInvalidPlugin(name, "kit declares no keywords or commands")
			}
			others = append(others, p)
		default:
			others = append(others, p)
		}
	}

	return &Registry{plugins: append(kernels, others...)}, nil
}

// Plugins returns the plugins in resolution order. The slice is a copy.
func (r *Registry) Plugins() []*Plugin {
	out := make([]*Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Len returns the number of plugins.
func (r *Registry) Len() int {
	return len(r.plugins)
}

// Lookup returns the plugin with the given namespace, or nil.
func (r *Registry) Lookup(name string) *Plugin {
	for _, p := range r.plugins {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Kernel returns the kernel plugin, or nil if the registry has none.
func (r *Registry) Kernel() *Plugin {
	if len(r.plugins) > 0 && r.plugins[0].Category == CategoryKernel {
		return r.plugins[0]
	}
	return nil
}

// Index maps every trigger (keyword or command name) to its owning plugin.
// A keyword shared by two modules maps to the first registered; both still
// activate, since activation checks each plugin's own triggers.
func (r *Registry) Index() map[string]*Plugin {
	idx := make(map[string]*Plugin)
	for _, p := range r.plugins {
		for _, t := range p.Triggers() {
			if _, ok := idx[t]; !ok {
				idx[t] = p
			}
		}
	}
	return idx
}

// CommandNames returns every command name in registry order. Used as the
// candidate list for spelling suggestions.
func (r *Registry) CommandNames() []string {
	var names []string
	for _, p := range r.plugins {
		for _, c := range p.Commands {
			names = append(names, c.Name)
		}
	}
	return names
}

// Activation is one plugin selected for a source, with the subset of its
// commands the source referenced.
type Activation struct {
	Plugin   *Plugin
	Commands []*Command
}

// Activate returns the plugins active for tokens, in registry order.
//
// Kernel and role plugins are always active. A kit is active when any of its
// keywords or command names is present. Only referenced commands are kept.
func (r *Registry) Activate(tokens *lexer.TokenSet) []Activation {
	var out []Activation
	for _, p := range r.plugins {
		var cmds []*Command
		for _, c := range p.Commands {
			if tokens.Has(c.Name) {
				cmds = append(cmds, c)
			}
		}

		active := p.Category.AlwaysActive() || len(cmds) > 0
		if !active {
			for _, k := range p.Keywords {
				if tokens.Has(k) {
					active = true
					break
				}
			}
		}
		if active {
			out = append(out, Activation{Plugin: p, Commands: cmds})
		}
	}
	return out
}
