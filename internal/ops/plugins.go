package ops

import (
	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/plugin"
)

// CommandInfo describes one command for discovery.
type CommandInfo struct {
	Name        string `json:"name"`
	Signature   string `json:"signature"`
	Description string `json:"description,omitempty"`
	Examples    int    `json:"examples"`
}

// PluginInfo describes one registered plugin.
type PluginInfo struct {
	Name        string          `json:"name"`
	Version     string          `json:"version,omitempty"`
	Category    plugin.Category `json:"category"`
	Description string          `json:"description,omitempty"`
	Author      string          `json:"author,omitempty"`
	Keywords    []string        `json:"keywords,omitempty"`
	Commands    []CommandInfo   `json:"commands,omitempty"`
}

// PluginsInput contains parameters for the Plugins operation.
type PluginsInput struct {
	Lang string // language for command descriptions; default en
}

// PluginsOutput lists the registry in resolution order.
type PluginsOutput struct {
	Items []PluginInfo `json:"items"`
	Count int          `json:"count"`
}

// Plugins describes every plugin in reg.
func Plugins(reg *plugin.Registry, input PluginsInput) (*PluginsOutput, error) {
	lang, err := plugin.ParseLang(input.Lang)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	items := make([]PluginInfo, 0, reg.Len())
	for _, p := range reg.Plugins() {
		info := PluginInfo{
			Name:        p.Name,
			Version:     p.Version,
			Category:    p.Category,
			Description: p.Description,
			Author:      p.Author,
			Keywords:    p.Keywords,
		}
		for _, c := range p.Commands {
			info.Commands = append(info.Commands, CommandInfo{
				Name:        c.Name,
				Signature:   c.Signature(),
				Description: c.Description.Get(lang),
				Examples:    len(c.Examples),
			})
		}
		items = append(items, info)
	}

	return &PluginsOutput{Items: items, Count: len(items)}, nil
}
