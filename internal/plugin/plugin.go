// Package plugin defines AEC instruction modules and the registry that
// resolves which of them a source activates.
//
// A Plugin covers both shapes the catalog uses: a plain module (namespace,
// trigger keywords and a localized body) and a command kit (global
// constraints plus parameterized commands with few-shot examples).
package plugin

import (
	"fmt"
	"strings"
)

// Lang is a target language code.
type Lang string

const (
	LangEN Lang = "en"
	LangZH Lang = "zh"

	// DefaultLang is used whenever a module lacks the requested variant.
	DefaultLang = LangEN
)

// SupportedLangs lists every language the compiler can target.
var SupportedLangs = []Lang{LangEN, LangZH}

// ParseLang validates a language code. An empty string yields DefaultLang.
func ParseLang(s string) (Lang, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultLang, nil
	}
	for _, l := range SupportedLangs {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q (supported: en, zh)", s)
}

// Text is a localized string.
type Text map[Lang]string

// Get returns the variant for lang, falling back to DefaultLang.
func (t Text) Get(lang Lang) string {
	if v, ok := t[lang]; ok {
		return v
	}
	return t[DefaultLang]
}

// Rules is a localized list of rule lines.
type Rules map[Lang][]string

// Get returns the rules for lang, falling back to DefaultLang.
func (r Rules) Get(lang Lang) []string {
	if v, ok := r[lang]; ok {
		return v
	}
	return r[DefaultLang]
}

// Category decides how a plugin activates.
type Category string

const (
	// CategoryKernel is the single always-on module that defines the agent's
	// role and output protocol.
	CategoryKernel Category = "kernel"
	// CategoryRole plugins are always on.
	CategoryRole Category = "role"
	// CategoryKit plugins load only when a source references one of their
	// keywords or commands.
	CategoryKit Category = "kit"
)

// ParseCategory validates a category name (case-insensitive).
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryKernel, CategoryRole, CategoryKit:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q (want kernel, role or kit)", s)
	}
}

// AlwaysActive reports whether plugins of this category load unconditionally.
func (c Category) AlwaysActive() bool {
	return c == CategoryKernel || c == CategoryRole
}

// Example is a literal few-shot pair. Output is emitted verbatim.
type Example struct {
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
}

// Command is a named, parameterized instruction owned by one plugin.
type Command struct {
	Name        string
	Params      []string
	Description Text
	Rules       Rules
	Examples    []Example
}

// Signature renders NAME(p1, p2).
func (c *Command) Signature() string {
	return c.Name + "(" + strings.Join(c.Params, ", ") + ")"
}

// Plugin is one instruction module.
type Plugin struct {
	// Name is the namespace, unique across a registry.
	Name        string
	Version     string
	Category    Category
	Description string
	Author      string

	// Keywords trigger a module-style plugin. Command names are triggers too.
	Keywords []string

	// Body is emitted as-is whenever the plugin is active.
	Body Text

	// Constraints apply whenever the plugin is active, regardless of which
	// commands were referenced.
	Constraints Rules

	Commands []*Command
}

// Triggers returns keywords followed by command names, in declaration order.
func (p *Plugin) Triggers() []string {
	out := make([]string, 0, len(p.Keywords)+len(p.Commands))
	out = append(out, p.Keywords...)
	for _, c := range p.Commands {
		out = append(out, c.Name)
	}
	return out
}

// Command returns the command with the given name, or nil.
func (p *Plugin) Command(name string) *Command {
	for _, c := range p.Commands {
		if c.Name == name {
			return c
		}
	}
	return nil
}
