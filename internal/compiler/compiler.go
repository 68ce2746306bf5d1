// Package compiler turns AEC source into a prompt document.
//
// Compilation is pure: scan the source, resolve the active plugins against a
// registry, then assemble localized sections in registry order. The same
// source, registry, and language always produce byte-identical output.
package compiler

import (
	"github.com/hpungsan/aec/internal/lexer"
	"github.com/hpungsan/aec/internal/plugin"
)

// CompiledContext is the result of one compilation.
type CompiledContext struct {
	Prompt         string      `json:"prompt"`
	ActiveModules  []string    `json:"active_modules"`
	Commands       []string    `json:"commands"`
	Tokens         []string    `json:"tokens"`
	Lang           plugin.Lang `json:"lang"`
	Chars          int         `json:"chars"`
	TokensEstimate int         `json:"tokens_estimate"`
}

// Options configures a Compiler.
type Options struct {
	// Lang is the target language. Empty means plugin.DefaultLang.
	Lang plugin.Lang

	// ReservedKeywords extend CoreKeywords.
	ReservedKeywords []string
}

// Compiler compiles sources against a fixed registry. It is safe for
// concurrent use.
type Compiler struct {
	registry *plugin.Registry
	lang     plugin.Lang
	reserved map[string]bool
}

// New returns a Compiler over reg.
func New(reg *plugin.Registry, opts Options) *Compiler {
	lang := opts.Lang
	if lang == "" {
		lang = plugin.DefaultLang
	}
	return &Compiler{
		registry: reg,
		lang:     lang,
		reserved: reservedSet(opts.ReservedKeywords),
	}
}

// Lang returns the target language.
func (c *Compiler) Lang() plugin.Lang {
	return c.lang
}

// Compile compiles source. It fails with UNKNOWN_COMMAND on the first token
// nothing recognizes.
func (c *Compiler) Compile(source string) (*CompiledContext, error) {
	tokens := lexer.Scan(source)

	res, err := Resolve(c.registry, tokens, c.reserved)
	if err != nil {
		return nil, err
	}

	modules := make([]string, 0, len(res.Activations))
	commands := []string{}
	for _, a := range res.Activations {
		modules = append(modules, a.Plugin.Name)
		for _, cmd := range a.Commands {
			commands = append(commands, cmd.Name)
		}
	}

	prompt := assemble(res.Activations, c.lang, source)

	return &CompiledContext{
		Prompt:         prompt,
		ActiveModules:  modules,
		Commands:       commands,
		Tokens:         res.Tokens,
		Lang:           c.lang,
		Chars:          CountChars(prompt),
		TokensEstimate: EstimateTokens(prompt),
	}, nil
}
