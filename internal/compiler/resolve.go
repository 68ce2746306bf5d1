package compiler

import (
	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/fuzzy"
	"github.com/hpungsan/aec/internal/lexer"
	"github.com/hpungsan/aec/internal/plugin"
)

// CoreKeywords are always legal in a source, whether or not a plugin claims them.
var CoreKeywords = []string{"VAR", "RUN", "THINK", "REPORT", "ASK", "IF", "ELSE"}

// Resolution is the outcome of checking a token set against a registry.
type Resolution struct {
	Activations []plugin.Activation
	Tokens      []string
}

// Resolve validates every token and selects the active plugins.
//
// Tokens are checked in first-appearance order. The first token that is not
// reserved, not a plugin keyword, and not a command name fails the whole
// resolution with UNKNOWN_COMMAND. Only command names are offered as
// suggestions; keywords are not.
func Resolve(reg *plugin.Registry, tokens *lexer.TokenSet, reserved map[string]bool) (*Resolution, error) {
	index := reg.Index()

	for _, tok := range tokens.Tokens() {
		if reserved[tok] {
			continue
		}
		if _, ok := index[tok]; ok {
			continue
		}
		suggestion, _ := fuzzy.Suggest(tok, reg.CommandNames())
		return nil, errors.NewUnknownCommand(tok, suggestion)
	}

	return &Resolution{
		Activations: reg.Activate(tokens),
		Tokens:      tokens.Tokens(),
	}, nil
}

// reservedSet merges CoreKeywords with extra words.
func reservedSet(extra []string) map[string]bool {
	set := make(map[string]bool, len(CoreKeywords)+len(extra))
	for _, k := range CoreKeywords {
		set[k] = true
	}
	for _, k := range extra {
		if k != "" {
			set[k] = true
		}
	}
	return set
}
