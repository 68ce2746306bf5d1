package compiler

import (
	"regexp"
	"strings"

	"github.com/hpungsan/aec/internal/plugin"
)

var headers = map[plugin.Lang]string{
	plugin.LangEN: "[ROLE]\nYou are the AEC Engine. Follow the instruction specs strictly.",
	plugin.LangZH: "[角色]\n你是一个AEC(AI执行代码)引擎。严格遵循以下已加载模块的指令规范。",
}

var inputMarkers = map[plugin.Lang][2]string{
	plugin.LangEN: {"[USER_INPUT_START]", "[USER_INPUT_END]"},
	plugin.LangZH: {"[用户输入开始]", "[用户输入结束]"},
}

func header(lang plugin.Lang) string {
	if h, ok := headers[lang]; ok {
		return h
	}
	return headers[plugin.DefaultLang]
}

func footer(lang plugin.Lang, source string) string {
	m, ok := inputMarkers[lang]
	if !ok {
		m = inputMarkers[plugin.DefaultLang]
	}
	return m[0] + "\n" + source + "\n" + m[1]
}

// section renders one active plugin. It returns "" when the plugin has
// nothing to say: no body, no constraints, and no referenced commands.
func section(a plugin.Activation, lang plugin.Lang) string {
	p := a.Plugin
	var parts []string

	if body := strings.TrimSpace(p.Body.Get(lang)); body != "" {
		parts = append(parts, body)
	}
	if block := moduleBlock(p, a.Commands, lang); block != "" {
		parts = append(parts, block)
	}

	return strings.Join(parts, "\n\n")
}

func moduleBlock(p *plugin.Plugin, cmds []*plugin.Command, lang plugin.Lang) string {
	constraints := p.Constraints.Get(lang)
	if len(constraints) == 0 && len(cmds) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("### Module: ")
	b.WriteString(p.Name)

	if len(constraints) > 0 {
		b.WriteString("\nConstraints:")
		for _, r := range constraints {
			b.WriteString("\n- ")
			b.WriteString(r)
		}
	}

	if len(cmds) > 0 {
		b.WriteString("\nCommands:")
		for _, c := range cmds {
			writeCommand(&b, c, lang)
		}
	}

	return b.String()
}

func writeCommand(b *strings.Builder, c *plugin.Command, lang plugin.Lang) {
	b.WriteString("\n\n- Command: ")
	b.WriteString(c.Signature())
	b.WriteString("\n  Desc: ")
	b.WriteString(c.Description.Get(lang))

	if rules := c.Rules.Get(lang); len(rules) > 0 {
		b.WriteString("\n  Rules:")
		for _, r := range rules {
			b.WriteString("\n    * ")
			b.WriteString(r)
		}
	}

	if len(c.Examples) > 0 {
		b.WriteString("\n  Example:")
		for _, ex := range c.Examples {
			b.WriteString("\n    [User]: ")
			b.WriteString(ex.Input)
			// Output goes on its own line, untouched, so indentation survives.
			b.WriteString("\n    [AI]:\n")
			b.WriteString(ex.Output)
		}
	}
}

var blankRunRegex = regexp.MustCompile(`\n{3,}`)

// Normalize collapses runs of three or more newlines to exactly two and trims
// the result. Normalize(Normalize(s)) == Normalize(s).
func Normalize(doc string) string {
	return strings.TrimSpace(blankRunRegex.ReplaceAllString(doc, "\n\n"))
}

// assemble joins header, sections, and footer into the final document.
func assemble(acts []plugin.Activation, lang plugin.Lang, source string) string {
	parts := []string{header(lang)}
	for _, a := range acts {
		if s := strings.TrimSpace(section(a, lang)); s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, footer(lang, source))
	return Normalize(strings.Join(parts, "\n\n"))
}
