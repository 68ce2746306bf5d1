package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/aec/internal/compiler"
	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/plugin"
)

func names(plugins []*plugin.Plugin) []string {
	out := make([]string, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, p.Name)
	}
	return out
}

func TestBuiltin(t *testing.T) {
	plugins, err := Builtin()
	require.NoError(t, err)
	require.Equal(t, []string{
		"__KERNEL__",
		"STD_BASE",
		"SYS_CODE",
		"aec-kit-python-expert",
		"aec-kit-node-expert",
		"aec-kit-plugin-dev",
	}, names(plugins))

	require.Equal(t, plugin.CategoryKernel, plugins[0].Category)
	require.Equal(t, []string{"THINK", "REPORT", "ASK"}, plugins[1].Keywords)

	for _, p := range plugins {
		require.NotEmpty(t, p.Version, p.Name)
		require.NotEmpty(t, p.Description, p.Name)
	}

	_, err = plugin.NewRegistry(plugins...)
	require.NoError(t, err)
}

func TestBuiltin_ReturnsCopy(t *testing.T) {
	a, err := Builtin()
	require.NoError(t, err)
	a[0] = nil

	b, err := Builtin()
	require.NoError(t, err)
	require.NotNil(t, b[0])
}

func TestBuiltin_EveryCommandCompiles(t *testing.T) {
	reg, err := Registry(nil, nil)
	require.NoError(t, err)

	for _, lang := range plugin.SupportedLangs {
		c := compiler.New(reg, compiler.Options{Lang: lang})
		for _, p := range reg.Plugins() {
			for _, cmd := range p.Commands {
				got, err := c.Compile("RUN " + cmd.Name + "()")
				require.NoError(t, err, cmd.Name)
				require.Contains(t, got.ActiveModules, p.Name)
				require.Contains(t, got.Prompt, "- Command: "+cmd.Signature())
				for _, ex := range cmd.Examples {
					require.Contains(t, got.Prompt, "[AI]:\n"+ex.Output, "%s example output must be verbatim", cmd.Name)
				}
			}
		}
	}
}

func TestBuiltin_ChineseVariants(t *testing.T) {
	reg, err := Registry(nil, nil)
	require.NoError(t, err)

	got, err := compiler.New(reg, compiler.Options{Lang: plugin.LangZH}).Compile("RUN THINK('x')\nRUN GEN_NODE('y')")
	require.NoError(t, err)
	require.Contains(t, got.Prompt, "[全局约束]")
	require.Contains(t, got.Prompt, "[模块: STD_BASE]")
	require.Contains(t, got.Prompt, "生成高性能、工业级的 Node.js 后端代码")
	require.Equal(t, []string{"__KERNEL__", "STD_BASE", "aec-kit-node-expert"}, got.ActiveModules)
}

func TestParse(t *testing.T) {
	t.Run("single document", func(t *testing.T) {
		plugins, err := Parse([]byte(`
name: ROLE_REVIEWER
body:
  en: Be strict.
`))
		require.NoError(t, err)
		require.Len(t, plugins, 1)
		require.Equal(t, plugin.CategoryRole, plugins[0].Category)
		require.Equal(t, "Be strict.", plugins[0].Body.Get(plugin.LangZH))
	})

	t.Run("sequence", func(t *testing.T) {
		plugins, err := Parse([]byte(`
- name: A_KIT
  commands:
    - name: DO_A
      params: [x, y]
      description: {en: Do A., zh: 做 A。}
      rules: {en: [r1]}
      examples:
        - input: RUN DO_A(1, 2)
          output: "<MSG>ok</MSG>"
- name: B_KIT
  keywords: [USE_B]
`))
		require.NoError(t, err)
		require.Len(t, plugins, 2)

		a := plugins[0]
		require.Equal(t, plugin.CategoryKit, a.Category)
		require.Len(t, a.Commands, 1)
		require.Equal(t, "DO_A(x, y)", a.Commands[0].Signature())
		require.Equal(t, "做 A。", a.Commands[0].Description.Get(plugin.LangZH))
		require.Equal(t, []string{"r1"}, a.Commands[0].Rules.Get(plugin.LangZH))
		require.Equal(t, "<MSG>ok</MSG>", a.Commands[0].Examples[0].Output)

		require.Equal(t, plugin.CategoryKit, plugins[1].Category)
	})

	t.Run("empty", func(t *testing.T) {
		plugins, err := Parse(nil)
		require.NoError(t, err)
		require.Empty(t, plugins)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			yaml string
		}{
			{"missing name", "category: kit\n"},
			{"unknown language", "name: X\nbody:\n  fr: bonjour\n"},
			{"unknown category", "name: X\ncategory: widget\n"},
			{"scalar document", "just a string\n"},
			{"broken yaml", "name: [unclosed\n"},
		}
		for _, tt := range tests {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err, tt.name)
		}
	})
}

func writePlugin(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o600))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "b.yaml", "name: B_KIT\nkeywords: [USE_B]\n")
	writePlugin(t, dir, "a.yml", "name: A_KIT\nkeywords: [USE_A]\n")
	writePlugin(t, dir, "notes.txt", "not a plugin")

	plugins, err := LoadDir(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"A_KIT", "B_KIT"}, names(plugins))
}

func TestLoadDir_Errors(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.True(t, errors.Is(err, errors.ErrNotFound))

	dir := t.TempDir()
	writePlugin(t, dir, "bad.yaml", "name: X\ncategory: widget\n")
	_, err = LoadDir(dir)
	require.True(t, errors.Is(err, errors.ErrInvalidPlugin))

	file := filepath.Join(t.TempDir(), "file.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: X\n"), 0o600))
	_, err = LoadDir(file)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestAvailable_UserPluginOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "sys.yaml", `
name: SYS_CODE
category: kit
commands:
  - name: GEN_CODE
    description: {en: Custom generator.}
`)
	writePlugin(t, dir, "extra.yaml", "name: EXTRA_KIT\nkeywords: [EXTRA]\n")

	all, err := Available([]string{dir})
	require.NoError(t, err)
	require.Equal(t, "SYS_CODE", all[2].Name)
	require.Len(t, all[2].Commands, 1)
	require.Equal(t, "EXTRA_KIT", all[len(all)-1].Name)

	// The embedded catalog is untouched.
	builtin, err := Builtin()
	require.NoError(t, err)
	require.Len(t, builtin[2].Commands, 3)
}

func TestSelect(t *testing.T) {
	all, err := Builtin()
	require.NoError(t, err)

	t.Run("empty selects all", func(t *testing.T) {
		got, err := Select(all, nil)
		require.NoError(t, err)
		require.Len(t, got, len(all))
	})

	t.Run("kernel always included, order follows names", func(t *testing.T) {
		got, err := Select(all, []string{"aec-kit-plugin-dev", "STD_BASE"})
		require.NoError(t, err)
		require.Equal(t, []string{"__KERNEL__", "aec-kit-plugin-dev", "STD_BASE"}, names(got))
	})

	t.Run("duplicates ignored", func(t *testing.T) {
		got, err := Select(all, []string{"STD_BASE", "STD_BASE", KernelName})
		require.NoError(t, err)
		require.Equal(t, []string{"__KERNEL__", "STD_BASE"}, names(got))
	})

	t.Run("unknown name suggests", func(t *testing.T) {
		_, err := Select(all, []string{"aec-kit-python-expret"})
		require.True(t, errors.Is(err, errors.ErrNotFound))
		require.True(t, strings.Contains(err.Error(), "Did you mean 'aec-kit-python-expert'?"), err.Error())
	})
}

func TestRegistry_WithSelection(t *testing.T) {
	reg, err := Registry([]string{"STD_BASE"}, nil)
	require.NoError(t, err)

	_, err = compiler.New(reg, compiler.Options{}).Compile("RUN GEN_PY('x')")
	require.True(t, errors.Is(err, errors.ErrUnknownCommand))
}
