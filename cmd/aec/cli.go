package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/hpungsan/aec/internal/config"
	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/mcp"
	"github.com/hpungsan/aec/internal/ops"
	"github.com/hpungsan/aec/internal/plugin"
	"github.com/hpungsan/aec/internal/watch"
	"github.com/hpungsan/aec/internal/web"
)

// maxInputBytes bounds source files and piped replies.
const maxInputBytes = 4 << 20

// env carries everything commands need.
type env struct {
	db     *sql.DB
	reg    *plugin.Registry
	cfg    *config.Config
	logger *zap.Logger
	closed bool
}

func (e *env) close() {
	if e == nil || e.closed {
		return
	}
	e.closed = true
	if e.db != nil {
		e.db.Close()
	}
	_ = e.logger.Sync()
}

// newCLIApp creates the CLI application with all commands.
// e may be nil for --help and --version.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "aec",
		Usage:   "Compile AEC programs into system prompts and decode agent replies",
		Version: Version,
		Commands: []*cli.Command{
			compileCmd(e),
			decodeCmd(e),
			pluginsCmd(e),
			historyCmd(e),
			showCmd(e),
			pruneCmd(e),
			uiCmd(e),
			serveCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// compileCmd creates the compile command.
func compileCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "Compile an AEC source into a system prompt (reads stdin when no file is given)",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "lang", Aliases: []string{"l"}, Usage: "Target language: en|zh (default: config lang)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "Output format: text|json|html"},
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Recompile whenever the file changes"},
			&cli.BoolFlag{Name: "no-record", Usage: "Do not journal this compile"},
		},
		Action: func(c *cli.Context) error {
			format := c.String("format")
			switch format {
			case "text", "json", "html":
			default:
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q (want text, json or html)", format)))
			}

			path := ""
			if c.NArg() > 0 && c.Args().First() != "-" {
				path = c.Args().First()
			}
			if c.Bool("watch") && path == "" {
				return outputError(errors.NewInvalidRequest("--watch requires a source file"))
			}

			run := func(ctx context.Context) error {
				source, err := readInput(c, path)
				if err != nil {
					return err
				}
				out, err := ops.Compile(ctx, e.db, e.reg, e.cfg, ops.CompileInput{
					Source:   source,
					Lang:     c.String("lang"),
					NoRecord: c.Bool("no-record"),
				})
				if err != nil {
					return err
				}
				return writeCompiled(c.App.Writer, format, out)
			}

			if !c.Bool("watch") {
				if err := run(c.Context); err != nil {
					return outputError(err)
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := run(ctx); err != nil {
				fmt.Fprintln(c.App.ErrWriter, formatError(err))
			}
			return watch.Watch(ctx, path, watch.DefaultDebounce, e.logger, func() {
				if err := run(ctx); err != nil {
					fmt.Fprintln(c.App.ErrWriter, formatError(err))
				}
			})
		},
	}
}

// decodeCmd creates the decode command.
func decodeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode an agent reply (reads stdin when no file is given)",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "compile-id", Usage: "Run ID of the compile this reply answers"},
			&cli.StringFlag{Name: "out-dir", Aliases: []string{"o"}, Usage: "Write code blocks to artifact_<n>.<ext> files in this directory"},
			&cli.BoolFlag{Name: "no-record", Usage: "Do not journal this decode"},
		},
		Action: func(c *cli.Context) error {
			path := ""
			if c.NArg() > 0 && c.Args().First() != "-" {
				path = c.Args().First()
			}
			text, err := readInput(c, path)
			if err != nil {
				return outputError(err)
			}

			input := ops.DecodeInput{Text: text, NoRecord: c.Bool("no-record")}
			if id := c.String("compile-id"); id != "" {
				input.CompileID = &id
			}

			out, err := ops.Decode(c.Context, e.db, e.cfg, input)
			if err != nil {
				return outputError(err)
			}

			result := decodeResult{DecodeOutput: out}
			if dir := c.String("out-dir"); dir != "" {
				artifacts, err := ops.WriteArtifacts(out.Result, dir)
				if err != nil {
					return outputError(err)
				}
				result.Artifacts = artifacts
			}

			return outputJSON(c.App.Writer, result)
		},
	}
}

// decodeResult is the decode command's output.
type decodeResult struct {
	*ops.DecodeOutput
	Artifacts *ops.WriteArtifactsOutput `json:"artifacts,omitempty"`
}

// pluginsCmd creates the plugins command.
func pluginsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "plugins",
		Usage: "List loaded plugins, keywords and commands",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "lang", Aliases: []string{"l"}, Usage: "Language for descriptions: en|zh"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Plugins(e.reg, ops.PluginsInput{Lang: c.String("lang")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List journaled runs, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Filter by kind: compile|decode"},
			&cli.IntFlag{Name: "limit", Value: ops.DefaultHistoryLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Usage: "Number of runs to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.History(c.Context, e.db, ops.HistoryInput{
				Kind:   c.String("kind"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// showCmd creates the show command.
func showCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one journaled run",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("run ID is required"))
			}
			output, err := ops.Show(c.Context, e.db, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// pruneCmd creates the prune command.
func pruneCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Permanently delete old runs from the journal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Required: true, Usage: "Delete runs older than N days (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			days, err := parseDuration(c.String("older-than"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			output, err := ops.Prune(c.Context, e.db, ops.PruneInput{OlderThanDays: days})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// uiCmd creates the ui command.
func uiCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Serve the local preview UI",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port (default: config ui_port)"},
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
		},
		Action: func(c *cli.Context) error {
			port := e.cfg.UIPort
			if c.IsSet("port") {
				port = c.Int("port")
			}
			if port <= 0 {
				port = config.DefaultUIPort
			}

			srv, err := web.NewServer(e.db, e.reg, e.cfg, e.logger, Version, c.String("bind"), port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return web.Run(ctx, srv, e.logger)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(e.db, e.reg, e.cfg, e.logger, Version)
		},
	}
}

// Helper functions

// writeCompiled prints a compile result in the requested format.
func writeCompiled(w io.Writer, format string, out *ops.CompileOutput) error {
	switch format {
	case "json":
		return outputJSON(w, out)
	case "html":
		page, err := renderHTML(out.Prompt)
		if err != nil {
			return errors.NewInternal(err)
		}
		_, err = io.WriteString(w, page)
		return err
	default:
		_, err := fmt.Fprintln(w, out.Prompt)
		return err
	}
}

// renderHTML wraps the prompt, rendered as Markdown, in a standalone page.
func renderHTML(prompt string) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(prompt), &body); err != nil {
		return "", err
	}
	return "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>AEC prompt</title></head>\n<body>\n" +
		body.String() + "</body>\n</html>\n", nil
}

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatError renders err as "[CODE] message".
func formatError(err error) string {
	var aErr *errors.AecError
	if stderrors.As(err, &aErr) {
		return fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message)
	}
	return err.Error()
}

// outputError formats error for CLI.
func outputError(err error) error {
	return cli.Exit(formatError(err), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readInput reads path, or the app's reader when path is empty.
func readInput(c *cli.Context, path string) (string, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", errors.NewNotFound("file", path)
			}
			return "", errors.NewInternal(err)
		}
		defer f.Close()
		return readLimited(f, maxInputBytes)
	}

	if c.App.Reader == os.Stdin && !stdinHasData() {
		return "", errors.NewInvalidRequest("no input: pass a file or pipe text via stdin")
	}
	return readLimited(c.App.Reader, maxInputBytes)
}

// readLimited reads all of r, failing if it exceeds limit bytes.
func readLimited(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("input exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
