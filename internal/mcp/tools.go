package mcp

import "github.com/mark3labs/mcp-go/mcp"

var compileToolDef = mcp.NewTool("aec_compile",
	mcp.WithDescription(
		"Compile an AEC source program into a system prompt. Only the modules and commands "+
			"the source references are included. Fails with UNKNOWN_COMMAND (and a suggestion) "+
			"when the source uses a name no module provides.",
	),
	mcp.WithString("source",
		mcp.Required(),
		mcp.Description("AEC source text"),
	),
	mcp.WithString("lang",
		mcp.Description("Target language: en or zh (default: config lang)"),
	),
	mcp.WithBoolean("no_record",
		mcp.Description("Do not journal this compile"),
	),
)

var decodeToolDef = mcp.NewTool("aec_decode",
	mcp.WithDescription(
		"Decode an agent reply written in the AEC output protocol into thoughts, code blocks, "+
			"review result, message, question and error.",
	),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Raw agent reply"),
	),
	mcp.WithString("compile_id",
		mcp.Description("Run ID of the compile this reply answers"),
	),
	mcp.WithBoolean("no_record",
		mcp.Description("Do not journal this decode"),
	),
)

var pluginsToolDef = mcp.NewTool("aec_plugins",
	mcp.WithDescription("List the loaded plugins with their keywords and command signatures."),
	mcp.WithString("lang",
		mcp.Description("Language for command descriptions: en or zh (default: en)"),
	),
)

var historyToolDef = mcp.NewTool("aec_history",
	mcp.WithDescription("List journaled compile and decode runs, newest first."),
	mcp.WithString("kind",
		mcp.Description("Filter by kind: compile or decode"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Max results (default: 20, max: 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Number of runs to skip"),
	),
)

var showToolDef = mcp.NewTool("aec_show",
	mcp.WithDescription("Show one journaled run with its full input and output."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Run ID"),
	),
)
