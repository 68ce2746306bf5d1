// Package run defines journal entries for compile and decode calls.
package run

import "fmt"

// Kind is the operation a run recorded.
type Kind string

const (
	KindCompile Kind = "compile"
	KindDecode  Kind = "decode"
)

// ParseKind validates a kind filter. Empty means all kinds.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "", KindCompile, KindDecode:
		return k, nil
	default:
		return "", fmt.Errorf("unknown run kind %q (want compile or decode)", s)
	}
}

// Run is one journaled compile or decode call.
type Run struct {
	// ID is a ULID
	ID   string
	Kind Kind

	// Lang is the target language of a compile run (empty for decode)
	Lang string

	// InputText is the AEC source for compile, the raw agent reply for decode
	InputText string

	// OutputText is the compiled prompt, or the decoded result as JSON.
	// Empty when the run failed.
	OutputText string

	// ActiveModules lists the activated namespaces of a compile run
	ActiveModules []string

	// CompileID links a decode run to the compile run it answers (nullable)
	CompileID *string

	// ErrorCode is set when the run failed (nullable)
	ErrorCode *string

	// OutputChars is the output length in runes
	OutputChars int

	// TokensEstimate is the estimated token count of the output
	TokensEstimate int

	// CreatedAt is the Unix timestamp when the run was recorded
	CreatedAt int64
}

// Summary is a run without its input and output text.
type Summary struct {
	ID             string   `json:"id"`
	Kind           Kind     `json:"kind"`
	Lang           string   `json:"lang,omitempty"`
	ActiveModules  []string `json:"active_modules,omitempty"`
	CompileID      *string  `json:"compile_id,omitempty"`
	ErrorCode      *string  `json:"error_code,omitempty"`
	OutputChars    int      `json:"output_chars"`
	TokensEstimate int      `json:"tokens_estimate"`
	CreatedAt      int64    `json:"created_at"`
}

// ToSummary strips the text fields.
func (r *Run) ToSummary() Summary {
	return Summary{
		ID:             r.ID,
		Kind:           r.Kind,
		Lang:           r.Lang,
		ActiveModules:  r.ActiveModules,
		CompileID:      r.CompileID,
		ErrorCode:      r.ErrorCode,
		OutputChars:    r.OutputChars,
		TokensEstimate: r.TokensEstimate,
		CreatedAt:      r.CreatedAt,
	}
}

// Failed reports whether the run recorded an error.
func (r *Run) Failed() bool {
	return r.ErrorCode != nil
}
