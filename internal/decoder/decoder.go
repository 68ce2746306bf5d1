// Package decoder extracts structured artifacts from an agent's tagged reply.
//
// The reply is untrusted free text. Decoding is best-effort: a tag that is
// missing or malformed leaves its field empty, and Decode never fails.
package decoder

import (
	"encoding/json"
	"regexp"
	"strings"
)

// CodeBlock is one <CODE lang="..."> segment.
type CodeBlock struct {
	Lang    string `json:"lang"`
	Content string `json:"content"`
}

// Result is the decoded form of one reply.
type Result struct {
	Thoughts []string    `json:"thoughts"`
	Code     []CodeBlock `json:"code,omitempty"`

	// Review is the last <REVIEW_RESULT> body that parsed as JSON.
	// ReviewRaw is the trimmed body of the last <REVIEW_RESULT> tag, parsed
	// or not. ReviewError is the parse error of the last body that failed.
	// A later tag never clears what an earlier one set.
	Review      any    `json:"review,omitempty"`
	ReviewRaw   string `json:"review_raw,omitempty"`
	ReviewError string `json:"review_error,omitempty"`

	Message  string `json:"message,omitempty"`
	Question string `json:"question,omitempty"`
	Error    string `json:"error,omitempty"`

	Raw string `json:"raw"`
}

// HasReview reports whether a <REVIEW_RESULT> tag was found, parsed or not.
func (r *Result) HasReview() bool {
	return r.Review != nil || r.ReviewRaw != "" || r.ReviewError != ""
}

var (
	thoughtRegex = regexp.MustCompile(`(?s)<THOUGHT>(.*?)</THOUGHT>`)
	codeRegex    = regexp.MustCompile(`(?s)<CODE\s+lang=["']([^"']+)["']>(.*?)</CODE>`)
	reviewRegex  = regexp.MustCompile(`(?s)<REVIEW_RESULT>(.*?)</REVIEW_RESULT>`)
	msgRegex     = regexp.MustCompile(`(?s)<MSG>(.*?)</MSG>`)
	askRegex     = regexp.MustCompile(`(?s)<ASK>(.*?)</ASK>`)
	errorRegex   = regexp.MustCompile(`(?s)<ERROR>(.*?)</ERROR>`)
)

// Decode parses raw.
//
// Reasoning segments are extracted and removed first, so tag-like text inside
// a <THOUGHT> block is never mistaken for output. The remaining tag types are
// then searched in what is left. When a single-valued tag repeats, the last
// occurrence wins.
func Decode(raw string) *Result {
	res := &Result{Thoughts: []string{}, Raw: raw}

	for _, m := range thoughtRegex.FindAllStringSubmatch(raw, -1) {
		res.Thoughts = append(res.Thoughts, strings.TrimSpace(m[1]))
	}
	rest := thoughtRegex.ReplaceAllLiteralString(raw, "")

	for _, m := range codeRegex.FindAllStringSubmatch(rest, -1) {
		res.Code = append(res.Code, CodeBlock{
			Lang:    m[1],
			Content: strings.TrimSpace(m[2]),
		})
	}

	for _, m := range reviewRegex.FindAllStringSubmatch(rest, -1) {
		body := strings.TrimSpace(m[1])
		res.ReviewRaw = body
		var v any
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			res.ReviewError = err.Error()
			continue
		}
		if v != nil {
			res.Review = v
		}
	}

	res.Message = last(msgRegex, rest)
	res.Question = last(askRegex, rest)
	res.Error = last(errorRegex, rest)

	return res
}

// last returns the trimmed body of the last match of re in s, or "".
func last(re *regexp.Regexp, s string) string {
	matches := re.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return ""
	}
	return strings.TrimSpace(matches[len(matches)-1][1])
}
