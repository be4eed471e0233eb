// Package llmjson decodes JSON replies from language models, which often wrap
// the payload in markdown code fences. Nothing beyond fence markers is removed.
package llmjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseError is returned when no JSON value could be recovered from a reply.
type ParseError struct {
	Raw     string
	Cleaned string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("JSON Parsing Error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decode parses raw into v, trying in order: the raw text, the first fenced
// code block and the fence-trimmed text. Otherwise it fails with *ParseError.
func Decode(raw string, v any) error {
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), v); err == nil {
		return nil
	}

	cleaned := Clean(raw)
	var lastErr error
	for _, candidate := range candidates(raw, cleaned) {
		if lastErr = json.Unmarshal([]byte(candidate), v); lastErr == nil {
			return nil
		}
	}
	return &ParseError{Raw: raw, Cleaned: cleaned, Err: lastErr}
}

// Clean strips surrounding whitespace and markdown fence markers from raw.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string ("json", "JSON", ...) on the opening fence line.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[\"") {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// candidates always ends with cleaned so the reported error refers to it.
func candidates(raw, cleaned string) []string {
	var out []string
	if block, ok := FencedBlock(raw); ok && block != cleaned {
		out = append(out, block)
	}
	return append(out, cleaned)
}

// FencedBlock returns the body of the first fenced code block in source.
func FencedBlock(source string) (string, bool) {
	src := []byte(source)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var (
		body  bytes.Buffer
		found bool
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(src))
		}
		found = true
		return ast.WalkStop, nil
	})
	if !found {
		return "", false
	}
	return strings.TrimSpace(body.String()), true
}
