// Package sandbox executes candidate parser source in an in-process
// interpreter with an import whitelist, a panic barrier, and timeout
// enforcement. This file contains response sanitization: model output
// rarely arrives as bare Go source.
package sandbox

import (
	"regexp"
	"strings"
)

var packageClauseRe = regexp.MustCompile(`(?m)^[ \t]*package[ \t]+[A-Za-z_][A-Za-z0-9_]*`)

// ExtractCode extracts a Go code block from a markdown-style response.
// When no fenced block is present the whole text is assumed to be raw code.
func ExtractCode(text string) string {
	patterns := []string{
		"```go\n",
		"```go\r\n",
		"```\n",
	}

	for _, pattern := range patterns {
		if idx := strings.Index(text, pattern); idx != -1 {
			start := idx + len(pattern)
			end := strings.Index(text[start:], "```")
			if end != -1 {
				return strings.TrimSpace(text[start : start+end])
			}
		}
	}

	return strings.TrimSpace(text)
}

// EnsureMainPackage rewrites or prepends the package clause so the candidate
// evaluates as package main. The entry symbol is resolved as main.ParseStatement,
// so any other package name would make an otherwise correct candidate unusable.
func EnsureMainPackage(code string) string {
	if loc := packageClauseRe.FindStringIndex(code); loc != nil {
		return code[:loc[0]] + "package main" + code[loc[1]:]
	}
	return "package main\n\n" + code
}

// Sanitize runs the full cleanup chain on a raw model response.
func Sanitize(response string) string {
	return EnsureMainPackage(ExtractCode(response))
}
