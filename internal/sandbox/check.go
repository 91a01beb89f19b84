// Package sandbox executes candidate parser source in an in-process
// interpreter with an import whitelist, a panic barrier, and timeout
// enforcement. This file contains AST-based pre-execution validation.
package sandbox

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"
)

// CheckResult contains pre-execution validation results for one candidate.
type CheckResult struct {
	Valid      bool
	ParseError error
	Problems   []string
	Package    string
	Imports    []string
	Functions  []string
	HasEntry   bool
}

// CheckSource parses a candidate and verifies the execution contract before
// any interpretation happens: a syntactically valid package main, a
// ParseStatement entry with the expected signature, and imports restricted
// to the allowed set. Problems are phrased for the refinement prompt.
func CheckSource(code string, allowed map[string]bool) *CheckResult {
	result := &CheckResult{
		Valid:     true,
		Problems:  []string{},
		Imports:   []string{},
		Functions: []string{},
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "candidate.go", code, parser.ParseComments)
	if err != nil {
		result.Valid = false
		result.ParseError = err
		return result
	}

	if file.Name == nil {
		result.Valid = false
		result.Problems = append(result.Problems, "missing package declaration")
		return result
	}
	result.Package = file.Name.Name
	if result.Package != "main" {
		result.Valid = false
		result.Problems = append(result.Problems,
			fmt.Sprintf("package must be main, got %q", result.Package))
	}

	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		result.Imports = append(result.Imports, importPath)
		if !allowed[importPath] {
			result.Valid = false
			result.Problems = append(result.Problems,
				fmt.Sprintf("forbidden import %q (allowed: %s)", importPath, strings.Join(sortedKeys(allowed), ", ")))
		}
	}

	entryMismatch := false
	ast.Inspect(file, func(n ast.Node) bool {
		fn, ok := n.(*ast.FuncDecl)
		if !ok {
			return true
		}
		result.Functions = append(result.Functions, fn.Name.Name)
		if fn.Name.Name == EntryFunc && fn.Recv == nil {
			if entrySignatureOK(fn) {
				result.HasEntry = true
			} else {
				entryMismatch = true
			}
		}
		return true
	})

	if len(result.Functions) == 0 {
		result.Valid = false
		result.Problems = append(result.Problems, "no functions defined")
		return result
	}

	if !result.HasEntry {
		result.Valid = false
		if entryMismatch {
			result.Problems = append(result.Problems,
				fmt.Sprintf("%s has incorrect signature (expected: func(input string) (string, error))", EntryFunc))
		} else {
			result.Problems = append(result.Problems,
				fmt.Sprintf("missing func %s(input string) (string, error)", EntryFunc))
		}
	}

	return result
}

// entrySignatureOK verifies func(string) (string, error).
func entrySignatureOK(fn *ast.FuncDecl) bool {
	params := fn.Type.Params
	if params == nil || len(params.List) != 1 {
		return false
	}
	param := params.List[0]
	if len(param.Names) > 1 {
		return false
	}
	if ident, ok := param.Type.(*ast.Ident); !ok || ident.Name != "string" {
		return false
	}

	results := fn.Type.Results
	if results == nil || len(results.List) != 2 {
		return false
	}
	first, ok := results.List[0].Type.(*ast.Ident)
	if !ok || first.Name != "string" {
		return false
	}
	second, ok := results.List[1].Type.(*ast.Ident)
	if !ok || second.Name != "error" {
		return false
	}
	return true
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
