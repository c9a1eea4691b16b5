package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "powertrack"

// layerRule lists what one package directory of a service may import.
// Service paths are relative to contexts/<context>/<service>; a trailing
// "/..." also matches every package below it. A nil thirdParty allows any
// non-module import, an empty one allows the standard library only.
type layerRule struct {
	dir        string
	service    []string
	module     []string
	thirdParty []string
	reason     string
}

var rules = []layerRule{
	{
		dir:        "domain/entities",
		thirdParty: []string{},
		reason:     "entities only depend on the standard library",
	},
	{
		dir:        "domain/errors",
		thirdParty: []string{},
		reason:     "domain errors only depend on the standard library",
	},
	{
		dir:        "domain/services",
		service:    []string{"domain/entities", "domain/errors"},
		thirdParty: []string{"github.com/shopspring/decimal"},
		reason:     "domain services are pure rules over entities",
	},
	{
		dir:        "ports",
		service:    []string{"domain/..."},
		module:     []string{"contracts/..."},
		thirdParty: []string{},
		reason:     "ports describe dependencies in domain terms",
	},
	{
		dir:        "application",
		thirdParty: []string{},
		reason:     "shared application helpers stay dependency free",
	},
	{
		dir:        "application/commands",
		service:    []string{"application", "domain/...", "ports"},
		thirdParty: []string{},
		reason:     "commands write through ports and never read through queries",
	},
	{
		dir:        "application/queries",
		service:    []string{"application", "domain/...", "ports"},
		thirdParty: []string{},
		reason:     "queries read through ports and never call the ledger writer",
	},
	{
		dir:        "application/workers",
		service:    []string{"application", "application/commands", "application/queries", "domain/...", "ports"},
		thirdParty: []string{},
		reason:     "workers orchestrate commands and queries",
	},
	{
		dir:        "adapters/http",
		service:    []string{"application", "application/commands", "application/queries", "domain/...", "transport/..."},
		thirdParty: []string{},
		reason:     "the http adapter maps use cases to transport types",
	},
	{
		dir:     "adapters/...",
		service: []string{"domain/...", "ports"},
		reason:  "storage adapters implement ports and never reach into use cases",
	},
	{
		dir:        "transport/...",
		thirdParty: []string{},
		reason:     "transport types are plain data",
	},
	{
		dir:     "",
		service: []string{"..."},
		reason:  "the module root wires every layer",
	},
}

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func main() {
	violations, err := collectViolations("contexts")
	if err != nil {
		fmt.Println("boundary check failed:", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// collectViolations checks every non-test Go file below root, which must
// be laid out as <context>/<service>/<package dirs>.
func collectViolations(root string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(root, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(file, ".go") || strings.HasSuffix(file, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}
		servicePrefix := path.Join(modulePath, "contexts", parts[0], parts[1])
		pkgDir := path.Join(parts[2 : len(parts)-1]...)

		found, err := checkFile(file, pkgDir, servicePrefix)
		if err != nil {
			return err
		}
		violations = append(violations, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})
	return violations, nil
}

func checkFile(file string, pkgDir string, servicePrefix string) ([]violation, error) {
	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	rule, ok := ruleFor(pkgDir)
	name := filepath.ToSlash(file)

	var violations []violation
	for _, imp := range parsed.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		line := fset.Position(imp.Pos()).Line
		if reason := checkImport(rule, ok, pkgDir, servicePrefix, importPath); reason != "" {
			violations = append(violations, violation{File: name, Line: line, Import: importPath, Rule: reason})
		}
	}
	return violations, nil
}

// checkImport returns the broken rule, or "" when the import is allowed.
func checkImport(rule layerRule, known bool, pkgDir string, servicePrefix string, importPath string) string {
	switch {
	case importPath == servicePrefix || strings.HasPrefix(importPath, servicePrefix+"/"):
		target := strings.TrimPrefix(strings.TrimPrefix(importPath, servicePrefix), "/")
		if target == pkgDir || (pkgDir != "" && strings.HasPrefix(target, pkgDir+"/")) {
			return ""
		}
		if !known {
			return "package directory has no layer rule"
		}
		if !matchAny(target, rule.service) {
			return rule.reason
		}
		return ""
	case strings.HasPrefix(importPath, modulePath+"/contexts/"):
		return "services must not import other services"
	case strings.HasPrefix(importPath, modulePath+"/"):
		if !known || !matchAny(strings.TrimPrefix(importPath, modulePath+"/"), rule.module) {
			return "services must not import process wiring or other module code"
		}
		return ""
	case isStdlib(importPath):
		return ""
	default:
		if known && rule.thirdParty != nil && !matchAny(importPath, rule.thirdParty) {
			return rule.reason
		}
		return ""
	}
}

// ruleFor picks the most specific rule for a package directory.
func ruleFor(pkgDir string) (layerRule, bool) {
	var (
		best  layerRule
		score = -1
	)
	for _, rule := range rules {
		if !matchPattern(pkgDir, rule.dir) {
			continue
		}
		specificity := len(strings.TrimSuffix(rule.dir, "/..."))
		if !strings.HasSuffix(rule.dir, "/...") {
			specificity++
		}
		if specificity > score {
			best, score = rule, specificity
		}
	}
	return best, score >= 0
}

func matchAny(target string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchPattern(target, pattern) {
			return true
		}
	}
	return false
}

func matchPattern(target string, pattern string) bool {
	if pattern == "..." {
		return true
	}
	if base, ok := strings.CutSuffix(pattern, "/..."); ok {
		return target == base || strings.HasPrefix(target, base+"/")
	}
	return target == pattern
}

func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".") && first != modulePath
}
