// Package main provides a CLI for checking CSV files against rule set files
// without running the server. It is useful in scripts and CI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/JonMunkholm/gridrules/internal/core"
	"github.com/JonMunkholm/gridrules/internal/ingest"
	"github.com/JonMunkholm/gridrules/internal/rulestore"
)

// Exit codes.
const (
	exitOK       = 0
	exitFindings = 1
	exitUsage    = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "check":
		fs := flag.NewFlagSet("check", flag.ContinueOnError)
		fs.SetOutput(stderr)
		data := fs.String("data", "", "CSV file to validate (or use stdin)")
		rules := fs.String("rules", "", "Rule set file (.json, .yaml or .yml)")
		noInfer := fs.Bool("text", false, "Keep every cell as text instead of inferring numbers")
		if err := fs.Parse(args[1:]); err != nil {
			return exitUsage
		}
		return handleCheck(*data, *rules, !*noInfer, stdout, stderr)

	case "lint":
		fs := flag.NewFlagSet("lint", flag.ContinueOnError)
		fs.SetOutput(stderr)
		rules := fs.String("rules", "", "Rule set file (.json, .yaml or .yml)")
		if err := fs.Parse(args[1:]); err != nil {
			return exitUsage
		}
		return handleLint(*rules, stdout, stderr)

	default:
		printUsage(stderr)
		return exitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "gridcheck - validate CSV files against rule sets")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  gridcheck check -rules rules.json [-data file.csv] [-text]")
	fmt.Fprintln(w, "  gridcheck lint -rules rules.yaml")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  gridcheck check -rules validation_rules.json -data clients.csv")
	fmt.Fprintln(w, "  cat clients.csv | gridcheck check -rules validation_rules.yaml")
}

// handleCheck prints every failing cell and exits 1 when any exist.
func handleCheck(dataPath, rulesPath string, inferNumbers bool, stdout, stderr io.Writer) int {
	if rulesPath == "" {
		fmt.Fprintln(stderr, "Error: -rules is required")
		return exitUsage
	}
	set, err := readRuleSet(rulesPath)
	if err != nil {
		printError(stderr, err)
		return exitUsage
	}

	var in io.Reader = os.Stdin
	if dataPath != "" {
		f, err := os.Open(dataPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading data: %v\n", err)
			return exitUsage
		}
		defer f.Close()
		in = f
	}

	ds, err := ingest.ReadCSV(in, ingest.Options{InferNumbers: inferNumbers})
	if err != nil {
		printError(stderr, err)
		return exitUsage
	}
	ds, err = core.RevalidateAll(ds, &set)
	if err != nil {
		printError(stderr, err)
		return exitUsage
	}

	nav := core.NewNavigator(ds)
	if nav.Len() == 0 {
		fmt.Fprintf(stdout, "✓ %d rows valid against %q\n", ds.Len(), set.Name)
		return exitOK
	}

	for _, i := range nav.Positions() {
		row, _ := ds.Row(i)
		errs := row.Errors()
		for _, col := range ds.Columns {
			if ce, ok := errs[col]; ok {
				// Row numbers match a spreadsheet: header is line 1.
				fmt.Fprintf(stdout, "✗ row %d [column: %s] %s\n", i+2, col, ce.Error)
			}
		}
	}
	fmt.Fprintf(stdout, "%d errors in %d of %d rows\n", ds.TotalErrors(), nav.Len(), ds.Len())
	return exitFindings
}

// printError writes err with its support code when it has one, followed
// by the technical detail.
func printError(w io.Writer, err error) {
	if !core.IsUserFacing(err) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error: %s\n  %v\n", core.FormatUserError(err), err)
}

// lintIssue is one finding about a rule set file.
type lintIssue struct {
	Severity string
	Column   string
	Message  string
}

// handleLint reports rules that would be rejected or never fire.
func handleLint(rulesPath string, stdout, stderr io.Writer) int {
	if rulesPath == "" {
		fmt.Fprintln(stderr, "Error: -rules is required")
		return exitUsage
	}

	set, err := readRuleSet(rulesPath)
	if err != nil {
		// Structural problems stop the lint here; the store would reject the file.
		fmt.Fprintf(stdout, "✗ error: %s\n", core.FormatUserError(err))
		fmt.Fprintf(stdout, "  %v\n", err)
		return exitFindings
	}

	issues := lintRuleSet(set)
	if len(issues) == 0 {
		fmt.Fprintln(stdout, "✓ No issues found")
		return exitOK
	}

	failed := false
	for _, issue := range issues {
		icon := "⚠"
		if issue.Severity == "error" {
			icon = "✗"
			failed = true
		}
		fmt.Fprintf(stdout, "%s %s [column: %s]: %s\n", icon, issue.Severity, issue.Column, issue.Message)
	}
	if failed {
		return exitFindings
	}
	return exitOK
}

func lintRuleSet(set core.RuleSet) []lintIssue {
	var issues []lintIssue
	for _, r := range set.Rules {
		switch c := r.Check.(type) {
		case core.Inert:
			msg := "rule has no type and never fails"
			if c.Type != "" {
				msg = fmt.Sprintf("unknown rule type %q never fails", c.Type)
			}
			issues = append(issues, lintIssue{"warning", r.Column, msg})
		case core.Pattern:
			if err := core.PatternError(c.Expr); err != nil {
				issues = append(issues, lintIssue{"error", r.Column, fmt.Sprintf("pattern does not compile: %v", err)})
			}
		case core.InList:
			if strings.TrimSpace(c.AllowedValues) == "" {
				issues = append(issues, lintIssue{"warning", r.Column, "allowed values list is empty, every value fails"})
			}
		case core.Range:
			if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
				issues = append(issues, lintIssue{"error", r.Column, "minimum is greater than maximum, every value fails"})
			}
		}
		if r.ErrorMessage == "" {
			issues = append(issues, lintIssue{"warning", r.Column, "rule has no error message"})
		}
	}
	slices.SortStableFunc(issues, func(a, b lintIssue) int {
		if a.Severity == b.Severity {
			return 0
		}
		if a.Severity == "error" {
			return -1
		}
		return 1
	})
	return issues
}

// readRuleSet decodes a rule set file by its extension. Bare rule arrays
// are named after the file. Unknown extensions are read as JSON.
func readRuleSet(path string) (core.RuleSet, error) {
	f, err := rulestore.ParseFormat(filepath.Ext(path))
	if err != nil {
		f = rulestore.FormatJSON
	}
	file, err := os.Open(path)
	if err != nil {
		return core.RuleSet{}, err
	}
	defer file.Close()

	base := filepath.Base(path)
	return rulestore.Decode(file, f, strings.TrimSuffix(base, filepath.Ext(base)))
}
