package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const demoRules = `{
  "name": "Clients",
  "rules": [
    {"column": "Age", "type": "range", "minValue": 18, "maxValue": 100, "errorMessage": "Age must be between 18 and 100"},
    {"column": "client_name", "type": "required", "errorMessage": "Client name is required"}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(nil, &out, &errOut); code != exitUsage {
		t.Errorf("exit = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(errOut.String(), "Usage:") {
		t.Errorf("usage not printed: %q", errOut.String())
	}
	if code := run([]string{"check"}, &out, &errOut); code != exitUsage {
		t.Errorf("check without -rules exit = %d", code)
	}
}

func TestCheck(t *testing.T) {
	rules := writeFile(t, "rules.json", demoRules)

	t.Run("valid", func(t *testing.T) {
		data := writeFile(t, "ok.csv", "client_name,Age\nAda,36\n")
		var out, errOut bytes.Buffer
		code := run([]string{"check", "-rules", rules, "-data", data}, &out, &errOut)
		if code != exitOK {
			t.Fatalf("exit = %d, stderr = %s", code, errOut.String())
		}
		if !strings.Contains(out.String(), `1 rows valid against "Clients"`) {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("errors", func(t *testing.T) {
		data := writeFile(t, "bad.csv", "client_name,Age\nAda,36\n,17\n")
		var out, errOut bytes.Buffer
		code := run([]string{"check", "-rules", rules, "-data", data}, &out, &errOut)
		if code != exitFindings {
			t.Fatalf("exit = %d, stderr = %s", code, errOut.String())
		}
		got := out.String()
		for _, want := range []string{
			"✗ row 3 [column: client_name] Client name is required",
			"✗ row 3 [column: Age] Age must be between 18 and 100",
			"2 errors in 1 of 2 rows",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q:\n%s", want, got)
			}
		}
	})

	t.Run("text mode", func(t *testing.T) {
		// Range checks convert numeric text, so the result matches inference.
		data := writeFile(t, "ok.csv", "client_name,Age\nAda, 36 \n")
		var out, errOut bytes.Buffer
		if code := run([]string{"check", "-rules", rules, "-data", data, "-text"}, &out, &errOut); code != exitOK {
			t.Errorf("exit = %d, want %d\n%s", code, exitOK, out.String())
		}
	})

	t.Run("bad csv", func(t *testing.T) {
		data := writeFile(t, "empty.csv", "")
		var out, errOut bytes.Buffer
		if code := run([]string{"check", "-rules", rules, "-data", data}, &out, &errOut); code != exitUsage {
			t.Errorf("exit = %d, want %d", code, exitUsage)
		}
		for _, want := range []string{"(Code: DATA005)", "empty file"} {
			if !strings.Contains(errOut.String(), want) {
				t.Errorf("stderr missing %q: %q", want, errOut.String())
			}
		}
	})
}

func TestLint(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCode int
		wantOut  []string
	}{
		{
			name:     "clean",
			file:     "rules.json",
			content:  demoRules,
			wantCode: exitOK,
			wantOut:  []string{"No issues found"},
		},
		{
			name: "warnings only",
			file: "rules.yaml",
			content: `name: Tasks
rules:
  - column: task_id
    type: checksum
    errorMessage: bad
  - column: status
    type: required
`,
			wantCode: exitOK,
			wantOut: []string{
				`⚠ warning [column: task_id]: unknown rule type "checksum" never fails`,
				"⚠ warning [column: status]: rule has no error message",
			},
		},
		{
			name:     "bad pattern",
			file:     "codes.json",
			content:  `[{"column": "code", "type": "pattern", "pattern": "(unclosed", "errorMessage": "bad code"}]`,
			wantCode: exitFindings,
			wantOut:  []string{"✗ error [column: code]: pattern does not compile"},
		},
		{
			name: "duplicate columns",
			file: "dup.json",
			content: `[{"column": "a", "type": "required", "errorMessage": "x"},
			           {"column": "a", "type": "email", "errorMessage": "y"}]`,
			wantCode: exitFindings,
			wantOut:  []string{"✗ error:", "(Code: RULE003)", "duplicate rule column"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			var out, errOut bytes.Buffer
			code := run([]string{"lint", "-rules", path}, &out, &errOut)
			if code != tt.wantCode {
				t.Errorf("exit = %d, want %d\n%s", code, tt.wantCode, out.String())
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}
