package core

import (
	"errors"
	"testing"
)

func TestUpdateCell(t *testing.T) {
	set := clientRules()
	base := Annotate(NewRow(map[string]any{
		"Age":          150.0,
		"client_email": "nope",
		"client_name":  "Ada",
		"notes":        "",
	}), set)

	tests := []struct {
		name      string
		column    string
		value     any
		wantCount int
		wantError bool
	}{
		{name: "fix age", column: "Age", value: 25.0, wantCount: 1, wantError: false},
		{name: "age still bad", column: "Age", value: "abc", wantCount: 2, wantError: true},
		{name: "break name", column: "client_name", value: "   ", wantCount: 3, wantError: true},
		{name: "unvalidated column", column: "notes", value: "anything", wantCount: 2, wantError: false},
		{name: "fix email", column: "client_email", value: "a@b.co", wantCount: 1, wantError: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UpdateCell(base, tt.column, tt.value, &set)
			if err != nil {
				t.Fatalf("UpdateCell: %v", err)
			}
			if v, _ := got.Value(tt.column); v != tt.value {
				t.Errorf("Value(%q) = %v, want %v", tt.column, v, tt.value)
			}
			if got.ErrorCount() != tt.wantCount {
				t.Errorf("ErrorCount() = %d, want %d", got.ErrorCount(), tt.wantCount)
			}
			if _, has := got.Error(tt.column); has != tt.wantError {
				t.Errorf("Error(%q) present = %v, want %v", tt.column, has, tt.wantError)
			}
			if base.ErrorCount() != 2 {
				t.Errorf("UpdateCell mutated the input row")
			}
		})
	}
}

func TestUpdateCell_EquivalentToFullAnnotate(t *testing.T) {
	set := clientRules()
	row := Annotate(NewRow(map[string]any{"Age": 30.0, "client_email": "a@b.co", "client_name": "Ada"}), set)

	edits := []struct {
		column string
		value  any
	}{
		{"Age", 5.0},
		{"client_email", "x"},
		{"client_name", ""},
		{"Age", "42"},
		{"client_email", "ok@ok.io"},
		{"client_name", "Bo"},
	}

	for _, e := range edits {
		var err error
		row, err = UpdateCell(row, e.column, e.value, &set)
		if err != nil {
			t.Fatalf("UpdateCell(%s): %v", e.column, err)
		}
		full := Annotate(row, set)
		if row.ErrorCount() != full.ErrorCount() {
			t.Fatalf("after %s=%v: incremental count %d, full %d", e.column, e.value, row.ErrorCount(), full.ErrorCount())
		}
		for col, want := range full.Errors() {
			if got, _ := row.Error(col); got != want {
				t.Errorf("after %s=%v: %q = %+v, want %+v", e.column, e.value, col, got, want)
			}
		}
	}
}

func TestUpdateCell_ContractErrors(t *testing.T) {
	set := clientRules()
	row := NewRow(map[string]any{"Age": 30.0})

	if _, err := UpdateCell(row, "Agee", 1.0, &set); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("unknown column error = %v, want ErrUnknownColumn", err)
	}
	if _, err := UpdateCell(row, "Age", 1.0, nil); !errors.Is(err, ErrNoActiveRuleSet) {
		t.Errorf("nil rule set error = %v, want ErrNoActiveRuleSet", err)
	}
}

func TestSetValue(t *testing.T) {
	set := clientRules()
	row := Annotate(NewRow(map[string]any{"Age": 5.0, "client_name": ""}), set)

	got, err := SetValue(row, "Age", 50.0)
	if err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if _, has := got.Error("Age"); has {
		t.Error("stale annotation for the edited column was kept")
	}
	if _, has := got.Error("client_name"); !has {
		t.Error("annotation for an untouched column was dropped")
	}
	if _, err := SetValue(row, "missing", 1); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("SetValue unknown column error = %v, want ErrUnknownColumn", err)
	}
}
