package core

import (
	"testing"
)

func ptrFloat(f float64) *float64 { return &f }
func ptrInt(i int) *int           { return &i }

func TestChecks(t *testing.T) {
	tests := []struct {
		name  string
		check Check
		value any
		want  bool
	}{
		// required
		{"required string", Required{}, "Ada", true},
		{"required empty", Required{}, "", false},
		{"required whitespace", Required{}, "   ", false},
		{"required nil", Required{}, nil, false},
		{"required zero", Required{}, 0.0, true},
		{"required false", Required{}, false, true},

		// range
		{"range inside", Range{Min: ptrFloat(18), Max: ptrFloat(100)}, 25.0, true},
		{"range lower bound inclusive", Range{Min: ptrFloat(18), Max: ptrFloat(100)}, 18.0, true},
		{"range upper bound inclusive", Range{Min: ptrFloat(18), Max: ptrFloat(100)}, "100", true},
		{"range below", Range{Min: ptrFloat(18), Max: ptrFloat(100)}, 17.0, false},
		{"range above", Range{Min: ptrFloat(18), Max: ptrFloat(100)}, 150.0, false},
		{"range not numeric", Range{Min: ptrFloat(18)}, "abc", false},
		{"range empty string", Range{Min: ptrFloat(18)}, "", false},
		{"range nil", Range{}, nil, false},
		{"range unbounded", Range{}, -1e9, true},
		{"range only max", Range{Max: ptrFloat(5)}, 6, false},

		// email
		{"email valid", Email{}, "a@b.co", true},
		{"email no tld", Email{}, "a@b", false},
		{"email spaces", Email{}, "a b@c.de", false},
		{"email two ats", Email{}, "a@b@c.de", false},
		{"email number", Email{}, 12.0, false},

		// lengths
		{"minLength ok", MinLength{Min: 3}, "abc", true},
		{"minLength short", MinLength{Min: 3}, "ab", false},
		{"minLength counts runes", MinLength{Min: 3}, "héé", true},
		{"minLength non-string", MinLength{Min: 1}, 12345.0, false},
		{"maxLength ok", MaxLength{Max: ptrInt(3)}, "abc", true},
		{"maxLength long", MaxLength{Max: ptrInt(3)}, "abcd", false},
		{"maxLength unbounded", MaxLength{}, "abcdefgh", true},
		{"maxLength non-string", MaxLength{Max: ptrInt(3)}, nil, false},

		// pattern
		{"pattern match", Pattern{Expr: `^[A-Z]{2}\d+$`}, "AB12", true},
		{"pattern no match", Pattern{Expr: `^[A-Z]{2}\d+$`}, "ab12", false},
		{"pattern on number text", Pattern{Expr: `^\d+$`}, 42.0, true},
		{"pattern invalid passes", Pattern{Expr: "(unclosed"}, "anything", true},

		// inList
		{"inList member", InList{AllowedValues: "ham, spam"}, "spam", true},
		{"inList member untrimmed list", InList{AllowedValues: "ham,spam"}, "ham", true},
		{"inList non member", InList{AllowedValues: "ham,spam"}, "eggs", false},
		{"inList case sensitive", InList{AllowedValues: "ham,spam"}, "Ham", false},
		{"inList numeric text", InList{AllowedValues: "1,2,3"}, 2.0, true},

		// affixes
		{"startsWith ok", StartsWith{Target: "CL-"}, "CL-001", true},
		{"startsWith missing", StartsWith{Target: "CL-"}, "WK-001", false},
		{"endsWith ok", EndsWith{Target: ".com"}, "x@y.com", true},
		{"endsWith missing", EndsWith{Target: ".com"}, "x@y.org", false},

		// number
		{"number string", Number{}, "12.5", true},
		{"number float", Number{}, 3.0, true},
		{"number word", Number{}, "abc", false},
		{"number empty", Number{}, "", true},
		{"number nil", Number{}, nil, true},
		{"number bool", Number{}, true, true},

		// text
		{"text letters", Text{}, "Hello world", true},
		{"text with digit", Text{}, "Room 5", false},
		{"text number value", Text{}, 5.0, false},
		{"text empty", Text{}, "", true},

		// inert
		{"inert unknown type", Inert{Type: "date"}, "x", true},
		{"inert empty type", Inert{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check.passes(tt.value); got != tt.want {
				t.Errorf("%T.passes(%v) = %v, want %v", tt.check, tt.value, got, tt.want)
			}
		})
	}
}

func TestKindKnown(t *testing.T) {
	for _, k := range Kinds {
		if !k.Known() {
			t.Errorf("Kind %q should be known", k)
		}
	}
	for _, k := range []Kind{"", "date", "Required"} {
		if k.Known() {
			t.Errorf("Kind %q should not be known", k)
		}
	}
}

func TestSplitAllowed(t *testing.T) {
	got := SplitAllowed(" ham , spam,eggs ")
	want := []string{"ham", "spam", "eggs"}
	if len(got) != len(want) {
		t.Fatalf("SplitAllowed len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SplitAllowed[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
