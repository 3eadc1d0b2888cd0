package core

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func sampleRuleSet() RuleSet {
	return RuleSet{
		Name: "Clients",
		Rules: []Rule{
			{Column: "Age", Check: Range{Min: ptrFloat(18), Max: ptrFloat(100)}, ErrorMessage: "Age must be 18-100", ErrorColor: "#ff0000"},
			{Column: "client_email", Check: Email{}, ErrorMessage: "Invalid email", ErrorColor: "#ff9900"},
			{Column: "client_name", Check: Required{}, ErrorMessage: "Name is required", ErrorColor: "#ff0000"},
			{Column: "code", Check: Pattern{Expr: `^[A-Z]{3}$`}, ErrorMessage: "Bad code"},
			{Column: "tier", Check: InList{AllowedValues: "gold,silver"}, ErrorMessage: "Unknown tier"},
			{Column: "nick", Check: MaxLength{Max: ptrInt(8)}, ErrorMessage: "Too long"},
			{Column: "bio", Check: MinLength{Min: 0}, ErrorMessage: "Too short"},
			{Column: "legacy", Check: Inert{Type: "date"}, ErrorMessage: "ignored"},
		},
	}
}

func TestRuleJSONRoundTrip(t *testing.T) {
	set := sampleRuleSet()

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got RuleSet
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !reflect.DeepEqual(got, set) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, set)
	}
}

func TestRuleYAMLRoundTrip(t *testing.T) {
	set := sampleRuleSet()

	data, err := yaml.Marshal(set)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got RuleSet
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !reflect.DeepEqual(got, set) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, set)
	}
}

func TestRuleMarshalJSON_OnlyRelevantParams(t *testing.T) {
	r := Rule{Column: "Age", Check: Range{Min: ptrFloat(18)}, ErrorMessage: "too young"}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if flat["type"] != "range" {
		t.Errorf("type = %v, want range", flat["type"])
	}
	if flat["minValue"] != 18.0 {
		t.Errorf("minValue = %v, want 18", flat["minValue"])
	}
	for _, absent := range []string{"maxValue", "pattern", "allowedValues", "targetValue", "minLength", "maxLength"} {
		if _, ok := flat[absent]; ok {
			t.Errorf("unexpected key %q in %s", absent, data)
		}
	}
}

func TestRuleUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Rule
		wantErr error
	}{
		{
			name:  "numeric strings from a form",
			input: `{"column":"Age","type":"range","minValue":"18","maxValue":" 100 ","errorMessage":"m","errorColor":"#f00"}`,
			want:  Rule{Column: "Age", Check: Range{Min: ptrFloat(18), Max: ptrFloat(100)}, ErrorMessage: "m", ErrorColor: "#f00"},
		},
		{
			name:  "empty string bound is unbounded",
			input: `{"column":"Age","type":"range","minValue":"","maxValue":100,"errorMessage":"m"}`,
			want:  Rule{Column: "Age", Check: Range{Max: ptrFloat(100)}, ErrorMessage: "m"},
		},
		{
			name:  "irrelevant params dropped",
			input: `{"column":"e","type":"email","pattern":"x","minValue":3,"errorMessage":"m"}`,
			want:  Rule{Column: "e", Check: Email{}, ErrorMessage: "m"},
		},
		{
			name:  "unknown type is inert",
			input: `{"column":"d","type":"date","errorMessage":"m"}`,
			want:  Rule{Column: "d", Check: Inert{Type: "date"}, ErrorMessage: "m"},
		},
		{
			name:  "missing type is inert",
			input: `{"column":"d","errorMessage":"m"}`,
			want:  Rule{Column: "d", Check: Inert{}, ErrorMessage: "m"},
		},
		{
			name:  "maxLength as string",
			input: `{"column":"n","type":"maxLength","maxLength":"5","errorMessage":"m"}`,
			want:  Rule{Column: "n", Check: MaxLength{Max: ptrInt(5)}, ErrorMessage: "m"},
		},
		{
			name:    "non-numeric bound",
			input:   `{"column":"Age","type":"range","minValue":"abc","errorMessage":"m"}`,
			wantErr: ErrInvalidRuleParam,
		},
		{
			name:    "fractional length",
			input:   `{"column":"n","type":"minLength","minLength":2.5,"errorMessage":"m"}`,
			wantErr: ErrInvalidRuleParam,
		},
		{
			name:    "negative length",
			input:   `{"column":"n","type":"minLength","minLength":-1,"errorMessage":"m"}`,
			wantErr: ErrInvalidRuleParam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Rule
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Unmarshal error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unmarshal = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRuleIsInert(t *testing.T) {
	if !(Rule{Column: "x"}).IsInert() {
		t.Error("rule without a check should be inert")
	}
	if !(Rule{Column: "x", Check: Inert{Type: "date"}}).IsInert() {
		t.Error("unknown type should be inert")
	}
	if (Rule{Column: "x", Check: Required{}}).IsInert() {
		t.Error("required rule should not be inert")
	}
}

func TestRuleSetValidate(t *testing.T) {
	tests := []struct {
		name    string
		set     RuleSet
		wantErr error
	}{
		{"valid", sampleRuleSet(), nil},
		{"empty rules", RuleSet{Name: "Empty"}, nil},
		{"blank name", RuleSet{Name: "  "}, ErrInvalidRuleSetName},
		{
			name:    "blank column",
			set:     RuleSet{Name: "x", Rules: []Rule{{Column: "", Check: Required{}}}},
			wantErr: ErrEmptyRuleColumn,
		},
		{
			name: "duplicate column",
			set: RuleSet{Name: "x", Rules: []Rule{
				{Column: "Age", Check: Required{}},
				{Column: "Age", Check: Number{}},
			}},
			wantErr: ErrDuplicateColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRuleSetClone_Independent(t *testing.T) {
	set := sampleRuleSet()
	clone := set.Clone()
	clone.Rules[0].ErrorMessage = "changed"
	clone.Name = "Other"

	if set.Rules[0].ErrorMessage == "changed" || set.Name == "Other" {
		t.Error("Clone shares state with the original")
	}
}

func TestRuleSetClone_CopiesParameters(t *testing.T) {
	maxLen := 5
	set := RuleSet{Name: "params", Rules: []Rule{
		{Column: "Age", Check: Range{Min: ptrFloat(18), Max: ptrFloat(100)}},
		{Column: "code", Check: MaxLength{Max: &maxLen}},
	}}
	clone := set.Clone()
	*clone.Rules[0].Check.(Range).Min = 0
	*clone.Rules[1].Check.(MaxLength).Max = 1

	if got := *set.Rules[0].Check.(Range).Min; got != 18 {
		t.Errorf("original Range.Min = %v after editing the clone", got)
	}
	if maxLen != 5 {
		t.Errorf("original MaxLength.Max = %d after editing the clone", maxLen)
	}
}

func TestRuleSetYAML_Readable(t *testing.T) {
	data, err := yaml.Marshal(RuleSet{Name: "T", Rules: []Rule{
		{Column: "tier", Check: InList{AllowedValues: "a,b"}, ErrorMessage: "m"},
	}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{"name: T", "column: tier", "type: inList", "allowedValues: a,b"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("YAML output missing %q:\n%s", want, data)
		}
	}
}
