package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultErrorColor is used when a rule is saved without a highlight color.
const DefaultErrorColor = "#ff0000"

// Rule is one column-scoped validation directive.
type Rule struct {
	Column       string
	Check        Check
	ErrorMessage string
	ErrorColor   string
}

// Kind returns the rule's kind, or "" for a rule with no check.
func (r Rule) Kind() Kind {
	if r.Check == nil {
		return ""
	}
	return r.Check.Kind()
}

// IsInert reports whether the rule can never fail a cell.
func (r Rule) IsInert() bool {
	if r.Check == nil {
		return true
	}
	_, inert := r.Check.(Inert)
	return inert
}

// RuleSet is a named, ordered collection of rules.
type RuleSet struct {
	Name  string `json:"name" yaml:"name"`
	Rules []Rule `json:"rules" yaml:"rules"`
}

// RuleFor returns the first rule governing column, in declaration order.
func (s RuleSet) RuleFor(column string) (Rule, bool) {
	for _, r := range s.Rules {
		if r.Column == column {
			return r, true
		}
	}
	return Rule{}, false
}

// Validate checks the invariants a stored rule set must hold: a non-empty
// name, non-empty column names, and at most one rule per column.
func (s RuleSet) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrInvalidRuleSetName
	}

	seen := make(map[string]int, len(s.Rules))
	for i, r := range s.Rules {
		if strings.TrimSpace(r.Column) == "" {
			return fmt.Errorf("rule %d: %w", i+1, ErrEmptyRuleColumn)
		}
		if first, dup := seen[r.Column]; dup {
			return fmt.Errorf("rules %d and %d both govern %q: %w", first+1, i+1, r.Column, ErrDuplicateColumn)
		}
		seen[r.Column] = i
	}
	return nil
}

// Clone returns a deep copy so callers can hand out rule sets safely.
func (s RuleSet) Clone() RuleSet {
	out := RuleSet{Name: s.Name}
	if s.Rules != nil {
		out.Rules = make([]Rule, len(s.Rules))
		copy(out.Rules, s.Rules)
		for i := range out.Rules {
			out.Rules[i].Check = cloneCheck(out.Rules[i].Check)
		}
	}
	return out
}

// cloneCheck copies the pointer parameters of c.
func cloneCheck(c Check) Check {
	switch t := c.(type) {
	case Range:
		return Range{Min: clonePtr(t.Min), Max: clonePtr(t.Max)}
	case MaxLength:
		return MaxLength{Max: clonePtr(t.Max)}
	default:
		return c
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ruleWire is the flat JSON/YAML form of a rule. Parameters are emitted
// only for the kind that uses them.
type ruleWire struct {
	Column        string   `json:"column" yaml:"column"`
	Type          string   `json:"type" yaml:"type"`
	ErrorMessage  string   `json:"errorMessage" yaml:"errorMessage"`
	ErrorColor    string   `json:"errorColor,omitempty" yaml:"errorColor,omitempty"`
	MinValue      *float64 `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	MaxValue      *float64 `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
	MinLength     *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength     *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern       *string  `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	AllowedValues *string  `json:"allowedValues,omitempty" yaml:"allowedValues,omitempty"`
	TargetValue   *string  `json:"targetValue,omitempty" yaml:"targetValue,omitempty"`
}

// jsonRuleWire accepts numeric parameters either as JSON numbers or as
// numeric strings, since rule editors often submit form values verbatim.
type jsonRuleWire struct {
	Column        string          `json:"column"`
	Type          string          `json:"type"`
	ErrorMessage  string          `json:"errorMessage"`
	ErrorColor    string          `json:"errorColor"`
	MinValue      json.RawMessage `json:"minValue"`
	MaxValue      json.RawMessage `json:"maxValue"`
	MinLength     json.RawMessage `json:"minLength"`
	MaxLength     json.RawMessage `json:"maxLength"`
	Pattern       *string         `json:"pattern"`
	AllowedValues *string         `json:"allowedValues"`
	TargetValue   *string         `json:"targetValue"`
}

func (r Rule) toWire() ruleWire {
	w := ruleWire{
		Column:       r.Column,
		Type:         string(r.Kind()),
		ErrorMessage: r.ErrorMessage,
		ErrorColor:   r.ErrorColor,
	}

	switch c := r.Check.(type) {
	case Range:
		w.MinValue = c.Min
		w.MaxValue = c.Max
	case MinLength:
		minLen := c.Min
		w.MinLength = &minLen
	case MaxLength:
		w.MaxLength = c.Max
	case Pattern:
		w.Pattern = &c.Expr
	case InList:
		w.AllowedValues = &c.AllowedValues
	case StartsWith:
		w.TargetValue = &c.Target
	case EndsWith:
		w.TargetValue = &c.Target
	}
	return w
}

func (w ruleWire) toRule() Rule {
	return Rule{
		Column:       w.Column,
		Check:        buildCheck(w),
		ErrorMessage: w.ErrorMessage,
		ErrorColor:   w.ErrorColor,
	}
}

// buildCheck picks the variant for w.Type, keeping only its parameters.
func buildCheck(w ruleWire) Check {
	switch Kind(w.Type) {
	case KindRequired:
		return Required{}
	case KindRange:
		return Range{Min: w.MinValue, Max: w.MaxValue}
	case KindEmail:
		return Email{}
	case KindMinLength:
		c := MinLength{}
		if w.MinLength != nil {
			c.Min = *w.MinLength
		}
		return c
	case KindMaxLength:
		return MaxLength{Max: w.MaxLength}
	case KindPattern:
		return Pattern{Expr: deref(w.Pattern)}
	case KindInList:
		return InList{AllowedValues: deref(w.AllowedValues)}
	case KindStartsWith:
		return StartsWith{Target: deref(w.TargetValue)}
	case KindEndsWith:
		return EndsWith{Target: deref(w.TargetValue)}
	case KindNumber:
		return Number{}
	case KindText:
		return Text{}
	default:
		return Inert{Type: w.Type}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MarshalJSON implements json.Marshaler.
func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toWire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var jw jsonRuleWire
	if err := json.Unmarshal(data, &jw); err != nil {
		return err
	}

	w := ruleWire{
		Column:        jw.Column,
		Type:          jw.Type,
		ErrorMessage:  jw.ErrorMessage,
		ErrorColor:    jw.ErrorColor,
		Pattern:       jw.Pattern,
		AllowedValues: jw.AllowedValues,
		TargetValue:   jw.TargetValue,
	}

	var err error
	if w.MinValue, err = decodeFloatParam("minValue", jw.MinValue); err != nil {
		return err
	}
	if w.MaxValue, err = decodeFloatParam("maxValue", jw.MaxValue); err != nil {
		return err
	}
	if w.MinLength, err = decodeIntParam("minLength", jw.MinLength); err != nil {
		return err
	}
	if w.MaxLength, err = decodeIntParam("maxLength", jw.MaxLength); err != nil {
		return err
	}

	*r = w.toRule()
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Rule) MarshalYAML() (any, error) {
	return r.toWire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	var w ruleWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	*r = w.toRule()
	return nil
}

// decodeFloatParam accepts a JSON number, a numeric string, "" or null.
func decodeFloatParam(name string, raw json.RawMessage) (*float64, error) {
	if isAbsent(raw) {
		return nil, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrInvalidRuleParam)
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", name, s, ErrInvalidRuleParam)
	}
	return &f, nil
}

// decodeIntParam accepts a JSON integer, an integer string, "" or null.
func decodeIntParam(name string, raw json.RawMessage) (*int, error) {
	f, err := decodeFloatParam(name, raw)
	if err != nil || f == nil {
		return nil, err
	}
	i := int(*f)
	if float64(i) != *f || i < 0 {
		return nil, fmt.Errorf("%s must be a non-negative integer: %w", name, ErrInvalidRuleParam)
	}
	return &i, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
