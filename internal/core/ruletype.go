package core

// ruletype.go defines the closed taxonomy of rule kinds.
//
// Each kind is its own type implementing Check and carries exactly the
// parameters that kind needs, so a Range can never hold a pattern and an
// Email can never hold bounds. The flat wire form (type string plus
// optional parameters) is handled in rule.go.

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind identifies a rule type on the wire.
type Kind string

const (
	KindRequired   Kind = "required"
	KindRange      Kind = "range"
	KindEmail      Kind = "email"
	KindMinLength  Kind = "minLength"
	KindMaxLength  Kind = "maxLength"
	KindPattern    Kind = "pattern"
	KindInList     Kind = "inList"
	KindStartsWith Kind = "startsWith"
	KindEndsWith   Kind = "endsWith"
	KindNumber     Kind = "number"
	KindText       Kind = "text"
)

// Kinds lists every recognized kind in display order.
var Kinds = []Kind{
	KindRequired, KindRange, KindEmail, KindMinLength, KindMaxLength,
	KindPattern, KindInList, KindStartsWith, KindEndsWith, KindNumber, KindText,
}

// Known reports whether k is part of the taxonomy.
func (k Kind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Check is one rule kind together with its parameters.
//
// The interface is sealed: only the types in this file implement it.
type Check interface {
	Kind() Kind
	// passes reports whether value satisfies the check.
	passes(value any) bool
}

// Required fails nil values and strings that are empty after trimming.
type Required struct{}

// Range fails values that are not numeric or fall outside [Min, Max].
// A nil bound is unbounded on that side.
type Range struct {
	Min *float64
	Max *float64
}

// Email fails values that do not look like local@domain.tld.
type Email struct{}

// MinLength fails non-strings and strings shorter than Min runes.
type MinLength struct {
	Min int
}

// MaxLength fails non-strings and strings longer than Max runes.
// A nil Max is unbounded.
type MaxLength struct {
	Max *int
}

// Pattern fails values whose text form does not match Expr.
// An Expr that does not compile never fails a cell.
type Pattern struct {
	Expr string
}

// InList fails values not present in the comma-separated AllowedValues.
type InList struct {
	AllowedValues string
}

// StartsWith fails values whose text form lacks the Target prefix.
type StartsWith struct {
	Target string
}

// EndsWith fails values whose text form lacks the Target suffix.
type EndsWith struct {
	Target string
}

// Number fails values that do not convert to a finite number.
type Number struct{}

// Text fails values containing an ASCII digit.
type Text struct{}

// Inert is a rule whose type is empty or unrecognized. It never fails.
// Type keeps the original string so the rule round-trips unchanged.
type Inert struct {
	Type string
}

func (Required) Kind() Kind   { return KindRequired }
func (Range) Kind() Kind      { return KindRange }
func (Email) Kind() Kind      { return KindEmail }
func (MinLength) Kind() Kind  { return KindMinLength }
func (MaxLength) Kind() Kind  { return KindMaxLength }
func (Pattern) Kind() Kind    { return KindPattern }
func (InList) Kind() Kind     { return KindInList }
func (StartsWith) Kind() Kind { return KindStartsWith }
func (EndsWith) Kind() Kind   { return KindEndsWith }
func (Number) Kind() Kind     { return KindNumber }
func (Text) Kind() Kind       { return KindText }
func (c Inert) Kind() Kind    { return Kind(c.Type) }

// emailRegex mirrors the loose local@domain.tld shape users expect.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func (Required) passes(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}

func (c Range) passes(v any) bool {
	n, ok := ToNumber(v)
	if !ok {
		return false
	}
	if c.Min != nil && n < *c.Min {
		return false
	}
	if c.Max != nil && n > *c.Max {
		return false
	}
	return true
}

func (Email) passes(v any) bool {
	return emailRegex.MatchString(ToText(v))
}

func (c MinLength) passes(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return utf8.RuneCountInString(s) >= c.Min
}

func (c MaxLength) passes(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return c.Max == nil || utf8.RuneCountInString(s) <= *c.Max
}

func (c Pattern) passes(v any) bool {
	re, err := compilePattern(c.Expr)
	if err != nil {
		warnInvalidPattern(c.Expr, err)
		return true
	}
	return re.MatchString(ToText(v))
}

func (c InList) passes(v any) bool {
	text := ToText(v)
	for _, allowed := range SplitAllowed(c.AllowedValues) {
		if allowed == text {
			return true
		}
	}
	return false
}

func (c StartsWith) passes(v any) bool {
	return strings.HasPrefix(ToText(v), c.Target)
}

func (c EndsWith) passes(v any) bool {
	return strings.HasSuffix(ToText(v), c.Target)
}

func (Number) passes(v any) bool {
	switch t := v.(type) {
	case nil, bool:
		return true
	case string:
		if strings.TrimSpace(t) == "" {
			return true
		}
	}
	_, ok := ToNumber(v)
	return ok
}

func (Text) passes(v any) bool {
	return !strings.ContainsAny(ToText(v), "0123456789")
}

func (Inert) passes(any) bool { return true }

// SplitAllowed splits a comma-separated allow list and trims each entry.
func SplitAllowed(list string) []string {
	parts := strings.Split(list, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
