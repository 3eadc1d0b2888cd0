package core

// convert.go coerces cell values into the two shapes the checks work on:
// a finite float64 for numeric checks and a text form for string checks.
//
// Cell values arrive as whatever the ingestion layer or an editor produced:
// strings, float64 from numeric inference, int family values from Go
// callers, bools, or nil for absent cells. None of these conversions fail
// loudly; a value that cannot be coerced simply fails the check using it.

import (
	"encoding/json"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// ToNumber returns v as a finite float64.
// Strings are trimmed and parsed; empty strings, NaN and infinities are rejected.
func ToNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToText returns the string form used by text-based checks and exports.
func ToText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	}
	if n, ok := ToNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// patternCache holds compiled patterns keyed by expression.
// Values are either *regexp.Regexp or error.
var patternCache sync.Map

// compilePattern compiles expr once and reuses the result.
// Revalidation runs on several goroutines, hence sync.Map.
func compilePattern(expr string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(expr); ok {
		switch c := cached.(type) {
		case *regexp.Regexp:
			return c, nil
		case error:
			return nil, c
		}
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		patternCache.Store(expr, err)
		return nil, err
	}
	patternCache.Store(expr, re)
	return re, nil
}

// PatternError returns the compile error for expr, or nil if it is valid.
func PatternError(expr string) error {
	_, err := compilePattern(expr)
	return err
}

// warnInvalidPattern reports a misconfigured pattern rule.
// Called on every evaluation of the rule; the cell itself passes.
func warnInvalidPattern(expr string, err error) {
	slog.Warn("invalid regex pattern in rule, skipping check",
		"pattern", expr,
		"error", err,
	)
}
