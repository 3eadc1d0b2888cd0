package rulestore

// codec.go reads and writes rule set files.
//
// Two shapes are accepted on import: the full {name, rules} object that
// Encode writes, and a bare array of rules, which is what older "Export
// Rules" downloads contain. A bare array takes its name from the caller.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/gridrules/internal/core"
)

// Format is a rule set file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrInvalidFile is returned when a rule set file cannot be decoded.
	ErrInvalidFile = errors.New("invalid rule set file")
	// ErrUnsupportedFormat is returned for formats other than json or yaml.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// maxRuleFileBytes bounds rule set imports.
const maxRuleFileBytes = 4 << 20

// ParseFormat maps a format name or file extension to a Format.
// An empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnsupportedFormat)
	}
}

// ExportFileName is the download name for a rule set file.
func ExportFileName(f Format) string {
	if f == FormatYAML {
		return "validation_rules.yaml"
	}
	return "validation_rules.json"
}

// ContentType is the MIME type for f.
func ContentType(f Format) string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Encode writes set to w as an indented {name, rules} document.
func Encode(w io.Writer, set core.RuleSet, f Format) error {
	if set.Rules == nil {
		set.Rules = []core.Rule{}
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(set); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%q: %w", f, ErrUnsupportedFormat)
	}
}

// Decode reads a rule set file. fallbackName names the set when the file
// is a bare rules array or has no name. The result is normalized with
// Prepare, so it is ready to store.
func Decode(r io.Reader, f Format, fallbackName string) (core.RuleSet, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxRuleFileBytes+1))
	if err != nil {
		return core.RuleSet{}, fmt.Errorf("read rule set file: %w", err)
	}
	if len(data) > maxRuleFileBytes {
		return core.RuleSet{}, fmt.Errorf("rule set file too large: %w", ErrInvalidFile)
	}

	var set core.RuleSet
	switch f {
	case FormatJSON:
		set, err = decodeJSON(data)
	case FormatYAML:
		set, err = decodeYAML(data)
	default:
		return core.RuleSet{}, fmt.Errorf("%q: %w", f, ErrUnsupportedFormat)
	}
	if err != nil {
		// Parameter errors already carry a specific cause.
		if errors.Is(err, core.ErrInvalidRuleParam) {
			return core.RuleSet{}, err
		}
		return core.RuleSet{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	if strings.TrimSpace(set.Name) == "" {
		set.Name = fallbackName
	}
	return Prepare(set)
}

func decodeJSON(data []byte) (core.RuleSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return core.RuleSet{}, errors.New("empty document")
	}

	var set core.RuleSet
	if trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &set.Rules)
		return set, err
	}
	err := json.Unmarshal(trimmed, &set)
	return set, err
}

func decodeYAML(data []byte) (core.RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return core.RuleSet{}, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return core.RuleSet{}, errors.New("empty document")
	}

	var set core.RuleSet
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		err := root.Decode(&set.Rules)
		return set, err
	case yaml.MappingNode:
		err := root.Decode(&set)
		return set, err
	default:
		return core.RuleSet{}, fmt.Errorf("line %d: expected a mapping or a list of rules", root.Line)
	}
}
