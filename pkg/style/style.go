// Package style resolves visual styles for diagram elements.
//
// Styles come from a CSS-like sheet: each class rule (".service-container")
// is a named property bag. Elements ask for an ordered list of candidate
// names and receive the first one that exists ([Sheet.FirstAvailable]). The
// returned [Style] is private to the caller: instance overrides (an arrow's
// entry side, say) never leak into other elements.
//
// Non-visual layout constants (margins, shifts, column limits) live in a
// separate YAML table, [Props].
//
// # Serialization
//
// [Style.String] renders the diagram editor's style syntax:
//
//	.service-topic-rx { font-size: 11; fill-color: #dae8fc; rounded: __; }
//
// becomes "fontSize=11;fillColor=#dae8fc;rounded;". Hyphenated names fold to
// camelCase and the value "__" emits a bare key.
package style

import (
	"strconv"
	"strings"
)

// BareValue marks a property that is written without "=value".
const BareValue = "__"

// DefaultFontSize is used when a style has no usable font-size.
const DefaultFontSize = 12

// Style is a resolved rule plus private overrides. A nil *Style is valid
// and behaves like an empty rule.
type Style struct {
	name      string
	rule      *Rule
	overrides map[string]string
	extra     []string
}

// Name returns the rule name the style was resolved from.
func (s *Style) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Value returns the effective value of a CSS property. Overrides win over
// the sheet; one pair of surrounding quotes is stripped from sheet values.
func (s *Style) Value(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	if v, ok := s.overrides[key]; ok {
		return v, true
	}
	for _, d := range s.rule.Decls {
		if d.Property == key {
			return unquote(d.Value), true
		}
	}
	return "", false
}

// Set overrides key for this style only.
func (s *Style) Set(key, value string) {
	if s == nil {
		return
	}
	if s.overrides == nil {
		s.overrides = make(map[string]string)
	}
	if _, ok := s.overrides[key]; !ok && !s.declared(key) {
		s.extra = append(s.extra, key)
	}
	s.overrides[key] = value
}

func (s *Style) declared(key string) bool {
	for _, d := range s.rule.Decls {
		if d.Property == key {
			return true
		}
	}
	return false
}

// FontSize returns the font size in pixels.
func (s *Style) FontSize() float64 {
	v, ok := s.Value("font-size")
	if !ok {
		return DefaultFontSize
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	if err != nil || f <= 0 {
		return DefaultFontSize
	}
	return f
}

// FontFamily returns the font family, or "".
func (s *Style) FontFamily() string {
	v, _ := s.Value("font-family")
	return v
}

// String renders the style in the diagram editor's "key=value;" syntax.
// Declared properties come first in sheet order, followed by overrides that
// the sheet does not declare, in the order they were set.
func (s *Style) String() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	write := func(key string) {
		v, _ := s.Value(key)
		b.WriteString(CamelCase(key))
		if v != BareValue {
			b.WriteByte('=')
			b.WriteString(v)
		}
		b.WriteByte(';')
	}
	for _, d := range s.rule.Decls {
		write(d.Property)
	}
	for _, k := range s.extra {
		write(k)
	}
	return b.String()
}

// CamelCase folds a hyphenated CSS name: "entry-x" becomes "entryX".
func CamelCase(key string) string {
	var b strings.Builder
	upper := false
	for _, r := range key {
		if r == '-' {
			upper = true
			continue
		}
		if upper {
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unquote(v string) string {
	if len(v) > 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
