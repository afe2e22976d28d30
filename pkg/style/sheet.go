package style

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Decl is one property declaration inside a rule.
type Decl struct {
	Property string
	Value    string
}

// Rule is a named set of declarations in source order.
type Rule struct {
	Selector string
	Decls    []Decl
}

// Sheet is a parsed, read-only style sheet. It is safe to share between
// goroutines; every lookup returns a fresh [Style].
type Sheet struct {
	rules map[string]*Rule
	order []string
}

// LoadSheet parses the CSS file at path.
func LoadSheet(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read style sheet: %w", err)
	}
	return ParseSheet(bytes.NewReader(data))
}

// ParseSheet parses CSS from r. Only plain rulesets are kept; at-rules and
// custom properties are skipped. When a selector appears twice the first
// rule wins.
func ParseSheet(r io.Reader) (*Sheet, error) {
	s := &Sheet{rules: make(map[string]*Rule)}
	p := css.NewParser(parse.NewInput(r), false)

	var pending []string
	var current []*Rule
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("parse style sheet: %w", err)
			}
			return s, nil
		case css.QualifiedRuleGrammar:
			pending = append(pending, tokensString(p.Values()))
		case css.BeginRulesetGrammar:
			pending = append(pending, tokensString(p.Values()))
			current = current[:0]
			for _, sel := range pending {
				current = append(current, s.rule(sel))
			}
			pending = pending[:0]
		case css.DeclarationGrammar:
			d := Decl{
				Property: strings.ToLower(strings.TrimSpace(string(data))),
				Value:    tokensString(p.Values()),
			}
			for _, r := range current {
				if r != nil {
					r.Decls = append(r.Decls, d)
				}
			}
		case css.EndRulesetGrammar:
			current = current[:0]
		}
	}
}

// rule returns the rule for sel, or nil when sel was already defined.
func (s *Sheet) rule(sel string) *Rule {
	if _, dup := s.rules[sel]; dup {
		return nil
	}
	r := &Rule{Selector: sel}
	s.rules[sel] = r
	s.order = append(s.order, sel)
	return r
}

func tokensString(tokens []css.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.Write(t.Data)
	}
	return strings.TrimSpace(b.String())
}

// Has reports whether a class rule called name exists.
func (s *Sheet) Has(name string) bool {
	_, ok := s.rules["."+name]
	return ok
}

// Len returns the number of rules.
func (s *Sheet) Len() int { return len(s.order) }

// Style returns a fresh style for the class rule called name, or nil.
func (s *Sheet) Style(name string) *Style {
	r, ok := s.rules["."+name]
	if !ok {
		return nil
	}
	return &Style{name: name, rule: r}
}

// FirstAvailable returns the first of names that resolves. Empty names are
// skipped. It returns nil when none resolve.
func (s *Sheet) FirstAvailable(names ...string) *Style {
	for _, n := range names {
		if n == "" {
			continue
		}
		if st := s.Style(n); st != nil {
			return st
		}
	}
	return nil
}
