package overview

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/matzehuels/netdiagram/pkg/graph"
)

// Options configures the overview.
type Options struct {
	// Detailed labels edges with their channel kind and count, or protocol.
	Detailed bool

	// Unavailable includes services that are never drawn in diagrams. They
	// are shown dashed and grey.
	Unavailable bool
}

// ToDOT converts g to Graphviz DOT source.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("\n")

	services := lo.Filter(g.Services(), func(s *graph.Service, _ int) bool {
		return opts.Unavailable || !s.Unavailable
	})
	drawn := lo.SliceToMap(services, func(s *graph.Service) (string, bool) { return s.Name, true })

	byCategory := lo.GroupBy(services, func(s *graph.Service) string { return s.Category })
	for i, cat := range g.Categories() {
		members := byCategory[cat]
		if len(members) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", cat)
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for _, s := range members {
			fmt.Fprintf(&buf, "    %s\n", nodeLine(s))
		}
		buf.WriteString("  }\n")
		delete(byCategory, cat)
	}
	for _, s := range services {
		if _, rest := byCategory[s.Category]; rest {
			fmt.Fprintf(&buf, "  %s\n", nodeLine(s))
		}
	}

	buf.WriteString("\n")
	external := map[string]bool{}
	for _, s := range services {
		for _, c := range s.ConnectorsByDest() {
			if !drawn[c.Dest] {
				if g.Service(c.Dest) != nil && !opts.Unavailable {
					continue
				}
				if !external[c.Dest] {
					external[c.Dest] = true
					fmt.Fprintf(&buf, "  %q [shape=plaintext, style=\"\", fontcolor=grey40];\n", c.Dest)
				}
			}
			from, to := c.Source, c.Dest
			if c.Direction == graph.RX {
				from, to = to, from
			}
			attrs := edgeAttrs(c, opts.Detailed)
			if len(attrs) == 0 {
				fmt.Fprintf(&buf, "  %q -> %q;\n", from, to)
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", from, to, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLine(s *graph.Service) string {
	attrs := []string{fmt.Sprintf("label=%q", s.DisplayName())}
	if s.IsBroker() {
		attrs = append(attrs, "shape=cylinder", "style=filled", "fillcolor=\"#e1d5e7\"")
	}
	if s.Unavailable {
		attrs = append(attrs, "style=\"rounded,dashed\"", "color=grey60", "fontcolor=grey40")
	}
	return fmt.Sprintf("%q [%s];", s.Name, strings.Join(attrs, ", "))
}

func edgeAttrs(c *graph.Connector, detailed bool) []string {
	var attrs []string
	if !c.HasChannels() {
		attrs = append(attrs, "style=dashed")
	}
	if !detailed {
		return attrs
	}
	var label string
	switch {
	case c.HasChannels():
		label = fmt.Sprintf("%s x%d", c.Kind, len(c.Channels))
	case c.Protocol != "":
		label = c.Protocol
	default:
		label = c.Transport
	}
	if label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", label))
	}
	return attrs
}
