// Package generator lays out a whole service graph, or the neighbourhood of
// one service, as a network diagram.
//
// A [Generator] is single use: it owns a private element tree and must not be
// shared between goroutines. Build a new one per diagram.
//
// # Usage
//
//	env := &diagram.Env{Graph: g, Styles: sel, Metrics: m}
//	doc, _ := template.Parse(skeleton)
//	if err := generator.New(env, generator.Options{}).Generate(ctx, doc); err != nil {
//	    return err
//	}
//	out, _ := doc.Bytes()
//
// The single-service variant comes from [NewFocused]; it differs only in
// which services are built and how they are positioned.
package generator

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdiagram/pkg/diagram"
	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/template"
)

// DefaultHomeBroker is the broker whose containers get no container arrows;
// its channels are already joined topic to topic.
const DefaultHomeBroker = "kafka"

// Options tune a generation run.
type Options struct {
	// ShowConnectTo makes connect-to arrows visible when the diagram opens.
	ShowConnectTo bool
	// HomeBroker defaults to [DefaultHomeBroker].
	HomeBroker string
}

// Stats summarizes a finished run.
type Stats struct {
	Services      int
	Arrows        int
	Columns       int
	DisabledLinks int
}

// Generator builds, positions and emits one diagram.
type Generator struct {
	env    *diagram.Env
	opts   Options
	focus  string
	logger *log.Logger

	services map[string]*diagram.Service
	order    []*diagram.Service
	columns  [][]*diagram.Service
	arrows   []*diagram.Arrow
	disabled int
}

// New returns a generator for the whole-system diagram.
func New(env *diagram.Env, opts Options) *Generator {
	if opts.HomeBroker == "" {
		opts.HomeBroker = DefaultHomeBroker
	}
	logger := env.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Generator{
		env:      env,
		opts:     opts,
		logger:   logger,
		services: make(map[string]*diagram.Service),
	}
}

// NewFocused returns a generator for the diagram centred on service. The
// env is copied so the focus-aware styles stay private to this run.
func NewFocused(env *diagram.Env, service string, opts Options) *Generator {
	focused := *env
	focused.Styles = env.Styles.WithFocus(service)
	g := New(&focused, opts)
	g.focus = service
	return g
}

// Focus returns the centred service, or "" for system diagrams.
func (g *Generator) Focus() string { return g.focus }

// Service returns the element of name, building it on first use. It returns
// nil for services that are unknown or unavailable.
func (g *Generator) Service(name string) *diagram.Service {
	if s, ok := g.services[name]; ok {
		return s
	}
	svc := g.env.Graph.Service(name)
	if svc == nil || svc.Unavailable {
		return nil
	}
	s := diagram.NewService(g.env, svc)
	g.services[name] = s
	g.order = append(g.order, s)
	return s
}

// Services returns the built services in build order.
func (g *Generator) Services() []*diagram.Service { return g.order }

// Columns returns the services of each layout column.
func (g *Generator) Columns() [][]*diagram.Service { return g.columns }

// Arrows returns the synthesized arrows in emit order.
func (g *Generator) Arrows() []*diagram.Arrow { return g.arrows }

// Stats returns counters of the last run.
func (g *Generator) Stats() Stats {
	return Stats{
		Services:      len(g.order),
		Arrows:        len(g.arrows),
		Columns:       len(g.columns),
		DisabledLinks: g.disabled,
	}
}

// Generate builds the diagram and appends it to doc. Nothing is appended
// when an error is returned.
func (g *Generator) Generate(ctx context.Context, doc *template.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.focus != "" {
		if err := g.buildFocused(); err != nil {
			return err
		}
	} else {
		for _, svc := range g.env.Graph.Available() {
			g.Service(svc.Name)
		}
	}

	for _, s := range g.order {
		s.Normalize()
	}

	if g.focus != "" {
		if err := g.layoutFocused(doc); err != nil {
			return err
		}
	} else {
		g.layoutColumns()
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	g.topicArrows()
	g.containerArrows()
	g.connectToArrows()
	if g.focus != "" {
		g.highlightTopics()
	}

	root := doc.Root()
	for _, s := range g.order {
		s.Emit(root)
	}
	for _, a := range g.arrows {
		a.Emit(root)
	}
	g.logger.Debug("diagram generated",
		"focus", g.focus,
		"services", len(g.order),
		"arrows", len(g.arrows),
		"columns", len(g.columns))
	return nil
}

// categoryOrder returns services grouped by graph category in declaration
// order. Services of an undeclared category come last.
func (g *Generator) categoryOrder(skip string) []*diagram.Service {
	var out []*diagram.Service
	seen := make(map[string]bool)
	for _, cat := range g.env.Graph.Categories() {
		seen[cat] = true
		for _, s := range g.order {
			if s.Name() != skip && s.Graph().Category == cat {
				out = append(out, s)
			}
		}
	}
	for _, s := range g.order {
		if s.Name() != skip && !seen[s.Graph().Category] {
			out = append(out, s)
		}
	}
	return out
}

func (g *Generator) invariant(format string, args ...any) error {
	return errors.New(errors.ErrCodeLayoutInvariant, format, args...)
}

// both lists the arrow directions emitted for every pairing.
func both() []graph.Direction { return []graph.Direction{graph.TX, graph.RX} }
