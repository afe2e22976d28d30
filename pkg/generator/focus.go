package generator

import (
	"github.com/matzehuels/netdiagram/pkg/diagram"
	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/geometry"
	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/template"
)

// focusSet returns the services drawn around the focus: its destinations,
// the services on the other side of its channels, the focus itself, and the
// services connecting into it.
func (g *Generator) focusSet(focus *graph.Service) []string {
	var names []string
	var peers []string
	for _, c := range focus.Connectors {
		names = append(names, c.Dest)
		if !c.HasChannels() {
			continue
		}
		broker := g.env.Graph.Service(c.Dest)
		if broker == nil {
			continue
		}
		for _, ch := range c.Channels {
			key := ch.Name
			if c.Kind == graph.KindQueue {
				key = ch.Queue
			}
			peers = append(peers, broker.Channel(c.Kind, key).Participants(c.Direction.Opposite())...)
		}
	}
	names = append(names, peers...)
	names = append(names, focus.Name)
	for _, c := range g.env.Graph.ConnectorsInto(focus.Name) {
		names = append(names, c.Source)
	}
	return names
}

func (g *Generator) buildFocused() error {
	focus := g.env.Graph.Service(g.focus)
	if focus == nil || focus.Unavailable {
		return errors.New(errors.ErrCodeServiceNotFound, "service %q is not part of the graph", g.focus)
	}
	for _, name := range g.focusSet(focus) {
		g.Service(name)
	}
	return nil
}

// checkPlacement requires every built service to sit in exactly one column
// slot. A category listed twice in the graph document would otherwise draw
// its services twice.
func (g *Generator) checkPlacement() error {
	placed := make(map[string]int, len(g.order))
	for _, column := range g.columns {
		for _, s := range column {
			placed[s.Name()]++
		}
	}
	for _, s := range g.order {
		if n := placed[s.Name()]; n != 1 {
			return g.invariant("service %q placed %d times", s.Name(), n)
		}
	}
	if len(placed) != len(g.order) {
		return g.invariant("placed %d services, built %d", len(placed), len(g.order))
	}
	return nil
}

// layoutFocused pins the focus to the middle column and balances the rest
// between left and right by running height.
func (g *Generator) layoutFocused(doc *template.Document) error {
	sp := g.env.Styles.Props.System
	fp := g.env.Styles.Props.Focus
	selected := g.services[g.focus]
	others := g.categoryOrder(g.focus)

	var left, right []*diagram.Service
	var leftH, rightH float64
	for _, s := range others {
		if leftH <= rightH {
			left = append(left, s)
			leftH += s.Rect().H
		} else {
			right = append(right, s)
			rightH += s.Rect().H
		}
	}
	g.columns = [][]*diagram.Service{left, {selected}, right}
	if err := g.checkPlacement(); err != nil {
		return err
	}

	var x, colHMax float64
	for _, column := range g.columns {
		var y, colH, maxW float64
		for _, s := range column {
			s.SetPosition(geometry.Position{X: x, Y: y})
			r := s.Rect()
			maxW = max(maxW, r.W)
			colH += r.H + sp.HeightGap
			y += r.H + sp.ServiceGap
		}
		colHMax = max(colHMax, colH)
		x += maxW + fp.ColumnGap
	}

	r := selected.Rect()
	selected.SetPosition(geometry.Position{X: r.X, Y: max(colHMax/2-r.H/2, fp.TopMin)})
	g.placeControlPanel(doc, selected.Rect())
	return nil
}

// placeControlPanel centres the skeleton's control panel above the focus.
func (g *Generator) placeControlPanel(doc *template.Document, sel geometry.Rect) {
	fp := g.env.Styles.Props.Focus
	cp, ok := doc.Geometry(fp.ControlPanelID)
	if !ok {
		g.logger.Warn("control panel not found in template", "id", fp.ControlPanelID)
		return
	}
	doc.SetPosition(fp.ControlPanelID, geometry.Position{
		X: sel.X + (sel.W-cp.W)/2,
		Y: fp.ControlPanelY,
	})
}

// highlightTopics restyles linked topics that share a channel with the
// focus.
func (g *Generator) highlightTopics() {
	selected := g.services[g.focus]
	shared := make(map[string]bool)
	for _, t := range selected.Topics() {
		shared[t.Name()] = true
	}
	for _, s := range g.order {
		for _, t := range s.Topics() {
			if t.Linked() && shared[t.Name()] {
				t.SetStyle(g.env.Styles.TopicHighlighted(t.Direction()))
			}
		}
	}
}
