package diagram

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdiagram/pkg/geometry"
	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/style"
	"github.com/matzehuels/netdiagram/pkg/textmetrics"
)

// RootID is the id of the default layer every top-level cell hangs off.
const RootID = "1"

// Element is the read-only view shared by every node of the tree.
type Element interface {
	// ID returns the diagram id of the element's outermost cell.
	ID() string
	// Rect returns the geometry relative to Parent.
	Rect() geometry.Rect
	// Parent returns the enclosing element, or nil for top-level elements.
	Parent() Element
}

// Global returns the rectangle of e in diagram coordinates by adding the
// positions of all ancestors.
func Global(e Element) geometry.Rect {
	r := e.Rect()
	for p := e.Parent(); p != nil; p = p.Parent() {
		pr := p.Rect()
		r.X += pr.X
		r.Y += pr.Y
	}
	return r
}

// Env carries what every element needs while building: the graph for
// reachability lookups, the style selector and the text measurer. One Env
// serves exactly one diagram.
type Env struct {
	Graph   *graph.Graph
	Styles  *style.Selector
	Metrics *textmetrics.Measurer
	Logger  *log.Logger

	// WikiLink returns the page URL attached to a product service label.
	// Nil or an empty result leaves the label without a link.
	WikiLink func(*graph.Service) string
}

func (e *Env) props() *style.Props { return e.Styles.Props }

// measure returns the size of text rendered with st.
func (e *Env) measure(text string, st *style.Style) (w, h float64) {
	return e.Metrics.Measure(text, st.FontFamily(), st.FontSize())
}

func (e *Env) service(name string) *graph.Service {
	if e.Graph == nil {
		return nil
	}
	return e.Graph.Service(name)
}
