package diagram

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/ids"
	"github.com/matzehuels/netdiagram/pkg/style"
)

// ArrowKind selects how an arrow derives its id, tags and visibility.
type ArrowKind int

const (
	// ArrowTopic joins a producing topic to a consuming topic.
	ArrowTopic ArrowKind = iota
	// ArrowContainer joins a broker service to a container of a service
	// that talks to it.
	ArrowContainer
	// ArrowConnectTo joins a connector badge to its destination service.
	ArrowConnectTo
)

func (k ArrowKind) String() string {
	switch k {
	case ArrowTopic:
		return "topic"
	case ArrowContainer:
		return "container"
	case ArrowConnectTo:
		return "connect_to"
	default:
		return "unknown"
	}
}

// Arrow is an edge between two elements. Every pairing produces one arrow
// per direction; the direction only changes the id and the tags the viewer
// uses to show it.
type Arrow struct {
	Kind      ArrowKind
	Direction graph.Direction

	id      string
	source  Element
	target  Element
	tags    []string
	style   *style.Style
	visible bool
	attrs   []string
}

// NewTopicArrow joins the tx topic to the rx topic of one channel.
func NewTopicArrow(env *Env, tx, rx *Topic, d graph.Direction) *Arrow {
	a := &Arrow{
		Kind:      ArrowTopic,
		Direction: d,
		id:        "arrow_" + tx.ID() + "_" + rx.ID() + "_" + string(d),
		source:    tx,
		target:    rx,
		style:     env.Styles.Named("service-topics-arrow"),
	}
	if d == graph.TX {
		a.tags = ids.Tags(tx.tagKey(tx.Name(), "l"))
	} else {
		a.tags = ids.Tags(tx.tagKey(tx.Name(), "l", "rx"), tx.tagKey(tx.Name(), rx.Service(), "l"))
	}
	a.attrs = []string{
		"Source", tx.Service(),
		"Dest", rx.Service(),
		"Description", tx.Channel().Description,
	}
	a.orient()
	return a
}

// NewContainerArrow joins a broker service to a container attached to it.
func NewContainerArrow(env *Env, c *Container, broker *Service, d graph.Direction) *Arrow {
	a := &Arrow{
		Kind:      ArrowContainer,
		Direction: d,
		id:        "arrow_" + c.ID() + "_" + broker.ID() + "_" + string(d) + "_connect_to",
		source:    broker,
		target:    c,
		style:     env.Styles.Named("service-topics-arrow"),
	}
	if d == graph.TX {
		a.tags = ids.Tags(
			ids.Key("container", c.owner.Name(), "to", broker.Name(), "l"),
			ids.Key("container", broker.Name(), "interface", "l", "tx"),
		)
	} else {
		a.tags = ids.Tags(ids.Key("container", broker.Name(), "interface", "l"))
	}
	a.attrs = connectorAttrs(c.conn)
	a.orient()
	return a
}

// NewConnectToArrow joins a connector badge to the destination service.
// Connect-to arrows are hidden unless visible is set.
func NewConnectToArrow(env *Env, c *Connector, dest *Service, d graph.Direction, visible bool) *Arrow {
	a := &Arrow{
		Kind:      ArrowConnectTo,
		Direction: d,
		id:        "arrow_" + c.ID() + "_" + dest.ID() + "_" + string(d) + "_connect_to",
		source:    c,
		target:    dest,
		style:     env.Styles.Named("service-connect-to-arrow"),
		visible:   visible,
	}
	src := c.owner.Name()
	if d == graph.TX {
		a.tags = ids.Tags(
			ids.Key("s", src, "to", dest.Name(), "l"),
			ids.Key("s", dest.Name(), "interface", "l", "tx"),
		)
	} else {
		a.tags = ids.Tags(ids.Key("s", dest.Name(), "interface", "l"))
	}
	a.attrs = connectorAttrs(c.conn)
	a.orient()
	return a
}

func connectorAttrs(c *graph.Connector) []string {
	return []string{
		"Source", c.Source,
		"Dest", c.Dest,
		"Description", c.Description,
		"Protocol", c.Protocol,
		"Transport", c.Transport,
	}
}

// orient attaches the arrow to the facing sides when the horizontal extents
// of both ends do not overlap. Overlapping topic arrows leave on the right
// and come in on the left; other kinds keep the sheet's sides.
func (a *Arrow) orient() {
	src, dst := Global(a.source), Global(a.target)
	switch {
	case src.X > dst.Right():
		a.style.Set("exit-x", "0")
		a.style.Set("entry-x", "1")
	case src.Right() < dst.X:
		a.style.Set("exit-x", "1")
		a.style.Set("entry-x", "0")
	case a.Kind == ArrowTopic:
		a.style.Set("exit-x", "1")
		a.style.Set("entry-x", "0")
	}
}

// ID returns the edge id.
func (a *Arrow) ID() string { return a.id }

// Source and Target return the joined elements.
func (a *Arrow) Source() Element { return a.source }
func (a *Arrow) Target() Element { return a.target }

// Tags returns the viewer tags of the arrow.
func (a *Arrow) Tags() []string { return a.tags }

// Style returns the arrow's private style.
func (a *Arrow) Style() *style.Style { return a.style }

// Visible reports whether the edge is shown when the diagram opens.
func (a *Arrow) Visible() bool { return a.visible }

// Emit appends the edge to root.
func (a *Arrow) Emit(root *etree.Element) {
	attrs := append([]string{"label", ""}, a.attrs...)
	attrs = append(attrs, "tags", strings.Join(a.tags, " ")+" arrow")
	obj := userObject(a.id, attrs...)

	cell := etree.NewElement("mxCell")
	if a.style != nil {
		cell.CreateAttr("style", a.style.String())
	}
	cell.CreateAttr("parent", RootID)
	cell.CreateAttr("source", ids.ID(a.source.ID()))
	cell.CreateAttr("target", ids.ID(a.target.ID()))
	cell.CreateAttr("edge", "1")
	if !a.visible {
		cell.CreateAttr("visible", "0")
	}
	addEdgeGeometry(cell)
	obj.AddChild(cell)
	root.AddChild(obj)
}
