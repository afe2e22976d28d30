package diagram

import (
	"github.com/beevik/etree"

	"github.com/matzehuels/netdiagram/pkg/geometry"
	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/ids"
	"github.com/matzehuels/netdiagram/pkg/style"
)

// Connector is the badge "this service talks to X": an ellipse, a short
// arrow labelled with the protocol, and a box with the destination name.
type Connector struct {
	env   *Env
	owner *Service
	conn  *graph.Connector

	rect    geometry.Rect
	core    geometry.Rect
	ellipse geometry.Rect
	text    string
	linked  bool

	groupStyle   *style.Style
	coreStyle    *style.Style
	ellipseStyle *style.Style
	labelStyle   *style.Style
	arrowStyle   *style.Style
}

func newConnector(env *Env, owner *Service, conn *graph.Connector) *Connector {
	p := env.props().Connector
	c := &Connector{
		env:    env,
		owner:  owner,
		conn:   conn,
		linked: true,
	}
	c.groupStyle = env.Styles.Named("group")
	c.coreStyle = env.Styles.ConnectorPart(owner.svc, style.PartCore)
	c.ellipseStyle = env.Styles.ConnectorPart(owner.svc, style.PartEllipse)
	c.labelStyle = env.Styles.ConnectorPart(owner.svc, style.PartLabel)
	c.arrowStyle = env.Styles.ConnectorPart(owner.svc, style.PartArrow)

	c.text = conn.Protocol
	if c.text == "" {
		c.text = conn.Transport
	}
	w, _ := env.measure(conn.Dest, c.coreStyle)
	c.core = geometry.Rect{W: w + p.LabelWidthAppend, H: p.LabelHeight}
	c.ellipse = geometry.Rect{W: p.EllipseSize, H: p.EllipseSize}
	c.rect = geometry.Rect{W: c.core.W, H: c.core.H}
	return c
}

func (c *Connector) key(part string) string {
	return ids.Key("s", c.owner.Name(), "to", c.conn.Dest, string(c.conn.Direction), part)
}

// ID returns the group id "s#{service}#to#{dest}#{direction}#group".
func (c *Connector) ID() string { return c.key("group") }

func (c *Connector) Rect() geometry.Rect { return c.rect }
func (c *Connector) Parent() Element     { return c.owner }

// Dest returns the destination service name.
func (c *Connector) Dest() string { return c.conn.Dest }

func (c *Connector) Connector() *graph.Connector { return c.conn }

// CoreRect and EllipseRect return part geometry relative to the badge.
func (c *Connector) CoreRect() geometry.Rect    { return c.core }
func (c *Connector) EllipseRect() geometry.Rect { return c.ellipse }

// Linked reports whether the badge carries its interactive link.
func (c *Connector) Linked() bool { return c.linked }

// DisableLink drops the link, used when the destination is not drawn.
func (c *Connector) DisableLink() { c.linked = false }

func (c *Connector) link() string {
	if !c.linked {
		return ""
	}
	return actionLink(
		ids.Tags(ids.Key("s", c.owner.Name(), "to", c.conn.Dest, "l")),
		ids.Tags(ids.Key("s", c.conn.Dest, "interface", "l")),
	)
}

// normalize places the ellipse on the left, leaves room for the protocol
// label, and puts the destination box after it.
func (c *Connector) normalize() geometry.Rect {
	p := c.env.props().Connector
	labelW, _ := c.env.measure(c.text, c.labelStyle)
	coreX := c.ellipse.W + 2*p.TransportLabelXShift + labelW
	c.ellipse = c.ellipse.At(geometry.Position{Y: (c.core.H - c.ellipse.H) / 2})
	c.core = c.core.At(geometry.Position{X: coreX})
	c.rect.W = coreX + c.core.W + p.XShift
	c.rect.H = c.core.H
	return c.rect
}

func (c *Connector) setPosition(pos geometry.Position) { c.rect = c.rect.At(pos) }

func (c *Connector) emit(root *etree.Element) {
	group := userObject(c.ID(),
		"label", "",
		"tags", ids.Tag("connector"),
		"link", c.link(),
		"Description", c.conn.Description,
		"Protocol", c.conn.Protocol,
		"Transport", c.conn.Transport,
	)
	gc := vertexCell("", c.groupStyle, c.owner.ID())
	gc.CreateAttr("connectable", "0")
	addGeometry(gc, c.rect)
	group.AddChild(gc)
	root.AddChild(group)

	core := vertexCell(c.key("core"), c.coreStyle, c.ID())
	core.CreateAttr("value", c.conn.Dest)
	addGeometry(core, c.core)
	root.AddChild(core)

	ellipse := vertexCell(c.key("ellipse"), c.ellipseStyle, c.ID())
	ellipse.CreateAttr("value", "")
	addGeometry(ellipse, c.ellipse)
	root.AddChild(ellipse)

	arrow := etree.NewElement("mxCell")
	arrow.CreateAttr("id", ids.ID(c.key("arrow")))
	if c.arrowStyle != nil {
		arrow.CreateAttr("style", c.arrowStyle.String())
	}
	arrow.CreateAttr("edge", "1")
	arrow.CreateAttr("parent", ids.ID(c.ID()))
	arrow.CreateAttr("source", ids.ID(c.key("ellipse")))
	arrow.CreateAttr("target", ids.ID(c.key("core")))
	addEdgeGeometry(arrow)
	root.AddChild(arrow)

	label := vertexCell(c.key("label"), c.labelStyle, c.key("arrow"))
	label.CreateAttr("value", c.text)
	label.CreateAttr("connectable", "0")
	g := label.CreateElement("mxGeometry")
	g.CreateAttr("x", "0")
	g.CreateAttr("relative", "1")
	g.CreateAttr("as", "geometry")
	pt := g.CreateElement("mxPoint")
	pt.CreateAttr("as", "offset")
	root.AddChild(label)
}
