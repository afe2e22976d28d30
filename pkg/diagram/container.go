package diagram

import (
	"github.com/beevik/etree"

	"github.com/matzehuels/netdiagram/pkg/geometry"
	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/ids"
	"github.com/matzehuels/netdiagram/pkg/style"
)

// Container groups the topics one connector carries in one direction.
type Container struct {
	env   *Env
	owner *Service
	conn  *graph.Connector
	dest  *graph.Service

	caption    string
	rect       geometry.Rect
	label      geometry.Rect
	style      *style.Style
	labelStyle *style.Style
	topics     []*Topic
}

func newContainer(env *Env, owner *Service, conn *graph.Connector) *Container {
	c := &Container{
		env:   env,
		owner: owner,
		conn:  conn,
		dest:  env.service(conn.Dest),
	}
	c.style = env.Styles.Container(owner.svc)
	c.labelStyle = env.Styles.ContainerLabel(owner.svc)
	c.caption = caption(conn, c.dest)
	w, _ := env.measure(c.caption, c.labelStyle)
	c.label = geometry.Rect{W: w + 7, H: env.props().TopicsContainer.LabelHeight}
	for _, ch := range conn.Channels {
		c.topics = append(c.topics, newTopic(env, c, ch))
	}
	c.rect = geometry.Rect{W: c.label.W, H: c.label.H}
	return c
}

// caption names the container after the channel kind the broker speaks.
func caption(conn *graph.Connector, dest *graph.Service) string {
	prefix := "Consumer"
	if conn.Direction == graph.TX {
		prefix = "Producer"
	}
	noun := "Channels"
	switch {
	case dest == nil:
	case dest.IsKafka():
		noun = "Topics"
	case dest.UsedAsCelery || conn.Kind == graph.KindCeleryTask:
		noun = "Tasks"
	case dest.Broker == graph.BrokerActiveMQ:
		noun = "Queues"
	case dest.IsRabbitMQ() && conn.Direction == graph.RX:
		noun = "Queues"
	case dest.IsRabbitMQ():
		noun = "Exchanges"
	}
	text := prefix + " " + noun
	if conn.Kind == graph.KindOther {
		text += " (" + conn.Dest + ")"
	}
	return text
}

// ID returns "s#{service}#topics#{dest}#{direction}".
func (c *Container) ID() string {
	return ids.Key("s", c.owner.Name(), "topics", c.conn.Dest, string(c.conn.Direction))
}

func (c *Container) Rect() geometry.Rect { return c.rect }
func (c *Container) Parent() Element     { return c.owner }

// Broker returns the destination name.
func (c *Container) Broker() string { return c.conn.Dest }

func (c *Container) Direction() graph.Direction { return c.conn.Direction }
func (c *Container) Connector() *graph.Connector { return c.conn }

// Caption returns the label text.
func (c *Container) Caption() string { return c.caption }

// LabelRect returns the caption geometry in service coordinates.
func (c *Container) LabelRect() geometry.Rect { return c.label }

// Topics returns the topics in channel declaration order.
func (c *Container) Topics() []*Topic { return c.topics }

// link returns the container action, set only for non-broker destinations.
func (c *Container) link() string {
	if c.dest != nil && c.dest.IsBroker() {
		return ""
	}
	return actionLink(
		ids.Tags(ids.Key("s", c.owner.Name(), "to", c.conn.Dest, "l")),
		ids.Tags(ids.Key("s", c.conn.Dest, "interface", "l")),
	)
}

// normalize sizes the container around its caption and topics. All topics
// share the widest topic width.
func (c *Container) normalize() geometry.Rect {
	p := c.env.props()
	tc := p.TopicsContainer
	w := c.label.W
	for _, t := range c.topics {
		w = max(w, t.minWidth)
	}
	for _, t := range c.topics {
		t.setWidth(w)
	}
	n := float64(len(c.topics))
	c.rect.W = 2*tc.XTopicShift + w
	c.rect.H = tc.YTopicShift + tc.BottomTopicShift + n*(p.Topic.Height+tc.HTopicsShift)
	c.setPosition(c.rect.Pos())
	return c.rect
}

// setPosition moves the container and lays out its caption and topics.
// Caption and topics are cells of the service group, so their geometry is
// kept in service coordinates too.
func (c *Container) setPosition(pos geometry.Position) {
	tc := c.env.props().TopicsContainer
	c.rect = c.rect.At(pos)
	c.label = c.label.At(pos.Add(geometry.Position{X: tc.LabelXShift, Y: tc.LabelYShift}))
	y := pos.Y + tc.YTopicShift
	for _, t := range c.topics {
		t.setPosition(geometry.Position{X: pos.X + tc.XTopicShift, Y: y})
		y += t.rect.H + tc.HTopicsShift
	}
}

func (c *Container) emit(root *etree.Element) {
	obj := userObject(c.ID(), "label", "", "link", c.link())
	cell := vertexCell("", c.style, c.owner.ID())
	addGeometry(cell, c.rect)
	obj.AddChild(cell)
	root.AddChild(obj)

	label := vertexCell(ids.Key(c.ID(), "label"), c.labelStyle, c.owner.ID())
	label.CreateAttr("value", c.caption)
	addGeometry(label, c.label)
	root.AddChild(label)

	for _, t := range c.topics {
		t.emit(root)
	}
}
