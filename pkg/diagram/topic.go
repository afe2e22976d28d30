package diagram

import (
	"github.com/beevik/etree"

	"github.com/matzehuels/netdiagram/pkg/geometry"
	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/ids"
	"github.com/matzehuels/netdiagram/pkg/style"
)

// Topic is one channel box inside a [Container].
type Topic struct {
	env       *Env
	owner     *Service
	container *Container
	dest      *graph.Service
	conn      *graph.Connector
	ch        graph.Channel

	rect     geometry.Rect
	minWidth float64
	style    *style.Style
	linkable bool
	link     string
	producer string
}

func newTopic(env *Env, c *Container, ch graph.Channel) *Topic {
	t := &Topic{
		env:       env,
		owner:     c.owner,
		container: c,
		dest:      c.dest,
		conn:      c.conn,
		ch:        ch,
	}
	p := env.props()
	t.linkable = t.hasCounterpart()
	if t.enabled() {
		t.style = env.Styles.Topic(t.owner.svc, t.Direction())
	} else {
		t.style = env.Styles.TopicDisabled(t.Direction())
	}
	if t.linkable {
		toggle, hide := t.actions()
		t.link = actionLink(toggle, hide)
	}
	w, _ := env.measure(ch.Name, t.style)
	t.minWidth = w + p.Topic.XShift + 7
	t.rect = geometry.Rect{W: t.minWidth, H: p.Topic.Height}
	return t
}

// ID returns "s#{service}#topic#{broker}#{direction}#{channel}".
func (t *Topic) ID() string {
	return ids.Key("s", t.owner.Name(), "topic", t.conn.Dest, string(t.Direction()), t.ch.Name)
}

func (t *Topic) Rect() geometry.Rect { return t.rect }
func (t *Topic) Parent() Element     { return t.owner }

// Name returns the channel name.
func (t *Topic) Name() string { return t.ch.Name }

// Service returns the name of the service that owns the topic.
func (t *Topic) Service() string { return t.owner.Name() }

// Broker returns the destination the channel lives on.
func (t *Topic) Broker() string { return t.conn.Dest }

func (t *Topic) Direction() graph.Direction { return t.conn.Direction }
func (t *Topic) Kind() graph.ChannelKind    { return t.conn.Kind }
func (t *Topic) Channel() graph.Channel     { return t.ch }

// Linkable reports whether the broker has a participant on the opposite side
// of the channel.
func (t *Topic) Linkable() bool { return t.linkable }

// Linked reports whether the emitted topic carries an interactive link.
func (t *Topic) Linked() bool { return t.link != "" }

// Link returns the link attribute, or "".
func (t *Topic) Link() string { return t.link }

// Style returns the resolved style.
func (t *Topic) Style() *style.Style { return t.style }

// DisableLink removes the interactive link.
func (t *Topic) DisableLink() { t.link = "" }

// SetStyle replaces the resolved style.
func (t *Topic) SetStyle(st *style.Style) { t.style = st }

// SetProducerName records the producing service on a consumer topic.
func (t *Topic) SetProducerName(name string) { t.producer = name }

func (t *Topic) setWidth(w float64) { t.rect.W = w }

func (t *Topic) setPosition(p geometry.Position) { t.rect = t.rect.At(p) }

// enabled reports whether the regular style applies. Only broker channels
// without a counterpart are greyed out; services whose links are switched
// off keep their normal look.
func (t *Topic) enabled() bool {
	if t.dest == nil || !t.dest.IsBroker() {
		return true
	}
	return t.linkable || t.env.props().TopicLinksDisabled(t.owner.Name())
}

func (t *Topic) hasCounterpart() bool {
	if t.dest == nil || !t.dest.IsBroker() {
		return false
	}
	if t.env.props().TopicLinksDisabled(t.owner.Name()) {
		return false
	}
	if t.dest.IsRabbitMQ() {
		return t.rabbitCounterpart()
	}
	bc := t.dest.Channel(t.Kind(), t.lookupName())
	return len(bc.Participants(t.Direction().Opposite())) > 0
}

// rabbitCounterpart resolves reachability through queue bindings. Consumers
// read queues, so an rx channel needs a producer on its queue. Producers
// publish to exchanges, so a tx channel needs a consumer on some queue bound
// to the exchange with a matching routing key.
func (t *Topic) rabbitCounterpart() bool {
	switch {
	case t.Direction() == graph.RX:
		q := t.dest.Queues[t.queueName()]
		return len(q.Participants(graph.TX)) > 0
	case t.Kind() == graph.KindExchange:
		for _, qn := range t.dest.QueueNames() {
			q := t.dest.Queues[qn]
			if len(q.RX) == 0 {
				continue
			}
			for _, b := range q.Bindings {
				if b.Exchange == t.exchangeName() && graph.RoutingMatch(t.ch.RoutingKey, b.RoutingKey) {
					return true
				}
			}
		}
		return false
	default:
		bc := t.dest.Channel(t.Kind(), t.lookupName())
		return len(bc.Participants(graph.RX)) > 0
	}
}

func (t *Topic) queueName() string {
	if t.ch.Queue != "" {
		return t.ch.Queue
	}
	return t.ch.Name
}

func (t *Topic) exchangeName() string {
	if t.ch.Exchange != "" {
		return t.ch.Exchange
	}
	return t.ch.Name
}

// lookupName returns the broker table key of the channel.
func (t *Topic) lookupName() string {
	if t.Kind() == graph.KindQueue {
		return t.queueName()
	}
	return t.ch.Name
}

func (t *Topic) tagKey(parts ...string) string {
	return ids.Key(append([]string{"broker", t.Broker(), "topic"}, parts...)...)
}

// actions returns the toggle and hide tags of the topic link.
func (t *Topic) actions() (toggle, hide []string) {
	svc := t.owner.Name()
	if t.dest != nil && t.dest.IsRabbitMQ() {
		if t.Direction() == graph.RX {
			q := t.dest.Queues[t.queueName()]
			if q == nil {
				return nil, nil
			}
			for _, b := range q.Bindings {
				x := b.Exchange
				if b.RoutingKey != "" {
					x += "/" + b.RoutingKey
				}
				toggle = append(toggle, ids.Tag(t.tagKey(x, svc, "l")))
				hide = append(hide, ids.Tag(t.tagKey(x, "l")))
			}
			return toggle, hide
		}
		return ids.Tags(t.tagKey(t.ch.Name, "l", svc)), ids.Tags(t.tagKey(t.ch.Name, "l", "rx"))
	}
	if t.Direction() == graph.RX {
		return ids.Tags(t.tagKey(t.ch.Name, svc, "l")), ids.Tags(t.tagKey(t.ch.Name, "l"))
	}
	return ids.Tags(t.tagKey(t.ch.Name, "l")), ids.Tags(t.tagKey(t.ch.Name, "l", "rx"))
}

func (t *Topic) tag() string {
	if t.dest != nil && t.dest.UsedAsCelery || t.Kind() == graph.KindCeleryTask {
		return "celery_task"
	}
	return "topic"
}

func (t *Topic) emit(root *etree.Element) {
	attrs := []string{
		"tags", ids.Tag(t.tag()),
		"label", t.ch.Name,
		"Broker", t.Broker(),
	}
	if t.Kind() == graph.KindExchange {
		attrs = append(attrs, "Exchange", t.exchangeName(), "RoutingKey", t.ch.RoutingKey)
	}
	attrs = append(attrs,
		"producer", t.producer,
		"link", t.link,
		"Description", t.ch.Description,
	)
	obj := userObject(t.ID(), attrs...)
	cell := vertexCell("", t.style, t.owner.ID())
	addGeometry(cell, t.rect)
	obj.AddChild(cell)
	root.AddChild(obj)
}
