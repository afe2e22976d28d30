package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Graph is a frozen, resolved service graph.
type Graph struct {
	categories []string
	services   map[string]*Service
	order      []string
}

// Categories returns the category names in layout order.
func (g *Graph) Categories() []string { return g.categories }

// Service returns the named service, or nil.
func (g *Graph) Service(name string) *Service { return g.services[name] }

// Services returns every service in declaration order.
func (g *Graph) Services() []*Service {
	out := make([]*Service, len(g.order))
	for i, n := range g.order {
		out[i] = g.services[n]
	}
	return out
}

// Available returns the drawable services in declaration order.
func (g *Graph) Available() []*Service {
	return lo.Filter(g.Services(), func(s *Service, _ int) bool { return !s.Unavailable })
}

// IsAvailable reports whether name exists and may be drawn.
func (g *Graph) IsAvailable(name string) bool {
	s := g.services[name]
	return s != nil && !s.Unavailable
}

// ConnectorsInto returns every connector whose destination is name.
func (g *Graph) ConnectorsInto(name string) []*Connector {
	var out []*Connector
	for _, n := range g.order {
		for _, c := range g.services[n].Connectors {
			if c.Dest == name {
				out = append(out, c)
			}
		}
	}
	return out
}

// Len returns the number of services.
func (g *Graph) Len() int { return len(g.order) }

// ConnectorCount returns the number of connectors across all services.
func (g *Graph) ConnectorCount() int {
	n := 0
	for _, s := range g.services {
		n += len(s.Connectors)
	}
	return n
}

// =============================================================================
// Builder
// =============================================================================

// Builder assembles a [Graph]. It is not safe for concurrent use and must not
// be reused after Build.
type Builder struct {
	g     *Graph
	built bool
}

// NewBuilder starts a graph whose categories are laid out in the given order.
func NewBuilder(categories ...string) *Builder {
	return &Builder{g: &Graph{
		categories: categories,
		services:   make(map[string]*Service),
	}}
}

// AddService adds s. Declared queues (with bindings) may be passed through
// s.Queues; they are copied.
func (b *Builder) AddService(s Service) error {
	if s.Name == "" {
		return fmt.Errorf("service name is empty")
	}
	if _, ok := b.g.services[s.Name]; ok {
		return fmt.Errorf("duplicate service %q", s.Name)
	}
	if s.Status == "" {
		s.Status = StatusUnknown
	}
	declared := s.Queues
	s.Connectors = nil
	s.Topics = map[string]*BrokerChannel{}
	s.Queues = map[string]*BrokerChannel{}
	s.CeleryTasks = map[string]*BrokerChannel{}
	s.Exchanges = map[string]*BrokerChannel{}
	s.queueOrder = nil
	svc := &s
	svc.queueOrder = lo.Keys(declared)
	slices.Sort(svc.queueOrder)
	for _, name := range svc.queueOrder {
		q := &BrokerChannel{Name: name}
		if d := declared[name]; d != nil {
			q.Bindings = append([]Binding(nil), d.Bindings...)
		}
		svc.Queues[name] = q
	}
	b.g.services[s.Name] = svc
	b.g.order = append(b.g.order, s.Name)
	return nil
}

// Connect appends c to its source service's connectors.
func (b *Builder) Connect(c Connector) error {
	src := b.g.services[c.Source]
	if src == nil {
		return fmt.Errorf("connector source %q is not a known service", c.Source)
	}
	if c.Dest == "" {
		return fmt.Errorf("connector from %q has no destination", c.Source)
	}
	if c.Direction != RX && c.Direction != TX {
		return fmt.Errorf("connector %s -> %s: invalid direction %q", c.Source, c.Dest, c.Direction)
	}
	if c.Kind == "" {
		c.Kind = KindOther
	}
	if c.Kind == KindOther {
		c.Channels = nil
	}
	c.Channels = append([]Channel(nil), c.Channels...)
	for i := range c.Channels {
		ch := &c.Channels[i]
		if c.Kind == KindExchange && ch.Exchange == "" {
			ch.Exchange = ch.Name
		}
		if c.Kind == KindQueue && ch.Queue == "" {
			ch.Queue = ch.Name
		}
	}
	src.Connectors = append(src.Connectors, &c)
	return nil
}

// Build resolves defaults and broker tables and returns the frozen graph.
// Connectors may point at services that are not part of the graph; such
// destinations are treated as never built by the diagram compiler.
func (b *Builder) Build() (*Graph, error) {
	if b.built {
		return nil, fmt.Errorf("builder already used")
	}
	b.built = true

	// Celery usage must be known before any broker table is filled, since it
	// turns the destination into a broker.
	for _, name := range b.g.order {
		for _, c := range b.g.services[name].Connectors {
			if dest := b.g.services[c.Dest]; dest != nil && c.Kind == KindCeleryTask {
				dest.UsedAsCelery = true
			}
		}
	}

	for _, name := range b.g.order {
		for _, c := range b.g.services[name].Connectors {
			dest := b.g.services[c.Dest]
			defaultTransport(c, dest)
			if dest == nil || !dest.IsBroker() || !c.HasChannels() {
				continue
			}
			if err := register(c, dest); err != nil {
				return nil, err
			}
		}
	}
	return b.g, nil
}

func defaultTransport(c *Connector, dest *Service) {
	if c.Transport != "" {
		return
	}
	if dest != nil && dest.IsKafka() {
		c.Transport = "tcp"
	}
	switch c.Protocol {
	case "ws", "wss", "http", "https", "grpc":
		c.Transport = "tcp"
	default:
		if strings.Contains(c.Protocol, "grpc") {
			c.Transport = "tcp"
		}
	}
}

// register records c's source as a participant of every channel it carries on
// the destination broker.
func register(c *Connector, dest *Service) error {
	for _, ch := range c.Channels {
		switch c.Kind {
		case KindTopic:
			entry(dest.Topics, ch.Name).add(c.Direction, c.Source)
		case KindCeleryTask:
			entry(dest.CeleryTasks, ch.Name).add(c.Direction, c.Source)
		case KindQueue:
			q, ok := dest.Queues[ch.Queue]
			if !ok {
				if dest.IsRabbitMQ() {
					return fmt.Errorf("could not find queue %q in broker %q", ch.Queue, dest.Name)
				}
				q = entry(dest.Queues, ch.Queue)
				dest.queueOrder = append(dest.queueOrder, ch.Queue)
			}
			q.add(c.Direction, c.Source)
		case KindExchange:
			entry(dest.Exchanges, ch.Name).add(c.Direction, c.Source)
			for _, qn := range dest.queueOrder {
				q := dest.Queues[qn]
				for _, bnd := range q.Bindings {
					if bnd.Exchange == ch.Exchange && RoutingMatch(ch.RoutingKey, bnd.RoutingKey) {
						q.add(c.Direction, c.Source)
						break
					}
				}
			}
		}
	}
	return nil
}

func entry(table map[string]*BrokerChannel, name string) *BrokerChannel {
	e, ok := table[name]
	if !ok {
		e = &BrokerChannel{Name: name}
		table[name] = e
	}
	return e
}
