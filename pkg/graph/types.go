package graph

import "strings"

// BrokerType identifies the kind of message broker a service is.
type BrokerType string

const (
	BrokerNone     BrokerType = ""
	BrokerKafka    BrokerType = "kafka"
	BrokerActiveMQ BrokerType = "activemq"
	BrokerRabbitMQ BrokerType = "rabbitmq"
)

// Status is the lifecycle status of a service.
type Status string

const (
	StatusReady        Status = "ready"
	StatusDevelop      Status = "develop"
	StatusDecommission Status = "decommission"
	StatusDeprecated   Status = "deprecated"
	StatusUnknown      Status = "unknown"
)

// ParseStatus maps s onto a known status, falling back to [StatusUnknown].
func ParseStatus(s string) Status {
	switch st := Status(strings.ToLower(s)); st {
	case StatusReady, StatusDevelop, StatusDecommission, StatusDeprecated:
		return st
	}
	return StatusUnknown
}

// Direction is the data direction of a connector as seen from its source.
type Direction string

const (
	RX Direction = "rx"
	TX Direction = "tx"
)

// Opposite returns the counterpart direction.
func (d Direction) Opposite() Direction {
	if d == RX {
		return TX
	}
	return RX
}

// ChannelKind is the type of channel set a connector carries.
type ChannelKind string

const (
	KindTopic      ChannelKind = "topic"
	KindQueue      ChannelKind = "queue"
	KindExchange   ChannelKind = "exchange"
	KindCeleryTask ChannelKind = "celery_task"
	KindOther      ChannelKind = "other"
)

// Channel is one named channel carried by a connector.
type Channel struct {
	Name        string
	Description string

	// Exchange and RoutingKey are set for exchange channels. Exchange defaults
	// to Name when the document leaves it out.
	Exchange   string
	RoutingKey string

	// Queue is set for queue channels and defaults to Name.
	Queue string
}

// Connector is a directed, typed edge from Source to Dest.
type Connector struct {
	Source      string
	Dest        string
	Direction   Direction
	Kind        ChannelKind
	Transport   string
	Protocol    string
	Description string

	// Channels is nil for KindOther connectors.
	Channels []Channel
}

// HasChannels reports whether the connector carries a channel set.
func (c *Connector) HasChannels() bool {
	return c.Kind != KindOther && c.Channels != nil
}

// Binding routes an exchange into a queue.
type Binding struct {
	Exchange   string
	RoutingKey string
}

// RoutingMatch reports whether a producer routing key reaches a binding.
// An empty key on either side matches everything.
func RoutingMatch(producerKey, bindingKey string) bool {
	return producerKey == "" || bindingKey == "" || producerKey == bindingKey
}

// BrokerChannel is the broker-side view of one channel: which services
// receive from it and which send to it, in the order they were connected.
type BrokerChannel struct {
	Name     string
	Bindings []Binding
	RX       []string
	TX       []string
}

// Participants returns the service names attached in direction d.
func (c *BrokerChannel) Participants(d Direction) []string {
	if c == nil {
		return nil
	}
	if d == RX {
		return c.RX
	}
	return c.TX
}

func (c *BrokerChannel) add(d Direction, service string) {
	list := &c.TX
	if d == RX {
		list = &c.RX
	}
	for _, s := range *list {
		if s == service {
			return
		}
	}
	*list = append(*list, service)
}

// Service is one node of the graph.
type Service struct {
	Name        string
	FullName    string
	Category    string
	Module      string
	Language    string
	Description string
	Owners      []string
	Broker      BrokerType
	Status      Status
	Product     bool

	// Unavailable services stay in the graph for lookups but are never drawn.
	Unavailable bool

	Connectors []*Connector

	// Broker-side tables, filled by the builder. Queues may be declared up
	// front with bindings for rabbitmq brokers.
	Topics       map[string]*BrokerChannel
	Queues       map[string]*BrokerChannel
	CeleryTasks  map[string]*BrokerChannel
	Exchanges    map[string]*BrokerChannel
	UsedAsCelery bool

	queueOrder []string
}

// DisplayName returns FullName, or Name when no full name is set.
func (s *Service) DisplayName() string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Name
}

// IsBroker reports whether the service routes channels for others.
func (s *Service) IsBroker() bool {
	return s.Broker != BrokerNone || s.UsedAsCelery
}

// IsKafka reports whether the service is a kafka broker.
func (s *Service) IsKafka() bool { return s.Broker == BrokerKafka }

// IsRabbitMQ reports whether the service is a rabbitmq broker.
func (s *Service) IsRabbitMQ() bool { return s.Broker == BrokerRabbitMQ }

// Channel returns the broker-side entry for a channel of the given kind, or
// nil when the service is not a broker or never saw that channel.
func (s *Service) Channel(kind ChannelKind, name string) *BrokerChannel {
	if !s.IsBroker() {
		return nil
	}
	var table map[string]*BrokerChannel
	switch kind {
	case KindTopic:
		table = s.Topics
	case KindQueue:
		table = s.Queues
	case KindCeleryTask:
		table = s.CeleryTasks
	case KindExchange:
		table = s.Exchanges
	}
	return table[name]
}

// QueueNames returns the declared and discovered queues in stable order.
func (s *Service) QueueNames() []string {
	return s.queueOrder
}

// ConnectorsByDest returns the first connector towards each destination, in
// declaration order.
func (s *Service) ConnectorsByDest() []*Connector {
	seen := make(map[string]bool, len(s.Connectors))
	var out []*Connector
	for _, c := range s.Connectors {
		if seen[c.Dest] {
			continue
		}
		seen[c.Dest] = true
		out = append(out, c)
	}
	return out
}
