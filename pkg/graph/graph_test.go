package graph

import (
	"slices"
	"testing"
)

func mustBuild(t *testing.T, b *Builder) *Graph {
	t.Helper()
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return g
}

func TestBuilderRegistersTopicParticipants(t *testing.T) {
	b := NewBuilder("core")
	_ = b.AddService(Service{Name: "kafka", Category: "core", Broker: BrokerKafka})
	_ = b.AddService(Service{Name: "a", Category: "core"})
	_ = b.AddService(Service{Name: "b", Category: "core"})
	_ = b.Connect(Connector{Source: "a", Dest: "kafka", Direction: TX, Kind: KindTopic, Channels: []Channel{{Name: "orders"}}})
	_ = b.Connect(Connector{Source: "b", Dest: "kafka", Direction: RX, Kind: KindTopic, Channels: []Channel{{Name: "orders"}}})
	_ = b.Connect(Connector{Source: "b", Dest: "kafka", Direction: RX, Kind: KindTopic, Channels: []Channel{{Name: "orders"}}})
	g := mustBuild(t, b)

	ch := g.Service("kafka").Channel(KindTopic, "orders")
	if ch == nil {
		t.Fatal("Channel(orders) = nil")
	}
	if !slices.Equal(ch.TX, []string{"a"}) {
		t.Errorf("TX = %v, want [a]", ch.TX)
	}
	if !slices.Equal(ch.RX, []string{"b"}) {
		t.Errorf("RX = %v, want [b] (deduplicated)", ch.RX)
	}
}

func TestBuilderTransportDefaults(t *testing.T) {
	tests := []struct {
		name     string
		dest     Service
		protocol string
		want     string
	}{
		{"kafka dest", Service{Name: "d", Broker: BrokerKafka}, "", "tcp"},
		{"http", Service{Name: "d"}, "http", "tcp"},
		{"grpc-web", Service{Name: "d"}, "grpc-web", "tcp"},
		{"custom", Service{Name: "d"}, "amqp", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			_ = b.AddService(Service{Name: "s"})
			_ = b.AddService(tt.dest)
			_ = b.Connect(Connector{Source: "s", Dest: "d", Direction: TX, Protocol: tt.protocol})
			g := mustBuild(t, b)
			if got := g.Service("s").Connectors[0].Transport; got != tt.want {
				t.Errorf("Transport = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuilderCeleryMakesBroker(t *testing.T) {
	b := NewBuilder()
	_ = b.AddService(Service{Name: "redis"})
	_ = b.AddService(Service{Name: "worker"})
	_ = b.Connect(Connector{Source: "worker", Dest: "redis", Direction: RX, Kind: KindCeleryTask, Channels: []Channel{{Name: "send_mail"}}})
	g := mustBuild(t, b)

	redis := g.Service("redis")
	if !redis.UsedAsCelery || !redis.IsBroker() {
		t.Fatal("celery destination should become a broker")
	}
	if ch := redis.Channel(KindCeleryTask, "send_mail"); ch == nil || len(ch.RX) != 1 {
		t.Errorf("celery task table not filled: %+v", ch)
	}
}

func TestBuilderRabbitBindings(t *testing.T) {
	b := NewBuilder()
	_ = b.AddService(Service{
		Name:   "rmq",
		Broker: BrokerRabbitMQ,
		Queues: map[string]*BrokerChannel{
			"billing": {Bindings: []Binding{{Exchange: "events", RoutingKey: "invoice"}}},
			"audit":   {Bindings: []Binding{{Exchange: "events"}}},
			"other":   {Bindings: []Binding{{Exchange: "misc"}}},
		},
	})
	_ = b.AddService(Service{Name: "producer"})
	_ = b.AddService(Service{Name: "consumer"})
	_ = b.Connect(Connector{Source: "producer", Dest: "rmq", Direction: TX, Kind: KindExchange,
		Channels: []Channel{{Name: "events", RoutingKey: "payment"}}})
	_ = b.Connect(Connector{Source: "consumer", Dest: "rmq", Direction: RX, Kind: KindQueue,
		Channels: []Channel{{Name: "audit"}}})
	g := mustBuild(t, b)

	rmq := g.Service("rmq")
	if got := rmq.Queues["audit"].TX; !slices.Equal(got, []string{"producer"}) {
		t.Errorf("audit TX = %v, want [producer]", got)
	}
	if got := rmq.Queues["billing"].TX; len(got) != 0 {
		t.Errorf("billing TX = %v, want empty (routing key mismatch)", got)
	}
	if got := rmq.Queues["other"].TX; len(got) != 0 {
		t.Errorf("other TX = %v, want empty (different exchange)", got)
	}
	if got := rmq.Queues["audit"].RX; !slices.Equal(got, []string{"consumer"}) {
		t.Errorf("audit RX = %v, want [consumer]", got)
	}
	if !slices.Equal(rmq.QueueNames(), []string{"audit", "billing", "other"}) {
		t.Errorf("QueueNames() = %v", rmq.QueueNames())
	}
}

func TestBuilderRabbitUnknownQueue(t *testing.T) {
	b := NewBuilder()
	_ = b.AddService(Service{Name: "rmq", Broker: BrokerRabbitMQ})
	_ = b.AddService(Service{Name: "c"})
	_ = b.Connect(Connector{Source: "c", Dest: "rmq", Direction: RX, Kind: KindQueue, Channels: []Channel{{Name: "missing"}}})
	if _, err := b.Build(); err == nil {
		t.Error("Build() should fail for an undeclared rabbitmq queue")
	}
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder()
	if err := b.AddService(Service{}); err == nil {
		t.Error("empty name should fail")
	}
	_ = b.AddService(Service{Name: "a"})
	if err := b.AddService(Service{Name: "a"}); err == nil {
		t.Error("duplicate name should fail")
	}
	if err := b.Connect(Connector{Source: "x", Dest: "a", Direction: TX}); err == nil {
		t.Error("unknown source should fail")
	}
	if err := b.Connect(Connector{Source: "a", Dest: "b", Direction: "up"}); err == nil {
		t.Error("bad direction should fail")
	}
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Error("second Build() should fail")
	}
}

func TestGraphQueries(t *testing.T) {
	b := NewBuilder("core")
	_ = b.AddService(Service{Name: "a"})
	_ = b.AddService(Service{Name: "b", Unavailable: true})
	_ = b.AddService(Service{Name: "c"})
	_ = b.Connect(Connector{Source: "a", Dest: "c", Direction: TX})
	_ = b.Connect(Connector{Source: "a", Dest: "c", Direction: RX})
	_ = b.Connect(Connector{Source: "b", Dest: "c", Direction: TX})
	g := mustBuild(t, b)

	if n := len(g.Available()); n != 2 {
		t.Errorf("Available() len = %d, want 2", n)
	}
	if g.IsAvailable("b") || !g.IsAvailable("a") || g.IsAvailable("zzz") {
		t.Error("IsAvailable() mismatch")
	}
	if n := len(g.ConnectorsInto("c")); n != 3 {
		t.Errorf("ConnectorsInto(c) = %d, want 3", n)
	}
	if n := len(g.Service("a").ConnectorsByDest()); n != 1 {
		t.Errorf("ConnectorsByDest() = %d, want 1", n)
	}
	if g.ConnectorCount() != 3 {
		t.Errorf("ConnectorCount() = %d, want 3", g.ConnectorCount())
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"ready", StatusReady},
		{"Develop", StatusDevelop},
		{"", StatusUnknown},
		{"gone", StatusUnknown},
	}
	for _, tt := range tests {
		if got := ParseStatus(tt.in); got != tt.want {
			t.Errorf("ParseStatus(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
