// Package graph provides the resolved service graph consumed by the diagram
// compiler.
//
// A [Graph] is frozen once [Builder.Build] returns: services, their outbound
// connectors and the broker-side participation tables never change afterwards.
// Everything that used to be "filled in" lazily while walking connectors
// (transport defaults, which services produce or consume a broker channel,
// which queues an exchange producer reaches through bindings) happens inside
// the builder, so the diagram packages only ever read.
//
// # Core Types
//
//   - [Service]: one documented component, possibly a broker
//   - [Connector]: a directed, typed relationship to a destination service
//   - [Channel]: one named topic/queue/exchange/task carried by a connector
//   - [BrokerChannel]: the broker-side view of a channel (who sends, who receives)
//
// # Usage
//
//	b := graph.NewBuilder("core", "edge")
//	_ = b.AddService(graph.Service{Name: "kafka", Category: "core", Broker: graph.BrokerKafka})
//	_ = b.AddService(graph.Service{Name: "orders", Category: "core"})
//	_ = b.Connect(graph.Connector{
//	    Source: "orders", Dest: "kafka",
//	    Direction: graph.TX, Kind: graph.KindTopic,
//	    Channels: []graph.Channel{{Name: "orders.created"}},
//	})
//	g, err := b.Build()
package graph
