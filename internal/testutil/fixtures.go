// Package testutil provides a small, complete style sheet, props table and
// diagram skeleton shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/netdiagram/pkg/diagram"
	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/style"
	"github.com/matzehuels/netdiagram/pkg/textmetrics"
)

// CSS declares every rule the diagram packages ask for.
const CSS = `
.group { group: __; }
.service-container { rounded: 1; whiteSpace: wrap; fill-color: #f5f5f5; font-family: "Go"; font-size: 12; }
.service-container-kafka { rounded: 1; fill-color: #e1d5e7; font-family: "Go"; font-size: 12; }
.service-container-selected { rounded: 1; fill-color: #fff2cc; font-family: "Go"; font-size: 12; }
.service-container-image { shape: image; image: img/module.svg; }
.service-container-core-label { text: __; align: left; font-family: "Go"; font-size: 14; }
.service-status-label { text: __; font-color: #b85450; font-family: "Go"; font-size: 9; }
.broker-image { shape: image; image: img/broker.svg; }
.service-topic-rx { rounded: 1; fill-color: #dae8fc; font-family: "Go"; font-size: 11; }
.service-topic-tx { rounded: 1; fill-color: #d5e8d4; font-family: "Go"; font-size: 11; }
.service-topic-rx-selected { rounded: 1; fill-color: #ffe6cc; font-family: "Go"; font-size: 11; }
.service-topic-tx-selected { rounded: 1; fill-color: #ffe6cc; font-family: "Go"; font-size: 11; }
.service-topic-disable-rx { rounded: 1; fill-color: #eeeeee; font-family: "Go"; font-size: 11; }
.service-topic-disable-tx { rounded: 1; fill-color: #eeeeee; font-family: "Go"; font-size: 11; }
.service-topics-container { rounded: 0; fill-color: none; dashed: 1; }
.service-topics-container-selected { rounded: 0; fill-color: #fff2cc; dashed: 1; }
.service-topics-container-label { text: __; font-family: "Go"; font-size: 10; }
.service-connector-core { rounded: 1; font-family: "Go"; font-size: 11; }
.service-connector-ellipse { ellipse: __; fill-color: #000000; }
.service-connector-label { edge-label: __; font-family: "Go"; font-size: 9; }
.service-connector-arrow { end-arrow: classic; html: 1; }
.service-topics-arrow { edge-style: orthogonalEdgeStyle; entry-x: 0; exit-x: 1; }
.service-connect-to-arrow { edge-style: orthogonalEdgeStyle; dashed: 1; }
`

// Props overrides a few defaults so tests exercise the YAML path.
const Props = `
service-core:
  width_min: 160
  height_min: 60
  label_height: 20
  status_label_height: 12
  add_images_by_service_module: [frontend]
  y_image_shift: 30
service-topic:
  height: 20
  x_shift: 10
  disable_arrow_links_service_name: [legacy]
service-topics-container:
  hide_topics_for_services: [hidden]
system:
  column_services_cnt_max: 3
  column_services_h_max: 100000
`

// Skeleton is a minimal diagram document with a control panel group.
const Skeleton = `<mxfile host="netdiagram"><diagram id="network" name="Network"><mxGraphModel dx="1000" dy="800" grid="1"><root><mxCell id="0"/><mxCell id="1" parent="0"/><mxCell id="control#panel#group" style="group" vertex="1" connectable="0" parent="1"><mxGeometry x="0" y="0" width="120" height="24" as="geometry"/></mxCell></root></mxGraphModel></diagram></mxfile>`

// OrdersYAML is the document form of [OrdersGraph]; c is also a product.
const OrdersYAML = `
categories: [core, edge]
services:
  - name: kafka
    category: core
    module: infra
    broker: kafka
    status: ready
  - name: a
    category: core
    module: backend
    status: ready
    connect_to:
      - name: kafka
        direction: tx
        topics: [{name: orders, description: new orders}]
  - name: b
    category: core
    module: backend
    status: develop
    connect_to:
      - name: kafka
        direction: rx
        topics: [{name: orders}]
  - name: c
    category: edge
    module: frontend
    status: ready
    product: true
    connect_to:
      - name: d
        direction: tx
        protocol: http
      - name: a
        direction: tx
        protocol: grpc
  - name: d
    category: edge
    module: external
    unavailable: true
`

// WriteMeta writes the style sheet, props and both skeletons under
// dir/meta/diagrams/network and returns the meta directory.
func WriteMeta(t testing.TB, dir string) string {
	t.Helper()
	meta := filepath.Join(dir, "meta")
	network := filepath.Join(meta, "diagrams", "network")
	WriteFile(t, filepath.Join(network, "styles.css"), CSS)
	WriteFile(t, filepath.Join(network, "props.yaml"), Props)
	WriteFile(t, filepath.Join(network, "template.xml"), Skeleton)
	WriteFile(t, filepath.Join(network, "template_service.xml"), Skeleton)
	return meta
}

// WriteFile writes content to path, creating parents, and returns path.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Sheet parses [CSS].
func Sheet(t testing.TB) *style.Sheet {
	t.Helper()
	s, err := style.ParseSheet(strings.NewReader(CSS))
	if err != nil {
		t.Fatalf("parse fixture sheet: %v", err)
	}
	return s
}

// PropsTable parses [Props].
func PropsTable(t testing.TB) *style.Props {
	t.Helper()
	p, err := style.ParseProps(strings.NewReader(Props))
	if err != nil {
		t.Fatalf("parse fixture props: %v", err)
	}
	return p
}

// Selector builds a selector over the fixtures.
func Selector(t testing.TB) *style.Selector {
	t.Helper()
	return style.NewSelector(Sheet(t), PropsTable(t), nil)
}

// Env returns a diagram environment over g with the fixture styles and the
// fallback font.
func Env(t testing.TB, g *graph.Graph) *diagram.Env {
	t.Helper()
	m := textmetrics.NewMeasurer(nil, nil)
	t.Cleanup(func() { _ = m.Close() })
	return &diagram.Env{Graph: g, Styles: Selector(t), Metrics: m}
}

// OrdersGraph returns a small system: a produces "orders" on kafka, b
// consumes it, c talks to d over http and d is unavailable.
func OrdersGraph(t testing.TB) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder("core", "edge")
	must(t, b.AddService(graph.Service{Name: "kafka", Category: "core", Broker: graph.BrokerKafka, Module: "infra", Status: graph.StatusReady}))
	must(t, b.AddService(graph.Service{Name: "a", Category: "core", Module: "backend", Status: graph.StatusReady}))
	must(t, b.AddService(graph.Service{Name: "b", Category: "core", Module: "backend", Status: graph.StatusDevelop}))
	must(t, b.AddService(graph.Service{Name: "c", Category: "edge", Module: "frontend", Status: graph.StatusReady}))
	must(t, b.AddService(graph.Service{Name: "d", Category: "edge", Module: "external", Unavailable: true}))
	must(t, b.Connect(graph.Connector{
		Source: "a", Dest: "kafka", Direction: graph.TX, Kind: graph.KindTopic,
		Channels: []graph.Channel{{Name: "orders", Description: "new orders"}},
	}))
	must(t, b.Connect(graph.Connector{
		Source: "b", Dest: "kafka", Direction: graph.RX, Kind: graph.KindTopic,
		Channels: []graph.Channel{{Name: "orders"}},
	}))
	must(t, b.Connect(graph.Connector{Source: "c", Dest: "d", Direction: graph.TX, Protocol: "http"}))
	must(t, b.Connect(graph.Connector{Source: "c", Dest: "a", Direction: graph.TX, Protocol: "grpc"}))
	g, err := b.Build()
	must(t, err)
	return g
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
}
