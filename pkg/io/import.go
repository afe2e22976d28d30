package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/graph"
)

// Format selects the document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format by file extension; anything that is not
// ".json" reads as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Read decodes a document from r and builds the graph.
//
// Read returns an error if:
//   - The document is malformed
//   - A required field is missing or a field has an unknown value
//   - A service name is unsafe or duplicated
//   - A connector names more than one channel collection
//   - A rabbitmq queue channel names a queue the broker does not declare
//
// Read does not close r.
func Read(r io.Reader, format Format) (*graph.Graph, error) {
	doc, err := Decode(r, format)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// Decode decodes and validates a document without building it.
func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatYAML, "":
		err = yaml.NewDecoder(r).Decode(&doc)
		if err == io.EOF {
			err = nil
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported document format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph document")
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "validate graph document")
	}
	return &doc, nil
}

// Build turns a decoded document into a frozen graph.
func Build(doc *Document) (*graph.Graph, error) {
	b := graph.NewBuilder(doc.Categories...)
	for _, s := range doc.Services {
		if err := errors.ValidateServiceName(s.Name); err != nil {
			return nil, err
		}
		if err := b.AddService(toService(s, doc.HiddenModules)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "service %s", s.Name)
		}
	}
	for _, s := range doc.Services {
		for _, c := range s.ConnectTo {
			conn, err := toConnector(s.Name, c)
			if err != nil {
				return nil, err
			}
			if err := b.Connect(conn); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "connector %s -> %s", s.Name, c.Name)
			}
		}
	}
	g, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "build graph")
	}
	return g, nil
}

func toService(s Service, hidden []string) graph.Service {
	out := graph.Service{
		Name:        s.Name,
		FullName:    s.FullName,
		Category:    s.Category,
		Module:      s.Module,
		Language:    s.Language,
		Description: s.Description,
		Owners:      s.Owners,
		Broker:      graph.BrokerType(s.Broker),
		Status:      graph.ParseStatus(s.Status),
		Product:     s.Product,
		Unavailable: s.Unavailable || slices.Contains(hidden, s.Module),
	}
	if len(s.Queues) > 0 {
		out.Queues = make(map[string]*graph.BrokerChannel, len(s.Queues))
		for _, q := range s.Queues {
			bc := &graph.BrokerChannel{Name: q.Name}
			for _, b := range q.Bindings {
				bc.Bindings = append(bc.Bindings, graph.Binding{Exchange: b.Exchange, RoutingKey: b.RoutingKey})
			}
			out.Queues[q.Name] = bc
		}
	}
	return out
}

// toConnector infers the channel kind from the collection that is present.
func toConnector(source string, c ConnectTo) (graph.Connector, error) {
	conn := graph.Connector{
		Source:      source,
		Dest:        c.Name,
		Direction:   graph.Direction(c.Direction),
		Kind:        graph.KindOther,
		Transport:   c.Transport,
		Protocol:    c.Protocol,
		Description: c.Description,
	}
	sets := []struct {
		kind     graph.ChannelKind
		channels []Channel
	}{
		{graph.KindTopic, c.Topics},
		{graph.KindQueue, c.Queues},
		{graph.KindExchange, c.Exchanges},
		{graph.KindCeleryTask, c.CeleryTasks},
	}
	for _, set := range sets {
		if set.channels == nil {
			continue
		}
		if conn.Kind != graph.KindOther {
			return graph.Connector{}, errors.New(errors.ErrCodeInvalidGraph,
				"connector %s -> %s has both %s and %s channels", source, c.Name, conn.Kind, set.kind)
		}
		conn.Kind = set.kind
		conn.Channels = make([]graph.Channel, 0, len(set.channels))
		for _, ch := range set.channels {
			conn.Channels = append(conn.Channels, graph.Channel(ch))
		}
	}
	return conn, nil
}

// ImportFile reads the document at path and builds the graph.
func ImportFile(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	g, err := Read(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
