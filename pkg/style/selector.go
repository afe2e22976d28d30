package style

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdiagram/pkg/graph"
)

// Connector badge parts with their own style rules.
const (
	PartCore    = "core"
	PartEllipse = "ellipse"
	PartLabel   = "label"
	PartArrow   = "arrow"
)

// Selector knows the fallback chain of every element category. A selector
// with a focus service resolves the "-selected" variants for that service.
//
// Selectors are cheap; build one per diagram.
type Selector struct {
	Sheet  *Sheet
	Props  *Props
	Logger *log.Logger

	focus   string
	missing map[string]bool
}

// NewSelector returns a selector without focus.
func NewSelector(sheet *Sheet, props *Props, logger *log.Logger) *Selector {
	if props == nil {
		props = DefaultProps()
	}
	return &Selector{Sheet: sheet, Props: props, Logger: logger}
}

// WithFocus returns a copy of s that highlights service.
func (s *Selector) WithFocus(service string) *Selector {
	c := *s
	c.focus = service
	c.missing = nil
	return &c
}

// Focus returns the highlighted service name, or "".
func (s *Selector) Focus() string { return s.focus }

func (s *Selector) focused(svc *graph.Service) bool {
	return s.focus != "" && svc != nil && svc.Name == s.focus
}

// first resolves names and reports each unresolvable chain once.
func (s *Selector) first(names ...string) *Style {
	if st := s.Sheet.FirstAvailable(names...); st != nil {
		return st
	}
	key := strings.Join(names, ",")
	if s.missing == nil {
		s.missing = make(map[string]bool)
	}
	if !s.missing[key] && s.Logger != nil {
		s.Logger.Warn("no style found", "candidates", key)
	}
	s.missing[key] = true
	return nil
}

// Missing returns how many distinct candidate chains failed to resolve.
func (s *Selector) Missing() int { return len(s.missing) }

// Named resolves a single rule.
func (s *Selector) Named(name string) *Style { return s.first(name) }

// Service returns the style of a service box.
func (s *Selector) Service(svc *graph.Service) *Style {
	t := string(svc.Broker)
	names := []string{
		"service-container-" + t + "-" + svc.Module,
		"service-container-" + t,
		"service-container",
	}
	if s.focused(svc) {
		names = append([]string{"service-container-selected"}, names...)
	}
	return s.first(names...)
}

// ServiceImage returns the style of the module image.
func (s *Selector) ServiceImage(svc *graph.Service) *Style {
	return s.first("service-container-image-"+svc.Module, "service-container-image")
}

// ServiceLabel returns the style of the name label.
func (s *Selector) ServiceLabel(svc *graph.Service) *Style {
	return s.first("service-container-core-label-"+svc.Module, "service-container-core-label")
}

// StatusLabel returns the style of the status badge.
func (s *Selector) StatusLabel(svc *graph.Service) *Style {
	return s.first("service-status-label-"+string(svc.Status), "service-status-label")
}

// BrokerImage returns the style of the broker icon.
func (s *Selector) BrokerImage(svc *graph.Service) *Style {
	return s.first(string(svc.Broker)+"-image", "broker-image")
}

// Topic returns the enabled style of a topic.
func (s *Selector) Topic(svc *graph.Service, d graph.Direction) *Style {
	if s.focused(svc) {
		return s.first("service-topic-"+string(d)+"-selected", "service-topic-"+string(d))
	}
	return s.first("service-topic-" + string(d))
}

// TopicDisabled returns the style of a topic without a counterpart.
func (s *Selector) TopicDisabled(d graph.Direction) *Style {
	return s.first("service-topic-disable-" + string(d))
}

// TopicHighlighted returns the style of a linked topic that shares a channel
// with the focused service.
func (s *Selector) TopicHighlighted(d graph.Direction) *Style {
	return s.first("service-topic-"+string(d)+"-selected", "service-topic-"+string(d))
}

// Container returns the style of a topics container.
func (s *Selector) Container(svc *graph.Service) *Style {
	names := []string{"service-topics-container-" + svc.Module, "service-topics-container"}
	if s.focused(svc) {
		names = append([]string{"service-topics-container-selected"}, names...)
	}
	return s.first(names...)
}

// ContainerLabel returns the style of a topics container caption.
func (s *Selector) ContainerLabel(svc *graph.Service) *Style {
	names := []string{"service-topics-container-label-" + svc.Module, "service-topics-container-label"}
	if s.focused(svc) {
		names = append([]string{"service-topics-container-label-selected"}, names...)
	}
	return s.first(names...)
}

// ConnectorPart returns the style of one part of a connector badge.
func (s *Selector) ConnectorPart(svc *graph.Service, part string) *Style {
	return s.first("service-connector-"+part+"-"+svc.Module, "service-connector-"+part)
}
