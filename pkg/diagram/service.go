package diagram

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/matzehuels/netdiagram/pkg/geometry"
	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/ids"
	"github.com/matzehuels/netdiagram/pkg/style"
)

// Fixed icon geometry inside a service box.
var (
	moduleImageRect = geometry.Rect{X: 10, Y: 10, W: 30, H: 35}
	brokerImageRect = geometry.Rect{X: 10, Y: 5, W: 70, H: 70}
)

// Service is the box drawn for one service, together with everything it
// encloses.
type Service struct {
	env *Env
	svc *graph.Service

	rect        geometry.Rect
	label       geometry.Rect
	labelMinW   float64
	status      *geometry.Rect
	image       *geometry.Rect
	brokerImage *geometry.Rect

	groupStyle       *style.Style
	style            *style.Style
	labelStyle       *style.Style
	statusStyle      *style.Style
	imageStyle       *style.Style
	brokerImageStyle *style.Style

	containers []*Container
	connectors []*Connector
}

// NewService builds the element tree of svc with provisional geometry.
func NewService(env *Env, svc *graph.Service) *Service {
	p := env.props()
	s := &Service{env: env, svc: svc}
	s.groupStyle = env.Styles.Named("group")
	s.style = env.Styles.Service(svc)
	s.labelStyle = env.Styles.ServiceLabel(svc)
	s.rect = geometry.Rect{W: p.ServiceCore.WidthMin, H: p.ServiceCore.HeightMin}

	w, _ := env.measure(svc.DisplayName(), s.labelStyle)
	s.labelMinW = w + 7
	s.label = geometry.Rect{Y: 12, W: s.labelMinW, H: p.ServiceCore.LabelHeight}

	if svc.Status != "" && svc.Status != graph.StatusReady {
		s.statusStyle = env.Styles.StatusLabel(svc)
		w, _ := env.measure(string(svc.Status), s.statusStyle)
		s.status = &geometry.Rect{Y: 1, W: w + 7, H: p.ServiceCore.StatusLabelHeight}
	}
	if p.HasImage(svc.Module) {
		s.imageStyle = env.Styles.ServiceImage(svc)
		r := moduleImageRect
		s.image = &r
	}
	if svc.IsKafka() {
		s.brokerImageStyle = env.Styles.BrokerImage(svc)
		r := brokerImageRect
		s.brokerImage = &r
	}

	if !p.HidesTopics(svc.Name) {
		for _, conn := range svc.Connectors {
			if !conn.HasChannels() {
				continue
			}
			s.addContainer(newContainer(env, s, conn))
		}
	}
	for _, conn := range svc.ConnectorsByDest() {
		s.connectors = append(s.connectors, newConnector(env, s, conn))
	}
	return s
}

// addContainer appends c, replacing an earlier container with the same id.
func (s *Service) addContainer(c *Container) {
	for i, old := range s.containers {
		if old.ID() == c.ID() {
			s.containers[i] = c
			return
		}
	}
	s.containers = append(s.containers, c)
}

func (s *Service) key(part string) string { return ids.Key("s", s.svc.Name, part) }

// ID returns the group id "s#{service}#group".
func (s *Service) ID() string { return s.key("group") }

func (s *Service) Rect() geometry.Rect { return s.rect }
func (s *Service) Parent() Element     { return nil }

// Name returns the service name.
func (s *Service) Name() string { return s.svc.Name }

// Graph returns the graph node the element was built from.
func (s *Service) Graph() *graph.Service { return s.svc }

// LabelRect returns the name label geometry relative to the box.
func (s *Service) LabelRect() geometry.Rect { return s.label }

func (s *Service) Containers() []*Container { return s.containers }
func (s *Service) Connectors() []*Connector { return s.connectors }

// Topics returns every topic of every container in layout order.
func (s *Service) Topics() []*Topic {
	var out []*Topic
	for _, c := range s.containers {
		out = append(out, c.topics...)
	}
	return out
}

// SetPosition moves the box. Children are relative and stay in place.
func (s *Service) SetPosition(p geometry.Position) { s.rect = s.rect.At(p) }

// Normalize sizes the service around its children. rx containers stack in a
// column on the left, tx containers line up to the right of that column and
// connectors stack below both. The result never drops below the props
// minimum; kafka brokers get extra room for their icon.
func (s *Service) Normalize() geometry.Rect {
	p := s.env.props()
	tc, cp, sc := p.TopicsContainer, p.Connector, p.ServiceCore

	x, y := tc.XShift, tc.YShift
	if s.image != nil {
		y += sc.YImageShift
	}
	nameW, nameH := s.env.measure(s.svc.Name, s.style)
	if nameW > sc.WidthMin-25 {
		y += 5 + 2*nameH
	} else {
		y += 5 + nameH
	}

	right := s.labelMinW
	if s.status != nil {
		right = max(right, s.status.Right())
	}
	if s.image != nil {
		right = max(right, s.image.Right())
	}
	if s.brokerImage != nil {
		right = max(right, s.brokerImage.Right())
	}

	var rxW, rxH, txH float64
	cy := y
	for _, c := range s.containers {
		if c.Direction() != graph.RX {
			continue
		}
		r := c.normalize()
		c.setPosition(geometry.Position{X: x, Y: cy})
		cy += r.H + tc.XBetween
		rxW = max(rxW, r.W)
		right = max(right, c.rect.Right())
	}
	if cy > y {
		rxH = cy - y - tc.XBetween
	}
	cx := x
	if rxW > 0 {
		cx += rxW + tc.XBetween
	}
	for _, c := range s.containers {
		if c.Direction() == graph.RX {
			continue
		}
		r := c.normalize()
		c.setPosition(geometry.Position{X: cx, Y: y})
		cx += r.W + tc.XBetween
		txH = max(txH, r.H)
		right = max(right, c.rect.Right())
	}
	topicsH := max(rxH, txH)

	connY := y + topicsH + tc.BottomShift
	for _, c := range s.connectors {
		r := c.normalize()
		c.setPosition(geometry.Position{X: cp.XShift, Y: connY})
		connY += r.H + cp.YBetween
		right = max(right, c.rect.Right())
	}

	w := max(right+tc.XShift, sc.WidthMin)
	h := max(connY+cp.BottomShift, sc.HeightMin)
	if s.svc.IsKafka() {
		h += sc.BrokerImageExtra
	}
	if s.brokerImage != nil {
		h = max(h, s.brokerImage.Bottom())
	}
	s.rect.W, s.rect.H = w, h
	s.label.W = w
	return s.rect
}

func (s *Service) coreLink() string {
	return actionLink(
		ids.Tags(ids.Key("s", s.svc.Name, "interface", "l")),
		ids.Tags(ids.Key("s", s.svc.Name, "interface", "l", "tx")),
	)
}

func (s *Service) kind() string {
	if s.svc.Broker != graph.BrokerNone {
		return string(s.svc.Broker)
	}
	return "service"
}

func (s *Service) wikiLink() string {
	if !s.svc.Product || s.env.WikiLink == nil {
		return ""
	}
	return s.env.WikiLink(s.svc)
}

// Emit appends the service cells, then its containers and connectors.
func (s *Service) Emit(root *etree.Element) {
	local := geometry.Rect{W: s.rect.W, H: s.rect.H}

	group := vertexCell(s.ID(), s.groupStyle, RootID)
	group.CreateAttr("connectable", "0")
	addGeometry(group, s.rect)
	root.AddChild(group)

	core := userObject(s.key("core"),
		"label", s.svc.Name,
		"module", s.svc.Module,
		"link", s.coreLink(),
		"name", s.svc.Name,
		"Description", s.svc.Description,
		"Owners", strings.Join(s.svc.Owners, ", "),
		"type", s.kind(),
		"language", s.svc.Language,
	)
	cell := vertexCell("", s.style, s.ID())
	addGeometry(cell, local)
	core.AddChild(cell)
	root.AddChild(core)

	label := userObject(s.key("label"), "label", s.svc.DisplayName(), "link", s.wikiLink())
	lc := vertexCell("", s.labelStyle, s.ID())
	addGeometry(lc, s.label)
	label.AddChild(lc)
	root.AddChild(label)

	if s.status != nil {
		st := vertexCell(s.key("status"), s.statusStyle, s.ID())
		st.CreateAttr("value", string(s.svc.Status))
		addGeometry(st, *s.status)
		root.AddChild(st)
	}
	if s.image != nil {
		img := vertexCell(s.key("image"), s.imageStyle, s.ID())
		img.CreateAttr("value", "")
		addGeometry(img, *s.image)
		root.AddChild(img)
	}
	if s.brokerImage != nil {
		img := vertexCell(s.key(string(s.svc.Broker)+"_image"), s.brokerImageStyle, s.ID())
		img.CreateAttr("value", "")
		addGeometry(img, *s.brokerImage)
		root.AddChild(img)
	}

	for _, c := range s.containers {
		c.emit(root)
	}
	for _, c := range s.connectors {
		c.emit(root)
	}
}
