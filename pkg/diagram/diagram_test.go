package diagram_test

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/netdiagram/internal/testutil"
	"github.com/matzehuels/netdiagram/pkg/diagram"
	"github.com/matzehuels/netdiagram/pkg/geometry"
	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/style"
)

// richGraph has one service with rx and tx containers on two brokers and
// three connector destinations.
func richGraph(t *testing.T, channels int) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder("core")
	require.NoError(t, b.AddService(graph.Service{Name: "kafka", Category: "core", Broker: graph.BrokerKafka}))
	require.NoError(t, b.AddService(graph.Service{Name: "amq", Category: "core", Broker: graph.BrokerActiveMQ}))
	require.NoError(t, b.AddService(graph.Service{Name: "hub", Category: "core", Module: "frontend", FullName: "Central Hub Service With A Long Name"}))
	require.NoError(t, b.AddService(graph.Service{Name: "db", Category: "core"}))

	var chs []graph.Channel
	for i := 0; i < channels; i++ {
		chs = append(chs, graph.Channel{Name: "channel." + string(rune('a'+i%26)) + "." + string(rune('a'+i/26))})
	}
	require.NoError(t, b.Connect(graph.Connector{Source: "hub", Dest: "kafka", Direction: graph.RX, Kind: graph.KindTopic, Channels: chs}))
	require.NoError(t, b.Connect(graph.Connector{Source: "hub", Dest: "kafka", Direction: graph.TX, Kind: graph.KindTopic, Channels: chs[:1]}))
	require.NoError(t, b.Connect(graph.Connector{Source: "hub", Dest: "amq", Direction: graph.RX, Kind: graph.KindQueue, Channels: []graph.Channel{{Name: "jobs"}}}))
	require.NoError(t, b.Connect(graph.Connector{Source: "hub", Dest: "amq", Direction: graph.TX, Kind: graph.KindQueue, Channels: []graph.Channel{{Name: "results"}}}))
	require.NoError(t, b.Connect(graph.Connector{Source: "hub", Dest: "db", Direction: graph.TX, Protocol: "postgresql"}))
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func assertContained(t *testing.T, s *diagram.Service) {
	t.Helper()
	outer := diagram.Global(s)
	check := func(e diagram.Element) {
		assert.True(t, outer.Contains(diagram.Global(e)), "%s %+v not inside %+v", e.ID(), diagram.Global(e), outer)
	}
	for _, c := range s.Containers() {
		check(c)
		cr := c.Rect()
		assert.True(t, cr.Contains(c.LabelRect()), "caption of %s outside container", c.ID())
		for _, tp := range c.Topics() {
			check(tp)
			assert.True(t, cr.Contains(tp.Rect()), "topic %s outside container", tp.ID())
		}
	}
	for _, c := range s.Connectors() {
		check(c)
		local := geometry.Rect{W: c.Rect().W, H: c.Rect().H}
		assert.True(t, local.Contains(c.CoreRect()))
		assert.True(t, local.Contains(c.EllipseRect()))
	}
	local := geometry.Rect{W: s.Rect().W, H: s.Rect().H}
	assert.True(t, local.Contains(s.LabelRect()))
}

func TestServiceContainment(t *testing.T) {
	g := richGraph(t, 5)
	env := testutil.Env(t, g)
	s := diagram.NewService(env, g.Service("hub"))
	s.Normalize()
	s.SetPosition(geometry.Position{X: 300, Y: 120})

	require.Len(t, s.Containers(), 4)
	require.Len(t, s.Connectors(), 3, "one badge per destination")
	assertContained(t, s)

	r := s.Rect()
	p := env.Styles.Props.ServiceCore
	assert.GreaterOrEqual(t, r.W, p.WidthMin)
	assert.GreaterOrEqual(t, r.H, p.HeightMin)
}

func TestServiceLayoutDirections(t *testing.T) {
	g := richGraph(t, 3)
	s := diagram.NewService(testutil.Env(t, g), g.Service("hub"))
	s.Normalize()

	var rx, tx []*diagram.Container
	for _, c := range s.Containers() {
		if c.Direction() == graph.RX {
			rx = append(rx, c)
		} else {
			tx = append(tx, c)
		}
	}
	require.Len(t, rx, 2)
	require.Len(t, tx, 2)
	assert.Equal(t, rx[0].Rect().X, rx[1].Rect().X, "rx containers share a column")
	assert.Greater(t, rx[1].Rect().Y, rx[0].Rect().Y)
	assert.Equal(t, tx[0].Rect().Y, tx[1].Rect().Y, "tx containers share a row")
	assert.Greater(t, tx[0].Rect().X, max(rx[0].Rect().Right(), rx[1].Rect().Right()))

	lowest := 0.0
	for _, c := range s.Containers() {
		lowest = max(lowest, c.Rect().Bottom())
	}
	for _, c := range s.Connectors() {
		assert.Greater(t, c.Rect().Y, lowest, "connectors stack below containers")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	g := richGraph(t, 4)
	s := diagram.NewService(testutil.Env(t, g), g.Service("hub"))
	first := s.Normalize()
	var topics []geometry.Rect
	for _, tp := range s.Topics() {
		topics = append(topics, tp.Rect())
	}
	second := s.Normalize()
	assert.Equal(t, first, second)
	for i, tp := range s.Topics() {
		assert.Equal(t, topics[i], tp.Rect())
	}
}

func TestContainmentProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("children stay inside their service", prop.ForAll(
		func(n int, x, y float64) bool {
			g := richGraph(t, n)
			s := diagram.NewService(testutil.Env(t, g), g.Service("hub"))
			s.Normalize()
			s.SetPosition(geometry.Position{X: x, Y: y})
			outer := diagram.Global(s)
			for _, c := range s.Containers() {
				if !outer.Contains(diagram.Global(c)) {
					return false
				}
				for _, tp := range c.Topics() {
					if !outer.Contains(diagram.Global(tp)) || !c.Rect().Contains(tp.Rect()) {
						return false
					}
				}
			}
			for _, c := range s.Connectors() {
				if !outer.Contains(diagram.Global(c)) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 40),
		gen.Float64Range(0, 5000),
		gen.Float64Range(0, 5000),
	))

	properties.TestingRun(t)
}

func TestTopicLinkability(t *testing.T) {
	b := graph.NewBuilder("core")
	require.NoError(t, b.AddService(graph.Service{Name: "kafka", Category: "core", Broker: graph.BrokerKafka}))
	for _, n := range []string{"a", "b", "lonely", "legacy"} {
		require.NoError(t, b.AddService(graph.Service{Name: n, Category: "core"}))
	}
	require.NoError(t, b.Connect(graph.Connector{Source: "a", Dest: "kafka", Direction: graph.TX, Kind: graph.KindTopic, Channels: []graph.Channel{{Name: "orders"}}}))
	require.NoError(t, b.Connect(graph.Connector{Source: "b", Dest: "kafka", Direction: graph.RX, Kind: graph.KindTopic, Channels: []graph.Channel{{Name: "orders"}}}))
	require.NoError(t, b.Connect(graph.Connector{Source: "lonely", Dest: "kafka", Direction: graph.TX, Kind: graph.KindTopic, Channels: []graph.Channel{{Name: "audit"}}}))
	require.NoError(t, b.Connect(graph.Connector{Source: "legacy", Dest: "kafka", Direction: graph.RX, Kind: graph.KindTopic, Channels: []graph.Channel{{Name: "orders"}}}))
	g, err := b.Build()
	require.NoError(t, err)
	env := testutil.Env(t, g)

	topic := func(name string) *diagram.Topic {
		s := diagram.NewService(env, g.Service(name))
		require.Len(t, s.Topics(), 1)
		return s.Topics()[0]
	}

	a := topic("a")
	assert.True(t, a.Linkable())
	assert.True(t, a.Linked())
	assert.Equal(t, "service-topic-tx", a.Style().Name())
	toggle, hide, ok := diagram.ParseLink(a.Link())
	require.True(t, ok)
	assert.Equal(t, []string{"broker#kafka#topic#orders#l"}, toggle)
	assert.Equal(t, []string{"broker#kafka#topic#orders#l#rx"}, hide)

	bt := topic("b")
	assert.True(t, bt.Linkable())
	toggle, hide, _ = diagram.ParseLink(bt.Link())
	assert.Equal(t, []string{"broker#kafka#topic#orders#b#l"}, toggle)
	assert.Equal(t, []string{"broker#kafka#topic#orders#l"}, hide)

	lonely := topic("lonely")
	assert.False(t, lonely.Linkable())
	assert.False(t, lonely.Linked())
	assert.Equal(t, "service-topic-disable-tx", lonely.Style().Name())

	legacy := topic("legacy")
	assert.False(t, legacy.Linkable(), "links are switched off for legacy")
	assert.Equal(t, "service-topic-rx", legacy.Style().Name(), "switched off is not greyed out")
}

func TestRabbitLinkability(t *testing.T) {
	b := graph.NewBuilder("core")
	require.NoError(t, b.AddService(graph.Service{
		Name: "rabbit", Category: "core", Broker: graph.BrokerRabbitMQ,
		Queues: map[string]*graph.BrokerChannel{
			"billing": {Bindings: []graph.Binding{{Exchange: "orders", RoutingKey: "created"}}},
		},
	}))
	for _, n := range []string{"shop", "billing", "stray"} {
		require.NoError(t, b.AddService(graph.Service{Name: n, Category: "core"}))
	}
	require.NoError(t, b.Connect(graph.Connector{Source: "shop", Dest: "rabbit", Direction: graph.TX, Kind: graph.KindExchange,
		Channels: []graph.Channel{{Name: "orders", RoutingKey: "created"}}}))
	require.NoError(t, b.Connect(graph.Connector{Source: "stray", Dest: "rabbit", Direction: graph.TX, Kind: graph.KindExchange,
		Channels: []graph.Channel{{Name: "orders", RoutingKey: "deleted"}}}))
	require.NoError(t, b.Connect(graph.Connector{Source: "billing", Dest: "rabbit", Direction: graph.RX, Kind: graph.KindQueue,
		Channels: []graph.Channel{{Name: "billing"}}}))
	g, err := b.Build()
	require.NoError(t, err)
	env := testutil.Env(t, g)

	topic := func(name string) *diagram.Topic {
		return diagram.NewService(env, g.Service(name)).Topics()[0]
	}

	shop := topic("shop")
	assert.True(t, shop.Linkable(), "bound queue has a consumer")
	toggle, hide, _ := diagram.ParseLink(shop.Link())
	assert.Equal(t, []string{"broker#rabbit#topic#orders#l#shop"}, toggle)
	assert.Equal(t, []string{"broker#rabbit#topic#orders#l#rx"}, hide)

	assert.False(t, topic("stray").Linkable(), "routing key reaches no queue")

	billing := topic("billing")
	assert.True(t, billing.Linkable())
	toggle, hide, _ = diagram.ParseLink(billing.Link())
	assert.Equal(t, []string{"broker#rabbit#topic#orders/created#billing#l"}, toggle)
	assert.Equal(t, []string{"broker#rabbit#topic#orders/created#l"}, hide)
}

func TestContainerCaption(t *testing.T) {
	g := richGraph(t, 1)
	s := diagram.NewService(testutil.Env(t, g), g.Service("hub"))
	var captions []string
	for _, c := range s.Containers() {
		captions = append(captions, c.Caption())
	}
	assert.Equal(t, []string{"Consumer Topics", "Producer Topics", "Consumer Queues", "Producer Queues"}, captions)
}

func TestHiddenTopics(t *testing.T) {
	b := graph.NewBuilder()
	require.NoError(t, b.AddService(graph.Service{Name: "kafka", Broker: graph.BrokerKafka}))
	require.NoError(t, b.AddService(graph.Service{Name: "hidden"}))
	require.NoError(t, b.Connect(graph.Connector{Source: "hidden", Dest: "kafka", Direction: graph.TX, Kind: graph.KindTopic, Channels: []graph.Channel{{Name: "x"}}}))
	g, err := b.Build()
	require.NoError(t, err)

	s := diagram.NewService(testutil.Env(t, g), g.Service("hidden"))
	assert.Empty(t, s.Containers())
	assert.Len(t, s.Connectors(), 1)
}

func TestArrowOrientation(t *testing.T) {
	g := testutil.OrdersGraph(t)
	env := testutil.Env(t, g)
	a := diagram.NewService(env, g.Service("a"))
	c := diagram.NewService(env, g.Service("c"))
	a.Normalize()
	c.Normalize()

	var toA *diagram.Connector
	for _, conn := range c.Connectors() {
		if conn.Dest() == "a" {
			toA = conn
		}
	}
	require.NotNil(t, toA)

	c.SetPosition(geometry.Position{X: 0})
	a.SetPosition(geometry.Position{X: 1000})
	right := diagram.NewConnectToArrow(env, toA, a, graph.TX, false)
	exit, _ := right.Style().Value("exit-x")
	entry, _ := right.Style().Value("entry-x")
	assert.Equal(t, "1", exit)
	assert.Equal(t, "0", entry)

	c.SetPosition(geometry.Position{X: 2000})
	left := diagram.NewConnectToArrow(env, toA, a, graph.TX, false)
	exit, _ = left.Style().Value("exit-x")
	entry, _ = left.Style().Value("entry-x")
	assert.Equal(t, "0", exit)
	assert.Equal(t, "1", entry)

	c.SetPosition(geometry.Position{X: 1000})
	overlap := diagram.NewConnectToArrow(env, toA, a, graph.RX, true)
	_, ok := overlap.Style().Value("exit-x")
	assert.False(t, ok, "overlapping connect-to arrows keep the sheet sides")
	assert.True(t, overlap.Visible())
	assert.Equal(t, []string{"s#a#interface#l"}, overlap.Tags())
}

func TestEmit(t *testing.T) {
	g := testutil.OrdersGraph(t)
	env := testutil.Env(t, g)
	env.WikiLink = func(s *graph.Service) string { return "https://wiki.example.com/" + s.Name }
	s := diagram.NewService(env, g.Service("c"))
	s.Normalize()
	s.Connectors()[0].DisableLink()

	doc := etree.NewDocument()
	root := doc.CreateElement("root")
	s.Emit(root)

	group := root.FindElement("mxCell[@id='s#c#group']")
	require.NotNil(t, group)
	assert.Equal(t, "1", group.SelectAttrValue("parent", ""))
	assert.Equal(t, "group;", group.SelectAttrValue("style", ""))

	core := root.FindElement("UserObject[@id='s#c#core']")
	require.NotNil(t, core)
	assert.Equal(t, "frontend", core.SelectAttrValue("module", ""))
	toggle, hide, ok := diagram.ParseLink(core.SelectAttrValue("link", ""))
	require.True(t, ok)
	assert.Equal(t, []string{"s#c#interface#l"}, toggle)
	assert.Equal(t, []string{"s#c#interface#l#tx"}, hide)

	assert.NotNil(t, root.FindElement("mxCell[@id='s#c#image']"), "frontend modules get an image")
	assert.Nil(t, root.FindElement("mxCell[@id='s#c#status']"), "ready services have no badge")

	toD := root.FindElement("UserObject[@id='s#c#to#d#tx#group']")
	require.NotNil(t, toD)
	assert.Nil(t, toD.SelectAttr("link"))
	assert.Equal(t, "http", toD.SelectAttrValue("Protocol", ""))

	toA := root.FindElement("UserObject[@id='s#c#to#a#tx#group']")
	require.NotNil(t, toA)
	assert.NotNil(t, toA.SelectAttr("link"))

	label := root.FindElement("mxCell[@id='s#c#to#a#tx#label']")
	require.NotNil(t, label)
	assert.Equal(t, "grpc", label.SelectAttrValue("value", ""))
	assert.Equal(t, "s#c#to#a#tx#arrow", label.SelectAttrValue("parent", ""))
}

func TestMissingStylesDegrade(t *testing.T) {
	g := testutil.OrdersGraph(t)
	sheet, err := style.ParseSheet(strings.NewReader(""))
	require.NoError(t, err)
	env := testutil.Env(t, g)
	env.Styles = style.NewSelector(sheet, nil, nil)

	s := diagram.NewService(env, g.Service("a"))
	s.Normalize()
	s.SetPosition(geometry.Position{X: 10, Y: 10})

	doc := etree.NewDocument()
	root := doc.CreateElement("root")
	require.NotPanics(t, func() { s.Emit(root) })

	group := root.FindElement("mxCell[@id='s#a#group']")
	require.NotNil(t, group)
	assert.Nil(t, group.SelectAttr("style"))
	assert.Positive(t, env.Styles.Missing())
	assert.Positive(t, s.Rect().W)
}
