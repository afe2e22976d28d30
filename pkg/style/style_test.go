package style_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/netdiagram/internal/testutil"
	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/style"
)

func TestParseSheet(t *testing.T) {
	sheet, err := style.ParseSheet(strings.NewReader(`
/* leading comment */
.a { font-size: 11; font-family: "Helvetica Neue"; }
.b, .c { rounded: __; }
.a { font-size: 99; }
@media print { .d { color: red; } }
`))
	require.NoError(t, err)

	a := sheet.Style("a")
	require.NotNil(t, a)
	assert.Equal(t, "a", a.Name())
	assert.Equal(t, 11.0, a.FontSize(), "first rule wins over a later duplicate")
	assert.Equal(t, "Helvetica Neue", a.FontFamily(), "quotes are stripped")

	assert.True(t, sheet.Has("b"))
	assert.True(t, sheet.Has("c"))
	assert.Equal(t, "rounded;", sheet.Style("c").String())
	assert.Nil(t, sheet.Style("missing"))
}

func TestStyleString(t *testing.T) {
	sheet, err := style.ParseSheet(strings.NewReader(`.arrow { edge-style: orthogonalEdgeStyle; entry-x: 0; html: __; }`))
	require.NoError(t, err)

	s := sheet.Style("arrow")
	assert.Equal(t, "edgeStyle=orthogonalEdgeStyle;entryX=0;html;", s.String())

	s.Set("entry-x", "1")
	s.Set("exit-x", "0")
	assert.Equal(t, "edgeStyle=orthogonalEdgeStyle;entryX=1;html;exitX=0;", s.String())

	fresh := sheet.Style("arrow")
	assert.Equal(t, "edgeStyle=orthogonalEdgeStyle;entryX=0;html;", fresh.String(), "overrides must stay private")
}

func TestNilStyle(t *testing.T) {
	var s *style.Style
	assert.Equal(t, "", s.String())
	assert.Equal(t, float64(style.DefaultFontSize), s.FontSize())
	assert.Equal(t, "", s.FontFamily())
	s.Set("x", "y")
	_, ok := s.Value("x")
	assert.False(t, ok)
}

func TestCamelCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"font-size", "fontSize"},
		{"entry-x", "entryX"},
		{"rounded", "rounded"},
		{"a-b-c", "aBC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, style.CamelCase(tt.in), tt.in)
	}
}

func TestFirstAvailable(t *testing.T) {
	sheet := testutil.Sheet(t)
	s := sheet.FirstAvailable("", "nope", "service-container")
	require.NotNil(t, s)
	assert.Equal(t, "service-container", s.Name())
	assert.Nil(t, sheet.FirstAvailable("nope", "still-nope"))
}

func TestParseProps(t *testing.T) {
	p := testutil.PropsTable(t)
	assert.Equal(t, 3, p.System.ColumnServicesCntMax)
	assert.Equal(t, 100000.0, p.System.ColumnServicesHMax)
	assert.Equal(t, 10.0, p.TopicsContainer.XShift, "unset keys keep defaults")
	assert.True(t, p.HasImage("frontend"))
	assert.False(t, p.HasImage("backend"))
	assert.True(t, p.HidesTopics("hidden"))
	assert.True(t, p.TopicLinksDisabled("legacy"))

	empty, err := style.ParseProps(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, style.DefaultProps(), empty)

	_, err = style.ParseProps(strings.NewReader("system:\n  column_services_cnt_max: 0\n"))
	assert.Error(t, err)
}

func TestSelectorFallbacks(t *testing.T) {
	sel := testutil.Selector(t)
	kafka := &graph.Service{Name: "k", Broker: graph.BrokerKafka, Module: "infra"}
	plain := &graph.Service{Name: "p", Module: "backend", Status: graph.StatusDevelop}

	assert.Equal(t, "service-container-kafka", sel.Service(kafka).Name())
	assert.Equal(t, "service-container", sel.Service(plain).Name())
	assert.Equal(t, "service-status-label", sel.StatusLabel(plain).Name())
	assert.Equal(t, "broker-image", sel.BrokerImage(kafka).Name())
	assert.Equal(t, "service-topic-rx", sel.Topic(plain, graph.RX).Name())
	assert.Equal(t, "service-connector-core", sel.ConnectorPart(plain, style.PartCore).Name())
	assert.Zero(t, sel.Missing())

	focused := sel.WithFocus("p")
	assert.Equal(t, "p", focused.Focus())
	assert.Equal(t, "service-container-selected", focused.Service(plain).Name())
	assert.Equal(t, "service-topic-tx-selected", focused.Topic(plain, graph.TX).Name())
	assert.Equal(t, "service-topics-container-selected", focused.Container(plain).Name())
	assert.Equal(t, "service-topics-container-label", focused.ContainerLabel(plain).Name())
	assert.Equal(t, "service-container-kafka", focused.Service(kafka).Name())

	assert.Nil(t, sel.Named("does-not-exist"))
	assert.Nil(t, sel.Named("does-not-exist"))
	assert.Equal(t, 1, sel.Missing())
}
