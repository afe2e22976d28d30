package style

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Props holds the layout constants of every element category. Values are
// looked up by name and never cascade.
type Props struct {
	ServiceCore     ServiceCoreProps     `yaml:"service-core"`
	TopicsContainer TopicsContainerProps `yaml:"service-topics-container"`
	Topic           TopicProps           `yaml:"service-topic"`
	Connector       ConnectorProps       `yaml:"service-connector"`
	System          SystemProps          `yaml:"system"`
	Focus           FocusProps           `yaml:"focus"`
}

// ServiceCoreProps sizes the service box itself.
type ServiceCoreProps struct {
	WidthMin          float64  `yaml:"width_min"`
	HeightMin         float64  `yaml:"height_min"`
	LabelHeight       float64  `yaml:"label_height"`
	StatusLabelHeight float64  `yaml:"status_label_height"`
	ImageModules      []string `yaml:"add_images_by_service_module"`
	YImageShift       float64  `yaml:"y_image_shift"`
	BrokerImageExtra  float64  `yaml:"broker_image_height_append"`
}

// TopicsContainerProps positions containers inside a service and topics
// inside a container.
type TopicsContainerProps struct {
	XShift           float64  `yaml:"x_shift"`
	YShift           float64  `yaml:"y_shift"`
	XBetween         float64  `yaml:"x_between"`
	BottomShift      float64  `yaml:"bottom_shift"`
	LabelHeight      float64  `yaml:"label_height"`
	LabelXShift      float64  `yaml:"label_x_shift"`
	LabelYShift      float64  `yaml:"label_y_shift"`
	XTopicShift      float64  `yaml:"x_topic_shift"`
	YTopicShift      float64  `yaml:"y_topic_shift"`
	HTopicsShift     float64  `yaml:"h_topics_shift"`
	BottomTopicShift float64  `yaml:"bottom_topic_shift"`
	HideForServices  []string `yaml:"hide_topics_for_services"`
}

// TopicProps sizes a single topic box.
type TopicProps struct {
	Height            float64  `yaml:"height"`
	XShift            float64  `yaml:"x_shift"`
	DisableArrowLinks []string `yaml:"disable_arrow_links_service_name"`
}

// ConnectorProps sizes connector badges.
type ConnectorProps struct {
	XShift               float64 `yaml:"x_shift"`
	YBetween             float64 `yaml:"y_between"`
	BottomShift          float64 `yaml:"bottom_shift"`
	LabelWidthAppend     float64 `yaml:"label_width_append"`
	LabelHeight          float64 `yaml:"label_height"`
	EllipseSize          float64 `yaml:"ellipse_size"`
	TransportLabelXShift float64 `yaml:"transport_label_x_shift"`
}

// SystemProps drives column packing of the whole-system diagram.
type SystemProps struct {
	ColumnServicesCntMax int     `yaml:"column_services_cnt_max"`
	ColumnServicesHMax   float64 `yaml:"column_services_h_max"`
	ColumnGap            float64 `yaml:"column_gap"`
	ServiceGap           float64 `yaml:"service_gap"`
	HeightGap            float64 `yaml:"height_gap"`
}

// FocusProps drives the single-service layout.
type FocusProps struct {
	ColumnGap      float64 `yaml:"column_gap"`
	TopMin         float64 `yaml:"top_min"`
	ControlPanelID string  `yaml:"control_panel_id"`
	ControlPanelY  float64 `yaml:"control_panel_y"`
}

// DefaultProps returns the built-in constants. Loaded YAML is layered on top.
func DefaultProps() *Props {
	return &Props{
		ServiceCore: ServiceCoreProps{
			WidthMin:          160,
			HeightMin:         60,
			LabelHeight:       20,
			StatusLabelHeight: 12,
			BrokerImageExtra:  20,
		},
		TopicsContainer: TopicsContainerProps{
			XShift:           10,
			YShift:           10,
			XBetween:         10,
			BottomShift:      10,
			LabelHeight:      16,
			LabelXShift:      4,
			LabelYShift:      2,
			XTopicShift:      8,
			YTopicShift:      22,
			HTopicsShift:     4,
			BottomTopicShift: 6,
		},
		Topic: TopicProps{
			Height: 20,
			XShift: 10,
		},
		Connector: ConnectorProps{
			XShift:               10,
			YBetween:             6,
			BottomShift:          10,
			LabelWidthAppend:     16,
			LabelHeight:          20,
			EllipseSize:          10,
			TransportLabelXShift: 6,
		},
		System: SystemProps{
			ColumnServicesCntMax: 8,
			ColumnServicesHMax:   1200,
			ColumnGap:            50,
			ServiceGap:           10,
			HeightGap:            20,
		},
		Focus: FocusProps{
			ColumnGap:      190,
			TopMin:         110,
			ControlPanelID: "control#panel#group",
			ControlPanelY:  -30,
		},
	}
}

// LoadProps reads a YAML props file on top of [DefaultProps].
func LoadProps(path string) (*Props, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read props: %w", err)
	}
	return ParseProps(bytes.NewReader(data))
}

// ParseProps decodes YAML from r on top of [DefaultProps]. An empty
// document yields the defaults.
func ParseProps(r io.Reader) (*Props, error) {
	p := DefaultProps()
	if err := yaml.NewDecoder(r).Decode(p); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode props: %w", err)
	}
	if p.System.ColumnServicesCntMax <= 0 {
		return nil, fmt.Errorf("props: system.column_services_cnt_max must be positive")
	}
	return p, nil
}

// HasImage reports whether services of module get a module image.
func (p *Props) HasImage(module string) bool {
	return slices.Contains(p.ServiceCore.ImageModules, module)
}

// HidesTopics reports whether service is drawn without topic containers.
func (p *Props) HidesTopics(service string) bool {
	return slices.Contains(p.TopicsContainer.HideForServices, service)
}

// TopicLinksDisabled reports whether service never gets topic links.
func (p *Props) TopicLinksDisabled(service string) bool {
	return slices.Contains(p.Topic.DisableArrowLinks, service)
}
