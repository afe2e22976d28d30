package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdiagram/pkg/cache"
	"github.com/matzehuels/netdiagram/pkg/config"
	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/io"
	"github.com/matzehuels/netdiagram/pkg/observability"
	"github.com/matzehuels/netdiagram/pkg/style"
	"github.com/matzehuels/netdiagram/pkg/template"
	"github.com/matzehuels/netdiagram/pkg/textmetrics"
)

// Inputs are the loaded resources of a run. They are read-only and shared
// by every diagram.
type Inputs struct {
	Graph *graph.Graph
	Sheet *style.Sheet
	Props *style.Props
	Fonts *textmetrics.FontSet

	// Skeletons are kept as bytes; each diagram parses its own copy.
	SystemTemplate  []byte
	ServiceTemplate []byte

	WikiLink config.LinkFunc

	// Hash covers every byte that can change a diagram.
	Hash string
}

// Load reads every resource named by cfg plus the graph document.
func Load(ctx context.Context, cfg *config.Config, graphPath string, logger *log.Logger) (*Inputs, error) {
	start := time.Now()
	in, err := load(ctx, cfg, graphPath, logger)
	services := 0
	if in != nil {
		services = in.Graph.Len()
	}
	observability.Generation().OnLoad(ctx, services, time.Since(start), err)
	return in, err
}

func load(ctx context.Context, cfg *config.Config, graphPath string, logger *log.Logger) (*Inputs, error) {
	if graphPath == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "graph document path is required")
	}
	graphData, err := readFile(graphPath)
	if err != nil {
		return nil, err
	}
	g, err := io.Read(bytes.NewReader(graphData), io.FormatFromPath(graphPath))
	if err != nil {
		return nil, err
	}

	cssData, err := readFile(cfg.StylesPath())
	if err != nil {
		return nil, err
	}
	sheet, err := style.ParseSheet(bytes.NewReader(cssData))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "parse %s", cfg.StylesPath())
	}
	propsData, err := readFile(cfg.PropsPath())
	if err != nil {
		return nil, err
	}
	props, err := style.ParseProps(bytes.NewReader(propsData))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "parse %s", cfg.PropsPath())
	}
	if cfg.Diagram.ColumnHeightMax > 0 {
		props.System.ColumnServicesHMax = cfg.Diagram.ColumnHeightMax
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	system, err := readTemplate(cfg.SystemTemplatePath())
	if err != nil {
		return nil, err
	}
	service, err := readTemplate(cfg.ServiceTemplatePath())
	if err != nil {
		return nil, err
	}

	fonts, err := textmetrics.LoadFontSet(cfg.Fonts.Dir, cfg.Fonts.Families)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load fonts")
	}
	for _, family := range fonts.Missing() {
		logger.Warn("font file not usable, measuring with fallback", "family", family)
	}

	link, err := cfg.Links.Renderer()
	if err != nil {
		return nil, err
	}

	fontTable, _ := json.Marshal(cfg.Fonts)
	in := &Inputs{
		Graph:           g,
		Sheet:           sheet,
		Props:           props,
		Fonts:           fonts,
		SystemTemplate:  system,
		ServiceTemplate: service,
		WikiLink:        link,
		Hash: cache.HashAll(graphData, cssData, propsData, system, service, fontTable,
			[]byte(fonts.Digest()), []byte(cfg.Links.Template), []byte(strconv.FormatFloat(props.System.ColumnServicesHMax, 'g', -1, 64))),
	}
	logger.Debug("inputs loaded",
		"services", g.Len(),
		"connectors", g.ConnectorCount(),
		"styles", sheet.Len(),
		"hash", in.Hash[:12])
	return in, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	return data, nil
}

// readTemplate reads a skeleton and checks that it parses.
func readTemplate(path string) ([]byte, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := template.Parse(data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTemplate, err, "skeleton %s", path)
	}
	return data, nil
}
