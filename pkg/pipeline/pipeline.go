// Package pipeline turns a service graph and its style resources into the
// network diagram files.
//
// This package is the shared execution path for the CLI and CI jobs: it
// loads the inputs once, generates the whole-system diagram and one diagram
// per service in a bounded worker pool, caches each rendered diagram by a
// hash of everything that went into it, and writes the results.
//
// # Stages
//
//  1. Load: read the graph document, stylesheet, props, skeletons and fonts
//     into an immutable [Inputs] value
//  2. Generate: run one [generator.Generator] per diagram; every diagram gets
//     its own document, selector and text measurer
//  3. Write: place the files under the output directory, atomically
//
// A failure in any diagram aborts the run before anything is written.
//
// # Output Layout
//
//	<out>/system_arch_diagram.xml
//	<out>/specs/<service>/network_diagram.xml
//
// # Usage
//
//	in, err := pipeline.Load(ctx, cfg, "graph.yaml", logger)
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, in, pipeline.Options{OutputDir: "out"})
package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/generator"
)

// PublishAll selects every available service.
const PublishAll = "all"

// Output file names.
const (
	SystemFileName  = "system_arch_diagram.xml"
	ServiceFileName = "network_diagram.xml"
	SpecsDir        = "specs"
)

// DefaultMaxParallel bounds concurrent diagram generation.
const DefaultMaxParallel = 4

// Options configures one run.
type Options struct {
	// OutputDir receives the diagram files.
	OutputDir string

	// Publish is [PublishAll] or a single service name. The system diagram
	// is generated either way.
	Publish string

	// SkipSystem leaves out the whole-system diagram.
	SkipSystem bool

	ShowConnectTo bool
	HomeBroker    string

	// MaxParallel bounds concurrent diagrams; defaults to [DefaultMaxParallel].
	MaxParallel int

	// Refresh ignores cached diagrams but still stores fresh ones.
	Refresh bool

	// DryRun generates everything but writes no files.
	DryRun bool
}

// ValidateAndSetDefaults fills unset fields and checks the rest.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Publish == "" {
		o.Publish = PublishAll
	}
	if o.Publish != PublishAll {
		if err := errors.ValidateServiceName(o.Publish); err != nil {
			return err
		}
	}
	if o.MaxParallel <= 0 {
		o.MaxParallel = DefaultMaxParallel
	}
	if o.HomeBroker == "" {
		o.HomeBroker = generator.DefaultHomeBroker
	}
	if o.OutputDir == "" && !o.DryRun {
		return errors.New(errors.ErrCodeInvalidInput, "output directory is required")
	}
	return nil
}

func (o *Options) generatorOptions() generator.Options {
	return generator.Options{ShowConnectTo: o.ShowConnectTo, HomeBroker: o.HomeBroker}
}

// Path returns where the diagram of service is written; "" is the system
// diagram.
func Path(outputDir, service string) string {
	if service == "" {
		return filepath.Join(outputDir, SystemFileName)
	}
	return filepath.Join(outputDir, SpecsDir, service, ServiceFileName)
}

// Diagram is one generated diagram.
type Diagram struct {
	// Service is the focused service, or "" for the system diagram.
	Service string
	Path    string
	Data    []byte
	Stats   generator.Stats
	Cached  bool
}

// Name returns a display name for logs.
func (d Diagram) Name() string {
	if d.Service == "" {
		return "system"
	}
	return d.Service
}

// Result contains the outputs of a run.
type Result struct {
	// RunID identifies the run in logs and metrics.
	RunID string

	// Diagrams holds the system diagram first, then services in graph order.
	Diagrams []Diagram

	Stats Stats
}

// Stats contains run statistics.
type Stats struct {
	Diagrams      int
	CacheHits     int
	Arrows        int
	DisabledLinks int
	Duration      time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("%d diagrams (%d cached), %d arrows, %d disabled links in %s",
		s.Diagrams, s.CacheHits, s.Arrows, s.DisabledLinks, s.Duration.Round(time.Millisecond))
}
