package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/netdiagram/pkg/buildinfo"
	"github.com/matzehuels/netdiagram/pkg/cache"
	"github.com/matzehuels/netdiagram/pkg/diagram"
	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/generator"
	"github.com/matzehuels/netdiagram/pkg/io"
	"github.com/matzehuels/netdiagram/pkg/observability"
	"github.com/matzehuels/netdiagram/pkg/style"
	"github.com/matzehuels/netdiagram/pkg/template"
	"github.com/matzehuels/netdiagram/pkg/textmetrics"
)

// cacheKeyType labels cache events of rendered diagrams.
const cacheKeyType = "diagram"

// Runner executes runs with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't store
// results. Multiple goroutines can safely use the same Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL of cached diagrams; zero never expires.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute generates every selected diagram and writes them. Nothing is
// written unless all diagrams succeed.
func (r *Runner) Execute(ctx context.Context, in *Inputs, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := r.Logger.With("run", result.RunID[:8])

	targets, err := Targets(in, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("generating diagrams", "count", len(targets), "parallel", opts.MaxParallel)

	diagrams := make([]Diagram, len(targets))
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(opts.MaxParallel)
	for i, service := range targets {
		grp.Go(func() error {
			d, err := r.diagram(gctx, in, service, opts, logger)
			if err != nil {
				return err
			}
			diagrams[i] = d
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	if !opts.DryRun {
		files := make([]io.File, 0, len(diagrams))
		for _, d := range diagrams {
			rel, err := filepath.Rel(opts.OutputDir, d.Path)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "output path of %s", d.Name())
			}
			if err := errors.ValidatePath(filepath.ToSlash(rel)); err != nil {
				return nil, err
			}
			files = append(files, io.File{Path: d.Path, Data: d.Data})
		}
		if err := io.WriteFilesAtomic(files); err != nil {
			return nil, err
		}
	}

	result.Diagrams = diagrams
	for _, d := range diagrams {
		result.Stats.Diagrams++
		result.Stats.Arrows += d.Stats.Arrows
		result.Stats.DisabledLinks += d.Stats.DisabledLinks
		if d.Cached {
			result.Stats.CacheHits++
		}
	}
	result.Stats.Duration = time.Since(start)
	logger.Info("diagrams done", "stats", result.Stats.String())
	return result, nil
}

// Targets lists the diagrams a run produces: "" for the system diagram,
// then the selected services in graph order.
func Targets(in *Inputs, opts Options) ([]string, error) {
	var out []string
	if !opts.SkipSystem {
		out = append(out, "")
	}
	if opts.Publish != PublishAll && opts.Publish != "" {
		if !in.Graph.IsAvailable(opts.Publish) {
			return nil, errors.New(errors.ErrCodeServiceNotFound, "service %q is not available for publishing", opts.Publish)
		}
		return append(out, opts.Publish), nil
	}
	for _, s := range in.Graph.Available() {
		out = append(out, s.Name)
	}
	return out, nil
}

// entry is the cached form of a diagram.
type entry struct {
	XML   []byte          `json:"xml"`
	Stats generator.Stats `json:"stats"`
}

func (r *Runner) diagram(ctx context.Context, in *Inputs, service string, opts Options, logger *log.Logger) (Diagram, error) {
	d := Diagram{Service: service, Path: Path(opts.OutputDir, service)}
	hooks := observability.Generation()
	hooks.OnDiagramStart(ctx, service)
	start := time.Now()

	key := r.Keyer.DiagramKey(in.Hash, cache.DiagramKeyOpts{
		Service:       service,
		ShowConnectTo: opts.ShowConnectTo,
		HomeBroker:    opts.HomeBroker,
		Version:       buildinfo.Version,
	})

	if !opts.Refresh {
		if e, ok := r.cached(ctx, key, logger); ok {
			d.Data, d.Stats, d.Cached = e.XML, e.Stats, true
			logger.Debug("diagram from cache", "diagram", d.Name())
			hooks.OnDiagramComplete(ctx, service, diagramResult(d), time.Since(start), nil)
			return d, nil
		}
	}

	data, stats, err := Generate(ctx, in, service, opts.generatorOptions(), logger)
	if err != nil {
		hooks.OnDiagramComplete(ctx, service, observability.DiagramResult{}, time.Since(start), err)
		return d, errors.ForService(err, service, d.Name())
	}
	d.Data, d.Stats = data, stats

	if encoded, err := json.Marshal(entry{XML: data, Stats: stats}); err == nil {
		if err := r.Cache.Set(ctx, key, encoded, r.TTL); err != nil {
			logger.Warn("cache write failed", "diagram", d.Name(), "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cacheKeyType, len(encoded))
		}
	}
	logger.Debug("diagram generated", "diagram", d.Name(), "arrows", stats.Arrows, "duration", time.Since(start))
	hooks.OnDiagramComplete(ctx, service, diagramResult(d), time.Since(start), nil)
	return d, nil
}

func (r *Runner) cached(ctx context.Context, key string, logger *log.Logger) (entry, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "err", err)
	}
	var e entry
	if err != nil || !hit || json.Unmarshal(data, &e) != nil {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return entry{}, false
	}
	observability.Cache().OnCacheHit(ctx, cacheKeyType)
	return e, true
}

func diagramResult(d Diagram) observability.DiagramResult {
	return observability.DiagramResult{
		Services:      d.Stats.Services,
		Arrows:        d.Stats.Arrows,
		DisabledLinks: d.Stats.DisabledLinks,
		Bytes:         len(d.Data),
		Cached:        d.Cached,
	}
}

// Generate renders one diagram without caching: the system diagram when
// service is "", else the diagram centred on service. Each call owns its
// document, selector and measurer, so calls may run concurrently.
func Generate(ctx context.Context, in *Inputs, service string, opts generator.Options, logger *log.Logger) ([]byte, generator.Stats, error) {
	skeleton := in.SystemTemplate
	if service != "" {
		skeleton = in.ServiceTemplate
	}
	doc, err := template.Parse(skeleton)
	if err != nil {
		return nil, generator.Stats{}, err
	}

	m := textmetrics.NewMeasurer(in.Fonts, logger)
	defer m.Close()
	env := &diagram.Env{
		Graph:    in.Graph,
		Styles:   style.NewSelector(in.Sheet, in.Props, logger),
		Metrics:  m,
		Logger:   logger,
		WikiLink: in.WikiLink,
	}

	var gen *generator.Generator
	if service == "" {
		gen = generator.New(env, opts)
	} else {
		gen = generator.NewFocused(env, service, opts)
	}
	if err := gen.Generate(ctx, doc); err != nil {
		return nil, generator.Stats{}, err
	}
	data, err := doc.Bytes()
	if err != nil {
		return nil, generator.Stats{}, errors.Wrap(errors.ErrCodeIO, err, "serialize diagram")
	}
	return data, gen.Stats(), nil
}
