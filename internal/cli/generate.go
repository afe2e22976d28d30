package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netdiagram/pkg/cache"
	"github.com/matzehuels/netdiagram/pkg/config"
	"github.com/matzehuels/netdiagram/pkg/observability"
	"github.com/matzehuels/netdiagram/pkg/observability/prom"
	"github.com/matzehuels/netdiagram/pkg/pipeline"
)

const defaultOutputDir = "diagrams"

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output        string // output repository directory
	publish       string // "all" or a single service name
	meta          string // overrides meta_dir from the config
	skipSystem    bool   // leave out the system diagram
	showConnectTo bool   // draw connect-to arrows in the system diagram
	noCache       bool   // disable the diagram cache
	refresh       bool   // ignore cached diagrams
	dryRun        bool   // generate without writing
	parallel      int    // overrides max_parallel_tasks from the config
}

// generateCommand creates the generate command: the system diagram plus one
// focused diagram per published service.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{output: defaultOutputDir, publish: pipeline.PublishAll}

	cmd := &cobra.Command{
		Use:   "generate [graph]",
		Short: "Generate network diagrams from a service graph",
		Long: `Generate drawio network diagrams from a service graph document (YAML or JSON).

The system diagram is written to <out>/` + pipeline.SystemFileName + ` and each
service diagram to <out>/` + pipeline.SpecsDir + `/<service>/` + pipeline.ServiceFileName + `.
Nothing is written unless every diagram succeeds.`,
		Example: `  netdiagram generate services.yaml -o repo
  netdiagram generate services.yaml --publish orders-api
  netdiagram generate services.json --no-cache --dry-run`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("parallel") {
				opts.parallel = 0
			}
			return c.runGenerate(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output repository directory")
	cmd.Flags().StringVarP(&opts.publish, "publish", "p", opts.publish, "service to publish, or 'all'")
	cmd.Flags().StringVar(&opts.meta, "meta", "", "meta directory with styles and skeletons (overrides config)")
	cmd.Flags().BoolVar(&opts.skipSystem, "skip-system", false, "do not generate the system diagram")
	cmd.Flags().BoolVar(&opts.showConnectTo, "show-connect-to", false, "draw connect-to arrows in the system diagram")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the diagram cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "regenerate cached diagrams")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "generate diagrams without writing files")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "j", pipeline.DefaultMaxParallel, "diagrams generated concurrently (overrides config)")
	_ = cmd.RegisterFlagCompletionFunc("publish", completeServices)
	_ = cmd.MarkFlagDirname("output")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, graphPath string, opts generateOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.meta != "" {
		cfg.MetaDir = opts.meta
	}
	if opts.parallel > 0 {
		cfg.MaxParallelTasks = opts.parallel
	}
	if opts.showConnectTo {
		cfg.Diagram.ShowConnectToArrows = true
	}

	defer observability.Reset()
	if cfg.Metrics.Textfile != "" {
		m := prom.New()
		observability.SetGenerationHooks(m)
		observability.SetCacheHooks(m)
		defer func() {
			if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				c.Logger.Warn("write metrics", "path", cfg.Metrics.Textfile, "err", err)
			}
		}()
	}

	cc, err := c.openCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer cc.Close()

	spinner := newSpinnerWithContext(ctx, "Loading "+graphPath+"...")
	spinner.Start()
	in, err := pipeline.Load(ctx, cfg, graphPath, c.Logger)
	if err != nil {
		spinner.StopWithError("Could not load " + graphPath)
		return err
	}
	spinner.StopWithSuccess("Loaded " + StyleHighlight.Render(graphPath))
	printDetail("%d services, %d available", in.Graph.Len(), len(in.Graph.Available()))

	var keyer cache.Keyer
	if cfg.Cache.Scope != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Scope+":")
	}
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	runner.TTL = cfg.Cache.TTL

	prog := newProgress(c.Logger)
	spinner = newSpinnerWithContext(ctx, "Generating diagrams")
	observability.SetGenerationHooks(newDiagramTicker(spinner, observability.Generation()))
	spinner.Start()
	res, err := runner.Execute(ctx, in, pipeline.Options{
		OutputDir:     opts.output,
		Publish:       opts.publish,
		SkipSystem:    opts.skipSystem,
		ShowConnectTo: cfg.Diagram.ShowConnectToArrows,
		HomeBroker:    cfg.Diagram.HomeBroker,
		MaxParallel:   cfg.MaxParallelTasks,
		Refresh:       opts.refresh,
		DryRun:        opts.dryRun,
	})
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Generated %d diagrams", res.Stats.Diagrams))

	printDiagrams(res, opts.dryRun)
	printSuccess("%s", res.Stats)
	if opts.dryRun {
		printWarning("Dry run: no files written")
		for _, kv := range metaPaths(cfg) {
			printKeyValue(kv[0], kv[1])
		}
		return nil
	}
	printNextStep("Overview", appName+" overview "+graphPath)
	return nil
}

func printDiagrams(res *pipeline.Result, dryRun bool) {
	for _, d := range res.Diagrams {
		if dryRun {
			printInfo("%s", d.Name())
		} else {
			printFile(d.Path)
		}
		printStats(d.Stats, d.Cached)
	}
}

// metaPaths lists the resources the config resolves under its meta dir.
func metaPaths(cfg *config.Config) [][2]string {
	return [][2]string{
		{"styles", cfg.StylesPath()},
		{"props", cfg.PropsPath()},
		{"system", cfg.SystemTemplatePath()},
		{"service", cfg.ServiceTemplatePath()},
	}
}
