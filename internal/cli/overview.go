package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netdiagram/pkg/io"
	"github.com/matzehuels/netdiagram/pkg/overview"
)

// formatJSON writes the normalized graph document instead of a drawing.
const formatJSON = "json"

// overviewOpts holds the command-line flags for the overview command.
type overviewOpts struct {
	output      string // output file; derived from the graph path when empty
	format      string // svg, png, dot or json
	detailed    bool   // label edges with channel kinds
	unavailable bool   // include services hidden from diagrams
}

// overviewCommand creates the overview command, a Graphviz drawing of the
// whole service graph.
func (c *CLI) overviewCommand() *cobra.Command {
	opts := overviewOpts{format: overview.FormatSVG}

	cmd := &cobra.Command{
		Use:   "overview [graph]",
		Short: "Render a Graphviz overview of a service graph",
		Example: `  netdiagram overview services.yaml
  netdiagram overview services.yaml -f png -o overview.png --detailed
  netdiagram overview services.yaml -f json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOverviewFormat(opts.format); err != nil {
				return err
			}
			return c.runOverview(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: graph name with the format extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), png, dot, json")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label edges with channel kinds and counts")
	cmd.Flags().BoolVar(&opts.unavailable, "unavailable", false, "include services hidden from diagrams")
	_ = cmd.RegisterFlagCompletionFunc("format", completeOverviewFormat)

	return cmd
}

func validateOverviewFormat(format string) error {
	if format == formatJSON || lo.Contains(overview.Formats, format) {
		return nil
	}
	return fmt.Errorf("invalid format: %s (must be one of %s, %s)", format, strings.Join(overview.Formats, ", "), formatJSON)
}

func (c *CLI) runOverview(ctx context.Context, graphPath string, opts overviewOpts) error {
	prog := newProgress(c.Logger)
	g, err := io.ImportFile(graphPath)
	if err != nil {
		return err
	}
	c.Logger.Debug("graph loaded", "services", g.Len(), "connectors", g.ConnectorCount())

	var data []byte
	if opts.format == formatJSON {
		var buf bytes.Buffer
		if err := io.WriteJSON(g, &buf); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		dot := overview.ToDOT(g, overview.Options{Detailed: opts.detailed, Unavailable: opts.unavailable})
		data, err = overview.Render(ctx, dot, opts.format)
		if err != nil {
			return err
		}
	}

	out := opts.output
	if out == "" {
		out = overviewPath(graphPath, opts.format)
	}
	if err := io.WriteFileAtomic(out, data); err != nil {
		return err
	}
	prog.done("Rendered overview")

	printSuccess("Overview of %d services", g.Len())
	printFile(out)
	return nil
}

// overviewPath swaps the extension of graphPath for format.
func overviewPath(graphPath, format string) string {
	base := strings.TrimSuffix(graphPath, filepath.Ext(graphPath))
	if format == formatJSON && strings.EqualFold(filepath.Ext(graphPath), ".json") {
		return base + ".resolved.json"
	}
	return base + "." + format
}
