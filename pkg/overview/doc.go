// Package overview renders the service graph as a plain node-link diagram.
//
// The drawio output of the generator is the real deliverable; the overview
// is a quick look at the resolved graph before (or instead of) opening it in
// drawio. Services are grouped into one cluster per category, brokers are
// drawn as cylinders, and every connector becomes an edge pointing in the
// direction data flows: tx connectors point from the service to the
// destination, rx connectors point back.
//
// # Usage
//
//	dot := overview.ToDOT(g, overview.Options{Detailed: true})
//	svg, err := overview.Render(ctx, dot, overview.FormatSVG)
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz], which runs Graphviz in
// process; no external binaries are needed for SVG or PNG.
package overview
