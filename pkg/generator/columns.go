package generator

import (
	"github.com/matzehuels/netdiagram/pkg/diagram"
	"github.com/matzehuels/netdiagram/pkg/geometry"
)

// layoutColumns packs services top to bottom into columns. A column is
// closed once its running height exceeds the height budget or it holds the
// maximum number of services.
func (g *Generator) layoutColumns() {
	sp := g.env.Styles.Props.System
	var (
		x, y, colH, maxW float64
		column           []*diagram.Service
	)
	for _, s := range g.categoryOrder("") {
		s.SetPosition(geometry.Position{X: x, Y: y})
		r := s.Rect()
		column = append(column, s)
		maxW = max(maxW, r.W)
		colH += r.H + sp.HeightGap
		if colH > sp.ColumnServicesHMax || len(column) >= sp.ColumnServicesCntMax {
			g.columns = append(g.columns, column)
			column = nil
			x += maxW + sp.ColumnGap
			y, colH, maxW = 0, 0, 0
			continue
		}
		y += r.H + sp.ServiceGap
	}
	if len(column) > 0 {
		g.columns = append(g.columns, column)
	}
}
