package generator

import (
	"slices"

	"github.com/matzehuels/netdiagram/pkg/diagram"
	"github.com/matzehuels/netdiagram/pkg/graph"
)

type topicGroup struct {
	tx, rx []*diagram.Topic
}

// groupTopics collects topics by channel name, keeping first-seen order.
func (g *Generator) groupTopics() ([]string, map[string]*topicGroup) {
	var names []string
	groups := make(map[string]*topicGroup)
	for _, s := range g.order {
		for _, t := range s.Topics() {
			tg, ok := groups[t.Name()]
			if !ok {
				tg = &topicGroup{}
				groups[t.Name()] = tg
				names = append(names, t.Name())
			}
			if t.Direction() == graph.TX {
				tg.tx = append(tg.tx, t)
			} else {
				tg.rx = append(tg.rx, t)
			}
		}
	}
	return names, groups
}

// topicArrows joins every producing topic to every consuming topic of the
// same channel. A channel drawn only on one side loses all its links.
func (g *Generator) topicArrows() {
	names, groups := g.groupTopics()
	for _, name := range names {
		tg := groups[name]
		if len(tg.tx) == 0 || len(tg.rx) == 0 {
			for _, t := range slices.Concat(tg.tx, tg.rx) {
				if t.Linked() {
					g.disabled++
				}
				t.DisableLink()
			}
			continue
		}
		for _, tx := range tg.tx {
			for _, rx := range tg.rx {
				rx.SetProducerName(tx.Service())
				if !tx.Linkable() || !rx.Linkable() || tx.Service() == rx.Service() {
					continue
				}
				for _, d := range both() {
					g.arrows = append(g.arrows, diagram.NewTopicArrow(g.env, tx, rx, d))
				}
			}
		}
	}
}

// containerArrows joins containers to the broker service they talk to.
// Containers of the home broker and of brokers that were not built are
// skipped.
func (g *Generator) containerArrows() {
	for _, s := range g.order {
		for _, c := range s.Containers() {
			if c.Broker() == g.opts.HomeBroker {
				continue
			}
			broker, ok := g.services[c.Broker()]
			if !ok {
				continue
			}
			for _, d := range both() {
				g.arrows = append(g.arrows, diagram.NewContainerArrow(g.env, c, broker, d))
			}
		}
	}
}

// connectToArrows joins connector badges to their destination. A badge
// whose destination is not drawn keeps no link.
func (g *Generator) connectToArrows() {
	for _, s := range g.order {
		for _, c := range s.Connectors() {
			dest, ok := g.services[c.Dest()]
			if !ok {
				g.logger.Debug("connector destination not drawn", "service", s.Name(), "dest", c.Dest())
				c.DisableLink()
				g.disabled++
				continue
			}
			for _, d := range both() {
				g.arrows = append(g.arrows, diagram.NewConnectToArrow(g.env, c, dest, d, g.opts.ShowConnectTo))
			}
		}
	}
}
