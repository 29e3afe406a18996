// ABOUTME: GraphViz rendering of the prospect pipeline
// ABOUTME: Generates DOT for the estado funnel and for prospects grouped by owner
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

// stageColors fills each estado node in the funnel.
var stageColors = map[string]string{
	models.EstadoNuevo:         "lightblue",
	models.EstadoContactado:    "lightcyan",
	models.EstadoEnSeguimiento: "lightyellow",
	models.EstadoCotizado:      "orange",
	models.EstadoVentaCerrada:  "lightgreen",
	models.EstadoPerdido:       "lightgray",
}

type GraphGenerator struct {
	prospects *services.ProspectService
}

func NewGraphGenerator(prospects *services.ProspectService) *GraphGenerator {
	return &GraphGenerator{prospects: prospects}
}

// GeneratePipelineGraph draws one node per estado with its prospect count and quoted total.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context) (string, error) {
	prospects, err := g.prospects.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch prospects: %w", err)
	}

	counts := make(map[string]int)
	quoted := make(map[string]float64)
	for _, p := range prospects {
		counts[p.Estado]++
		for _, q := range p.Cotizaciones {
			quoted[p.Estado] += q.Monto
		}
	}

	return render(ctx, func(graph *cgraph.Graph) error {
		graph.SetLabel("Prospect Pipeline")
		graph.SetRankDir(cgraph.LRRank)

		nodes := make(map[string]*cgraph.Node, len(models.Estados))
		for _, estado := range models.Estados {
			node, err := graph.CreateNodeByName(estado)
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			label := fmt.Sprintf("%s\n%d prospects", estado, counts[estado])
			if quoted[estado] > 0 {
				label += fmt.Sprintf("\n$%.0f quoted", quoted[estado])
			}
			node.SetLabel(label)
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor(stageColors[estado])
			nodes[estado] = node
		}

		// Happy path through the funnel, then every open stage can drop to Perdido.
		funnel := models.Estados[:len(models.Estados)-1]
		for i := 0; i < len(funnel)-1; i++ {
			if _, err := graph.CreateEdgeByName("next", nodes[funnel[i]], nodes[funnel[i+1]]); err != nil {
				return fmt.Errorf("failed to create stage edge: %w", err)
			}
		}
		for _, estado := range funnel[:len(funnel)-1] {
			edge, err := graph.CreateEdgeByName("lost", nodes[estado], nodes[models.EstadoPerdido])
			if err != nil {
				return fmt.Errorf("failed to create lost edge: %w", err)
			}
			edge.SetStyle("dashed")
		}
		return nil
	})
}

// GenerateOwnerGraph links each responsable to the prospects they hold.
func (g *GraphGenerator) GenerateOwnerGraph(ctx context.Context) (string, error) {
	prospects, err := g.prospects.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch prospects: %w", err)
	}

	return render(ctx, func(graph *cgraph.Graph) error {
		graph.SetLabel("Prospects by Owner")

		owners := make(map[string]*cgraph.Node)
		for _, p := range prospects {
			owner := p.Responsable
			if owner == "" {
				owner = "unassigned"
			}
			ownerNode, ok := owners[owner]
			if !ok {
				ownerNode, err = graph.CreateNodeByName("owner_" + owner)
				if err != nil {
					return fmt.Errorf("failed to create owner node: %w", err)
				}
				ownerNode.SetLabel(owner)
				ownerNode.SetShape("box")
				ownerNode.SetStyle("filled")
				ownerNode.SetFillColor("lightblue")
				owners[owner] = ownerNode
			}

			node, err := graph.CreateNodeByName("prospect_" + p.ID)
			if err != nil {
				return fmt.Errorf("failed to create prospect node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n(%s)", p.Nombre, p.Estado))
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor(stageColors[p.Estado])

			if _, err := graph.CreateEdgeByName("owns", ownerNode, node); err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
		}
		return nil
	})
}

func render(ctx context.Context, build func(*cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
