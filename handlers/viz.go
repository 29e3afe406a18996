// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the generate_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/prospecta/viz"
)

type VizHandlers struct {
	graphs *viz.GraphGenerator
}

func NewVizHandlers(graphs *viz.GraphGenerator) *VizHandlers {
	return &VizHandlers{graphs: graphs}
}

type GenerateGraphInput struct {
	Type string `json:"type" jsonschema:"Graph type: pipeline or owners"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	var dot string
	var err error
	switch input.Type {
	case "pipeline":
		dot, err = h.graphs.GeneratePipelineGraph(ctx)
	case "owners":
		dot, err = h.graphs.GenerateOwnerGraph(ctx)
	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, owners)", input.Type)
	}
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: strings.Count(dot, "label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}
