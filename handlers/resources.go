// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only access to prospects, the pipeline, users, and the finance summary via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/prospecta/services"
)

const uriScheme = "prospecta://"

type ResourceHandlers struct {
	prospects *services.ProspectService
	users     *services.UserService
	finance   *services.FinanceService
}

func NewResourceHandlers(prospects *services.ProspectService, users *services.UserService, finance *services.FinanceService) *ResourceHandlers {
	return &ResourceHandlers{prospects: prospects, users: users, finance: finance}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", uriScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, uriScheme), "/")
	switch parts[0] {
	case "prospects":
		if len(parts) == 1 || parts[1] == "" {
			prospects, err := h.prospects.List(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch prospects: %w", err)
			}
			return jsonResource(uri, prospects)
		}
		p, err := h.prospects.Get(ctx, parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to fetch prospect: %w", err)
		}
		return jsonResource(uri, p)

	case "pipeline":
		stats, err := h.prospects.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to compute pipeline: %w", err)
		}
		return jsonResource(uri, stats)

	case "users":
		users, err := h.users.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch users: %w", err)
		}
		return jsonResource(uri, users)

	case "finance":
		now := time.Now()
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		summary, err := h.finance.Summary(ctx, from, from.AddDate(0, 1, 0))
		if err != nil {
			return nil, fmt.Errorf("failed to build finance summary: %w", err)
		}
		return jsonResource(uri, summary)

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
