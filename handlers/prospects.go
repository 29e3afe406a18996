// ABOUTME: Prospect MCP tool handlers
// ABOUTME: Implements add_prospect, find_prospects, update_prospect, log_followup, add_quote, assign_prospect, and prospect_stats
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

type ProspectHandlers struct {
	prospects *services.ProspectService
}

func NewProspectHandlers(prospects *services.ProspectService) *ProspectHandlers {
	return &ProspectHandlers{prospects: prospects}
}

type AddProspectInput struct {
	Nombre      string `json:"nombre" jsonschema:"Prospect full name (required)"`
	Telefono    string `json:"telefono,omitempty" jsonschema:"Phone number"`
	Correo      string `json:"correo,omitempty" jsonschema:"Email address"`
	Servicio    string `json:"servicio,omitempty" jsonschema:"Service the prospect is interested in"`
	Origen      string `json:"origen,omitempty" jsonschema:"Where the lead came from"`
	Plataforma  string `json:"plataforma,omitempty" jsonschema:"WhatsApp, Instagram, or Facebook (default WhatsApp)"`
	Responsable string `json:"responsable,omitempty" jsonschema:"User responsible for the prospect"`
}

func (h *ProspectHandlers) AddProspect(ctx context.Context, _ *mcp.CallToolRequest, input AddProspectInput) (*mcp.CallToolResult, models.Prospect, error) {
	if input.Nombre == "" {
		return nil, models.Prospect{}, fmt.Errorf("nombre is required")
	}

	p, err := h.prospects.Create(ctx, models.Prospect{
		Nombre:      input.Nombre,
		Telefono:    input.Telefono,
		Correo:      input.Correo,
		Servicio:    input.Servicio,
		Origen:      input.Origen,
		Plataforma:  input.Plataforma,
		Responsable: input.Responsable,
	})
	if err != nil {
		return nil, models.Prospect{}, fmt.Errorf("failed to create prospect: %w", err)
	}
	return nil, *p, nil
}

type FindProspectsInput struct {
	Query       string `json:"query,omitempty" jsonschema:"Search text matched against name, email, and phone"`
	Estado      string `json:"estado,omitempty" jsonschema:"Filter by pipeline estado"`
	Responsable string `json:"responsable,omitempty" jsonschema:"Filter by responsible user"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindProspectsOutput struct {
	Prospects []models.Prospect `json:"prospects"`
	Count     int               `json:"count"`
}

func (h *ProspectHandlers) FindProspects(ctx context.Context, _ *mcp.CallToolRequest, input FindProspectsInput) (*mcp.CallToolResult, FindProspectsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}

	all, err := h.prospects.List(ctx)
	if err != nil {
		return nil, FindProspectsOutput{}, fmt.Errorf("failed to find prospects: %w", err)
	}

	query := strings.ToLower(input.Query)
	result := []models.Prospect{}
	for _, p := range all {
		if input.Estado != "" && p.Estado != input.Estado {
			continue
		}
		if input.Responsable != "" && p.Responsable != input.Responsable {
			continue
		}
		if query != "" && !matchesProspect(p, query) {
			continue
		}
		result = append(result, p)
		if len(result) == limit {
			break
		}
	}
	return nil, FindProspectsOutput{Prospects: result, Count: len(result)}, nil
}

func matchesProspect(p models.Prospect, query string) bool {
	return strings.Contains(strings.ToLower(p.Nombre), query) ||
		strings.Contains(strings.ToLower(p.Correo), query) ||
		strings.Contains(p.Telefono, query)
}

type UpdateProspectInput struct {
	ID         string `json:"id" jsonschema:"Prospect ID (required)"`
	Nombre     string `json:"nombre,omitempty" jsonschema:"Updated name"`
	Telefono   string `json:"telefono,omitempty" jsonschema:"Updated phone number"`
	Correo     string `json:"correo,omitempty" jsonschema:"Updated email"`
	Servicio   string `json:"servicio,omitempty" jsonschema:"Updated service"`
	Estado     string `json:"estado,omitempty" jsonschema:"New pipeline estado"`
	Plataforma string `json:"plataforma,omitempty" jsonschema:"New platform"`
}

func (h *ProspectHandlers) UpdateProspect(ctx context.Context, _ *mcp.CallToolRequest, input UpdateProspectInput) (*mcp.CallToolResult, models.Prospect, error) {
	if input.ID == "" {
		return nil, models.Prospect{}, fmt.Errorf("id is required")
	}

	patch := services.ProspectPatch{
		Nombre:     nonEmpty(input.Nombre),
		Telefono:   nonEmpty(input.Telefono),
		Correo:     nonEmpty(input.Correo),
		Servicio:   nonEmpty(input.Servicio),
		Estado:     nonEmpty(input.Estado),
		Plataforma: nonEmpty(input.Plataforma),
	}
	p, err := h.prospects.Update(ctx, input.ID, patch)
	if err != nil {
		return nil, models.Prospect{}, fmt.Errorf("failed to update prospect: %w", err)
	}
	return nil, *p, nil
}

type LogFollowUpInput struct {
	ID    string `json:"id" jsonschema:"Prospect ID (required)"`
	Nota  string `json:"nota" jsonschema:"What happened (required)"`
	Autor string `json:"autor,omitempty" jsonschema:"Who made the contact"`
}

func (h *ProspectHandlers) LogFollowUp(ctx context.Context, _ *mcp.CallToolRequest, input LogFollowUpInput) (*mcp.CallToolResult, models.Prospect, error) {
	if input.ID == "" {
		return nil, models.Prospect{}, fmt.Errorf("id is required")
	}
	p, err := h.prospects.AddFollowUp(ctx, input.ID, input.Nota, input.Autor)
	if err != nil {
		return nil, models.Prospect{}, fmt.Errorf("failed to log follow-up: %w", err)
	}
	return nil, *p, nil
}

type AddQuoteInput struct {
	ID          string  `json:"id" jsonschema:"Prospect ID (required)"`
	Descripcion string  `json:"descripcion,omitempty" jsonschema:"What is being quoted"`
	Monto       float64 `json:"monto" jsonschema:"Quoted amount (required, positive)"`
}

func (h *ProspectHandlers) AddQuote(ctx context.Context, _ *mcp.CallToolRequest, input AddQuoteInput) (*mcp.CallToolResult, models.Prospect, error) {
	if input.ID == "" {
		return nil, models.Prospect{}, fmt.Errorf("id is required")
	}
	p, err := h.prospects.AddQuote(ctx, input.ID, input.Descripcion, input.Monto)
	if err != nil {
		return nil, models.Prospect{}, fmt.Errorf("failed to add quote: %w", err)
	}
	return nil, *p, nil
}

type AssignProspectInput struct {
	ID          string `json:"id" jsonschema:"Prospect ID (required)"`
	Responsable string `json:"responsable" jsonschema:"User to assign (required)"`
}

func (h *ProspectHandlers) AssignProspect(ctx context.Context, _ *mcp.CallToolRequest, input AssignProspectInput) (*mcp.CallToolResult, models.Prospect, error) {
	if input.ID == "" {
		return nil, models.Prospect{}, fmt.Errorf("id is required")
	}
	p, err := h.prospects.Assign(ctx, input.ID, input.Responsable)
	if err != nil {
		return nil, models.Prospect{}, fmt.Errorf("failed to assign prospect: %w", err)
	}
	return nil, *p, nil
}

type StatsInput struct{}

func (h *ProspectHandlers) ProspectStats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, models.ProspectStats, error) {
	stats, err := h.prospects.Stats(ctx)
	if err != nil {
		return nil, models.ProspectStats{}, fmt.Errorf("failed to compute prospect stats: %w", err)
	}
	return nil, *stats, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
