// ABOUTME: User MCP tool handlers
// ABOUTME: Implements add_user, list_users, update_user, remove_user, and user_stats tools
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/services"
)

type UserHandlers struct {
	users *services.UserService
}

func NewUserHandlers(users *services.UserService) *UserHandlers {
	return &UserHandlers{users: users}
}

type AddUserInput struct {
	Nombre   string `json:"nombre" jsonschema:"First name (required)"`
	Apellido string `json:"apellido,omitempty" jsonschema:"Last name"`
	Email    string `json:"email" jsonschema:"Email address, unique ignoring case (required)"`
	Rol      string `json:"rol,omitempty" jsonschema:"admin, manager, agent, or viewer (default agent)"`
}

func (h *UserHandlers) AddUser(ctx context.Context, _ *mcp.CallToolRequest, input AddUserInput) (*mcp.CallToolResult, models.User, error) {
	u, err := h.users.Create(ctx, models.User{
		Nombre:   input.Nombre,
		Apellido: input.Apellido,
		Email:    input.Email,
		Rol:      input.Rol,
	})
	if err != nil {
		return nil, models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return nil, *u, nil
}

type ListUsersInput struct {
	Rol string `json:"rol,omitempty" jsonschema:"Only users with this role"`
}

type ListUsersOutput struct {
	Users []models.User `json:"users"`
	Count int           `json:"count"`
}

func (h *UserHandlers) ListUsers(ctx context.Context, _ *mcp.CallToolRequest, input ListUsersInput) (*mcp.CallToolResult, ListUsersOutput, error) {
	var (
		users []models.User
		err   error
	)
	if input.Rol != "" {
		users, err = h.users.ByRole(ctx, input.Rol)
	} else {
		users, err = h.users.List(ctx)
	}
	if err != nil {
		return nil, ListUsersOutput{}, fmt.Errorf("failed to list users: %w", err)
	}
	return nil, ListUsersOutput{Users: users, Count: len(users)}, nil
}

type UpdateUserInput struct {
	ID       string `json:"id" jsonschema:"User ID (required)"`
	Nombre   string `json:"nombre,omitempty" jsonschema:"Updated first name"`
	Apellido string `json:"apellido,omitempty" jsonschema:"Updated last name"`
	Email    string `json:"email,omitempty" jsonschema:"Updated email"`
	Rol      string `json:"rol,omitempty" jsonschema:"New role; the last admin cannot be demoted"`
	Estado   string `json:"estado,omitempty" jsonschema:"active, inactive, pending, or suspended"`
}

func (h *UserHandlers) UpdateUser(ctx context.Context, _ *mcp.CallToolRequest, input UpdateUserInput) (*mcp.CallToolResult, models.User, error) {
	if input.ID == "" {
		return nil, models.User{}, fmt.Errorf("id is required")
	}
	u, err := h.users.Update(ctx, input.ID, services.UserPatch{
		Nombre:   nonEmpty(input.Nombre),
		Apellido: nonEmpty(input.Apellido),
		Email:    nonEmpty(input.Email),
		Rol:      nonEmpty(input.Rol),
		Estado:   nonEmpty(input.Estado),
	})
	if err != nil {
		return nil, models.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return nil, *u, nil
}

type RemoveUserInput struct {
	ID string `json:"id" jsonschema:"User ID (required)"`
}

type RemoveUserOutput struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

func (h *UserHandlers) RemoveUser(ctx context.Context, _ *mcp.CallToolRequest, input RemoveUserInput) (*mcp.CallToolResult, RemoveUserOutput, error) {
	if input.ID == "" {
		return nil, RemoveUserOutput{}, fmt.Errorf("id is required")
	}
	if err := h.users.Delete(ctx, input.ID); err != nil {
		return nil, RemoveUserOutput{}, fmt.Errorf("failed to remove user: %w", err)
	}
	return nil, RemoveUserOutput{Success: true, ID: input.ID}, nil
}

func (h *UserHandlers) UserStats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, models.UserSummary, error) {
	summary, err := h.users.Stats(ctx)
	if err != nil {
		return nil, models.UserSummary{}, fmt.Errorf("failed to compute user stats: %w", err)
	}
	return nil, *summary, nil
}
