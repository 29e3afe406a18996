// ABOUTME: Builds the MCP server and registers every tool, resource, and prompt
// ABOUTME: Shared by the stdio mcp command and the in-memory tests
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/prospecta/services"
	"github.com/harperreed/prospecta/sync"
	"github.com/harperreed/prospecta/viz"
)

// Services are the domain services exposed over MCP. Calendar may be nil when Google is not configured.
type Services struct {
	Prospects *services.ProspectService
	Users     *services.UserService
	Finance   *services.FinanceService
	Events    *services.EventStore
	Calendar  *sync.CalendarService
}

// NewServer returns an MCP server with the full prospecta toolset registered.
func NewServer(svc Services, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "prospecta",
		Version: version,
	}, nil)

	prospectHandlers := NewProspectHandlers(svc.Prospects)
	userHandlers := NewUserHandlers(svc.Users)
	financeHandlers := NewFinanceHandlers(svc.Finance)
	calendarHandlers := NewCalendarHandlers(svc.Events, svc.Calendar)
	queryHandlers := NewQueryHandlers(svc.Prospects, svc.Users, svc.Finance)
	vizHandlers := NewVizHandlers(viz.NewGraphGenerator(svc.Prospects))

	// Prospects
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_prospect",
		Description: "Add a new prospect to the pipeline",
	}, prospectHandlers.AddProspect)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_prospects",
		Description: "Search prospects by name, phone, email, or service with optional estado and owner filters",
	}, prospectHandlers.FindProspects)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_prospect",
		Description: "Update an existing prospect's details or estado",
	}, prospectHandlers.UpdateProspect)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_follow_up",
		Description: "Record a follow-up note on a prospect and update its last follow-up timestamp",
	}, prospectHandlers.LogFollowUp)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_quote",
		Description: "Attach a price quote to a prospect",
	}, prospectHandlers.AddQuote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "assign_prospect",
		Description: "Hand a prospect to a team member",
	}, prospectHandlers.AssignProspect)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "prospect_stats",
		Description: "Count prospects by estado, platform, and owner",
	}, prospectHandlers.ProspectStats)

	// Users
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_user",
		Description: "Create an operator account",
	}, userHandlers.AddUser)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_users",
		Description: "List operator accounts, optionally filtered by role",
	}, userHandlers.ListUsers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_user",
		Description: "Update an operator account's details, role, or estado",
	}, userHandlers.UpdateUser)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_user",
		Description: "Delete an operator account (the last admin cannot be removed)",
	}, userHandlers.RemoveUser)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "user_stats",
		Description: "Count operator accounts by role and estado",
	}, userHandlers.UserStats)

	// Finance
	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_transaction",
		Description: "Record an income, expense, or payment",
	}, financeHandlers.RecordTransaction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_transactions",
		Description: "List transactions filtered by type, status, category, or date range",
	}, financeHandlers.ListTransactions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_invoice",
		Description: "Create a numbered invoice from line items or a flat amount",
	}, financeHandlers.CreateInvoice)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_invoice_status",
		Description: "Move an invoice to draft, sent, paid, overdue, or cancelled",
	}, financeHandlers.SetInvoiceStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_budget_expense",
		Description: "Spend against a budget category and record the matching expense",
	}, financeHandlers.RecordBudgetExpense)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "finance_summary",
		Description: "Income, expenses, net, and invoice totals for a date range (default this month)",
	}, financeHandlers.FinanceSummary)

	// Calendar
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_events",
		Description: "List local calendar events in a date range",
	}, calendarHandlers.ListEvents)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "schedule_event",
		Description: "Create a local calendar event",
	}, calendarHandlers.ScheduleEvent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_calendar",
		Description: "Pull Google Calendar events for the configured window into the local store",
	}, calendarHandlers.SyncCalendar)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_crm",
		Description: "Universal query tool for flexible filtering across all CRM entity types (prospect, user, invoice, transaction)",
	}, queryHandlers.QueryCRM)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Render the prospect pipeline or owner assignments as GraphViz DOT",
	}, vizHandlers.GenerateGraph)

	registerResources(server, NewResourceHandlers(svc.Prospects, svc.Users, svc.Finance))
	registerPrompts(server, NewPromptHandlers(svc.Prospects, svc.Finance))

	return server
}

func registerResources(server *mcp.Server, h *ResourceHandlers) {
	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "prospects",
		Name:        "prospects",
		Description: "Every prospect in the pipeline",
		MIMEType:    "application/json",
	}, h.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "prospects/{id}",
		Name:        "prospect",
		Description: "A single prospect with its follow-ups and quotes",
		MIMEType:    "application/json",
	}, h.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "pipeline",
		Name:        "pipeline",
		Description: "Prospect counts by estado, platform, and owner",
		MIMEType:    "application/json",
	}, h.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "users",
		Name:        "users",
		Description: "Operator accounts",
		MIMEType:    "application/json",
	}, h.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "finance/summary",
		Name:        "finance-summary",
		Description: "Finance summary for the current month",
		MIMEType:    "application/json",
	}, h.ReadResource)
}

func registerPrompts(server *mcp.Server, h *PromptHandlers) {
	server.AddPrompt(&mcp.Prompt{
		Name:        "prospect-summary",
		Description: "Summarise a prospect and suggest the next step",
		Arguments: []*mcp.PromptArgument{
			{Name: "prospect_id", Description: "Prospect id", Required: true},
		},
	}, h.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Review the pipeline for bottlenecks",
	}, h.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "follow-up-suggestions",
		Description: "Draft follow-up messages for prospects untouched in over a week",
	}, h.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "finance-review",
		Description: "Review a month of income, expenses, and invoices",
		Arguments: []*mcp.PromptArgument{
			{Name: "month", Description: "Month as YYYY-MM (default current month)"},
		},
	}, h.GetPrompt)
}
