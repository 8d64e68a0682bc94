// Package mcp exposes persona consultations as Model Context Protocol
// tools so editor agents can call gatekeep directly.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gatekeep-ai/gatekeep/internal/logging"
	"github.com/gatekeep-ai/gatekeep/internal/persona"
	"github.com/gatekeep-ai/gatekeep/internal/version"
	"github.com/gatekeep-ai/gatekeep/pkg/models"
)

// ServerName is reported to MCP clients during initialisation.
const ServerName = "gatekeep-mcp"

// PersonaInfo is one entry of the list_personas result.
type PersonaInfo struct {
	Name      string   `json:"name"`
	Character string   `json:"character"`
	Emoji     string   `json:"emoji,omitempty"`
	Role      string   `json:"role,omitempty"`
	Domain    string   `json:"domain"`
	Model     string   `json:"model"`
	Standards []string `json:"standards,omitempty"`
}

// Server wraps a persona engine as an MCP server.
type Server struct {
	engine    *persona.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers its tools.
func NewServer(engine *persona.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer(ServerName, version.Get(), server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Ask a gatekeep persona a question. Use route_question first if unsure which persona fits."),
		mcp.WithString("persona", mcp.Required(), mcp.Description("Persona name, e.g. sentinel, auditor, architect")),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to ask")),
		mcp.WithString("context", mcp.Description("Optional supporting context")),
	), s.handleAsk)

	s.mcpServer.AddTool(mcp.NewTool("team_review",
		mcp.WithDescription("Run a concurrent review by the cost, security and architecture personas."),
		mcp.WithString("content", mcp.Required(), mcp.Description("What to review")),
		mcp.WithString("context", mcp.Description("Optional supporting context")),
	), s.handleTeamReview)

	s.mcpServer.AddTool(mcp.NewTool("deployment_gate",
		mcp.WithDescription("Run pre-deployment checks and ask the environment's approver for a decision."),
		mcp.WithString("plan", mcp.Required(), mcp.Description("The deployment plan")),
		mcp.WithString("environment", mcp.Required(), mcp.Enum("test", "production"), mcp.Description("Target environment")),
		mcp.WithString("context", mcp.Description("Optional supporting context")),
	), s.handleDeploymentGate)

	s.mcpServer.AddTool(mcp.NewTool("route_question",
		mcp.WithDescription("Pick the persona best suited to a question by keyword."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to route")),
	), s.handleRoute)

	s.mcpServer.AddTool(mcp.NewTool("list_personas",
		mcp.WithDescription("List the available personas as JSON."),
	), s.handleListPersonas)
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("persona")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name = strings.ToLower(name)
	answer, err := s.engine.Consult(ctx, name, question, request.GetString("context", ""))
	if err != nil {
		s.logger.Warn("mcp ask failed", "persona", name, "error", err)
		if errors.Is(err, persona.ErrUnknownPersona) {
			return mcp.NewToolResultError(fmt.Sprintf("Unknown persona: %s", name)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(answer), nil
}

func (s *Server) handleTeamReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	findings := s.engine.TeamReview(ctx, content, request.GetString("context", ""))

	var sb strings.Builder
	sb.WriteString("# Team Review\n")
	for _, f := range findings {
		fmt.Fprintf(&sb, "\n## %s\n\n%s\n", s.title(f.Persona), f.Text())
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleDeploymentGate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, err := request.RequireString("plan")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawEnv, err := request.RequireString("environment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	env, err := models.ParseEnvironment(rawEnv)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.engine.DeploymentGate(ctx, plan, env, request.GetString("context", ""))
	if err != nil {
		s.logger.Warn("mcp deployment gate failed", "environment", env, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Deployment Gate: %s\n\n## Pre-Deployment Checks\n", strings.ToUpper(result.Environment))
	for _, c := range result.Checks {
		fmt.Fprintf(&sb, "\n### %s\n\n%s\n", s.title(c.Persona), c.Text())
	}
	fmt.Fprintf(&sb, "\n## Approval Decision (%s)\n\n### %s\n\n%s\n",
		strings.ToUpper(result.Environment), s.title(result.Approver), result.Approval)
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.engine.Route(question)), nil
}

func (s *Server) handleListPersonas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	personas := s.engine.Catalog().Personas()
	out := make([]PersonaInfo, 0, len(personas))
	for _, p := range personas {
		out = append(out, PersonaInfo{
			Name:      p.Name,
			Character: p.DisplayName(),
			Emoji:     p.Emoji,
			Role:      p.Role,
			Domain:    p.Domain,
			Model:     p.Model,
			Standards: p.Standards,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode personas: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// title is "<emoji> <Character>" for known personas and the bare name otherwise.
func (s *Server) title(name string) string {
	p, ok := s.engine.Catalog().Persona(name)
	if !ok {
		return name
	}
	if p.Emoji == "" {
		return p.DisplayName()
	}
	return p.Emoji + " " + p.DisplayName()
}
