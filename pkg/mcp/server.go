package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rat/api/v1beta1/configs"
	"github.com/macropower/rat/pkg/config"
	"github.com/macropower/rat/pkg/rule"
	"github.com/macropower/rat/pkg/sync"
	"github.com/macropower/rat/pkg/version"
)

// Server exposes rule synchronization over the Model Context Protocol.
type Server struct {
	cfg         *configs.Config
	planner     *sync.Planner
	server      *mcp.Server
	tracer      trace.Tracer
	address     string
	resolveOpts []config.ResolveOpt
}

// ServerOpt is a functional option for [Server].
type ServerOpt func(*Server)

// WithTrustGate gates project config files behind g. Without a gate every
// project config file is applied.
func WithTrustGate(g config.TrustGate) ServerOpt {
	return func(s *Server) {
		s.resolveOpts = append(s.resolveOpts, config.WithTrustGate(g))
	}
}

// NewServer creates a new MCP server instance backed by the given
// configuration. With an empty address the server speaks stdio, otherwise
// it serves streamable HTTP on the address.
func NewServer(address string, cfg *configs.Config, opts ...ServerOpt) (*Server, error) {
	planner, err := sync.NewPlanner(cfg.Rules.Dir, cfg.Formats)
	if err != nil {
		return nil, fmt.Errorf("create planner: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: instructions,
	}

	s := &Server{
		address: address,
		cfg:     cfg,
		planner: planner,
		server:  mcp.NewServer(impl, mcpOpts),
		tracer:  otel.Tracer(name),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()

	return s, nil
}

// registerTools wires up the sync_project, verify_project, and list_rules
// tools, each wrapped in its own trace span.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_project",
		Description: "Synchronize rule documents into a project directory, writing every file its output formats produce. You MUST specify a path.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "The project directory to synchronize.",
				},
				"dryRun": {
					Type:        "boolean",
					Description: "Report the planned writes without touching the filesystem.",
				},
			},
			Required: []string{"path"},
		},
	}, withTracing(s.tracer, s.handleSyncProject))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "verify_project",
		Description: "Check a project directory against its plan and report every missing, modified, or extra file. Never writes anything.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "The project directory to verify.",
				},
			},
			Required: []string{"path"},
		},
	}, withTracing(s.tracer, s.handleVerifyProject))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List rule documents in the source directory. With a path, lists the selection the project's patterns and filter produce.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "A project directory whose rule selection to list. Omit to list every rule.",
				},
			},
		},
	}, withTracing(s.tracer, s.handleListRules))
}

// handleSyncProject resolves the project at the given path and runs a sync,
// honoring the dryRun flag.
func (s *Server) handleSyncProject(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[SyncProjectParams],
) (*mcp.CallToolResultFor[SyncProjectResult], error) {
	proj, err := config.Resolve(s.cfg, params.Arguments.Path, s.resolveOpts...)
	if err != nil {
		return nil, fmt.Errorf("resolve project: %w", err)
	}

	syncer := sync.NewSyncer(s.planner, sync.WithSyncDryRun(params.Arguments.DryRun))

	res, err := syncer.Sync(ctx, proj)
	if err != nil {
		return nil, fmt.Errorf("sync project: %w", err)
	}

	result := SyncProjectResult{
		Project: res.Project,
		Written: []string{},
		DryRun:  res.DryRun,
	}
	result.Written = append(result.Written, res.Written...)
	result.Unmatched = append(result.Unmatched, res.Unmatched...)

	return createSyncProjectResult(result), nil
}

// handleVerifyProject reports drift between the project's files and its plan.
func (s *Server) handleVerifyProject(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[VerifyProjectParams],
) (*mcp.CallToolResultFor[VerifyProjectResult], error) {
	proj, err := config.Resolve(s.cfg, params.Arguments.Path, s.resolveOpts...)
	if err != nil {
		return nil, fmt.Errorf("resolve project: %w", err)
	}

	verifier := sync.NewVerifier(s.planner)

	res, err := verifier.Verify(ctx, proj)
	if err != nil {
		return nil, fmt.Errorf("verify project: %w", err)
	}

	result := VerifyProjectResult{
		Project: res.Project,
		Issues:  []DriftIssue{},
		Synced:  res.Synced(),
	}
	for _, issue := range res.Issues {
		result.Issues = append(result.Issues, DriftIssue{
			Kind: string(issue.Kind),
			Path: issue.Path,
		})
	}

	return createVerifyProjectResult(result), nil
}

// handleListRules lists either the full rule tree or, when a path is given,
// the selection that project's patterns and filter produce.
func (s *Server) handleListRules(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[ListRulesParams],
) (*mcp.CallToolResultFor[ListRulesResult], error) {
	result := ListRulesResult{
		Rules: []RuleInfo{},
	}

	if params.Arguments.Path == "" {
		res, err := rule.Load(s.planner.SourceDir(), nil)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}

		result.Rules = appendRuleInfo(result.Rules, res.Rules)
		result.Unmatched = append(result.Unmatched, res.Unmatched...)

		return createListRulesResult(result), nil
	}

	proj, err := config.Resolve(s.cfg, params.Arguments.Path, s.resolveOpts...)
	if err != nil {
		return nil, fmt.Errorf("resolve project: %w", err)
	}

	plan, err := s.planner.Plan(proj)
	if err != nil {
		return nil, fmt.Errorf("plan project: %w", err)
	}

	result.Rules = appendRuleInfo(result.Rules, plan.Rules)
	result.Unmatched = append(result.Unmatched, plan.Unmatched...)

	return createListRulesResult(result), nil
}

// Server exposes the underlying SDK server, so callers can connect sessions
// over their own transports.
func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve runs the server until ctx is canceled, speaking stdio when no
// address is configured and streamable HTTP otherwise.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server",
		slog.String("address", s.address),
		slog.String("rules", s.planner.SourceDir()),
	)

	if s.address == "" {
		return s.serveStdio(ctx)
	}

	return s.serveHTTP()
}

func (s *Server) serveHTTP() error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	srv := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve http on %s: %w", s.address, err)
	}

	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := mcp.NewLoggingTransport(mcp.NewStdioTransport(), os.Stderr)

	err := s.server.Run(ctx, t)
	if err != nil {
		return fmt.Errorf("serve stdio: %w", err)
	}

	return nil
}
