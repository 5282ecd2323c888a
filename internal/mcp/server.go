package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/catalog/internal/analyze"
	"github.com/Aman-CERP/catalog/internal/config"
	"github.com/Aman-CERP/catalog/internal/roots"
	"github.com/Aman-CERP/catalog/internal/search"
	"github.com/Aman-CERP/catalog/internal/ui"
	"github.com/Aman-CERP/catalog/pkg/version"
)

// Server exposes the catalog read-only to MCP clients. It never indexes;
// reports on stale roots say so instead of refreshing them.
type Server struct {
	mcp      *mcp.Server
	snapshot *Snapshot
	engine   *search.Engine
	analyzer *analyze.Analyzer
	config   *config.Config
	logger   *slog.Logger
	now      func() time.Time
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "search",
		Description: "Find files and directories in the local catalog by path substring, with optional extension, date, size and root filters. Only active entries are returned; files removed from disk are not listed.",
	},
	{
		Name:        "recent",
		Description: "List catalog entries modified in the last N days, newest first.",
	},
	{
		Name:        "analyze",
		Description: "Disk usage report from the catalog: totals per root, largest directories and largest files, optionally with space the catalog does not see.",
	},
	{
		Name:        "index_status",
		Description: "Catalog health: snapshot size, last run, entry counts and per-root freshness. Use to check whether the index is current.",
	},
}

// NewServer creates a server over the snapshot at cfg's store path.
func NewServer(snapshot *Snapshot, cfg *config.Config, opts ...analyze.Option) (*Server, error) {
	if snapshot == nil {
		return nil, errors.New("snapshot is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		snapshot: snapshot,
		engine:   search.New(),
		analyzer: analyze.New(nil, opts...),
		config:   cfg,
		logger:   slog.Default(),
		now:      time.Now,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "catalog",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpRecentHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpAnalyzeHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description}, s.mcpIndexStatusHandler)
	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

func (s *Server) handleSearch(ctx context.Context, in SearchInput) (*ResultsOutput, error) {
	start := time.Now()
	requestID := generateRequestID()

	st, err := s.snapshot.Current()
	if err != nil {
		return nil, err
	}
	filters, err := search.ParseFilters(st, search.FilterInput{
		Ext: in.Ext, After: in.After, Before: in.Before,
		MinSize: in.MinSize, MaxSize: in.MaxSize, Root: in.Root,
	}, time.Local)
	if err != nil {
		return nil, err
	}

	results, err := s.engine.Search(ctx, st, search.Query{
		Text:    in.Query,
		Filters: filters,
		Limit:   clampLimit(in.Limit, defaultLimit, maxLimit),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("search completed",
		slog.String("request_id", requestID),
		slog.String("query", in.Query),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(results)))
	return newResultsOutput(results), nil
}

func (s *Server) handleRecent(ctx context.Context, in RecentInput) (*ResultsOutput, error) {
	st, err := s.snapshot.Current()
	if err != nil {
		return nil, err
	}
	if in.Days < 0 {
		return nil, NewInvalidParamsError("days must not be negative")
	}
	filters, err := search.ParseFilters(st, search.FilterInput{Ext: in.Ext, Root: in.Root}, time.Local)
	if err != nil {
		return nil, err
	}

	days := in.Days
	if days == 0 {
		days = s.config.Search.RecentDays
	}
	results, err := s.engine.Recent(ctx, st, search.RecentQuery{
		Days:    days,
		Limit:   clampLimit(in.Limit, s.config.Search.RecentLimit, maxLimit),
		Now:     s.now(),
		Filters: filters,
	})
	if err != nil {
		return nil, err
	}
	return newResultsOutput(results), nil
}

func (s *Server) handleAnalyze(ctx context.Context, in AnalyzeInput) (*AnalyzeOutput, error) {
	start := time.Now()
	st, err := s.snapshot.Current()
	if err != nil {
		return nil, err
	}

	scope := in.Path
	if scope != "" {
		if scope, err = config.NormalizePathAllowMissing(scope); err != nil {
			return nil, NewInvalidParamsError(err.Error())
		}
	}

	report, err := s.analyzer.Run(ctx, st, analyze.Options{
		Scope:       scope,
		TopDirs:     clampLimit(in.TopDirs, s.config.Analyze.TopDirs, maxLimit),
		TopFiles:    clampLimit(in.TopFiles, s.config.Analyze.TopFiles, maxLimit),
		StaleAfter:  s.config.Analyze.StaleAfter,
		NoRefresh:   true,
		HiddenSpace: in.HiddenSpace,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("analyze completed",
		slog.String("scope", scope),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("rollup_cached", report.RollupCached))
	return &AnalyzeOutput{Report: report}, nil
}

func (s *Server) handleIndexStatus(_ context.Context) (*ui.StatusInfo, error) {
	st, err := s.snapshot.Current()
	if errors.Is(err, ErrIndexNotFound) {
		info := ui.StatusInfo{StorePath: s.snapshot.Path(), Roots: []ui.RootStatus{}}
		return &info, nil
	}
	if err != nil {
		return nil, err
	}
	info := roots.Status(st, s.snapshot.Path())
	return &info, nil
}

func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (
	*mcp.CallToolResult,
	*ResultsOutput,
	error,
) {
	out, err := s.handleSearch(ctx, in)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, out, nil
}

func (s *Server) mcpRecentHandler(ctx context.Context, _ *mcp.CallToolRequest, in RecentInput) (
	*mcp.CallToolResult,
	*ResultsOutput,
	error,
) {
	out, err := s.handleRecent(ctx, in)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, out, nil
}

func (s *Server) mcpAnalyzeHandler(ctx context.Context, _ *mcp.CallToolRequest, in AnalyzeInput) (
	*mcp.CallToolResult,
	*AnalyzeOutput,
	error,
) {
	out, err := s.handleAnalyze(ctx, in)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, out, nil
}

func (s *Server) mcpIndexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	*ui.StatusInfo,
	error,
) {
	out, err := s.handleIndexStatus(ctx)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, out, nil
}

// Serve runs the server on the named transport until ctx is done.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport),
		slog.String("snapshot", s.snapshot.Path()))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

func newResultsOutput(results []search.Result) *ResultsOutput {
	if results == nil {
		results = []search.Result{}
	}
	return &ResultsOutput{Results: results, Count: len(results)}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
