package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/voter-roll-reader/internal/config"
	"github.com/a3tai/voter-roll-reader/internal/descriptions"
	"github.com/a3tai/voter-roll-reader/internal/discovery"
	"github.com/a3tai/voter-roll-reader/internal/pdf"
	"github.com/a3tai/voter-roll-reader/internal/pipeline"
	"github.com/a3tai/voter-roll-reader/internal/security"
	"github.com/a3tai/voter-roll-reader/internal/store"
	"github.com/a3tai/voter-roll-reader/internal/voter"
)

// Records is the query surface of the store used by the tools.
type Records interface {
	Search(ctx context.Context, q store.Query) (store.Page, error)
	Filters(ctx context.Context) ([]store.RegionFilter, error)
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	decoder   pdf.Decoder
	records   Records
	corpus    discovery.Corpus
	paths     *security.PathValidator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, decoder pdf.Decoder, records Records, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if decoder == nil {
		return nil, errors.New("decoder cannot be nil")
	}
	if records == nil {
		return nil, errors.New("records cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := security.NewPathValidator(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("corpus root: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:  cfg,
		decoder: decoder,
		records: records,
		corpus: discovery.Corpus{
			Root:    paths.Root(),
			Regions: cfg.Regions,
			Logger:  logger,
		},
		paths:     paths,
		logger:    logger,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExtractFile,
		mcp.WithDescription(descriptions.ExtractFileDescription),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF, absolute or relative to the corpus root"),
		),
	), s.handleExtractFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolSearch,
		mcp.WithDescription(descriptions.SearchDescription),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("q", mcp.Description("Substring of name, voter number, father, mother, address or area code")),
		mcp.WithString("region", mcp.Description("Exact region")),
		mcp.WithString("subregion", mcp.Description("Exact subregion")),
		mcp.WithString("ward", mcp.Description("Exact ward number")),
		mcp.WithString("area_code", mcp.Description("Exact area code")),
		mcp.WithString("dob", mcp.Description("Exact date of birth as stored")),
		mcp.WithNumber("page", mcp.Description("Page number, from 1"), mcp.Min(1)),
		mcp.WithNumber("limit", mcp.Description("Page size"), mcp.Min(1), mcp.Max(store.MaxLimit)),
	), s.handleSearch)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolFilters,
		mcp.WithDescription(descriptions.FiltersDescription),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleFilters)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolListDocuments,
		mcp.WithDescription(descriptions.ListDocumentsDescription),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("region", mcp.Description("Only list this region folder")),
	), s.handleListDocuments)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleServerInfo)
}

// extraction is the voter_extract_file response body.
type extraction struct {
	Path      string          `json:"path"`
	Region    string          `json:"region"`
	Subregion string          `json:"subregion"`
	Extracted int             `json:"extracted"`
	Discarded int             `json:"discarded"`
	Records   []*voter.Record `json:"records"`
}

// collector is an in-memory sink numbering records from 1.
type collector struct {
	records []*voter.Record
}

func (c *collector) Insert(_ context.Context, rec *voter.Record) (int64, error) {
	c.records = append(c.records, rec)
	rec.ID = int64(len(c.records))
	return rec.ID, nil
}

// Handler functions
func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !pdf.IsPDFName(resolved) {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", pdf.ErrNotPDF, path)), nil
	}

	sink := &collector{}
	p := pipeline.New(s.decoder, sink,
		pipeline.WithLogger(s.logger),
		pipeline.WithMaxFileSize(s.config.MaxFileSize),
	)
	out := p.ProcessDocument(ctx, s.corpus.Source(resolved))
	if out.Skipped() {
		return mcp.NewToolResultError(fmt.Sprintf("document skipped (%s): %v", out.Skip, out.Err)), nil
	}

	return jsonResult(extraction{
		Path:      out.Source.Path,
		Region:    out.Source.Region,
		Subregion: out.Source.Subregion,
		Extracted: out.Extracted,
		Discarded: out.Discarded,
		Records:   sink.records,
	})
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := store.Query{
		Text:        request.GetString("q", ""),
		Region:      request.GetString("region", ""),
		Subregion:   request.GetString("subregion", ""),
		Ward:        request.GetString("ward", ""),
		AreaCode:    request.GetString("area_code", ""),
		DateOfBirth: request.GetString("dob", ""),
		Page:        request.GetInt("page", 1),
		Limit:       request.GetInt("limit", store.DefaultLimit),
	}

	page, err := s.records.Search(ctx, q)
	if err != nil {
		s.logger.Error("search failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(page)
}

func (s *Server) handleFilters(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filters, err := s.records.Filters(ctx)
	if err != nil {
		s.logger.Error("filters failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("filters failed: %v", err)), nil
	}
	return jsonResult(filters)
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	corpus := s.corpus
	if region := strings.TrimSpace(request.GetString("region", "")); region != "" {
		corpus.Regions = []string{region}
	}

	docs, err := corpus.Documents(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No documents found under %s", s.corpus.Root)), nil
	}
	return mcp.NewToolResultText(formatDocuments(s.corpus.Root, docs)), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo()), nil
}

// Formatting methods
func formatDocuments(root string, docs []voter.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d document(s) under %s\n\n", len(docs), root)
	for i, d := range docs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d.Path)
		fmt.Fprintf(&b, "   Region: %s", d.Region)
		if d.Subregion != "" {
			fmt.Fprintf(&b, ", Subregion: %s", d.Subregion)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Server) formatServerInfo() string {
	c := s.config
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s\n", c.ServerName, c.Version)
	fmt.Fprintf(&b, "Corpus root: %s\n", s.corpus.Root)
	fmt.Fprintf(&b, "Regions: %s\n", strings.Join(c.Regions, ", "))
	fmt.Fprintf(&b, "Decoder: %s\n", c.Decoder)
	fmt.Fprintf(&b, "Store: %s\n", storeBackend(c.DSN))
	fmt.Fprintf(&b, "Max file size: %d MB\n", c.MaxFileSize/(1024*1024))
	b.WriteString("\nAvailable tools:\n")
	for _, name := range descriptions.GetAllToolNames() {
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	return b.String()
}

func storeBackend(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgresql"
	}
	return "sqlite"
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// Run serves MCP over the process's standard input and output until ctx is
// cancelled or stdin is closed.
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug("starting MCP server on stdio", "root", s.corpus.Root)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
