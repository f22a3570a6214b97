// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Gyotaku tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/minato/gyotaku/internal/migrate"
	"github.com/minato/gyotaku/internal/models"
	"github.com/minato/gyotaku/internal/recordservice"
	"github.com/minato/gyotaku/internal/validate"
)

// Server wraps the MCP server with Gyotaku tools.
type Server struct {
	mcp *server.MCPServer
	svc *recordservice.Service
	mgr *migrate.Manager
}

// New creates a new MCP server with all Gyotaku tools registered.
func New(svc *recordservice.Service, mgr *migrate.Manager, version string) *Server {
	s := &Server{svc: svc, mgr: mgr}

	s.mcp = server.NewMCPServer(
		"Gyotaku",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("log_catch",
		mcp.WithDescription("Log a new catch record. The record MUST follow the canonical "+
			"record format (see the get_record_contract tool or the gyotaku://record-format "+
			"resource). Validation warnings are returned alongside the created record."),
		mcp.WithString("record", mcp.Required(), mcp.Description("JSON object with the record fields (caught_at, location, species, optional size/weight/temperature/coordinate/weather/notes)")),
	), s.logCatch)

	s.mcp.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Read a single catch record by its id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id (UUID)")),
	), s.getRecord)

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List catch records, newest first. Optionally filter by species."),
		mcp.WithString("species", mcp.Description("Optional species filter (exact match)")),
	), s.listRecords)

	s.mcp.AddTool(mcp.NewTool("search_records",
		mcp.WithDescription("Full-text search through record species, locations and notes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchRecords)

	s.mcp.AddTool(mcp.NewTool("get_overall_stats",
		mcp.WithDescription("Returns overall statistics: total catches, mean size, "+
			"largest and smallest catch, date range covered."),
	), s.getOverallStats)

	s.mcp.AddTool(mcp.NewTool("check_integrity",
		mcp.WithDescription("Run a data integrity check: validates every stored record "+
			"and reports orphaned photo references."),
	), s.checkIntegrity)

	s.mcp.AddTool(mcp.NewTool("get_record_contract",
		mcp.WithDescription("Returns the canonical Gyotaku record format contract. "+
			"Call this before logging catches to ensure correct structure."),
	), s.getRecordContract)

	// Resource: record format contract.
	s.mcp.AddResource(
		mcp.NewResource("gyotaku://record-format", "Record Format Contract",
			mcp.WithResourceDescription("Canonical catch record format that all records must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) logCatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("record")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var rec models.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid record JSON: %v", err)), nil
	}

	created, err := s.svc.CreateRecord(ctx, &rec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := s.svc.Validate(ctx, created, validate.Options{})
	out, _ := json.MarshalIndent(map[string]any{
		"record":   created,
		"warnings": res.Warnings,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.GetRecord(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	species := ""
	if sp, err := req.RequireString("species"); err == nil {
		species = sp
	}

	records, total, err := s.svc.ListRecords(ctx, 50, 0, species, "caught_at")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(map[string]any{
		"total":   total,
		"records": records,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getOverallStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Overall(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) checkIntegrity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	report, err := s.mgr.CheckIntegrity(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecordContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "gyotaku://record-format",
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
