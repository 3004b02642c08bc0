package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/extract"
	"github.com/dgallion1/docrank/internal/structure"
)

var (
	mcpConfig config.Config
	mcpLog    *slog.Logger
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP stdio server",
	Long: `Mcp exposes ranking over the Model Context Protocol on stdin and
stdout, for use as an agent tool.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mcpConfig = cfg
	// stdout carries the protocol; log to stderr.
	mcpLog = newLogger(cfg, os.Stderr)

	s := server.NewMCPServer(
		"docrank",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
	)

	s.AddTool(
		mcp.NewTool("rank_passages",
			mcp.WithDescription("Rank the sections of a document collection by relevance to a persona and task. Returns ranked sections and refined subsections as JSON."),
			mcp.WithString("persona",
				mcp.Required(),
				mcp.Description("Who the ranking is for (e.g. 'Investment Analyst')"),
			),
			mcp.WithString("task",
				mcp.Required(),
				mcp.Description("The job to be done, phrased as a concrete task"),
			),
			mcp.WithString("documents_dir",
				mcp.Required(),
				mcp.Description("Directory of documents to rank (pdf, docx, md, html, txt, csv)"),
			),
			mcp.WithNumber("top_k",
				mcp.Description("Number of sections to return (default: configured)"),
			),
		),
		handleRankPassages,
	)

	s.AddTool(
		mcp.NewTool("extract_structure",
			mcp.WithDescription("Extract the section outline of a single document: titles, pages, subsection counts and body sizes."),
			mcp.WithString("document_path",
				mcp.Required(),
				mcp.Description("Path to the document to outline"),
			),
		),
		handleExtractStructure,
	)

	s.AddResource(
		mcp.NewResource(
			"docrank://config",
			"Effective configuration",
			mcp.WithResourceDescription("Current recognizer, embedding and ranking settings, secrets redacted"),
			mcp.WithMIMEType("application/json"),
		),
		handleConfigResource,
	)

	mcpLog.Info("starting MCP server", "provider", cfg.Embedding.Provider)
	return server.ServeStdio(s)
}

func handleRankPassages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	persona := req.GetString("persona", "")
	task := req.GetString("task", "")
	dir := req.GetString("documents_dir", "")
	topK := req.GetInt("top_k", 0)

	if persona == "" || task == "" || dir == "" {
		return mcp.NewToolResultError("persona, task and documents_dir are required"), nil
	}

	docs, err := readSupportedDir(dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filenames := make([]string, 0, len(docs))
	for _, d := range docs {
		filenames = append(filenames, d.Filename)
	}

	result, err := rankDocuments(ctx, mcpConfig, mcpLog, rankArgs{
		docs:      docs,
		filenames: filenames,
		persona:   persona,
		task:      task,
		topK:      topK,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ranking failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func handleExtractStructure(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("document_path", "")
	if path == "" {
		return mcp.NewToolResultError("document_path is required"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read document: %v", err)), nil
	}
	name := filepath.Base(path)
	ex, err := extract.ForFile(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	runs, err := ex.ExtractRuns(bytes.NewReader(data), name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extract: %v", err)), nil
	}

	sections := structure.Recognize(name, runs, structure.Config{
		HeadingRatio:       mcpConfig.Recognizer.HeadingRatio,
		MaxHeadingTokens:   mcpConfig.Recognizer.MaxHeadingTokens,
		GapLineRatio:       mcpConfig.Recognizer.GapLineRatio,
		MaxSubsectionChars: mcpConfig.Recognizer.MaxSubsectionChars,
	})

	type sectionOutline struct {
		Title       string `json:"title"`
		Page        int    `json:"page"`
		Subsections int    `json:"subsections"`
		BodyChars   int    `json:"body_chars"`
	}
	outline := make([]sectionOutline, 0, len(sections))
	for _, sec := range sections {
		outline = append(outline, sectionOutline{
			Title:       strings.TrimSpace(sec.Title),
			Page:        sec.Page,
			Subsections: len(sec.Subsections),
			BodyChars:   len(sec.Body),
		})
	}

	out, err := json.MarshalIndent(outline, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode outline: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleConfigResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	redacted := mcpConfig
	if redacted.Server.APIKey != "" {
		redacted.Server.APIKey = "[redacted]"
	}
	if redacted.Embedding.APIKey != "" {
		redacted.Embedding.APIKey = "[redacted]"
	}

	data, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
