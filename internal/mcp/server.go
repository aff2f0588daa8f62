// Package mcp provides an MCP (Model Context Protocol) server for embedcache.
// This allows AI agents to embed text through the persistent cache instead of
// shelling out to the CLI.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hargabyte/embedcache/internal/cache"
	"github.com/hargabyte/embedcache/internal/embedder"
	"github.com/hargabyte/embedcache/internal/kvstore"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with embedcache functionality
type Server struct {
	mcpServer    *server.MCPServer
	engine       *cache.Engine
	store        kvstore.Store
	embedder     embedder.Embedder
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
}

// New creates an MCP server over an already-wired engine. The server takes
// ownership of the store and embedder and closes them on Close.
func New(engine *cache.Engine, store kvstore.Store, emb embedder.Embedder, cfg Config) *Server {
	mcpServer := server.NewMCPServer(
		"embedcache",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		engine:       engine,
		store:        store,
		embedder:     emb,
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	s.registerEmbedTool()
	s.registerStatsTool()

	return s
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	// Start timeout checker if timeout is set
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "embedcache serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Close closes the server and its resources
func (s *Server) Close() error {
	if s.embedder != nil {
		s.embedder.Close()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// registerEmbedTool registers the embed_texts tool
func (s *Server) registerEmbedTool() {
	tool := mcp.NewTool("embed_texts",
		mcp.WithDescription("Embed a batch of texts, serving repeated texts from the persistent cache. Returns one vector per text, in input order."),
		mcp.WithArray("texts",
			mcp.Required(),
			mcp.Description("Texts to embed"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)

	s.mcpServer.AddTool(tool, s.handleEmbed)
}

// registerStatsTool registers the cache_stats tool
func (s *Server) registerStatsTool() {
	tool := mcp.NewTool("cache_stats",
		mcp.WithDescription("Report namespace, entry count, and stored bytes for the configured embedding cache."),
	)

	s.mcpServer.AddTool(tool, s.handleStats)
}

// embedToolResult is the JSON payload returned by embed_texts.
type embedToolResult struct {
	Namespace  string      `json:"namespace"`
	Dimensions int         `json:"dimensions"`
	Hits       int         `json:"hits"`
	Misses     int         `json:"misses"`
	Vectors    [][]float32 `json:"vectors"`
}

func (s *Server) handleEmbed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	raw, ok := args["texts"].([]any)
	if !ok {
		return mcp.NewToolResultError("texts parameter is required and must be an array of strings"), nil
	}
	texts := make([]string, 0, len(raw))
	for _, item := range raw {
		text, ok := item.(string)
		if !ok {
			return mcp.NewToolResultError("texts must contain only strings"), nil
		}
		texts = append(texts, text)
	}

	result, err := s.executeEmbed(ctx, texts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

// executeEmbed runs the cache-aside embedding and renders the JSON payload.
func (s *Server) executeEmbed(ctx context.Context, texts []string) (string, error) {
	res, err := s.engine.Embed(ctx, texts)
	if err != nil {
		return "", err
	}

	payload := embedToolResult{
		Namespace: s.engine.Namespace(),
		Hits:      res.Hits,
		Misses:    res.Misses,
		Vectors:   res.Vectors,
	}
	if len(res.Vectors) > 0 {
		payload.Dimensions = len(res.Vectors[0])
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

// statsToolResult is the JSON payload returned by cache_stats.
type statsToolResult struct {
	Namespace  string `json:"namespace"`
	Model      string `json:"model"`
	Entries    int64  `json:"entries"`
	ValueBytes int64  `json:"value_bytes"`
}

func (s *Server) handleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	result, err := s.executeStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

// executeStats renders the cache statistics JSON payload.
func (s *Server) executeStats(ctx context.Context) (string, error) {
	stats, err := s.engine.Stats(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(statsToolResult{
		Namespace:  s.engine.Namespace(),
		Model:      s.embedder.ModelID(),
		Entries:    stats.Entries,
		ValueBytes: stats.ValueBytes,
	})
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}
