package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/hargabyte/embedcache/internal/cache"
	"github.com/hargabyte/embedcache/internal/mcp"
	"github.com/spf13/cobra"
)

var serveTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start a Model Context Protocol server exposing the embedding cache to AI
agents over stdio.

Tools:
  embed_texts   Embed a batch of texts through the cache
  cache_stats   Report cache statistics for the configured model`,
	Example: `  embedcache serve
  embedcache serve --timeout 10m`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 0, "Exit after this much inactivity (0 = never)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, configDir, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg, configDir)
	if err != nil {
		return err
	}
	emb, err := newEmbedder(cfg)
	if err != nil {
		store.Close()
		return err
	}
	engine, err := cache.New(ctx, store, emb, modelConfig(cfg))
	if err != nil {
		emb.Close()
		store.Close()
		return err
	}

	srv := mcp.New(engine, store, emb, mcp.Config{Timeout: serveTimeout})
	defer srv.Close()

	if verbose {
		fmt.Fprintf(os.Stderr, "embedcache MCP server on stdio (model %s, namespace %s)\n",
			cfg.Model.ID, engine.Namespace())
	}
	return srv.ServeStdio()
}
