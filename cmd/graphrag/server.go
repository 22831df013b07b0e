package graphrag

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orbitalbio/graphrag"
	"github.com/orbitalbio/graphrag/pkg/config"
	"github.com/orbitalbio/graphrag/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the GraphRAG HTTP server",
	Long: `Start the GraphRAG HTTP server to provide REST API access to the
hybrid retrieval engine.

The server provides endpoints for:
- Routing queries across the knowledge graph and vector store
- Ingesting documents and pre-extracted triples
- Entity relationship and network lookups
- Statistics and health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Graph database flags
	serverCmd.Flags().String("graph-driver", "neo4j", "Graph driver (neo4j, memory)")
	serverCmd.Flags().String("graph-uri", "bolt://localhost:7687", "Graph database URI")
	serverCmd.Flags().String("graph-username", "neo4j", "Graph database username")
	serverCmd.Flags().String("graph-password", "", "Graph database password")
	serverCmd.Flags().String("graph-database", "", "Graph database name")

	// Vector store flags
	serverCmd.Flags().String("vector-path", "", "Vector store root directory")
	serverCmd.Flags().String("vector-collection", "", "Vector collection name")

	// Embedding flags
	serverCmd.Flags().String("embedding-provider", "openai", "Embedding provider (openai, hash)")
	serverCmd.Flags().String("embedding-model", "text-embedding-3-small", "Embedding model")
	serverCmd.Flags().String("embedding-api-key", "", "Embedding API key")

	// Extraction flags
	serverCmd.Flags().String("extraction-model", "gpt-4o-mini", "Extraction model")
	serverCmd.Flags().String("extraction-api-key", "", "Extraction API key")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for query telemetry")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg)

	// Initialize the engine
	fmt.Println("Initializing GraphRAG...")
	engine, err := graphrag.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize GraphRAG: %w", err)
	}

	// Create and setup server
	srv := server.New(cfg, engine)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Shutdown server
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		if err := engine.Close(shutdownCtx); err != nil {
			return fmt.Errorf("engine shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Graph flags
	if cmd.Flags().Changed("graph-driver") {
		cfg.Graph.Driver, _ = cmd.Flags().GetString("graph-driver")
	}
	if cmd.Flags().Changed("graph-uri") {
		cfg.Graph.URI, _ = cmd.Flags().GetString("graph-uri")
	}
	if cmd.Flags().Changed("graph-username") {
		cfg.Graph.Username, _ = cmd.Flags().GetString("graph-username")
	}
	if cmd.Flags().Changed("graph-password") {
		cfg.Graph.Password, _ = cmd.Flags().GetString("graph-password")
	}
	if cmd.Flags().Changed("graph-database") {
		cfg.Graph.Database, _ = cmd.Flags().GetString("graph-database")
	}

	// Vector flags
	if cmd.Flags().Changed("vector-path") {
		cfg.Vector.Path, _ = cmd.Flags().GetString("vector-path")
	}
	if cmd.Flags().Changed("vector-collection") {
		cfg.Vector.Collection, _ = cmd.Flags().GetString("vector-collection")
	}

	// Embedding flags
	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}

	// Extraction flags
	if cmd.Flags().Changed("extraction-model") {
		cfg.Extraction.Model, _ = cmd.Flags().GetString("extraction-model")
	}
	if cmd.Flags().Changed("extraction-api-key") {
		cfg.Extraction.APIKey, _ = cmd.Flags().GetString("extraction-api-key")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	if cfg.Graph.Driver != "memory" && cfg.Graph.URI == "" {
		return fmt.Errorf("graph URI is required")
	}
	return nil
}
