package graphrag

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/orbitalbio/graphrag"
	"github.com/orbitalbio/graphrag/pkg/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Verify connectivity and initialize the graph schema",
	Long: `Verify that the graph database is reachable with the configured
credentials, then declare its uniqueness constraints and indexes.
Safe to run repeatedly; existing constraints are left in place.`,
	RunE: runSetup,
}

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all graph and vector data",
	Long: `Delete every entity, relationship, and embedded chunk. This is
destructive and requires the --force flag.`,
	RunE: runWipe,
}

func init() {
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(wipeCmd)

	wipeCmd.Flags().Bool("force", false, "Actually perform the wipe")
}

func buildEngine() (*graphrag.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	engine, err := graphrag.New(cfg, newLogger(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize GraphRAG: %w", err)
	}
	return engine, cfg, nil
}

func runSetup(cmd *cobra.Command, args []string) error {
	engine, cfg, err := buildEngine()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer engine.Close(ctx)

	fmt.Printf("Checking connectivity to %s...\n", cfg.Graph.URI)
	if err := engine.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("connectivity check failed: %w", err)
	}
	fmt.Println("Connected.")

	fmt.Println("Initializing schema...")
	if err := engine.InitializeSchema(ctx); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	fmt.Println("Schema ready.")
	return nil
}

func runWipe(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		return fmt.Errorf("refusing to wipe without --force")
	}

	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	defer engine.Close(ctx)

	if err := engine.Wipe(ctx); err != nil {
		return fmt.Errorf("wipe failed: %w", err)
	}
	fmt.Println("All data wiped.")
	return nil
}
