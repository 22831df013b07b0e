package graphrag

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print graph and vector store statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer engine.Close(ctx)

	graphStats, err := engine.GraphStatistics(ctx)
	if err != nil {
		return fmt.Errorf("failed to read graph statistics: %w", err)
	}

	fmt.Printf("Graph: %d entities\n", graphStats.TotalEntities)
	for entityType, count := range graphStats.EntityTypes {
		fmt.Printf("  %-20s %d\n", entityType, count)
	}
	fmt.Println("Relationships:")
	for relType, count := range graphStats.RelationshipTypes {
		fmt.Printf("  %-20s %d\n", relType, count)
	}
	if len(graphStats.MostConnected) > 0 {
		fmt.Println("Most connected:")
		for _, entry := range graphStats.MostConnected {
			fmt.Printf("  %-30s %s (%d edges)\n", entry.Entity, entry.EntityType, entry.Degree)
		}
	}

	vectorStats, err := engine.VectorStatistics(ctx)
	if err != nil {
		return fmt.Errorf("failed to read vector statistics: %w", err)
	}
	fmt.Printf("\nVector: %d chunks, avg length %.0f, model %s\n",
		vectorStats.Count, vectorStats.AverageContentLength, vectorStats.EmbeddingModel)
	return nil
}
