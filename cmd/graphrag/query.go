package graphrag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/orbitalbio/graphrag/pkg/router"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Route a single query through the engine",
	Long: `Route one query through intent classification, hybrid retrieval,
and answer synthesis, then print the answer with its evidence.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().Int("k", 10, "Maximum fused results")
	queryCmd.Flags().Bool("graph", false, "Force graph retrieval")
	queryCmd.Flags().Bool("vector", false, "Force vector retrieval")
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	k, _ := cmd.Flags().GetInt("k")

	var flags *router.Flags
	if cmd.Flags().Changed("graph") || cmd.Flags().Changed("vector") {
		useGraph, _ := cmd.Flags().GetBool("graph")
		useVector, _ := cmd.Flags().GetBool("vector")
		flags = &router.Flags{UseGraph: useGraph, UseVector: useVector}
	}

	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	defer engine.Close(ctx)

	result, err := engine.Query(ctx, question, k, flags)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Printf("Intent: %s (%s)\n\n", result.Intent, result.Elapsed.Round(time.Millisecond))
	fmt.Println(result.Answer.Text)
	fmt.Printf("\nEvidence: %d graph relationships, %d document chunks\n",
		result.Stats.GraphRelationships, result.Stats.VectorChunks)
	return nil
}
