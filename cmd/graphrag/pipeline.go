package graphrag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/orbitalbio/graphrag/pkg/ingest"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the ingestion pipeline over a document file",
	Long: `Run the full ingestion pipeline: chunk the documents, embed the
chunks into the vector store, extract triples with the configured oracle,
and load them into the knowledge graph.

The input file is a JSON array of documents:

  [{"id": "pub-1", "title": "...", "url": "...", "content": "..."}]`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)

	pipelineCmd.Flags().String("input", "", "Path to the JSON document file")
	pipelineCmd.Flags().Duration("timeout", 30*time.Minute, "Overall pipeline timeout")
	pipelineCmd.MarkFlagRequired("input")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	docs, err := loadDocuments(input)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d documents from %s\n", len(docs), input)

	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	defer engine.Close(ctx)

	start := time.Now()
	report, err := engine.Ingest(ctx, docs)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingestion finished in %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("  documents: %d\n", report.Documents)
	fmt.Printf("  chunks:    %d\n", report.Chunks)
	fmt.Printf("  triples:   %d\n", report.TriplesExtracted)
	if report.Graph != nil {
		fmt.Printf("  graph:     %d entities, %d relationships\n",
			report.Graph.EntityCount, report.Graph.RelationshipCount)
	}
	if report.Vector != nil {
		fmt.Printf("  vector:    %d chunks stored (%d skipped)\n",
			report.Vector.Total, report.Vector.Skipped)
	}
	for _, failure := range report.Failures {
		fmt.Printf("  failure:   %s\n", failure)
	}
	return nil
}

func loadDocuments(path string) ([]ingest.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}
	var docs []ingest.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse document file: %w", err)
	}
	return docs, nil
}
