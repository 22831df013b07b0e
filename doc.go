// Package graphrag provides a hybrid retrieval engine for Go.
//
// GraphRAG combines a knowledge graph of subject-relationship-object
// triples with a vector store of embedded document chunks. Queries are
// classified by intent, fanned out concurrently to both stores, fused
// into one ranked evidence sequence, and answered with a deterministic
// template synthesizer that cites its sources.
//
// # Basic Usage
//
// Create a client from configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := graphrag.New(cfg, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
// Or wire the components yourself:
//
//	graph := driver.NewMemoryDriver(nil, nil)
//	store := vectorstore.NewStore("./vectors", embedder.NewHashClient(0), nil)
//	collection, _ := store.InitializeCollection("space_biology")
//	client, _ := graphrag.NewClient(graphrag.Options{
//		Graph:      graph,
//		Store:      store,
//		Collection: collection,
//	}, nil)
//
// # Querying
//
// Query routes a question end to end:
//
//	result, err := client.Query(ctx, "What causes bone loss in space?", 10, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Answer.Text)
//
// # Ingestion
//
// Ingest chunks documents, embeds them, and extracts graph triples:
//
//	report, err := client.Ingest(ctx, []ingest.Document{
//		{ID: "pub-1", Title: "Bone Density Study", Content: text},
//	})
package graphrag
