// Package classify holds the rule-based heuristics of the retrieval
// engine: entity typing by keyword lookup and query intent routing.
// Both classifiers are pure functions over injectable keyword tables,
// deliberately simple by contract; they are not learned models.
package classify
