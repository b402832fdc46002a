// TrendReport - cited EV market trend reports in Go
//
// TrendReport researches the electric vehicle market, a set of benchmark
// companies and their stocks, and exports a report in which every claim points
// at a numbered source. The run is a dataflow graph: three research branches
// work concurrently and are merged into a draft, which is then charted,
// composed, checked and exported.
//
// # Quick Start
//
// Run fully offline (placeholder documents, no model, synthetic prices):
//
//	go run ./cmd/trendreport run --offline --out outputs
//
// With a configuration file and real collaborators:
//
//	export OPENAI_API_KEY=... TAVILY_API_KEY=... ALPHAVANTAGE_API_KEY=...
//	go run ./cmd/trendreport run --config report.yaml --store sqlite --store-dsn runs.db
//	go run ./cmd/trendreport audit --run-id run-1a2b3c4d --store sqlite --store-dsn runs.db
//
// From Go:
//
//	runner := pipeline.New(pipeline.Deps{
//		Searcher:   search,
//		Summarizer: llm.New(cfg.LLM),
//		OutputDir:  "outputs",
//	}, pipeline.WithStore(memory.NewMemoryCheckpointStore()))
//	sum, err := runner.Run(ctx, cfg.Run)
//
// # Core Concepts
//
// # Graph Structure
//
// The graph package runs a DAG of nodes. Each node reads a snapshot of the
// state and returns a partial update; a node with several predecessors waits
// for all of them. Nodes are tagged with the branch they belong to.
//
// # State Management
//
// The state package defines the run state and its merge rules. Collections
// such as raw documents, evidence and errors are appended. Every other field
// is written by a single branch; a write from a second branch is rejected.
//
// # Citations
//
// Reference numbers come from one allocator per run. Each summarizer call
// reserves a contiguous block, so concurrent branches never share a number.
// Only documents the model actually cited become evidence, and the evidence
// log (evidence.jsonl) lists them ordered by number.
//
// # Package Structure
//
// # Core Packages
//
//	graph/     dataflow graph, listeners, checkpoint listener, Mermaid export
//	state/     run state, updates and the merge schema
//	pipeline/  the report stages, workflow wiring and Prometheus metrics
//	citation/  reference allocator, marker cleanup, evidence log
//	rag/       in-memory keyword index over source documents
//	tool/      Tavily and Brave search, document collection and normalization
//	llm/       OpenAI and langchaingo summarizers, prompts, response parsing
//	finance/   price series, snapshots, Alpha Vantage and offline data
//	chart/     chart selection and SVG rendering
//	report/    markdown draft, HTML composition, PDF export chain
//	config/    YAML configuration with validation
//	log/       leveled logger with a golog backend
//
// # Storage Packages
//
// Checkpoints are saved after every stage for auditing:
//
//	store/memory    in process
//	store/file      one JSON file per checkpoint
//	store/sqlite    SQLite
//	store/redis     Redis
//	store/postgres  PostgreSQL
//
// # Export
//
// PDF export tries headless Chrome, then wkhtmltopdf, then a built-in plain
// text PDF writer. When every renderer fails the HTML is delivered and the
// export is marked degraded.
package trendreport // import "github.com/smallnest/trendreport"
