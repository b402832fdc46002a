package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/smallnest/trendreport/chart"
	"github.com/smallnest/trendreport/citation"
	"github.com/smallnest/trendreport/config"
	"github.com/smallnest/trendreport/finance"
	"github.com/smallnest/trendreport/graph"
	"github.com/smallnest/trendreport/llm"
	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/report"
	"github.com/smallnest/trendreport/state"
	"github.com/smallnest/trendreport/store"
	"github.com/smallnest/trendreport/tool"
)

// Runner executes report runs. It is safe for concurrent use; every run gets
// its own reference allocator.
type Runner struct {
	deps      Deps
	store     store.CheckpointStore
	listeners []graph.NodeListener[state.RunState]
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore saves a checkpoint after every stage.
func WithStore(s store.CheckpointStore) Option {
	return func(r *Runner) {
		r.store = s
	}
}

// WithListener adds a stage listener.
func WithListener(l graph.NodeListener[state.RunState]) Option {
	return func(r *Runner) {
		r.listeners = append(r.listeners, l)
	}
}

// New returns a runner. Missing collaborators are replaced by offline ones:
// no search, no summarizer, synthetic prices, SVG charts and the PDF chain.
func New(d Deps, opts ...Option) *Runner {
	if d.OutputDir == "" {
		d.OutputDir = "outputs"
	}
	if d.ExportName == "" {
		d.ExportName = "ev_trend_report"
	}
	if d.Summarizer == nil {
		d.Summarizer = llm.Unavailable{Reason: "no summarizer configured"}
	}
	if d.Fetcher == nil {
		d.Fetcher = finance.Offline{}
	}
	if d.Charts == nil {
		d.Charts = chart.SVGRenderer{Dir: filepath.Join(d.OutputDir, "charts")}
	}
	r := &Runner{deps: d}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summary is the outcome of a run.
type Summary struct {
	RunID        string
	ReportPath   string
	HTMLPath     string
	EvidencePath string
	ExportState  string
	QA           state.QAMetrics
	References   int
	Errors       []state.ErrorEntry
	State        state.RunState
}

// Run executes one report run for req.
func (r *Runner) Run(ctx context.Context, req config.Run) (Summary, error) {
	st := state.Init(req)
	exporter := r.deps.Exporter
	if exporter == nil {
		exporter = report.NewExporter(config.Default().Export, st.Output.Format)
	}
	collector := tool.NewCollector(r.deps.Searcher)
	if r.deps.MarketResults > 0 {
		collector.MarketResults = r.deps.MarketResults
	}
	s := &stages{
		collector:  collector,
		summarizer: r.deps.Summarizer,
		fetcher:    r.deps.Fetcher,
		offline:    finance.Offline{},
		charts:     r.deps.Charts,
		exporter:   exporter,
		composer:   report.NewComposer(r.deps.Summarizer),
		outDir:     r.deps.OutputDir,
		name:       r.deps.ExportName,
		metrics:    r.deps.Metrics,
		alloc:      citation.NewAllocator(),
	}

	g := build(s)
	g.AddListener(graph.NodeListenerFunc[state.RunState](logListener))
	if r.deps.Metrics != nil {
		g.AddListener(r.deps.Metrics)
	}
	if r.store != nil {
		g.AddListener(graph.NewCheckpointListener[state.RunState](r.store, st.RunID))
	}
	for _, l := range r.listeners {
		g.AddListener(l)
	}
	runnable, err := g.Compile()
	if err != nil {
		return Summary{}, fmt.Errorf("compile workflow: %w", err)
	}

	log.Info("[Pipeline] run %s started", st.RunID)
	final, err := runnable.Invoke(ctx, st)
	sum := Summary{
		RunID:        final.RunID,
		ReportPath:   final.ReportPath,
		HTMLPath:     final.HTMLPath,
		EvidencePath: filepath.Join(r.deps.OutputDir, EvidenceFile),
		ExportState:  final.ExportState,
		QA:           final.QAMetrics,
		References:   len(final.Evidence),
		Errors:       final.Errors,
		State:        final,
	}
	if err != nil {
		return sum, fmt.Errorf("run %s: %w", st.RunID, err)
	}
	log.Info("[Pipeline] run %s finished: export %s, %d references, %d recovered errors",
		sum.RunID, sum.ExportState, sum.References, len(sum.Errors))
	return sum, nil
}
