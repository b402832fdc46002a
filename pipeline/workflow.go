package pipeline

import (
	"context"

	"github.com/smallnest/trendreport/graph"
	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/state"
)

// Workflow is the report graph.
type Workflow = graph.StateGraph[state.RunState, state.Update]

func build(s *stages) *Workflow {
	g := graph.NewStateGraph[state.RunState, state.Update]()
	g.SetSchema(state.Schema)

	g.AddNode(StageParseRequest, "Log the request and reset quality figures", s.parseRequest)

	g.AddNode(StageCollectMarketDocs, "Search market news", s.collectMarketDocs, graph.InBranch(BranchMarket))
	g.AddNode(StageIndexMarketDocs, "Index market documents", s.indexMarketDocs, graph.InBranch(BranchMarket))
	g.AddNode(StageExtractMarketSignals, "Summarize market trends with citations", s.extractMarketSignals, graph.InBranch(BranchMarket))
	g.AddNode(StageValidateMarket, "Check market references", s.validateCitationsMarket, graph.InBranch(BranchMarket))

	g.AddNode(StageCollectCompanyDocs, "Search company sources", s.collectCompanyDocs, graph.InBranch(BranchCompany))
	g.AddNode(StageIndexCompanyDocs, "Index company documents", s.indexCompanyDocs, graph.InBranch(BranchCompany))
	g.AddNode(StageComposeDossiers, "Summarize each company by aspect", s.composeCompanyDossiers, graph.InBranch(BranchCompany))
	g.AddNode(StageValidateCompany, "Check company references", s.validateCitationsCompany, graph.InBranch(BranchCompany))

	g.AddNode(StageFetchPrices, "Fetch prices and fundamentals", s.fetchPricesFinancials, graph.InBranch(BranchStock))
	g.AddNode(StageComputeSnapshots, "Compute returns and volatility", s.computeSnapshots, graph.InBranch(BranchStock))
	g.AddNode(StageValidateFinancials, "Recompute returns from raw series", s.validateFinancialConsistency, graph.InBranch(BranchStock))

	g.AddNode(StageMergeArtifacts, "Build the markdown draft", s.mergeArtifacts)
	g.AddNode(StageSelectChartSpecs, "Choose charts", s.selectChartSpecs)
	g.AddNode(StageRenderCharts, "Render charts", s.renderCharts)
	g.AddNode(StageRegisterChartAssets, "Cite rendered charts", s.registerChartAssets)
	g.AddNode(StageAssembleOutline, "Resolve report sections", s.assembleOutline)
	g.AddNode(StageComposeSections, "Compose the HTML report", s.composeSections)
	g.AddNode(StageQAGate, "Compute quality figures", s.qaGate)
	g.AddNode(StageExportReport, "Write evidence and export the document", s.exportReport)
	g.AddNode(StagePostExportQC, "Check the delivered document", s.postExportQC)

	g.SetEntryPoint(StageParseRequest)
	chain := func(names ...string) {
		for i := 1; i < len(names); i++ {
			g.AddEdge(names[i-1], names[i])
		}
	}
	chain(StageParseRequest, StageCollectMarketDocs, StageIndexMarketDocs, StageExtractMarketSignals, StageValidateMarket, StageMergeArtifacts)
	chain(StageParseRequest, StageCollectCompanyDocs, StageIndexCompanyDocs, StageComposeDossiers, StageValidateCompany, StageMergeArtifacts)
	chain(StageParseRequest, StageFetchPrices, StageComputeSnapshots, StageValidateFinancials, StageMergeArtifacts)
	chain(StageMergeArtifacts, StageSelectChartSpecs, StageRenderCharts, StageRegisterChartAssets,
		StageAssembleOutline, StageComposeSections, StageQAGate, StageExportReport, StagePostExportQC, graph.END)
	return g
}

// Graph returns the workflow without collaborators, for inspection.
func Graph() *Workflow {
	return build(&stages{})
}

// logListener reports stage progress through the package logger.
func logListener(_ context.Context, event graph.NodeEvent, name string, st state.RunState, err error) {
	switch event {
	case graph.NodeEventStart:
		log.Debug("[Graph] %s started", name)
	case graph.NodeEventComplete:
		log.Debug("[Graph] %s done (%d references, %d errors)", name, len(st.Evidence), len(st.Errors))
	case graph.NodeEventError:
		log.Error("[Graph] %s failed: %v", name, err)
	}
}
