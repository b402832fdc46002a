package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smallnest/trendreport/graph"
	"github.com/smallnest/trendreport/pipeline"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the workflow as a Mermaid flowchart",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprint(cmd.OutOrStdout(), graph.NewExporter(pipeline.Graph()).DrawMermaid())
		return nil
	},
}
