package report

import (
	"slices"

	"github.com/smallnest/trendreport/config"
)

// knownSections are the sections Compose can render.
var knownSections = append(slices.Clone(config.DefaultSections), "company")

// Outline returns the sections to render: the configured ones that Compose
// knows, without repeats, or the default outline when none remain.
func Outline(sections []string) []string {
	var out []string
	for _, s := range sections {
		if slices.Contains(knownSections, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return slices.Clone(config.DefaultSections)
	}
	return out
}
