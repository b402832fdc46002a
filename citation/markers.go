package citation

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	markerRun = regexp.MustCompile(`(?:\[\d+\])+`)
	marker    = regexp.MustCompile(`\[(\d+)\]`)
)

// Clean removes repeated markers inside each run of adjacent markers while
// keeping first-seen order: "[2][2]" becomes "[2]" and "[2][3][2]" becomes
// "[2][3]". Markers separated by other text are left alone.
func Clean(text string) string {
	if text == "" {
		return text
	}
	return markerRun.ReplaceAllStringFunc(text, func(run string) string {
		nums := marker.FindAllStringSubmatch(run, -1)
		if len(nums) < 2 {
			return run
		}
		seen := make(map[string]bool, len(nums))
		var b strings.Builder
		for _, m := range nums {
			if seen[m[1]] {
				continue
			}
			seen[m[1]] = true
			b.WriteString("[" + m[1] + "]")
		}
		return b.String()
	})
}

// CleanAll applies Clean to every element and returns a new slice.
func CleanAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Clean(t)
	}
	return out
}

// Refs returns the sorted, de-duplicated reference numbers cited in texts.
func Refs(texts ...string) []int {
	var out []int
	for _, t := range texts {
		for _, m := range marker.FindAllStringSubmatch(t, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Prune drops every marker whose number fails keep and then applies Clean.
func Prune(text string, keep func(n int) bool) string {
	out := marker.ReplaceAllStringFunc(text, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || !keep(n) {
			return ""
		}
		return m
	})
	return Clean(out)
}
