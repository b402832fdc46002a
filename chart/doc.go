// Package chart selects and renders the charts embedded in a report.
//
// Select picks chart specs from the sections that have data. A Renderer turns
// a spec and its data into an image file; SVGRenderer writes self-contained
// SVG so no plotting toolchain is needed at run time.
package chart
