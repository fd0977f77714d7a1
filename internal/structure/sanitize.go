// Package structure turns the structure drawing returned by the prediction
// service into something safe to show: sanitized SVG for browsers and
// half-block art for terminals.
package structure

import (
	"html/template"
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// styleValue admits colors, lengths and keywords but nothing that can load
// a resource (no parentheses, so no url()).
var styleValue = regexp.MustCompile(`^[#a-zA-Z0-9.,%\s-]+$`)

func svgPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()

		p.AllowElements(
			"svg", "g", "path", "rect", "circle", "ellipse", "line",
			"polyline", "polygon", "text", "tspan", "title", "desc",
		)

		p.AllowAttrs("xmlns", "version", "width", "height", "viewbox", "preserveaspectratio").OnElements("svg")
		p.AllowAttrs("d").OnElements("path")
		p.AllowAttrs("x", "y", "width", "height", "rx", "ry").OnElements("rect")
		p.AllowAttrs("cx", "cy", "r").OnElements("circle")
		p.AllowAttrs("cx", "cy", "rx", "ry").OnElements("ellipse")
		p.AllowAttrs("x1", "y1", "x2", "y2").OnElements("line")
		p.AllowAttrs("points").OnElements("polyline", "polygon")
		p.AllowAttrs("x", "y", "dx", "dy", "text-anchor", "dominant-baseline", "font-size", "font-family", "font-weight").
			OnElements("text", "tspan")

		p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
		p.AllowAttrs(
			"fill", "fill-opacity", "fill-rule", "opacity",
			"stroke", "stroke-width", "stroke-linecap", "stroke-linejoin", "stroke-opacity",
		).Matching(styleValue).Globally()

		p.AllowAttrs("style").Globally()
		p.AllowStyles(
			"fill", "fill-opacity", "fill-rule", "opacity",
			"stroke", "stroke-width", "stroke-linecap", "stroke-linejoin", "stroke-opacity",
			"font-size", "font-family", "font-weight", "font-style", "text-anchor",
		).Matching(styleValue).Globally()

		policy = p
	})
	return policy
}

// Sanitize reduces markup to a drawing-only SVG subset. Scripts, event
// handlers, links and embedded documents are removed.
func Sanitize(markup string) template.HTML {
	if markup == "" {
		return ""
	}
	return template.HTML(svgPolicy().Sanitize(markup))
}
