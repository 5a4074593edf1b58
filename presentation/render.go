// Package presentation renders the sidebar summary and legend markup bound
// to each scenario. Rendering is pure: the same summary always produces the
// same markup, so snapshots can be cached and compared.
package presentation

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/gridlume/electromap/model"
	"github.com/gridlume/electromap/scenario"
)

// summaryRow pairs a modeling-service summary tag with its display label and
// unit. Rows render in declared order; tags absent from a summary are
// skipped.
type summaryRow struct {
	Tag   string
	Label string
	Unit  string
}

var planNationalRows = []summaryRow{
	{"new-conn", "New grid connections", "villages"},
	{"new-og", "New off-grid systems", "villages"},
	{"tot-cost", "Total cost", "$"},
	{"model-pop", "Population modelled", "people"},
	{"orig-conn-pop", "Already connected", "people"},
	{"new-conn-pop", "Newly connected", "people"},
	{"new-og-pop", "Off-grid population", "people"},
}

var planLocalRows = []summaryRow{
	{"connected", "Buildings connected", ""},
	{"gen-size", "Generator size", "kW"},
	{"line-length", "Wire length", "m"},
	{"capex", "Capital cost", "$"},
	{"opex", "Annual operating cost", "$"},
	{"income", "Annual income", "$"},
	{"npv", "Net present value", "$"},
}

var findNationalRows = []summaryRow{
	{"num-clusters", "Priority villages found", ""},
}

const tmplSummary = `{{define "summary"}}<div class="summary">
{{- if .Heading}}<h3>{{.Heading}}</h3>{{end}}
<ul>
{{- range .Rows}}
<li><span class="lbl">{{.Label}}</span><span class="val">{{.Value}}</span>{{if .Unit}}<span class="unit">{{.Unit}}</span>{{end}}</li>
{{- end}}
</ul>
</div>{{end}}`

const tmplLegend = `{{define "legend"}}<div class="legend">
{{- range .Entries}}
<div class="entry"><span class="swatch" style="background:{{.Color}}"></span>{{.Label}}</div>
{{- end}}
</div>{{end}}`

var templates = template.Must(template.Must(
	template.New("presentation").Parse(tmplSummary)).Parse(tmplLegend))

type renderedRow struct {
	Label string
	Value string
	Unit  string
}

type summaryContext struct {
	Heading string
	Rows    []renderedRow
}

// Summary renders the sidebar summary for a scenario's run result.
func Summary(key scenario.Key, s model.Summary) (string, error) {
	return renderSummary("", rowsFor(key), s)
}

// StepSummary renders the sidebar summary for one phased-plan step, headed
// by the step's plan year.
func StepSummary(step model.StepResult) (string, error) {
	heading := fmt.Sprintf("Phase %d — %d", step.Step, step.Year)
	return renderSummary(heading, planNationalRows, step.Summary)
}

func rowsFor(key scenario.Key) []summaryRow {
	switch key {
	case scenario.PlanNational:
		return planNationalRows
	case scenario.PlanLocal:
		return planLocalRows
	case scenario.FindNational:
		return findNationalRows
	}
	return nil
}

func renderSummary(heading string, rows []summaryRow, s model.Summary) (string, error) {
	ctx := summaryContext{Heading: heading}
	for _, r := range rows {
		v, ok := s[r.Tag]
		if !ok {
			continue
		}
		ctx.Rows = append(ctx.Rows, renderedRow{Label: r.Label, Value: formatNumber(v), Unit: r.Unit})
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "summary", ctx); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return buf.String(), nil
}

type legendEntry struct {
	Color string
	Label string
}

type legendContext struct {
	Entries []legendEntry
}

var planLegend = []legendEntry{
	{"#377eb8", "Connected at start"},
	{"#4daf4a", "New grid connection"},
	{"#e41a1c", "Off-grid system"},
}

var findLegend = []legendEntry{
	{"#ffffcc", "Score 1"},
	{"#c2e699", "Score 2"},
	{"#78c679", "Score 3"},
	{"#31a354", "Score 4"},
	{"#006837", "Score 5"},
}

var localLegend = []legendEntry{
	{"#ff7f00", "Connected building"},
	{"#999999", "Distribution wire"},
}

// Legend renders the color legend for a scenario.
func Legend(key scenario.Key) (string, error) {
	var entries []legendEntry
	switch key {
	case scenario.PlanNational:
		entries = planLegend
	case scenario.PlanLocal:
		entries = localLegend
	case scenario.FindNational:
		entries = findLegend
	default:
		return "", fmt.Errorf("no legend for scenario %q", key)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "legend", legendContext{Entries: entries}); err != nil {
		return "", fmt.Errorf("render legend: %w", err)
	}
	return buf.String(), nil
}

// formatNumber prints whole numbers without a decimal point and keeps two
// decimals otherwise, with thousands grouping for large magnitudes.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return groupThousands(int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func groupThousands(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	if len(s) > 3 {
		var out []byte
		for i, c := range []byte(s) {
			if i > 0 && (len(s)-i)%3 == 0 {
				out = append(out, ',')
			}
			out = append(out, c)
		}
		s = string(out)
	}
	if neg {
		return "-" + s
	}
	return s
}
