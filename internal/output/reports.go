package output

import (
	"fmt"
	"strconv"

	"github.com/panbanda/codesim/pkg/engine"
	"github.com/panbanda/codesim/pkg/models"
)

// Comparison is the rendered result of one source/target comparison.
type Comparison struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Report *models.Report `json:"report"`
}

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }

func ratio(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

// ComparisonDocument renders scores, segments, metrics and diagnostics.
func ComparisonDocument(c Comparison) *Document {
	r := c.Report
	title := "Similarity"
	if c.Source != "" || c.Target != "" {
		title = fmt.Sprintf("Similarity: %s vs %s", c.Source, c.Target)
	}

	scores := [][]string{
		{"overall", ratio(r.OverallSimilarity)},
		{"token", ratio(r.TokenSimilarity)},
		{"structural", ratio(r.StructuralSimilarity)},
		{"ast (" + r.ASTStrategy + ")", ratio(r.ASTSimilarity)},
	}
	if r.MLSimilarity != nil {
		scores = append(scores, []string{"ml", ratio(*r.MLSimilarity)})
	}
	lang := r.Language
	if r.RequestedLanguage != "" {
		lang = fmt.Sprintf("%s (requested %s)", r.Language, r.RequestedLanguage)
	}

	sections := []Renderable{
		&Section{Content: "Language: " + lang},
		NewTable("Scores", []string{"Scorer", "Similarity"}, scores, nil, nil).Scores(1),
		segmentTable(r),
		metricsTable(r.CodeMetrics),
	}
	if len(r.Diagnostics) > 0 {
		rows := make([][]string, len(r.Diagnostics))
		for i, d := range r.Diagnostics {
			rows[i] = []string{d.Scorer, d.Kind, d.Message}
		}
		sections = append(sections, NewTable("Diagnostics", []string{"Scorer", "Kind", "Message"}, rows, nil, nil))
	}

	return &Document{Title: title, Sections: sections, Data: c}
}

func segmentTable(r *models.Report) *Table {
	var rows [][]string
	for _, s := range r.IdenticalSegments {
		rows = append(rows, segmentRow("identical", s, 1))
	}
	for _, s := range r.NearIdenticalSegments {
		rows = append(rows, segmentRow("near-identical", s, s.Similarity))
	}
	footer := []string{"coverage", pct(r.Coverage.Source), pct(r.Coverage.Target), "", ""}
	return NewTable("Segments", []string{"Kind", "Source", "Target", "Lines", "Similarity"}, rows, footer, nil).Scores(4)
}

func segmentRow(kind string, s models.Segment, sim float64) []string {
	return []string{
		kind,
		fmt.Sprintf("%d-%d", s.SourceStart, s.SourceEnd),
		fmt.Sprintf("%d-%d", s.TargetStart, s.TargetEnd),
		strconv.Itoa(s.Lines),
		ratio(sim),
	}
}

func metricsTable(m models.MetricsComparison) *Table {
	row := func(name string, a, b int) []string {
		return []string{name, strconv.Itoa(a), strconv.Itoa(b)}
	}
	rows := [][]string{
		row("loc", m.Source.LOC, m.Target.LOC),
		row("lloc", m.Source.LLOC, m.Target.LLOC),
		row("sloc", m.Source.SLOC, m.Target.SLOC),
		row("comments", m.Source.Comments, m.Target.Comments),
		row("multi", m.Source.Multi, m.Target.Multi),
		row("blank", m.Source.Blank, m.Target.Blank),
		{"complexity", ratio(m.Source.Complexity), ratio(m.Target.Complexity)},
	}
	footer := []string{"diff", fmt.Sprintf("loc %d", m.LOCDiff), fmt.Sprintf("complexity %s", ratio(m.ComplexityDiff))}
	return NewTable("Metrics", []string{"Metric", "Source", "Target"}, rows, footer, nil)
}

// MatrixDocument renders the pairs of a batch comparison and its summary.
func MatrixDocument(m *models.MatrixResult) *Document {
	rows := make([][]string, len(m.Pairs))
	for i, p := range m.Pairs {
		rows[i] = []string{p.Source, p.Target, p.Language, ratio(p.Overall), pct(p.Coverage)}
	}
	s := m.Summary
	summary := &Section{
		Title: "Summary",
		Content: fmt.Sprintf("files %d, pairs %d, reported %d (>= %s), failed %d\navg %s  p50 %s  p95 %s  max %s",
			s.TotalFiles, s.TotalPairs, s.ReportedPairs, ratio(m.MinSimilarity), s.FailedPairs,
			ratio(s.AvgSimilarity), ratio(s.P50Similarity), ratio(s.P95Similarity), ratio(s.MaxSimilarity)),
	}
	return &Document{
		Title: "Similarity Matrix",
		Sections: []Renderable{
			NewTable("Pairs", []string{"Source", "Target", "Language", "Overall", "Coverage"}, rows, nil, nil).Scores(3),
			summary,
		},
		Data: m,
	}
}

// LanguagesDocument lists registered languages and how each is compared.
func LanguagesDocument(b engine.Breakdown) *Document {
	rows := make([][]string, len(b.Languages))
	for i, l := range b.Languages {
		exts := ""
		for j, e := range l.Extensions {
			if j > 0 {
				exts += " "
			}
			exts += e
		}
		rows[i] = []string{l.Language, l.ASTStrategy, exts}
	}
	weights := fmt.Sprintf("weights: token %s, structural %s, ast %s; ml model %s",
		ratio(b.Weights.Token), ratio(b.Weights.Structural), ratio(b.Weights.AST), b.MLState)
	return &Document{
		Title: "Languages",
		Sections: []Renderable{
			NewTable("", []string{"Language", "AST strategy", "Extensions"}, rows, nil, nil),
			&Section{Content: weights},
		},
		Data: b,
	}
}
