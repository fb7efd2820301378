package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/panbanda/codesim/pkg/engine"
	"github.com/panbanda/codesim/pkg/models"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	f, err := NewFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("file output should disable color")
	}
	if err := f.Output(map[string]int{"a": 1}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"a": 1`) {
		t.Errorf("file content = %q", data)
	}
}

func sampleReport() *models.Report {
	r := models.NewReport("python")
	r.RequestedLanguage = "cobol"
	r.ASTStrategy = "native"
	r.OverallSimilarity = 0.742
	r.TokenSimilarity = 0.14
	r.StructuralSimilarity = 1
	r.ASTSimilarity = 1
	r.IdenticalSegments = []models.Segment{{SourceStart: 1, SourceEnd: 4, TargetStart: 2, TargetEnd: 5, Lines: 4, Content: "x"}}
	r.Coverage = models.Coverage{Source: 1, Target: 0.8}
	r.Diagnostics = []models.Diagnostic{{Scorer: "profile", Kind: "unsupported_language", Message: "unknown language"}}
	return r
}

func TestComparisonDocumentText(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)
	if err := f.Output(ComparisonDocument(Comparison{Source: "a.py", Target: "b.py", Report: sampleReport()})); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"a.py vs b.py", "0.742", "ast (native)", "1-4", "2-5", "requested cobol", "unsupported_language"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestComparisonDocumentMarkdown(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatMarkdown, &buf, false)
	if err := f.Output(ComparisonDocument(Comparison{Report: sampleReport()})); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "# Similarity\n") {
		t.Errorf("markdown should start with the title, got %q", out[:min(len(out), 40)])
	}
	if !strings.Contains(out, "| Scorer | Similarity |") {
		t.Errorf("markdown missing scores table:\n%s", out)
	}
}

func TestComparisonDocumentJSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatJSON, &buf, false)
	if err := f.Output(ComparisonDocument(Comparison{Source: "a.py", Target: "b.py", Report: sampleReport()})); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	var decoded struct {
		Source string        `json:"source"`
		Report models.Report `json:"report"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Source != "a.py" || decoded.Report.OverallSimilarity != 0.742 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestYAMLUsesJSONKeys(t *testing.T) {
	out, err := Marshal(FormatYAML, sampleReport())
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if decoded["overall_similarity"] != 0.742 {
		t.Errorf("overall_similarity = %v", decoded["overall_similarity"])
	}
	if _, ok := decoded["identical_segments"]; !ok {
		t.Error("yaml should carry json key names")
	}
}

func TestTOONOutput(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatTOON, &buf, false)
	if err := f.Output(map[string]any{"language": "python", "overall": 0.5}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if !strings.Contains(buf.String(), "python") {
		t.Errorf("toon output = %q", buf.String())
	}
}

func TestMatrixDocument(t *testing.T) {
	m := &models.MatrixResult{
		MinSimilarity: 0.7,
		Pairs: []models.MatrixPair{
			{Source: "a.py", Target: "b.py", Language: "python", Overall: 0.91, Coverage: 0.5},
		},
		Summary: models.MatrixSummary{TotalFiles: 3, TotalPairs: 3, ReportedPairs: 1, MaxSimilarity: 0.91},
	}

	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatText, &buf, false).Output(MatrixDocument(m)); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"a.py", "b.py", "0.910", "50.0%", "pairs 3, reported 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("matrix output missing %q:\n%s", want, out)
		}
	}
}

func TestLanguagesDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatText, &buf, false).Output(LanguagesDocument(engine.New().Breakdown())); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"python", "native", ".py", "javascript", "generic", "ml model unloaded"} {
		if !strings.Contains(out, want) {
			t.Errorf("languages output missing %q:\n%s", want, out)
		}
	}
}

func TestRawOutputMarkdownFencesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatMarkdown, &buf, false).Output([]int{1, 2}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "```json\n") {
		t.Errorf("raw markdown output = %q", buf.String())
	}
}

func TestScoreColor(t *testing.T) {
	for _, s := range []float64{0.9, 0.6, 0.1} {
		if !strings.Contains(ScoreColor(s, "x"), "x") {
			t.Errorf("ScoreColor(%v) lost text", s)
		}
	}
}
