package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/codesim/internal/output"
	"github.com/panbanda/codesim/internal/service/comparison"
)

// FormatInput selects how a tool result is encoded.
type FormatInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml, or markdown."`
}

// CompareCodeInput compares two inline samples.
type CompareCodeInput struct {
	FormatInput
	Source   string `json:"source" jsonschema:"First code sample."`
	Target   string `json:"target" jsonschema:"Second code sample."`
	Language string `json:"language,omitempty" jsonschema:"Language tag: python, java, javascript, cpp or c. Unknown tags fall back to python."`
}

// CompareFilesInput compares two files, optionally at git revisions.
type CompareFilesInput struct {
	FormatInput
	Source    string `json:"source" jsonschema:"Path of the first file."`
	Target    string `json:"target" jsonschema:"Path of the second file."`
	Language  string `json:"language,omitempty" jsonschema:"Language tag. Detected from the file extension when empty."`
	SourceRev string `json:"source_rev,omitempty" jsonschema:"Git revision to read the first file at."`
	TargetRev string `json:"target_rev,omitempty" jsonschema:"Git revision to read the second file at."`
}

// CompareMatrixInput compares every same-language pair under paths.
type CompareMatrixInput struct {
	FormatInput
	Paths         []string `json:"paths,omitempty" jsonschema:"Files or directories to scan. Defaults to current directory if empty."`
	MinSimilarity *float64 `json:"min_similarity,omitempty" jsonschema:"Report pairs at or above this overall score (0.0-1.0). Default from config."`
}

// ListLanguagesInput has no parameters besides the format.
type ListLanguagesInput struct {
	FormatInput
}

func getFormat(input FormatInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "yaml", "yml":
		return output.FormatYAML
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	if format == output.FormatMarkdown {
		out, err := output.Marshal(output.FormatTOON, data)
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	}
	out, err := output.Marshal(format, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleCompareCode(ctx context.Context, _ *mcp.CallToolRequest, input CompareCodeInput) (*mcp.CallToolResult, any, error) {
	if input.Source == "" && input.Target == "" {
		return toolError("source and target are both empty")
	}
	r, _ := s.svc.CompareCode(ctx, input.Source, input.Target, input.Language)
	return toolResult(r, getFormat(input.FormatInput))
}

func (s *Server) handleCompareFiles(ctx context.Context, _ *mcp.CallToolRequest, input CompareFilesInput) (*mcp.CallToolResult, any, error) {
	if input.Source == "" || input.Target == "" {
		return toolError("source and target paths are required")
	}
	res, err := s.svc.CompareFiles(ctx, comparison.FileRequest{
		Source:    input.Source,
		Target:    input.Target,
		Language:  input.Language,
		SourceRev: input.SourceRev,
		TargetRev: input.TargetRev,
	})
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(res, getFormat(input.FormatInput))
}

func (s *Server) handleCompareMatrix(ctx context.Context, _ *mcp.CallToolRequest, input CompareMatrixInput) (*mcp.CallToolResult, any, error) {
	paths := input.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	opts := comparison.MatrixOptions{MinSimilarity: -1}
	if input.MinSimilarity != nil {
		opts.MinSimilarity = *input.MinSimilarity
	}

	res, err := s.svc.Matrix(ctx, paths, opts)
	if err != nil {
		return toolError(err.Error())
	}
	if res.Summary.TotalFiles == 0 {
		return toolError("no source files found")
	}
	return toolResult(res, getFormat(input.FormatInput))
}

func (s *Server) handleListLanguages(_ context.Context, _ *mcp.CallToolRequest, input ListLanguagesInput) (*mcp.CallToolResult, any, error) {
	return toolResult(s.svc.Engine().Breakdown(), getFormat(input.FormatInput))
}
