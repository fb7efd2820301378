package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// promptDoc is a markdown prompt with YAML frontmatter. The body may
// reference arguments as {{name}}.
type promptDoc struct {
	Name        string           `yaml:"-"`
	Description string           `yaml:"description"`
	Arguments   []promptArgument `yaml:"arguments"`
	Body        string           `yaml:"-"`
}

type promptArgument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

func (s *Server) registerPrompts() {
	docs, err := loadPrompts()
	if err != nil {
		return
	}
	for _, doc := range docs {
		s.server.AddPrompt(doc.prompt(), doc.handler())
	}
}

func loadPrompts() ([]promptDoc, error) {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, err
	}

	var docs []promptDoc
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFiles.ReadFile(path.Join("prompts", entry.Name()))
		if err != nil {
			return nil, err
		}
		doc, err := parsePrompt(content)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", entry.Name(), err)
		}
		doc.Name = strings.TrimSuffix(entry.Name(), ".md")
		docs = append(docs, doc)
	}
	return docs, nil
}

// parsePrompt splits optional frontmatter from the body. Content without a
// closed frontmatter block is all body.
func parsePrompt(content []byte) (promptDoc, error) {
	var doc promptDoc
	rest, ok := bytes.CutPrefix(content, []byte("---\n"))
	if !ok {
		doc.Body = string(content)
		return doc, nil
	}
	header, body, ok := bytes.Cut(rest, []byte("\n---\n"))
	if !ok {
		doc.Body = string(content)
		return doc, nil
	}
	if err := yaml.Unmarshal(header, &doc); err != nil {
		return promptDoc{}, err
	}
	doc.Body = strings.TrimPrefix(string(body), "\n")
	return doc, nil
}

func (d promptDoc) prompt() *mcp.Prompt {
	p := &mcp.Prompt{Name: d.Name, Description: d.Description}
	for _, a := range d.Arguments {
		p.Arguments = append(p.Arguments, &mcp.PromptArgument{
			Name:        a.Name,
			Description: a.Description,
			Required:    a.Required,
		})
	}
	return p
}

// render substitutes args into the body. Missing required arguments are
// an error; missing optional ones become empty.
func (d promptDoc) render(args map[string]string) (string, error) {
	pairs := make([]string, 0, 2*len(d.Arguments))
	for _, a := range d.Arguments {
		v, ok := args[a.Name]
		if !ok && a.Required {
			return "", fmt.Errorf("missing required argument %q", a.Name)
		}
		pairs = append(pairs, "{{"+a.Name+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(d.Body), nil
}

func (d promptDoc) handler() mcp.PromptHandler {
	return func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		text, err := d.render(args)
		if err != nil {
			return nil, err
		}
		return &mcp.GetPromptResult{
			Description: d.Description,
			Messages: []*mcp.PromptMessage{
				{Role: "user", Content: &mcp.TextContent{Text: text}},
			},
		}, nil
	}
}
