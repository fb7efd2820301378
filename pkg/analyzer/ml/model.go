package ml

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Model kinds.
const (
	KindLinear   = "linear"
	KindLogistic = "logistic"
)

//go:embed model.schema.json
var schemaDoc []byte

const schemaURL = "model.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaDoc))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// Model is a serialized linear or logistic regression over the feature
// vector built by ExtractFeatures.
type Model struct {
	Kind         string    `json:"kind"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	FeatureNames []string  `json:"feature_names,omitempty"`
}

// LoadModel reads and validates a model document.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	return ParseModel(data)
}

// ParseModel validates data against the model schema and decodes it.
func ParseModel(data []byte) (*Model, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile model schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if m.FeatureNames != nil {
		for i, name := range FeatureNames {
			if m.FeatureNames[i] != name {
				return nil, fmt.Errorf("invalid model: feature %d is %q, want %q", i, m.FeatureNames[i], name)
			}
		}
	}
	return &m, nil
}
