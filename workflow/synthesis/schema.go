package synthesis

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/synthesized_story.schema.json
var storySchemaJSON string

const storySchemaURL = "synthesized_story.schema.json"

var (
	storySchemaOnce sync.Once
	storySchema     *jsonschema.Schema
	storySchemaErr  error
)

func compiledStorySchema() (*jsonschema.Schema, error) {
	storySchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(storySchemaURL, strings.NewReader(storySchemaJSON)); err != nil {
			storySchemaErr = fmt.Errorf("add story schema resource: %w", err)
			return
		}
		storySchema, storySchemaErr = compiler.Compile(storySchemaURL)
		if storySchemaErr != nil {
			storySchemaErr = fmt.Errorf("compile story schema: %w", storySchemaErr)
		}
	})
	return storySchema, storySchemaErr
}

// SchemaJSON returns the JSON Schema for SynthesizedStory.
func SchemaJSON() []byte {
	return []byte(storySchemaJSON)
}

// ValidateArtifactJSON checks raw artifact JSON against the story schema.
func ValidateArtifactJSON(raw []byte) error {
	schema, err := compiledStorySchema()
	if err != nil {
		return err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode synthesized story: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("synthesized story does not match schema: %w", err)
	}
	return nil
}

// Validate checks the story against its schema.
func (s *SynthesizedStory) Validate() error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal synthesized story: %w", err)
	}
	return ValidateArtifactJSON(raw)
}
