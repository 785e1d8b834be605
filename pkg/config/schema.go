package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed docmaint-config.schema.yaml
var schemaYAML []byte

// Schema returns the JSON form of the embedded config schema.
func Schema() ([]byte, error) {
	return yamlToJSON(schemaYAML)
}

// ValidateYAML validates a YAML (or JSON) config document against the schema.
// An empty document is valid.
func ValidateYAML(configData []byte) error {
	if strings.TrimSpace(string(configData)) == "" {
		return nil
	}
	doc, err := yamlToJSON(configData)
	if err != nil {
		return fmt.Errorf("failed to parse config: %v", err)
	}
	return ValidateConfig(doc)
}

// ValidateConfig validates a JSON config document against the embedded schema.
func ValidateConfig(configJSON []byte) error {
	schema, err := Schema()
	if err != nil {
		return fmt.Errorf("failed to load config schema: %v", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(configJSON))
	if err != nil {
		return fmt.Errorf("schema validation error: %v", err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return json.Marshal(doc)
}
