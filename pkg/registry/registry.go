// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// LoadRegistry reads and validates a template registry file. A file that
// fails schema validation is rejected whole rather than served partially.
func LoadRegistry(path string) (*TemplateRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(data)
}

// ParseRegistry validates raw registry JSON against the registry schema
// and unmarshals it.
func ParseRegistry(data []byte) (*TemplateRegistry, error) {
	schemaLoader := gojsonschema.NewStringLoader(registrySchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("template registry validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("template registry invalid: %s", strings.Join(msgs, "; "))
	}

	var reg TemplateRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse template registry: %w", err)
	}
	return &reg, nil
}

// FindByOpportunity returns the template registered for an opportunity id.
func (r *TemplateRegistry) FindByOpportunity(id string) (*DemoTemplate, bool) {
	for i := range r.Templates {
		if r.Templates[i].OpportunityID == id {
			return &r.Templates[i], true
		}
	}
	return nil, false
}
