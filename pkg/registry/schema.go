// pkg/registry/schema.go
package registry

// TemplateRegistry is the on-disk catalog of demo prefill templates.
type TemplateRegistry struct {
	Version     string         `json:"version"`
	LastUpdated string         `json:"lastUpdated"`
	Templates   []DemoTemplate `json:"templates"`
}

// DemoTemplate holds prefill values for one opportunity, keyed
// section -> field -> value.
type DemoTemplate struct {
	OpportunityID string                       `json:"opportunityId"`
	DisplayName   string                       `json:"displayName"`
	Sections      map[string]map[string]string `json:"sections"`
}

// registrySchema is the JSON schema every registry file must satisfy
// before templates are served.
const registrySchema = `{
	"type": "object",
	"required": ["version", "templates"],
	"properties": {
		"version": {"type": "string"},
		"lastUpdated": {"type": "string"},
		"templates": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["opportunityId", "sections"],
				"properties": {
					"opportunityId": {"type": "string", "minLength": 1},
					"displayName": {"type": "string"},
					"sections": {
						"type": "object",
						"additionalProperties": {
							"type": "object",
							"additionalProperties": {"type": "string"}
						}
					}
				}
			}
		}
	}
}`
