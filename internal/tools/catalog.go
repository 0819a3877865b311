package tools

import (
	"encoding/json"
	"fmt"

	"github.com/AltairaLabs/incident-relay/internal/relay/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// Descriptor is the discovery metadata for one tool
type Descriptor struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"input_schema"`
	OutputSchema map[string]any `json:"output_schema"`
}

// MCPTool converts the descriptor into an mcp-go tool definition
func (d Descriptor) MCPTool() (mcp.Tool, error) {
	schema, err := json.Marshal(d.InputSchema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("marshal input schema for %s: %w", d.Name, err)
	}
	return mcp.NewToolWithRawSchema(d.Name, d.Description, schema), nil
}

// catalog is built once at init and never mutated; Catalog hands out copies
var catalog = []Descriptor{
	{
		Name:        config.ToolGetIncidentDetails,
		Description: "Retrieves comprehensive details of a ServiceNow incident.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"incident_number": map[string]any{
					"type":        "string",
					"description": "The unique number of the incident (e.g., 'INC0010001').",
					"example":     "INC0010001",
				},
				"sys_id": map[string]any{
					"type":        "string",
					"description": "The sys_id (unique record identifier) of the incident.",
					"example":     "62826bf03710200044e0bfc129e415f2",
				},
			},
			"required": []any{},
			"oneOf": []any{
				map[string]any{"required": []any{"incident_number"}},
				map[string]any{"required": []any{"sys_id"}},
			},
		},
		OutputSchema: map[string]any{
			"type":        "object",
			"description": "The full JSON object representing the incident record from ServiceNow.",
			"properties": map[string]any{
				"number":            map[string]any{"type": "string"},
				"sys_id":            map[string]any{"type": "string"},
				"short_description": map[string]any{"type": "string"},
				"description":       map[string]any{"type": "string"},
				"state":             map[string]any{"type": "string"},
				"priority":          map[string]any{"type": "string"},
				"caller_id": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"link":  map[string]any{"type": "string"},
						"value": map[string]any{"type": "string"},
					},
				},
			},
			"additionalProperties": true,
		},
	},
	{
		Name:        config.ToolCreateIncident,
		Description: "Creates a new incident record in ServiceNow.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"short_description": map[string]any{
					"type":        "string",
					"description": "A concise summary of the incident.",
					"example":     "User unable to log in.",
				},
				"caller_id": map[string]any{
					"type":        "string",
					"description": "The user_name or sys_id of the person reporting the incident.",
					"example":     "abel.tuter",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "A detailed explanation of the incident.",
					"example":     "The user is receiving an 'invalid credentials' error repeatedly when trying to access the portal.",
				},
				"impact": map[string]any{
					"type":        "string",
					"description": "The impact of the incident (e.g., '1' for High, '2' for Medium, '3' for Low).",
					"enum":        []any{"1", "2", "3"},
					"example":     "2",
				},
				"urgency": map[string]any{
					"type":        "string",
					"description": "The urgency of the incident (e.g., '1' for High, '2' for Medium, '3' for Low).",
					"enum":        []any{"1", "2", "3"},
					"example":     "2",
				},
			},
			"required": []any{"short_description", "caller_id"},
		},
		OutputSchema: map[string]any{
			"type":        "object",
			"description": "The full JSON object of the newly created incident, including its number and sys_id.",
			"properties": map[string]any{
				"number":            map[string]any{"type": "string"},
				"sys_id":            map[string]any{"type": "string"},
				"short_description": map[string]any{"type": "string"},
				"state":             map[string]any{"type": "string"},
			},
			"additionalProperties": true,
		},
	},
}

// Catalog returns the static tool descriptor list served on /tools
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the descriptor for name
func Lookup(name string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
