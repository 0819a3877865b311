package config

// Tool defines the available tools in the relay
const (
	// ToolGetIncidentDetails reads one incident by number or sys_id
	ToolGetIncidentDetails = "get_incident_details"
	// ToolCreateIncident creates a new incident
	ToolCreateIncident = "create_incident"
)

// AllTools returns a slice of all available tool names
func AllTools() []string {
	return []string{
		ToolGetIncidentDetails,
		ToolCreateIncident,
	}
}
