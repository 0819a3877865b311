package incident

import (
	"context"
	"fmt"

	"github.com/AltairaLabs/incident-relay/internal/relay/config"
	"github.com/AltairaLabs/incident-relay/internal/types"
)

// GetHandler implements get_incident_details
type GetHandler struct {
	backend types.TicketBackend
}

// NewGetHandler creates a new get_incident_details handler
func NewGetHandler(backend types.TicketBackend) *GetHandler {
	return &GetHandler{backend: backend}
}

// Handle looks up one incident by incident_number or sys_id. A lookup that
// matches nothing succeeds with an empty record.
func (h *GetHandler) Handle(ctx context.Context, params map[string]any) (types.Record, error) {
	query := types.IncidentQuery{
		Number: stringParam(params, "incident_number"),
		SysID:  stringParam(params, "sys_id"),
	}
	if query.Empty() {
		return nil, &paramError{msg: fmt.Sprintf(
			"Either 'incident_number' or 'sys_id' must be provided for %s.", config.ToolGetIncidentDetails)}
	}

	record, err := h.backend.GetIncident(ctx, query)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = types.Record{}
	}
	return record, nil
}
