package incident

import (
	"context"
	"fmt"
	"strings"

	"github.com/AltairaLabs/incident-relay/internal/relay/config"
	"github.com/AltairaLabs/incident-relay/internal/types"
)

var createRequired = []string{"short_description", "caller_id"}

// CreateHandler implements create_incident
type CreateHandler struct {
	backend types.TicketBackend
}

// NewCreateHandler creates a new create_incident handler
func NewCreateHandler(backend types.TicketBackend) *CreateHandler {
	return &CreateHandler{backend: backend}
}

// Handle creates an incident. Every parameter, required or not, is
// forwarded to the backend unchanged.
func (h *CreateHandler) Handle(ctx context.Context, params map[string]any) (types.Record, error) {
	for _, key := range createRequired {
		if _, ok := params[key]; !ok {
			return nil, &paramError{msg: fmt.Sprintf("Missing required parameters for %s: %s",
				config.ToolCreateIncident, strings.Join(createRequired, ", "))}
		}
	}

	fields := make(types.Record, len(params))
	for k, v := range params {
		fields[k] = v
	}

	record, err := h.backend.CreateIncident(ctx, fields)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = types.Record{}
	}
	return record, nil
}
