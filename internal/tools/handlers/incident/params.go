// Package incident provides the ServiceNow incident tool handlers
package incident

import (
	"errors"
	"fmt"
)

// ErrInvalidParams marks a tool call rejected before reaching the backend
var ErrInvalidParams = errors.New("invalid tool parameters")

// paramError keeps the client-facing message intact while still matching ErrInvalidParams
type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }

func (e *paramError) Is(target error) bool { return target == ErrInvalidParams }

// stringParam reads key as a selector value. Absent, null, empty and
// other falsy JSON values (false, 0, [], {}) all read as "".
func stringParam(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
	case float64:
		if v == 0 {
			return ""
		}
	case []any:
		if len(v) == 0 {
			return ""
		}
	case map[string]any:
		if len(v) == 0 {
			return ""
		}
	}
	return fmt.Sprint(params[key])
}
