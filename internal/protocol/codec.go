package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode parses one raw frame. Only a frame that is not a single JSON
// object yields ErrMalformedSyntax. Fields of an unexpected JSON type are
// kept in their raw text form (or, for params, reported by ParamsError) so
// the reply can still carry the sender's id. A missing id is replaced by a
// fresh one so every response has a correlation target.
func Decode(raw []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedSyntax)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSyntax, err)
	}

	env := &Envelope{
		ID:        looseString(fields["id"]),
		Type:      MessageType(looseString(fields["type"])),
		SessionID: looseString(fields["session_id"]),
		ToolName:  looseString(fields["tool_name"]),
		Error:     looseString(fields["error"]),
	}

	if ts, ok := fields["timestamp"]; ok {
		env.Timestamp = ts
	}
	if p := fields["params"]; !isNull(p) {
		if err := json.Unmarshal(p, &env.Params); err != nil {
			env.Params = nil
			env.paramsErr = ErrMalformedParams
		}
	}
	if r := fields["result"]; !isNull(r) {
		var result any
		if err := json.Unmarshal(r, &result); err == nil {
			env.Result = result
		}
	}

	if env.ID == "" {
		env.ID = NewID()
	}
	return env, nil
}

// looseString reads a JSON string field. Absent and null read as ""; any
// other JSON value reads as its compact source text.
func looseString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Encode serializes env for the wire.
func Encode(env *Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", env.Type, err)
	}
	return data, nil
}

// Validate checks that env is something a client may send.
func Validate(env *Envelope) error {
	if env.Type == "" {
		return ErrMissingType
	}
	if !env.Type.Inbound() {
		return fmt.Errorf("%w: %s", ErrUnhandledType, env.Type)
	}
	return nil
}
