package chatbot

import "encoding/json"

// ResponseData is the raw upstream webhook reply attached to a bot turn.
// Stored payloads arrive either as structured JSON or as an opaque string;
// the shape is decided once at ingestion and never re-checked downstream.
type ResponseData struct {
	Raw        string
	Structured map[string]interface{}
}

// DecodeResponseData normalizes whatever was stored in the response_data
// column. JSON strings are parsed once; anything that fails to parse as an
// object is kept verbatim as an opaque string. Never fails.
func DecodeResponseData(v interface{}) ResponseData {
	switch val := v.(type) {
	case nil:
		return ResponseData{}
	case map[string]interface{}:
		return ResponseData{Structured: val}
	case json.RawMessage:
		return decodeBytes([]byte(val))
	case []byte:
		return decodeBytes(val)
	case string:
		return decodeBytes([]byte(val))
	default:
		// Numbers, arrays and other scalars from misbehaving webhooks are
		// kept as their JSON text so nothing is silently dropped.
		if b, err := json.Marshal(val); err == nil {
			return ResponseData{Raw: string(b)}
		}
		return ResponseData{}
	}
}

func decodeBytes(b []byte) ResponseData {
	if len(b) == 0 {
		return ResponseData{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err == nil {
		return ResponseData{Structured: m}
	}
	return ResponseData{Raw: string(b)}
}

// IsZero reports whether no payload was present at all.
func (d ResponseData) IsZero() bool {
	return d.Raw == "" && d.Structured == nil
}

// MarshalJSON renders the payload the way it arrived: structured payloads
// as objects, opaque ones as the original string, absent ones as null.
func (d ResponseData) MarshalJSON() ([]byte, error) {
	if d.Structured != nil {
		return json.Marshal(d.Structured)
	}
	if d.Raw != "" {
		return json.Marshal(d.Raw)
	}
	return []byte("null"), nil
}

// UnmarshalJSON restores a payload written by MarshalJSON, used when the
// normalized history round-trips through the cache.
func (d *ResponseData) UnmarshalJSON(b []byte) error {
	*d = DecodeResponseData(json.RawMessage(b))
	if d.Raw != "" {
		// A JSON string literal decodes to its contents, not its quoted form.
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			d.Raw = s
		}
	}
	return nil
}
