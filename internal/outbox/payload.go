package outbox

import "encoding/json"

func unmarshalPayload(raw string, out interface{}) error {
	return json.Unmarshal([]byte(raw), out)
}
