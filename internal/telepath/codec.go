package telepath

import "encoding/json"

func encode(sig Signal) ([]byte, error) { return json.Marshal(sig) }

// Decode parses a published Signal envelope, used by telepath consumers
// (outside this codebase) and by tests.
func Decode(data []byte) (Signal, error) {
	var sig Signal
	err := json.Unmarshal(data, &sig)
	return sig, err
}
