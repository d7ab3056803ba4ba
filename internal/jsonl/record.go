package jsonl

import "encoding/json"

// Record is one line of a namespace file: a storage key and its value.
type Record struct {
	Key       string          `json:"key"`
	UpdatedAt string          `json:"updated_at"`
	Value     json.RawMessage `json:"value"`
}

// DecodeRecords parses raw JSONL lines into records, skipping lines that do
// not decode or carry no key. Later lines win when a key repeats.
func DecodeRecords(lines []json.RawMessage) map[string]Record {
	out := make(map[string]Record, len(lines))
	for _, line := range lines {
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil || rec.Key == "" {
			continue
		}
		out[rec.Key] = rec
	}
	return out
}
