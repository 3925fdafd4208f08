package speech

import "encoding/json"

// partialResult is the JSON shape of a Vosk partial result.
type partialResult struct {
	Partial string `json:"partial"`
}

// parseResult parses a final Vosk result. Results with no text yield nil.
func parseResult(raw string) (*Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, err
	}
	if result.Text == "" {
		return nil, nil
	}
	return &result, nil
}

// parsePartial parses a Vosk partial result into plain text.
func parsePartial(raw string) (string, error) {
	var result partialResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", err
	}
	return result.Partial, nil
}
