package trainer

import (
	"encoding/json"
	"os"
	"time"

	"speechtrainer/internal/analysis"
)

// Report is the end-of-session summary.
type Report struct {
	SessionID       string         `json:"session_id"`
	StartedAt       time.Time      `json:"started_at"`
	StoppedAt       time.Time      `json:"stopped_at"`
	DurationSeconds float64        `json:"duration_seconds"`
	Stats           analysis.Stats `json:"stats"`
	Transcript      string         `json:"transcript"`
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
