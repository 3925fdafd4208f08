// Package speech provides streaming speech recognition engines.
package speech

// Word is a recognized word with confidence and stream-relative timing
// in seconds, as reported by the engine.
type Word struct {
	Word  string  `json:"word"`
	Conf  float64 `json:"conf"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is a finalized utterance.
type Result struct {
	Text  string `json:"text"`
	Words []Word `json:"result"`
}

// Recognizer is the interface for streaming speech recognition engines.
type Recognizer interface {
	// Accept feeds a chunk of PCM16 little-endian mono audio.
	// It returns a non-nil Result when the engine finalized an utterance
	// on this chunk, nil otherwise.
	Accept(chunk []byte) (*Result, error)

	// Partial returns the current unconfirmed transcript, which may be
	// empty. Partials are revised until the utterance is finalized.
	Partial() (string, error)

	// Flush finalizes whatever audio is pending and resets the engine.
	Flush() (*Result, error)

	// Name returns the engine name (for logging).
	Name() string

	// Close releases engine resources.
	Close()
}
