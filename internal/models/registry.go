// Package models manages the Vosk model archives kept under the Speech
// directory.
package models

// Kind classifies what a model is used for.
type Kind string

const (
	// KindAcoustic - a speech recognition model loaded by the engine.
	KindAcoustic Kind = "acoustic"
	// KindSpeaker - speaker adaptation model, optional.
	KindSpeaker Kind = "speaker"
	// KindRecase - recasing/punctuation model, consumed by reference only.
	KindRecase Kind = "recase"
)

// ModelInfo describes a downloadable model archive.
type ModelInfo struct {
	ID       string // Unique identifier: "vosk-zamia-en"
	Kind     Kind   // What the model is used for
	Name     string // Display name: "English Small (Zamia)"
	Dirname  string // Directory the archive unzips to
	URL      string // Download URL
	Size     int64  // Approximate size in bytes (for progress)
	Language string // ISO language code, empty when not language-bound
}

// Registry lists all known models.
var Registry = []ModelInfo{
	{
		ID:       "vosk-small-en-us",
		Kind:     KindAcoustic,
		Name:     "English Small",
		Dirname:  "vosk-model-small-en-us-0.15",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-en-us-0.15.zip",
		Size:     40 * 1024 * 1024,
		Language: "en",
	},
	{
		ID:       "vosk-zamia-en",
		Kind:     KindAcoustic,
		Name:     "English Small (Zamia)",
		Dirname:  "vosk-model-small-en-us-zamia-0.5",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-en-us-zamia-0.5.zip",
		Size:     49 * 1024 * 1024,
		Language: "en",
	},
	{
		ID:       "vosk-small-de",
		Kind:     KindAcoustic,
		Name:     "German Small",
		Dirname:  "vosk-model-small-de-0.15",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-de-0.15.zip",
		Size:     45 * 1024 * 1024,
		Language: "de",
	},
	{
		ID:       "recase-en",
		Kind:     KindRecase,
		Name:     "English Recasing + Punctuation",
		Dirname:  "vosk-recasepunc-en-0.22",
		URL:      "https://alphacephei.com/vosk/models/vosk-recasepunc-en-0.22.zip",
		Size:     1200 * 1024 * 1024,
		Language: "en",
	},
	{
		ID:      "vosk-spk",
		Kind:    KindSpeaker,
		Name:    "Speaker Adaptation",
		Dirname: "vosk-model-spk-0.4",
		URL:     "https://alphacephei.com/vosk/models/vosk-model-spk-0.4.zip",
		Size:    13 * 1024 * 1024,
	},
}

// DefaultModelID is the acoustic model used when nothing is configured.
// The zamia model replaced vosk-model-small-en-us-0.15 for better accuracy.
func DefaultModelID() string {
	return "vosk-zamia-en"
}

// SpeakerModelID is the optional speaker adaptation model.
func SpeakerModelID() string {
	return "vosk-spk"
}

// GetModel returns the model with the given ID.
func GetModel(id string) (ModelInfo, bool) {
	for _, m := range Registry {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// GetModelsByKind returns all models of the given kind.
func GetModelsByKind(kind Kind) []ModelInfo {
	var result []ModelInfo
	for _, m := range Registry {
		if m.Kind == kind {
			result = append(result, m)
		}
	}
	return result
}

// KindName returns the display name of a model kind.
func KindName(k Kind) string {
	switch k {
	case KindAcoustic:
		return "Acoustic"
	case KindSpeaker:
		return "Speaker"
	case KindRecase:
		return "Recasing"
	default:
		return string(k)
	}
}
