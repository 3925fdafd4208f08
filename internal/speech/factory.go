package speech

import (
	"fmt"
	"sync"

	"speechtrainer/internal/models"
)

// Factory creates and swaps recognizers for registry models.
type Factory struct {
	manager *models.Manager

	// UseSpeaker enables speaker adaptation when the speaker model is on
	// disk. A missing speaker model is not an error.
	UseSpeaker bool

	// Grammar restricts recognition to the given phrases when non-empty.
	Grammar []string

	current Recognizer
	modelID string
	mu      sync.RWMutex
}

// NewFactory creates a recognizer factory over the model manager.
func NewFactory(manager *models.Manager) *Factory {
	return &Factory{manager: manager}
}

// Create builds a recognizer for the given acoustic model at the given
// sample rate. A rate of 0 uses the engine default.
func (f *Factory) Create(modelID string, sampleRate float64) (Recognizer, error) {
	info, ok := models.GetModel(modelID)
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", modelID)
	}
	if info.Kind != models.KindAcoustic {
		return nil, fmt.Errorf("model %s is %s, not acoustic", modelID, models.KindName(info.Kind))
	}
	if !f.manager.IsDownloaded(info) {
		return nil, fmt.Errorf("model %s is not downloaded, run setup first", info.Name)
	}

	opts := VoskOptions{
		SampleRate: sampleRate,
		Grammar:    f.Grammar,
	}

	if f.UseSpeaker {
		if spk, ok := models.GetModel(models.SpeakerModelID()); ok && f.manager.IsDownloaded(spk) {
			opts.SpeakerModelPath = f.manager.ModelPath(spk)
		}
	}

	rec, err := NewVosk(f.manager.ModelPath(info), opts)
	if err != nil {
		return nil, fmt.Errorf("creating recognizer: %w", err)
	}

	return rec, nil
}

// Load creates a recognizer and installs it as current.
func (f *Factory) Load(modelID string, sampleRate float64) error {
	rec, err := f.Create(modelID, sampleRate)
	if err != nil {
		return err
	}

	f.mu.Lock()
	old := f.current
	f.current = rec
	f.modelID = modelID
	f.mu.Unlock()

	if old != nil {
		old.Close()
	}

	return nil
}

// Swap replaces the current recognizer, closing the old one in the
// background (hot-swap).
func (f *Factory) Swap(modelID string, sampleRate float64) error {
	rec, err := f.Create(modelID, sampleRate)
	if err != nil {
		return err
	}

	f.mu.Lock()
	old := f.current
	f.current = rec
	f.modelID = modelID
	f.mu.Unlock()

	if old != nil {
		go old.Close()
	}

	return nil
}

// Current returns the current recognizer (thread-safe).
func (f *Factory) Current() Recognizer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// CurrentModelID returns the ID of the loaded model.
func (f *Factory) CurrentModelID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.modelID
}

// IsLoaded reports whether a recognizer is loaded.
func (f *Factory) IsLoaded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current != nil
}

// Close closes the current recognizer.
func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		f.current.Close()
		f.current = nil
	}
}
