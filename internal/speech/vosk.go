package speech

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
)

// VoskOptions configure a VoskRecognizer.
type VoskOptions struct {
	// SampleRate of the audio fed to Accept. Defaults to 16000.
	SampleRate float64

	// SpeakerModelPath enables speaker adaptation when set. A missing or
	// broken speaker model is logged and skipped, not fatal.
	SpeakerModelPath string

	// Grammar restricts recognition to the given phrases when non-empty.
	// "[unk]" is appended automatically to allow unknown words.
	Grammar []string
}

// VoskRecognizer implements Recognizer backed by Vosk, with word-level
// confidence and timing enabled.
type VoskRecognizer struct {
	mu         sync.Mutex
	model      *vosk.VoskModel
	spkModel   *vosk.VoskSpkModel
	recognizer *vosk.VoskRecognizer
	sampleRate float64
}

// NewVosk creates a VoskRecognizer from a model directory.
func NewVosk(modelPath string, opts VoskOptions) (*VoskRecognizer, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("vosk model not found: %s", modelPath)
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("loading vosk model: %w", err)
	}

	sampleRate := opts.SampleRate
	if sampleRate <= 0 {
		// 16000 Hz is the standard rate for speech recognition.
		sampleRate = 16000.0
	}

	var rec *vosk.VoskRecognizer
	if len(opts.Grammar) > 0 {
		grammar := append(append([]string{}, opts.Grammar...), "[unk]")
		grammarJSON, err := json.Marshal(grammar)
		if err != nil {
			model.Free()
			return nil, err
		}
		rec, err = vosk.NewRecognizerGrm(model, sampleRate, string(grammarJSON))
		if err != nil {
			model.Free()
			return nil, err
		}
	} else {
		rec, err = vosk.NewRecognizer(model, sampleRate)
		if err != nil {
			model.Free()
			return nil, err
		}
	}

	// Word-level output is required for confidence filtering and pacing.
	rec.SetWords(1)
	rec.SetPartialWords(1)

	v := &VoskRecognizer{
		model:      model,
		recognizer: rec,
		sampleRate: sampleRate,
	}

	if opts.SpeakerModelPath != "" {
		if _, err := os.Stat(opts.SpeakerModelPath); err == nil {
			spkModel, err := vosk.NewSpkModel(opts.SpeakerModelPath)
			if err != nil {
				log.Printf("Speaker model failed to load, continuing without it: %v", err)
			} else {
				v.spkModel = spkModel
				rec.SetSpkModel(spkModel)
			}
		} else {
			log.Printf("Speaker model not found at %s, continuing without it", opts.SpeakerModelPath)
		}
	}

	return v, nil
}

// Name returns the engine name.
func (v *VoskRecognizer) Name() string {
	return "vosk"
}

// Accept feeds a chunk of PCM16 audio to the engine.
func (v *VoskRecognizer) Accept(chunk []byte) (*Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer == nil {
		return nil, fmt.Errorf("recognizer is closed")
	}

	if v.recognizer.AcceptWaveform(chunk) != 0 {
		return parseResult(v.recognizer.Result())
	}
	return nil, nil
}

// Partial returns the current unconfirmed transcript.
func (v *VoskRecognizer) Partial() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer == nil {
		return "", fmt.Errorf("recognizer is closed")
	}

	return parsePartial(v.recognizer.PartialResult())
}

// Flush finalizes pending audio and resets the engine for reuse.
func (v *VoskRecognizer) Flush() (*Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer == nil {
		return nil, fmt.Errorf("recognizer is closed")
	}

	result, err := parseResult(v.recognizer.FinalResult())
	v.recognizer.Reset()
	return result, err
}

// Close releases engine resources.
func (v *VoskRecognizer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}

	if v.spkModel != nil {
		v.spkModel.Free()
		v.spkModel = nil
	}

	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
}
