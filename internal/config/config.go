// Package config provides application configuration persisted to a JSON
// file next to the binary.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Defaults.
const (
	DefaultModelID    = "vosk-zamia-en"
	DefaultListenAddr = "127.0.0.1:8765"
	DefaultWindowSecs = 10
	DefaultConfidence = 0.80
)

// configData is the serialization shape. The bools are pointers so a
// hand-edited file that omits a key keeps the default instead of
// silently turning the feature off.
type configData struct {
	ModelID           string  `json:"model_id,omitempty"`
	ModelsDir         string  `json:"models_dir,omitempty"`
	SpeakerAdaptation *bool   `json:"speaker_adaptation"`
	WindowSeconds     int     `json:"window_seconds,omitempty"`
	Confidence        float64 `json:"confidence_threshold,omitempty"`
	Notifications     *bool   `json:"notifications"`
	ListenAddr        string  `json:"listen_addr,omitempty"`
}

// Config holds application settings.
type Config struct {
	mu                sync.RWMutex
	modelID           string
	modelsDir         string
	speakerAdaptation bool
	windowSeconds     int
	confidence        float64
	notifications     bool
	listenAddr        string
	configPath        string
}

// New creates a configuration stored next to the binary, loading the
// existing file when present.
func New() *Config {
	path := ""
	if execPath, err := os.Executable(); err == nil {
		if execPath, err = filepath.EvalSymlinks(execPath); err == nil {
			path = filepath.Join(filepath.Dir(execPath), "config.json")
		}
	}
	return NewAt(path)
}

// NewAt creates a configuration stored at the given path. An empty path
// disables persistence.
func NewAt(path string) *Config {
	c := &Config{
		modelID:           DefaultModelID,
		speakerAdaptation: true,
		windowSeconds:     DefaultWindowSecs,
		confidence:        DefaultConfidence,
		notifications:     true,
		listenAddr:        DefaultListenAddr,
		configPath:        path,
	}
	c.load()
	return c
}

// load reads the config file; a missing or broken file keeps defaults.
func (c *Config) load() {
	if c.configPath == "" {
		return
	}

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return
	}

	var cfg configData
	if err := json.Unmarshal(data, &cfg); err != nil {
		return
	}

	if cfg.ModelID != "" {
		c.modelID = cfg.ModelID
	}
	c.modelsDir = cfg.ModelsDir
	if cfg.SpeakerAdaptation != nil {
		c.speakerAdaptation = *cfg.SpeakerAdaptation
	}
	if cfg.WindowSeconds > 0 {
		c.windowSeconds = cfg.WindowSeconds
	}
	if cfg.Confidence > 0 {
		c.confidence = cfg.Confidence
	}
	if cfg.Notifications != nil {
		c.notifications = *cfg.Notifications
	}
	if cfg.ListenAddr != "" {
		c.listenAddr = cfg.ListenAddr
	}
}

// save writes the config file.
func (c *Config) save() {
	if c.configPath == "" {
		return
	}

	speaker := c.speakerAdaptation
	notifications := c.notifications
	cfg := configData{
		ModelID:           c.modelID,
		ModelsDir:         c.modelsDir,
		SpeakerAdaptation: &speaker,
		WindowSeconds:     c.windowSeconds,
		Confidence:        c.confidence,
		Notifications:     &notifications,
		ListenAddr:        c.listenAddr,
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return
	}

	os.WriteFile(c.configPath, data, 0644)
}

// ModelID returns the configured acoustic model ID.
func (c *Config) ModelID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modelID
}

// SetModelID sets the acoustic model ID.
func (c *Config) SetModelID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modelID = id
	c.save()
}

// ModelsDir returns the models directory, empty for the default.
func (c *Config) ModelsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modelsDir
}

// SetModelsDir sets the models directory.
func (c *Config) SetModelsDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modelsDir = dir
	c.save()
}

// SpeakerAdaptation reports whether the speaker model should be used.
func (c *Config) SpeakerAdaptation() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.speakerAdaptation
}

// SetSpeakerAdaptation toggles speaker adaptation.
func (c *Config) SetSpeakerAdaptation(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speakerAdaptation = enabled
	c.save()
}

// WindowSeconds returns the pace window length.
func (c *Config) WindowSeconds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.windowSeconds
}

// SetWindowSeconds sets the pace window length.
func (c *Config) SetWindowSeconds(secs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.windowSeconds = secs
	c.save()
}

// Confidence returns the minimum word confidence.
func (c *Config) Confidence() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.confidence
}

// SetConfidence sets the minimum word confidence.
func (c *Config) SetConfidence(threshold float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confidence = threshold
	c.save()
}

// NotificationsEnabled reports whether desktop alerts are enabled.
func (c *Config) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notifications
}

// SetNotifications toggles desktop alerts.
func (c *Config) SetNotifications(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = enabled
	c.save()
}

// ListenAddr returns the live feed server address.
func (c *Config) ListenAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listenAddr
}

// SetListenAddr sets the live feed server address.
func (c *Config) SetListenAddr(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listenAddr = addr
	c.save()
}

// OverrideNotifications toggles desktop alerts for this run only.
// Unlike SetNotifications, nothing is written back to the config file.
func (c *Config) OverrideNotifications(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = enabled
}

// ApplyEnv overrides settings from environment variables:
// SPEECH_DIR, SPEECH_MODEL, SPEECH_LISTEN_ADDR. The overrides live in
// memory only and are never persisted.
func (c *Config) ApplyEnv() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v := os.Getenv("SPEECH_DIR"); v != "" {
		c.modelsDir = v
	}
	if v := os.Getenv("SPEECH_MODEL"); v != "" {
		c.modelID = v
	}
	if v := os.Getenv("SPEECH_LISTEN_ADDR"); v != "" {
		c.listenAddr = v
	}
}
