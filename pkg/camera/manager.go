package camera

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// Update is a partial change. Nil fields keep their current value; the
// preset, if any, is applied before the individual fields.
type Update struct {
	Preset    string `json:"preset,omitempty"`
	Device    *int   `json:"device,omitempty"`
	Width     *int   `json:"width,omitempty"`
	Height    *int   `json:"height,omitempty"`
	Framerate *int   `json:"framerate,omitempty"`
	Mirror    *bool  `json:"mirror,omitempty"`
}

// ParseUpdate decodes a JSON update, rejecting unknown settings.
func ParseUpdate(data []byte) (Update, error) {
	var u Update
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		return Update{}, fmt.Errorf("camera: parse update: %w", err)
	}
	return u, nil
}

// Manager holds the settings the next webcam session opens with.
type Manager struct {
	mu     sync.RWMutex
	config Config

	// OnConfigChange runs after a change is stored.
	OnConfigChange func(cfg Config) error
}

// NewManager creates a manager starting from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current settings.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and stores cfg.
func (m *Manager) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	onChange := m.OnConfigChange
	m.mu.Unlock()

	if onChange != nil {
		if err := onChange(cfg); err != nil {
			return fmt.Errorf("camera: apply config: %w", err)
		}
	}
	return nil
}

// Apply merges u into the current settings and stores the result.
// Nothing changes if the merged settings are invalid.
func (m *Manager) Apply(u Update) (Config, error) {
	cfg := m.GetConfig()

	if u.Preset != "" {
		p, ok := LookupPreset(u.Preset)
		if !ok {
			return cfg, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, u.Preset)
		}
		cfg = p.Apply(cfg)
	}

	set(&cfg.Device, u.Device)
	set(&cfg.Width, u.Width)
	set(&cfg.Height, u.Height)
	set(&cfg.Framerate, u.Framerate)
	set(&cfg.Mirror, u.Mirror)

	if err := m.SetConfig(cfg); err != nil {
		return m.GetConfig(), err
	}
	return cfg, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
