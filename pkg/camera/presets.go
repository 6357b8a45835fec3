package camera

import "github.com/samber/lo"

// Preset is a named capture format. Applying one never changes Device.
type Preset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Config      Config `json:"config"`
}

// Preset names.
const (
	PresetDefault = "default"
	PresetNative  = "native"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
	PresetMirror  = "mirror"
)

var presets = []Preset{
	{PresetDefault, "640x480 at 30fps", DefaultConfig()},
	{PresetNative, "Driver defaults", Config{}},
	{Preset720p, "1280x720 at 30fps", Config{Width: 1280, Height: 720, Framerate: 30}},
	// Most webcams drop to 15-20fps here.
	{Preset1080p, "1920x1080 at 30fps", Config{Width: 1920, Height: 1080, Framerate: 30}},
	{PresetMirror, "640x480 mirrored", Config{Width: 640, Height: 480, Framerate: 30, Mirror: true}},
}

// Presets returns every preset in menu order.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// PresetNames returns the preset names in menu order.
func PresetNames() []string {
	return lo.Map(presets, func(p Preset, _ int) string { return p.Name })
}

// LookupPreset finds a preset by name.
func LookupPreset(name string) (Preset, bool) {
	return lo.Find(presets, func(p Preset) bool { return p.Name == name })
}

// Apply returns base with the preset's capture format.
func (p Preset) Apply(base Config) Config {
	cfg := p.Config
	cfg.Device = base.Device
	return cfg
}
