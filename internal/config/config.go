// Package config loads engine.toml, the process-wide settings the spec's
// §5 fixes "at the start of the process": sample rate, polyphony width,
// the default parameter-smoothing time constant, and where named scales
// are looked up from. Decoding is struct-tag-driven via BurntSushi/toml.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the decoded shape of engine.toml.
type Config struct {
	SampleRate      float64 `toml:"sample_rate"`
	Polyphony       int     `toml:"polyphony"`
	SmoothingMillis float64 `toml:"smoothing_millis"`
	ScaleTablePath  string  `toml:"scale_table_path"`
	PatchDir        string  `toml:"patch_dir"`
	RootModuleID    string  `toml:"root_module_id"`
	RootModulePort  string  `toml:"root_module_port"`
}

// Default returns the engine's built-in settings, used when no
// engine.toml is present or a field is left unset.
func Default() Config {
	return Config{
		SampleRate:      48000,
		Polyphony:       16,
		SmoothingMillis: 5,
		ScaleTablePath:  "",
		PatchDir:        ".",
		RootModuleID:    "root",
		RootModulePort:  "out",
	}
}

// Load reads and decodes path, starting from Default() so a partial file
// only overrides the fields it mentions.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: unknown keys: %v", undecoded)
	}
	if cfg.SampleRate <= 0 {
		return Config{}, fmt.Errorf("config: sample_rate must be positive")
	}
	if cfg.Polyphony <= 0 {
		return Config{}, fmt.Errorf("config: polyphony must be positive")
	}
	return cfg, nil
}
