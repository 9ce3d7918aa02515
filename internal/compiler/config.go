package compiler

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultArch is the target used when none is configured.
const DefaultArch = "x64"

// Config selects the target and whether idiom optimization runs. Run-length
// folding is part of parsing and cannot be turned off.
type Config struct {
	Arch     string `toml:"arch"`
	Optimize bool   `toml:"optimize"`
}

func DefaultConfig() Config {
	return Config{Arch: DefaultArch, Optimize: true}
}

// LoadConfig reads a TOML config file on top of DefaultConfig. Keys the
// file does not set keep their defaults; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	md, err := toml.NewDecoder(f).Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Arch == "" {
		cfg.Arch = DefaultArch
	}
	return cfg, nil
}
