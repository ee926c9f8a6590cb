package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads the yaml config at path (when it exists) and overlays
// environment variables. A missing file is not an error; env-only
// deployments are supported.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
