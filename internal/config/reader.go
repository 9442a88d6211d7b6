package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Reader interface {
	Read() (*Config, error)
}

type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

// Read loads the configuration from the environment. When CONFIG_PATH
// points at a config file it is read first, with real environment
// variables taking precedence.
func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err := cleanenv.ReadConfig(path, cfg)
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
