package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configFileVar = "CONFIG_FILE"

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	StoreConfig
	TelemetryConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetAPIURL() string
	GetBaseURL() string
	GetPostLoginRedirect() string
	GetPageLimit() int
	GetFetchConcurrency() int
	GetPlaceholderName() (string, string)
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Store
	Telemetry
}

// New loads a .env file when present, then the optional YAML file named by
// CONFIG_FILE (default config.yaml). Process environment always wins.
func New() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("[config New] load .env: %w", err)
	}

	file, err := readFile(GetEnv(configFileVar, "config.yaml"))
	if err != nil {
		return nil, err
	}
	return FromValues(file), nil
}

// FromValues builds a Config whose fallback values come from the given map
// instead of a file. Keys are the environment variable names.
func FromValues(file map[string]string) Config {
	v := values{file: file}
	return mainConfig{
		EnvVars:   EnvVars{v},
		Cors:      Cors{v},
		OAuth:     OAuth{v},
		Security:  Security{v},
		Store:     Store{v},
		Telemetry: Telemetry{v},
	}
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[config readFile] failed to read config file: %w", err)
	}

	file := make(map[string]string)
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("[config readFile] failed to parse config file: %w", err)
	}
	return file, nil
}
