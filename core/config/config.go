package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nholloway/viewmill/core/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppName string `yaml:"app_name"`
	Views   Views  `yaml:"views"`
	Server  Server `yaml:"server"`
	Watch   Watch  `yaml:"watch"`
}

type Views struct {
	// Root is the directory all view paths resolve against.
	Root string `yaml:"root"`

	// ImportFile is the conventional per-directory import file name.
	ImportFile string `yaml:"import_file"`

	// Precompiled lists views compiled once at startup and pinned: they
	// are served as-is forever and never invalidated by file changes.
	Precompiled []string `yaml:"precompiled"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Watch struct {
	Exclude []string `yaml:"exclude"`
}

func Default() *Config {
	return &Config{
		AppName: "viewmill",
		Views: Views{
			Root:       "views",
			ImportFile: "_imports.tmpl",
		},
		Server: Server{
			Host: "localhost",
			Port: 8080,
		},
	}
}

func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("cannot determine working dir: %w", err)
	}

	filePath := filepath.Join(wd, "viewmill.yaml")
	if _, err := os.Stat(filePath); err != nil {
		logger.Debug("No config file found, using default config")
		return Default(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	logger.Debug("Config file found: %s", filePath)

	return cfg, nil
}
