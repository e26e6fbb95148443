// Package config loads the YAML configuration a dungeonfinderd process
// starts from: where the catalog's backing sqlite file lives, the admin
// HTTP listener, and the join pipeline's group-size ceiling.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure, unmarshalled from YAML
// the same way the teacher's cli.Config is.
type Config struct {
	Catalog struct {
		SQLitePath     string `yaml:"sqlite_path"`
		ActivitiesPath string `yaml:"activities_path"`
	} `yaml:"catalog"`

	Queue struct {
		MaxGroupSize int `yaml:"max_group_size"`
	} `yaml:"queue"`

	Admin struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"admin"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the configuration a fresh install runs with absent a
// config file.
func Default() Config {
	var cfg Config
	cfg.Catalog.SQLitePath = "dungeonfinder.db"
	cfg.Catalog.ActivitiesPath = "configs/activities.yaml"
	cfg.Queue.MaxGroupSize = 5
	cfg.Admin.Enabled = true
	cfg.Admin.Port = 8090
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads and parses the YAML config file at path, applying Default()
// for any field the file leaves zero.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config YAML: %w", err)
	}
	if cfg.Queue.MaxGroupSize == 0 {
		cfg.Queue.MaxGroupSize = 5
	}
	return cfg, nil
}
