package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config is the anekit configuration file (~/.config/anekit/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	Device        *int64 `yaml:"device"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "anekit", "config.yaml")
}

// loadConfig reads the config file if present. A missing or unreadable file
// yields an empty config; the CLI works without one.
func loadConfig() Config {
	var cfg Config
	path := configPath()
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	_ = yaml.Unmarshal(data, &cfg)
	return cfg
}

// applyConfig fills in defaults from the config file for flags the user did
// not set on the command line.
func applyConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.Device != nil && !c.IsSet("device") {
		deviceID = *cfg.Device
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if addr != nil && cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
