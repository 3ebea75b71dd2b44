// Package hostcfg loads the one piece of configuration that is
// genuinely local to a machine: which directory holds which base game,
// plus whatever free-form overrides the user has set for variables
// the manifest would otherwise default. C5 consumes this directly, as
// the external "host configuration" interface in §6 of the spec.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package hostcfg

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Built-in variable names the manifest's %VAR% markers may reference
// without the manifest itself declaring them.
const (
	BuiltinFO3Root = "FO3ROOT"
	BuiltinFNVRoot = "FNVROOT"
)

type Config struct {
	Games           map[string]string `json:"games"`     // game name -> root directory
	Overrides       map[string]string `json:"overrides"` // user variable name -> value
	Concurrency     int               `json:"concurrency,omitempty"`
	NAECacheEntries int               `json:"nae_cache_entries,omitempty"`
	DownloadDirs    []string          `json:"download_dirs,omitempty"` // walked by sourceindex.Build at startup
}

func Default() *Config {
	return &Config{
		Games:       map[string]string{},
		Overrides:   map[string]string{},
		Concurrency: 0, // 0 means "use runtime.NumCPU()"
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read host config %s: %w", path, err)
	}
	cfg := Default()
	if err := jsonAPI.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode host config %s: %w", path, err)
	}
	return cfg, nil
}

// MarshalForDisplay renders the config as indented JSON, used by the
// `print-default-config` CLI command.
func (c *Config) MarshalForDisplay() ([]byte, error) {
	return jsonAPI.MarshalIndent(c, "", "  ")
}

func (c *Config) Write(path string) error {
	data, err := jsonAPI.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Builtin resolves one of the fixed builtin variable names against the
// Games table; name must already be upper-cased by the caller.
func (c *Config) Builtin(name string) (string, bool) {
	switch name {
	case BuiltinFO3Root:
		v, ok := c.Games["Fallout3"]
		return v, ok
	case BuiltinFNVRoot:
		v, ok := c.Games["FalloutNV"]
		return v, ok
	default:
		return "", false
	}
}
