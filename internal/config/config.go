package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// zoneFileDir is the directory, relative to the configuration file's
// location, that holds zone files.
const zoneFileDir = "../rsrc/zone_files"

// Config is the ecosystem topology: which authoritative servers to
// start (ip -> zone name, no extension), which backend greeting HTTP
// servers to start (ip -> greeting message), and where the recursive
// resolver's root server lives.
type Config struct {
	DnsConfig    map[string]string `json:"DnsConfig"`
	HttpConfig   map[string]string `json:"HttpConfig"`
	RecResConfig map[string]string `json:"RecResConfig"`
}

// Load reads and validates the configuration file at path. It does not
// touch zone files; ZonePath resolves those relative to the directory
// of the configuration file, not the process's working directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
	}

	if cfg.RecResConfig["root"] == "" {
		return nil, fmt.Errorf("%w: RecResConfig.root is required", ErrConfig)
	}

	return &cfg, nil
}

// ZonePath derives the on-disk zone file path for a zone name drawn
// from DnsConfig, relative to configDir (the directory containing the
// configuration file that produced this Config).
func ZonePath(configDir, zoneName string) string {
	return filepath.Join(configDir, zoneFileDir, zoneName+".zone")
}

// RootAddress returns the configured root name server's IP address.
func (c *Config) RootAddress() string {
	return c.RecResConfig["root"]
}
