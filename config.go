package pwospfd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default constants from §9: HELLO_INTERVAL, NEIGHBOR_TIMEOUT (3x HELLO_INTERVAL),
// LSU_REFRESH, LSU_MAX_AGE, LSU_MAX_HOPS, and the installed-route admin distance.
const (
	DefaultHelloInterval   = 5
	DefaultNeighborTimeout = 3 * DefaultHelloInterval
	DefaultLSURefresh      = 30
	DefaultLSUMaxAge       = 60
	DefaultLSUMaxHops      = 64
	DefaultAreaID          = 171

	// AdminDistance is stamped on every route SPF installs.
	AdminDistance = 110
)

// InterfaceConfig describes one router-owned interface: its IP/mask binding
// and whether the HELLO/LSU engines are permitted to use it.
type InterfaceConfig struct {
	Name    string `json:"name"`
	IP      string `json:"ip"`
	Mask    string `json:"mask"`
	Enabled bool   `json:"enabled"`
}

// Config is the PWOSPF subsystem's static configuration: router identity,
// area membership, timer constants, and the interfaces it owns.
type Config struct {
	RouterID uint32 `json:"routerID"`
	AreaID   uint32 `json:"areaID"`

	HelloInterval   int `json:"helloInterval"`
	NeighborTimeout int `json:"neighborTimeout"`
	LSURefresh      int `json:"lsuRefresh"`
	LSUMaxAge       int `json:"lsuMaxAge"`
	LSUMaxHops      int `json:"lsuMaxHops"`

	Interfaces []InterfaceConfig `json:"interfaces"`
}

// DefaultConfig returns a Config populated with the spec's default timer
// constants, AreaID = DefaultAreaID and no interfaces; callers must set
// RouterID/Interfaces.
func DefaultConfig() *Config {
	return &Config{
		AreaID:          DefaultAreaID,
		HelloInterval:   DefaultHelloInterval,
		NeighborTimeout: DefaultNeighborTimeout,
		LSURefresh:      DefaultLSURefresh,
		LSUMaxAge:       DefaultLSUMaxAge,
		LSUMaxHops:      DefaultLSUMaxHops,
		Interfaces:      []InterfaceConfig{},
	}
}

// GetConfigDir returns the directory where pwospfd's configuration file is
// stored, creating it if necessary.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %v", err)
	}

	configDir := filepath.Join(homeDir, ".pwospfd")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if err := os.Mkdir(configDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create config directory: %v", err)
		}
	}

	return configDir, nil
}

// LoadConfig loads the configuration from the default location, writing a
// default config file on first run.
func LoadConfig() (*Config, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, "config.json")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %v", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	config := &Config{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	return config, nil
}

// Save writes the configuration to the default location.
func (c *Config) Save() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	return nil
}
