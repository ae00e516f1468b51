// Package config provides configuration management for the voxgrid server.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for the server.
type Config struct {
	// Server configuration
	MonitorPort string
	MonitorBind string
	Env         string

	// Fleet configuration file (control ports + Art-Net controllers)
	FleetPath string

	// Art-Net configuration
	ArtNetPort int

	// Sender monitor
	CooldownSeconds int

	// Mapping engine OSC endpoints
	OSCInHost  string
	OSCInPort  int
	OSCOutHost string
	OSCOutPort int

	// Subsystem toggles
	MappingEnabled      bool
	ControlPortsEnabled bool
}

// Load loads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		// Server
		MonitorPort: getEnv("MONITOR_PORT", "8080"),
		MonitorBind: getEnv("MONITOR_BIND", "0.0.0.0"),
		Env:         getEnv("ENV", "development"),

		// Fleet
		FleetPath: getEnv("FLEET_CONFIG", "./fleet.yaml"),

		// Art-Net
		ArtNetPort: getEnvInt("ARTNET_PORT", 6454),

		// Sender monitor
		CooldownSeconds: getEnvInt("SENDER_COOLDOWN_SECONDS", 30),

		// Mapping engine
		OSCInHost:  getEnv("OSC_IN_HOST", "127.0.0.1"),
		OSCInPort:  getEnvInt("OSC_IN_PORT", 9000),
		OSCOutHost: getEnv("OSC_OUT_HOST", "127.0.0.1"),
		OSCOutPort: getEnvInt("OSC_OUT_PORT", 9001),

		// Toggles
		MappingEnabled:      getEnvBool("MAPPING_ENABLED", true),
		ControlPortsEnabled: getEnvBool("CONTROL_PORTS_ENABLED", true),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DeviceAddress is one TCP endpoint in the fleet file.
type DeviceAddress struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

// ArtNetController is one Art-Net target in the fleet file.
type ArtNetController struct {
	IP           string `yaml:"ip"`
	Port         int    `yaml:"port"`
	BaseUniverse int    `yaml:"base_universe"`
}

// WorldConfig bounds the raster volume.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Length int `yaml:"length"`
}

// FleetConfig is the YAML fleet description: which control-port devices and
// Art-Net controllers this installation talks to.
type FleetConfig struct {
	ControlPorts      map[string]DeviceAddress `yaml:"control_ports"`
	ArtNetControllers []ArtNetController       `yaml:"artnet_controllers"`
	World             *WorldConfig             `yaml:"world"`
}

// LoadFleet reads and validates the fleet configuration file.
func LoadFleet(path string) (*FleetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fleet config: %w", err)
	}

	var fleet FleetConfig
	if err := yaml.Unmarshal(data, &fleet); err != nil {
		return nil, fmt.Errorf("parse fleet config: %w", err)
	}

	for dip, addr := range fleet.ControlPorts {
		if addr.IP == "" || addr.Port <= 0 {
			return nil, fmt.Errorf("control port %q needs ip and port", dip)
		}
	}
	for i, c := range fleet.ArtNetControllers {
		if c.IP == "" || c.Port <= 0 {
			return nil, fmt.Errorf("artnet controller %d needs ip and port", i)
		}
	}

	return &fleet, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
