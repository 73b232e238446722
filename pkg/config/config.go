package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config represents the rig bridge configuration. It is loaded once
// at startup, optionally overridden by command-line flags, and never
// mutated after the bridge starts.
type Config struct {
	Radio struct {
		Brand string `yaml:"brand"` // yaesu, kenwood, elecraft, icom
		Model string `yaml:"model"` // free-form, e.g. "FT-991A"

		// Serial parameters
		Device   string `yaml:"device"`
		BaudRate int    `yaml:"baud_rate"`
		DataBits int    `yaml:"data_bits"`
		StopBits int    `yaml:"stop_bits"`
		Parity   string `yaml:"parity"` // none, odd, even

		// Icom CI-V bus address; 0 selects the per-model default
		CIVAddress int `yaml:"civ_address"`

		PollInterval int  `yaml:"poll_interval"` // milliseconds
		EnablePTT    bool `yaml:"enable_ptt"`
	} `yaml:"radio"`

	Web struct {
		Port        int    `yaml:"port"`
		BindAddress string `yaml:"bind_address"`
	} `yaml:"web"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		Console    bool   `yaml:"console"`
		MaxSize    int    `yaml:"max_size"` // megabytes
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"` // days
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`

	// Simulate runs the bridge against a built-in fake radio so the
	// dashboard can be exercised without hardware.
	Simulate bool `yaml:"simulate"`
}

// Factory CI-V addresses for common Icom models.
var civAddressTable = map[string]byte{
	"IC-705":  0xA4,
	"IC-7000": 0x70,
	"IC-7100": 0x88,
	"IC-7300": 0x94,
	"IC-7410": 0x80,
	"IC-7610": 0x98,
	"IC-9700": 0xA2,
}

const DefaultCIVAddress = 0x94

// LoadConfig loads configuration from a YAML file and applies
// defaults for anything unset.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Radio.BaudRate == 0 {
		c.Radio.BaudRate = 38400
	}
	if c.Radio.DataBits == 0 {
		c.Radio.DataBits = 8
	}
	if c.Radio.StopBits == 0 {
		c.Radio.StopBits = 1
	}
	if c.Radio.Parity == "" {
		c.Radio.Parity = "none"
	}
	if c.Radio.PollInterval == 0 {
		c.Radio.PollInterval = 500
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
	if c.Web.BindAddress == "" {
		c.Web.BindAddress = "0.0.0.0"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.File == "" {
		c.Logging.Console = true
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = 28
	}
}

// Validate checks for the faults that make startup impossible.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Radio.Brand) {
	case "yaesu", "kenwood", "elecraft", "icom":
	case "":
		return fmt.Errorf("radio brand is required")
	default:
		return fmt.Errorf("unknown radio brand %q", c.Radio.Brand)
	}

	if !c.Simulate && c.Radio.Device == "" {
		return fmt.Errorf("serial device is required (or enable simulate mode)")
	}
	if c.Radio.BaudRate < 0 {
		return fmt.Errorf("invalid baud rate %d", c.Radio.BaudRate)
	}
	switch strings.ToLower(c.Radio.Parity) {
	case "none", "odd", "even":
	default:
		return fmt.Errorf("invalid parity %q (none, odd, even)", c.Radio.Parity)
	}
	if c.Radio.PollInterval < 100 {
		return fmt.Errorf("poll interval %d ms is too aggressive (minimum 100)", c.Radio.PollInterval)
	}
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web port %d", c.Web.Port)
	}
	return nil
}

// Save writes the configuration back to disk. Used by the wizard to
// regenerate the file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CIVAddr resolves the radio's CI-V bus address: explicit config
// first, then the per-model factory table, then the common default.
func (c *Config) CIVAddr() byte {
	if c.Radio.CIVAddress != 0 {
		return byte(c.Radio.CIVAddress)
	}
	if addr, ok := civAddressTable[strings.ToUpper(c.Radio.Model)]; ok {
		return addr
	}
	return DefaultCIVAddress
}

// RadioName returns "<brand> <model>" for the info endpoint.
func (c *Config) RadioName() string {
	brand := strings.ToLower(c.Radio.Brand)
	if brand != "" {
		brand = strings.ToUpper(brand[:1]) + brand[1:]
	}
	if c.Radio.Model == "" {
		return brand
	}
	return brand + " " + c.Radio.Model
}
