package stripper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the structure of a YAML configuration file
type Config struct {
	Ignore          []string `yaml:"ignore"`
	Files           []string `yaml:"files"`
	MaxTermSize     int      `yaml:"max_term_size"`
	TempDir         string   `yaml:"temp_dir,omitempty"`
	Verbose         bool     `yaml:"verbose"`
	Debug           bool     `yaml:"debug"`
	Overwrite       bool     `yaml:"overwrite"`
	ContinueOnError bool     `yaml:"continue_on_error"`
	Verify          bool     `yaml:"verify"`
	AllDisabled     bool     `yaml:"all_disabled"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Ignore:      []string{},
		Files:       []string{},
		MaxTermSize: DefaultMaxTermSize,
		Verbose:     DefaultFlags.Has(FlagVerbose),
	}
}

// LoadConfigFile loads and parses a YAML configuration file. Fields
// missing from the file keep their default values.
func LoadConfigFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filename, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in config file '%s': %w", filename, err)
	}
	if config.MaxTermSize < 0 {
		return nil, fmt.Errorf("invalid max_term_size %d in config file '%s'", config.MaxTermSize, filename)
	}

	return config, nil
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	return data, nil
}

// Flags converts the boolean fields to a flag set
func (c *Config) Flags() Flags {
	flags := NoFlags
	if c.Verbose {
		flags |= FlagVerbose
	}
	if c.Debug {
		flags |= FlagDebug | FlagVerbose
	}
	if c.Overwrite {
		flags |= FlagOverwriteFile
	}
	if c.ContinueOnError {
		flags |= FlagContinueOnError
	}
	if c.AllDisabled {
		flags |= FlagAllDisabled
	}
	return flags.Resolve()
}

// Options builds stripper options from the configuration
func (c *Config) Options() Options {
	return Options{
		Ignored:     NewIgnoreSet(c.Ignore...),
		Flags:       c.Flags(),
		MaxTermSize: c.MaxTermSize,
		TempDir:     c.TempDir,
	}
}
