package md5verify

import (
	"fmt"
	"strings"

	"github.com/go-ini/ini"
)

// Config holds md5verify settings read from an ini file.
type Config struct {
	configPath string
	ini        *ini.File
}

// ManifestConfig represents manifest file configuration
type ManifestConfig struct {
	Outfile string // manifest filename used in every directory
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int // 0=warnings, 1=info, 2=debug
}

// WalkConfig represents tree walking configuration
type WalkConfig struct {
	Exclude []string // glob patterns skipped while walking
	DryRun  bool     // verify only, never touch manifests
}

// AllConfig represents all configuration options
type AllConfig struct {
	Manifest *ManifestConfig
	Verbose  *VerboseConfig
	Walk     *WalkConfig
}

// DefaultConfig returns a configuration holding only default values.
func DefaultConfig() *Config {
	cfg := &Config{ini: ini.Empty()}
	// setting keys on a fresh file cannot fail
	_ = cfg.setDefaults()
	return cfg
}

// LoadConfig loads configuration from the ini file at configPath. An empty path
// returns the defaults. Keys missing from the file keep their default value.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	iniFile, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg := &Config{configPath: configPath, ini: iniFile}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() error {
	defaults := []struct {
		section, key, value string
	}{
		{"manifest", "outfile", DefaultOutfile},
		{"verbose", "level", "0"},
		{"walk", "exclude", ""},
		{"walk", "dry_run", "false"},
	}

	for _, d := range defaults {
		if err := c.Set(d.section, d.key, d.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", d.section, d.key, err)
		}
	}
	return nil
}

// Set stores value under section.key, creating either as needed.
func (c *Config) Set(section, key, value string) error {
	sec := c.ini.Section(section)
	if sec.HasKey(key) {
		sec.Key(key).SetValue(value)
		return nil
	}
	_, err := sec.NewKey(key, value)
	return err
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.configPath
}

// GetManifestConfig returns the manifest configuration
func (c *Config) GetManifestConfig() *ManifestConfig {
	manifestConfig := &ManifestConfig{
		Outfile: DefaultOutfile,
	}

	if c.ini.HasSection("manifest") {
		section := c.ini.Section("manifest")
		if section.HasKey("outfile") {
			manifestConfig.Outfile = strings.TrimSpace(section.Key("outfile").String())
		}
	}

	return manifestConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
	}

	return verboseConfig
}

// GetWalkConfig returns the walk configuration
func (c *Config) GetWalkConfig() *WalkConfig {
	walkConfig := &WalkConfig{}

	if c.ini.HasSection("walk") {
		section := c.ini.Section("walk")
		if section.HasKey("exclude") {
			for _, pattern := range section.Key("exclude").Strings(",") {
				if pattern != "" {
					walkConfig.Exclude = append(walkConfig.Exclude, pattern)
				}
			}
		}
		if section.HasKey("dry_run") {
			if dryRun, err := section.Key("dry_run").Bool(); err == nil {
				walkConfig.DryRun = dryRun
			}
		}
	}

	return walkConfig
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Manifest: c.GetManifestConfig(),
		Verbose:  c.GetVerboseConfig(),
		Walk:     c.GetWalkConfig(),
	}
}

// Validate checks that every configured value is usable.
func (c *Config) Validate() error {
	if err := ValidateOutfile(c.GetManifestConfig().Outfile); err != nil {
		return err
	}

	if c.ini.HasSection("verbose") && c.ini.Section("verbose").HasKey("level") {
		level, err := c.ini.Section("verbose").Key("level").Int()
		if err != nil {
			return fmt.Errorf("verbose level must be an integer: %w", err)
		}
		if level < 0 {
			return fmt.Errorf("verbose level must not be negative: %d", level)
		}
	}

	if c.ini.HasSection("walk") && c.ini.Section("walk").HasKey("dry_run") {
		if _, err := c.ini.Section("walk").Key("dry_run").Bool(); err != nil {
			return fmt.Errorf("walk dry_run must be a boolean: %w", err)
		}
	}

	if _, err := NewExcludeMatcher(c.GetWalkConfig().Exclude); err != nil {
		return err
	}
	return nil
}

// ValidateOutfile checks that name can be used as a manifest filename inside
// every directory of the tree.
func ValidateOutfile(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("manifest filename must not be empty")
	case name == "." || name == "..":
		return fmt.Errorf("invalid manifest filename: %s", name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("manifest filename must not contain a path separator: %s", name)
	}
	return nil
}
