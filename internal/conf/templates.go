package conf

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/summonlabs/summoner/internal/biz/domain"
)

// TemplatesConfig contains the message banners loaded from YAML
type TemplatesConfig struct {
	Auto   BannerPair `yaml:"auto"`
	Manual BannerPair `yaml:"manual"`

	OfflineSuffix string `yaml:"offline_suffix"`
	QuietWarning  string `yaml:"quiet_warning"`

	// Source is the file the templates were read from, empty for built-in defaults
	Source string `yaml:"-"`
}

// BannerPair holds the phrase and haiku banner of one summon kind
type BannerPair struct {
	Phrase string `yaml:"phrase"`
	Haiku  string `yaml:"haiku"`
}

// LoadTemplatesConfig loads templates from a YAML file
// An empty path searches the usual locations; no file found means built-in defaults.
func LoadTemplatesConfig(configPath string) (*TemplatesConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/templates.yaml",
			"/etc/summoner/templates.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "templates.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			data = b
			loadedPath = p
			break
		}
		if configPath != "" {
			return nil, fmt.Errorf("read templates: %w", err)
		}
	}

	if data == nil {
		slog.Debug("no templates.yaml found, using defaults")
		return DefaultTemplatesConfig(), nil
	}

	var config TemplatesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	config.Source = loadedPath
	config.fillDefaults()
	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *TemplatesConfig) fillDefaults() {
	defaults := DefaultTemplatesConfig()

	if c.Auto.Phrase == "" {
		c.Auto.Phrase = defaults.Auto.Phrase
	}
	if c.Auto.Haiku == "" {
		c.Auto.Haiku = defaults.Auto.Haiku
	}
	if c.Manual.Phrase == "" {
		c.Manual.Phrase = defaults.Manual.Phrase
	}
	if c.Manual.Haiku == "" {
		c.Manual.Haiku = defaults.Manual.Haiku
	}
	if c.OfflineSuffix == "" {
		c.OfflineSuffix = defaults.OfflineSuffix
	}
	if c.QuietWarning == "" {
		c.QuietWarning = defaults.QuietWarning
	}
}

// Banners converts to the domain banners
func (c *TemplatesConfig) Banners() domain.Banners {
	return domain.Banners{
		AutoPhrase:    c.Auto.Phrase,
		AutoHaiku:     c.Auto.Haiku,
		ManualPhrase:  c.Manual.Phrase,
		ManualHaiku:   c.Manual.Haiku,
		OfflineSuffix: c.OfflineSuffix,
		QuietWarning:  c.QuietWarning,
	}
}

// DefaultTemplatesConfig returns the built-in templates
func DefaultTemplatesConfig() *TemplatesConfig {
	b := domain.DefaultBanners()
	return &TemplatesConfig{
		Auto:          BannerPair{Phrase: b.AutoPhrase, Haiku: b.AutoHaiku},
		Manual:        BannerPair{Phrase: b.ManualPhrase, Haiku: b.ManualHaiku},
		OfflineSuffix: b.OfflineSuffix,
		QuietWarning:  b.QuietWarning,
	}
}
