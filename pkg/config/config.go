package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScraperConfig holds general scraper settings.
type ScraperConfig struct {
	Headless       bool   `yaml:"headless"`
	MaxPages       int    `yaml:"max_pages"`
	StartYear      int    `yaml:"start_year"`
	EndYear        int    `yaml:"end_year"`
	Output         string `yaml:"output"`
	PasswordFile   string `yaml:"password_file"`
	NavTimeoutSecs int    `yaml:"nav_timeout_secs"`
	ArchiveDB      string `yaml:"archive_db"`
}

// NavTimeout is the bounded wait applied to every login/page-load operation.
func (s ScraperConfig) NavTimeout() time.Duration {
	return time.Duration(s.NavTimeoutSecs) * time.Second
}

// AmazonConfig holds settings specific to the Amazon storefront.
type AmazonConfig struct {
	BaseURL string `yaml:"base_url"`
	Locale  string `yaml:"locale"`
}

// DashConfig holds settings for the local dashboard server.
type DashConfig struct {
	Port  int    `yaml:"port"`
	Input string `yaml:"input"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Scraper ScraperConfig `yaml:"scraper"`
	Amazon  AmazonConfig  `yaml:"amazon"`
	Dash    DashConfig    `yaml:"dash"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Scraper: ScraperConfig{
			Headless:       true,
			MaxPages:       200,
			StartYear:      2010,
			EndYear:        time.Now().Year(),
			Output:         "orders.json",
			PasswordFile:   "pw.txt",
			NavTimeoutSecs: 30,
			ArchiveDB:      "runs.db",
		},
		Amazon: AmazonConfig{
			BaseURL: "https://www.amazon.de",
			Locale:  "de_DE",
		},
		Dash: DashConfig{
			Port:  8080,
			Input: "orders.json",
		},
	}
}

// LoadConfig reads a YAML config file on top of the defaults. A missing file
// is not an error, the defaults apply.
func LoadConfig(filepath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config YAML: %w", err)
	}
	return cfg, nil
}

// LoadPasswordFile reads the password fallback file used when --password is
// omitted. Plaintext on disk, documented risk, not a security boundary.
func LoadPasswordFile(filepath string) (string, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return "", fmt.Errorf("password not given and password file unreadable: %w", err)
	}
	pw := strings.TrimSpace(string(data))
	if pw == "" {
		return "", fmt.Errorf("password file %s is empty", filepath)
	}
	return pw, nil
}
