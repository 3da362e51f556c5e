package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"rvcheck/internal/logger"
	"rvcheck/platform"
	"rvcheck/report"
	"rvcheck/sim"
)

type Config struct {
	Platform  string `yaml:"platform"`
	Drain     string `yaml:"drain"`
	UARTName  string `yaml:"uart_name"`
	FlashBase uint32 `yaml:"flash_base"`
	FlashSize uint32 `yaml:"flash_size"`
	RAMBase   uint32 `yaml:"ram_base"`
	RAMSize   uint32 `yaml:"ram_size"`
	MaxSteps  uint64 `yaml:"max_steps"`
	LogLevel  string `yaml:"log_level"`
	JSON      bool   `yaml:"json"`
	TraceFile string `yaml:"trace_file"`
}

func Default() *Config {
	l := sim.FE310()
	return &Config{
		Platform:  platform.DefaultKind.String(),
		Drain:     report.DrainTrust.String(),
		UARTName:  l.UARTName,
		FlashBase: l.FlashBase,
		FlashSize: l.FlashSize,
		RAMBase:   l.RAMBase,
		RAMSize:   l.RAMSize,
		MaxSteps:  100_000_000,
		LogLevel:  "warn",
	}
}

func LoadYAML(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func MergeEnv(cfg *Config) *Config {
	if v := os.Getenv("RVCHECK_PLATFORM"); v != "" {
		cfg.Platform = v
	}
	if v := os.Getenv("RVCHECK_DRAIN"); v != "" {
		cfg.Drain = v
	}
	if v := os.Getenv("RVCHECK_MAX_STEPS"); v != "" {
		if n, err := strconv.ParseUint(v, 0, 64); err == nil {
			cfg.MaxSteps = n
		}
	}
	if v := os.Getenv("RVCHECK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

// Validate parses the enumerated fields so a bad value is reported before
// anything is built.
func (c *Config) Validate() error {
	if _, err := platform.ParseKind(c.Platform); err != nil {
		return err
	}
	if _, err := report.ParseDrain(c.Drain); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.FlashSize == 0 || c.RAMSize == 0 {
		return fmt.Errorf("flash_size and ram_size must be non-zero")
	}
	return nil
}

// Layout is the FE310 map with the memory windows taken from c.
func (c *Config) Layout() sim.Layout {
	l := sim.FE310()
	l.FlashBase, l.FlashSize = c.FlashBase, c.FlashSize
	l.RAMBase, l.RAMSize = c.RAMBase, c.RAMSize
	if c.UARTName != "" {
		l.UARTName = c.UARTName
	}
	return l
}
