package typingspeed

import (
	"os"
	"time"

	"github.com/0xProject/typing-speed/internal/metrics"
	"github.com/0xProject/typing-speed/internal/speed"
	env "github.com/caitlinelfring/go-env-default"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const DisplayEnv = "TYPING_SPEED_DISPLAY"

var ErrInvalidConfig = errors.New("invalid configuration")

type WindowConfig struct {
	Capacity      int           `yaml:"capacity"`
	IdleThreshold time.Duration `yaml:"idleThreshold"`
}

type ServerConfig struct {
	Port uint `yaml:"port"`
}

type Config struct {
	Display speed.Unit     `yaml:"display"`
	Window  WindowConfig   `yaml:"window"`
	Server  ServerConfig   `yaml:"server"`
	Metrics metrics.Config `yaml:"metrics"`
}

func DefaultConfig() Config {
	return Config{
		Display: speed.WordsPerMinute,
		Window: WindowConfig{
			Capacity:      speed.DefaultCapacity,
			IdleThreshold: speed.IdleThreshold,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Metrics: metrics.Config{
			Port: 9090,
		},
	}
}

func (c Config) Validate() error {
	if c.Window.Capacity <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "window.capacity must be positive, got %d", c.Window.Capacity)
	}

	if c.Window.IdleThreshold <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "window.idleThreshold must be positive, got %s", c.Window.IdleThreshold)
	}

	if c.Server.Port == 0 || c.Metrics.Port == 0 {
		return errors.Wrap(ErrInvalidConfig, "server.port and metrics.port are required")
	}

	if c.Server.Port == c.Metrics.Port {
		return errors.Wrapf(ErrInvalidConfig, "server and metrics cannot share port %d", c.Server.Port)
	}

	return nil
}

func NewTypingSpeedConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config file")
	}

	return NewTypingSpeedConfigFromBytes(data)
}

// NewTypingSpeedConfigFromBytes parses a YAML document on top of
// DefaultConfig, applies environment overrides and validates the result.
func NewTypingSpeedConfigFromBytes(configBytes []byte) (*Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(configBytes, &config); err != nil {
		return nil, errors.Wrap(err, "cannot parse config")
	}

	display, err := speed.ParseUnit(env.GetDefault(DisplayEnv, config.Display.String()))
	if err != nil {
		return nil, errors.Wrap(err, DisplayEnv)
	}
	config.Display = display

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func NewTypingSpeedConfigFromString(configString string) (*Config, error) {
	return NewTypingSpeedConfigFromBytes([]byte(configString))
}
