package config

import (
	"os"
	"time"

	"sigsim/internal"
	"sigsim/internal/errors"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Log        LogConfig
	Simulation SimulationConfig
	Server     ServerConfig
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"INFO" validate:"required"`
}

// SimulationConfig holds defaults applied to runs that leave them unset, and
// limits the API enforces
type SimulationConfig struct {
	Workers         int     `env:"SIM_WORKERS" envDefault:"0" validate:"gte=0"`
	Trials          int     `env:"SIM_TRIALS" envDefault:"10000" validate:"gte=1"`
	Alpha           float64 `env:"SIM_ALPHA" envDefault:"0.05" validate:"gt=0,lt=1"`
	ConfidenceLevel float64 `env:"SIM_CONFIDENCE_LEVEL" envDefault:"0.95" validate:"gt=0,lt=1"`
	MaxTrials       int     `env:"SIM_MAX_TRIALS" envDefault:"1000000" validate:"gtefield=Trials"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Addr           string        `env:"API_ADDR" envDefault:":8080" validate:"required"`
	GinMode        string        `env:"GIN_MODE" envDefault:"release" validate:"oneof=debug release test"`
	RequestTimeout time.Duration `env:"API_REQUEST_TIMEOUT" envDefault:"2m" validate:"gt=0"`
	MaxBodyBytes   int64         `env:"API_MAX_BODY_BYTES" envDefault:"1048576" validate:"gt=0"`
}

// Load reads an optional .env file, then the environment, and validates the
// result. Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to read %s", f))
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to parse environment"))
	}

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Logger builds the leveled logger the configuration asks for
func (c *Config) Logger() *internal.Logger {
	level, err := internal.ParseLogLevel(c.Log.Level)
	if err != nil {
		level = internal.LogLevelInfo
	}
	return internal.NewLogger(level)
}

func validateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if _, err := internal.ParseLogLevel(cfg.Log.Level); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	return nil
}
