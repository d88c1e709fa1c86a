package ikpose

import (
	"fmt"

	"github.com/spf13/viper"
)

// ConfigFileName is the file LoadConfig looks for in its directory.
const ConfigFileName = "ikpose.cfg.json"

// Config holds the solver defaults and the tool settings read by
// LoadConfig.
type Config struct {
	Iterations         int     `json:"iterations" mapstructure:"iterations"`
	MaxAngle           float64 `json:"maxAngle" mapstructure:"maxAngle"` // degrees per step
	FollowOtherTargets bool    `json:"followOtherTargets" mapstructure:"followOtherTargets"`
	LimitsEnabled      bool    `json:"limitsEnabled" mapstructure:"limitsEnabled"`
	Debug              bool    `json:"debug" mapstructure:"debug"`

	LogLevel string `json:"logLevel" mapstructure:"logLevel"`
	Rig      string `json:"rig" mapstructure:"rig"`       // rig YAML path
	Script   string `json:"script" mapstructure:"script"` // drag script JSON path
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Iterations:         defaultIterations,
		MaxAngle:           defaultMaxAngle,
		FollowOtherTargets: true,
		LimitsEnabled:      true,
		LogLevel:           "info",
	}
}

func setConfigDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("iterations", d.Iterations)
	v.SetDefault("maxAngle", d.MaxAngle)
	v.SetDefault("followOtherTargets", d.FollowOtherTargets)
	v.SetDefault("limitsEnabled", d.LimitsEnabled)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("rig", "")
	v.SetDefault("script", "")
}

// LoadConfig reads ConfigFileName from configDir over the defaults. A
// missing file is an error; use DefaultConfig to run without one.
func LoadConfig(configDir string) (Config, error) {
	v := viper.New()
	setConfigDefaults(v)
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("json")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}
	return decodeConfig(v)
}

func decodeConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("ikpose: decode config: %w", err)
	}
	if cfg.Iterations < 1 {
		return Config{}, fmt.Errorf("ikpose: config iterations %d: %w", cfg.Iterations, ErrConfiguration)
	}
	if !(cfg.MaxAngle > 0) {
		return Config{}, fmt.Errorf("ikpose: config maxAngle %g: %w", cfg.MaxAngle, ErrConfiguration)
	}
	return cfg, nil
}
