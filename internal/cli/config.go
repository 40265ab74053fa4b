package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the merged configuration of flags, FEASIBILITY_* environment
// variables and the optional config file, in that order of precedence.
type Config struct {
	Policy   string         `mapstructure:"policy"`
	NoColor  bool           `mapstructure:"no-color"`
	Log      LogConfig      `mapstructure:"log"`
	Serve    ServeConfig    `mapstructure:"serve"`
	Simulate SimulateConfig `mapstructure:"simulate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServeConfig struct {
	Addr        string `mapstructure:"addr"`
	MaxWorkload int64  `mapstructure:"max-workload"`
}

type SimulateConfig struct {
	MaxHorizon int64 `mapstructure:"max-horizon"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.max-workload", 10_000_000)
	v.SetDefault("simulate.max-horizon", 1_000_000)

	v.SetEnvPrefix("FEASIBILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads path (if any) into v and decodes the result.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
