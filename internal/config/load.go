package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. KERNBENCH_RUNS.
const EnvPrefix = "KERNBENCH"

// Load initializes the configuration from .env, an optional config file and
// environment variables. Without cfgFile a config.yaml in the working
// directory is used when present. No config file is ever written.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	return nil
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("runs", 5)
	viper.SetDefault("warmup", 0)
	viper.SetDefault("mode", "stdev")
	viper.SetDefault("trial_timeout", "10m")
	viper.SetDefault("threads", 1)
	viper.SetDefault("tuning.scale", 1.0)
	viper.SetDefault("history.type", "")
	viper.SetDefault("history.dsn", "")
	viper.SetDefault("metrics.textfile", "")
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("threshold", 10.0)
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_file", "")
	viper.SetDefault("log_format", "json")
}
