package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/spf13/viper"

	"kernbench/internal/benchmark"
	"kernbench/internal/db"
	"kernbench/internal/telemetry"
	"kernbench/internal/workload"
)

// ValidateConfig validates configuration values and returns an error listing
// every invalid one. Call it after Load.
func ValidateConfig() error {
	var errors []string

	if viper.IsSet("runs") {
		if runs := viper.GetInt("runs"); runs <= 0 {
			errors = append(errors, fmt.Sprintf("runs must be positive, got: %d", runs))
		}
	}

	if viper.IsSet("warmup") {
		if warmup := viper.GetInt("warmup"); warmup < 0 {
			errors = append(errors, fmt.Sprintf("warmup must not be negative, got: %d", warmup))
		}
	}

	if viper.IsSet("threads") {
		if threads := viper.GetInt("threads"); threads <= 0 {
			errors = append(errors, fmt.Sprintf("threads must be positive, got: %d", threads))
		}
	}

	if _, err := benchmark.ParseMode(viper.GetString("mode")); err != nil {
		errors = append(errors, err.Error())
	}

	if d, err := duration("trial_timeout"); err != nil {
		errors = append(errors, err.Error())
	} else if d < 0 {
		errors = append(errors, fmt.Sprintf("trial_timeout must not be negative, got: %v", d))
	}

	if viper.IsSet("threshold") {
		if th := viper.GetFloat64("threshold"); th < 0 {
			errors = append(errors, fmt.Sprintf("threshold must not be negative, got: %v", th))
		}
	}

	tables, err := tuningTables()
	if err != nil {
		errors = append(errors, err.Error())
	} else if _, err := workload.NewTuning(viper.GetFloat64("tuning.scale"), tables); err != nil {
		errors = append(errors, err.Error())
	}

	switch t := viper.GetString("history.type"); t {
	case "", db.KindSQLite, db.KindPostgres:
	default:
		errors = append(errors, fmt.Sprintf("history.type must be sqlite or postgres, got: %q", t))
	}
	if viper.GetString("history.type") == "postgres" && viper.GetString("history.dsn") == "" {
		errors = append(errors, "history.dsn is required for the postgres history store")
	}

	if addr := viper.GetString("metrics_addr"); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errors = append(errors, fmt.Sprintf("metrics_addr must be host:port, got: %q", addr))
		}
	}

	if _, err := telemetry.ParseLogFormat(viper.GetString("log_format")); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(errors, "\n  "))
	}
	return nil
}
